package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/onboard/internal/config"
	"github.com/marcus/onboard/internal/device"
	"github.com/marcus/onboard/internal/features"
	"github.com/marcus/onboard/internal/output"
	"github.com/spf13/cobra"
)

// validConfigKeys lists the supported config keys for set/get.
var validConfigKeys = []string{
	"sync.url",
	"sync.enabled",
	"sync.debounce",
	"sync.timeout",
	"sync.session_cookie",
	"sync.token",
	"offline",
	"platform",
	"display.theme",
	"display.width",
}

func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }

// applyConfigValue validates val and stores it under key in cfg.
// An empty value clears the key back to its default.
func applyConfigValue(cfg *config.Config, key, val string) error {
	if val == "" {
		return clearConfigValue(cfg, key)
	}
	switch key {
	case "sync.url":
		cfg.Sync.URL = strings.TrimRight(val, "/")
	case "sync.enabled":
		b, err := config.ParseBool(val)
		if err != nil {
			return err
		}
		cfg.Sync.Enabled = boolPtr(b)
	case "sync.debounce", "sync.timeout":
		d, err := time.ParseDuration(val)
		if err != nil || d < 0 || (key == "sync.timeout" && d == 0) {
			return fmt.Errorf("invalid duration %q for %s", val, key)
		}
		if key == "sync.debounce" {
			cfg.Sync.Debounce = val
		} else {
			cfg.Sync.Timeout = val
		}
	case "sync.session_cookie":
		cfg.Sync.SessionCookie = val
	case "sync.token":
		cfg.Sync.Token = val
	case "offline":
		b, err := config.ParseBool(val)
		if err != nil {
			return err
		}
		cfg.Offline = boolPtr(b)
	case "platform":
		p, ok := device.ParsePlatform(val)
		if !ok {
			return fmt.Errorf("unknown platform %q (use pc, ios or android)", val)
		}
		cfg.Platform = string(p)
	case "display.theme":
		switch strings.ToLower(val) {
		case config.ThemeLight, config.ThemeDark, config.ThemeSystem:
			cfg.Display.Theme = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid theme %q (use light, dark or system)", val)
		}
	case "display.width":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid width %q", val)
		}
		cfg.Display.Width = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "sync.url":
		cfg.Sync.URL = ""
	case "sync.enabled":
		cfg.Sync.Enabled = nil
	case "sync.debounce":
		cfg.Sync.Debounce = ""
	case "sync.timeout":
		cfg.Sync.Timeout = ""
	case "sync.session_cookie":
		cfg.Sync.SessionCookie = ""
	case "sync.token":
		cfg.Sync.Token = ""
	case "offline":
		cfg.Offline = nil
	case "platform":
		cfg.Platform = ""
	case "display.theme":
		cfg.Display.Theme = ""
	case "display.width":
		cfg.Display.Width = 0
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// effectiveConfigValue returns the resolved value of key after env and
// defaults are applied. Secrets are masked.
func effectiveConfigValue(key string) string {
	switch key {
	case "sync.url":
		return config.ServerURL()
	case "sync.enabled":
		return strconv.FormatBool(config.SyncEnabled())
	case "sync.debounce":
		return config.Debounce().String()
	case "sync.timeout":
		return config.Timeout().String()
	case "sync.session_cookie":
		return mask(config.SessionCookie())
	case "sync.token":
		return mask(config.Token())
	case "offline":
		return strconv.FormatBool(config.Offline())
	case "platform":
		if v := config.Platform(); v != "" {
			return v
		}
		return string(device.Detect()) + " (detected)"
	case "display.theme":
		return config.Theme()
	case "display.width":
		if w := config.Width(); w > 0 {
			return strconv.Itoa(w)
		}
		return "0 (terminal)"
	}
	return ""
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage onboard configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (empty value restores the default)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		if !isValidConfigKey(key) {
			return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(validConfigKeys, ", "))
		}

		if err := config.Update(func(cfg *config.Config) error {
			return applyConfigValue(cfg, key, val)
		}); err != nil {
			return err
		}

		if val == "" {
			output.Success("reset %s", key)
		} else {
			output.Success("set %s = %s", key, val)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get the effective value of a config key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !isValidConfigKey(key) {
			return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(validConfigKeys, ", "))
		}
		fmt.Println(effectiveConfigValue(key))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, key := range validConfigKeys {
			fmt.Printf("%-20s %s\n", key, effectiveConfigValue(key))
		}
		return nil
	},
}

var configFeaturesCmd = &cobra.Command{
	Use:   "features",
	Short: "List feature flags and where their values come from",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, f := range features.ListAll() {
			enabled, source := features.Resolve(f.Name)
			fmt.Printf("%-16s %-5t %-8s %s\n", f.Name, enabled, source, output.Subtle(f.Description))
		}
		return nil
	},
}

var configFeatureSetCmd = &cobra.Command{
	Use:   "feature <name> <true|false|default>",
	Short: "Enable or disable a feature flag in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := features.Normalize(args[0])
		if !features.IsKnownFeature(name) {
			return fmt.Errorf("unknown feature: %s", args[0])
		}
		return config.Update(func(cfg *config.Config) error {
			if args[1] == "default" {
				delete(cfg.FeatureFlags, name)
				return nil
			}
			b, err := config.ParseBool(args[1])
			if err != nil {
				return err
			}
			if cfg.FeatureFlags == nil {
				cfg.FeatureFlags = map[string]bool{}
			}
			cfg.FeatureFlags[name] = b
			return nil
		})
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configFeaturesCmd)
	configCmd.AddCommand(configFeatureSetCmd)
	configListCmd.Flags().Bool("raw", false, "Print the config file as stored")
	rootCmd.AddCommand(configCmd)
}
