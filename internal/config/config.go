// Package config resolves onboard settings from the environment, the global
// config file (~/.config/onboard/config.json) and built-in defaults, in that
// order of priority.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Environment overrides
const (
	EnvConfigDir     = "ONBOARD_CONFIG_DIR"
	EnvAPIBase       = "ONBOARD_API_BASE"
	EnvSync          = "ONBOARD_SYNC"
	EnvSyncDebounce  = "ONBOARD_SYNC_DEBOUNCE"
	EnvSyncTimeout   = "ONBOARD_SYNC_TIMEOUT"
	EnvSessionCookie = "ONBOARD_SESSION_COOKIE"
	EnvToken         = "ONBOARD_TOKEN"
	EnvOffline       = "ONBOARD_OFFLINE"
	EnvPlatform      = "ONBOARD_PLATFORM"
	EnvTheme         = "ONBOARD_THEME"
)

const (
	configFile = "config.json"
	lockFile   = "config.json.lock"

	defaultServerURL = "http://localhost:8080"
	defaultDebounce  = 600 * time.Millisecond
	defaultTimeout   = 5 * time.Second
	defaultTheme     = ThemeSystem
)

// Display themes for rendered guides
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// SyncConfig holds remote progress sync settings.
type SyncConfig struct {
	URL           string `json:"url,omitempty"`
	Enabled       *bool  `json:"enabled,omitempty"`  // nil = default true
	Debounce      string `json:"debounce,omitempty"` // duration string, default "600ms"
	Timeout       string `json:"timeout,omitempty"`  // duration string, default "5s"
	SessionCookie string `json:"session_cookie,omitempty"`
	Token         string `json:"token,omitempty"`
}

// DisplayConfig holds presentation preferences.
type DisplayConfig struct {
	Theme string `json:"theme,omitempty"` // light, dark, system
	Width int    `json:"width,omitempty"` // markdown wrap width, 0 = terminal width
}

// Config is the global onboard config.
type Config struct {
	Sync         SyncConfig      `json:"sync"`
	Display      DisplayConfig   `json:"display"`
	Offline      *bool           `json:"offline,omitempty"`
	Platform     string          `json:"platform,omitempty"`
	FeatureFlags map[string]bool `json:"feature_flags,omitempty"`
}

// Dir returns the config directory, creating it if necessary.
func Dir() (string, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "onboard")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file. A missing file yields an empty config.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	return &cfg, nil
}

// Save writes the config using an atomic temp file + rename.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, configFile))
}

// Update loads the config, applies fn and saves the result while holding
// the config lock.
func Update(fn func(*Config) error) error {
	return withConfigLock(func() error {
		cfg, err := Load()
		if err != nil {
			return err
		}
		if err := fn(cfg); err != nil {
			return err
		}
		return Save(cfg)
	})
}

// withConfigLock serializes read-modify-write cycles across processes.
func withConfigLock(fn func() error) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, lockFile), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer unlockFile(f)

	return fn()
}

// loadOrEmpty returns the config, or an empty one when it cannot be read.
// Getters degrade to defaults rather than fail.
func loadOrEmpty() *Config {
	cfg, err := Load()
	if err != nil {
		return &Config{}
	}
	return cfg
}

// ParseBool accepts true/false/1/0/yes/no/on/off.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool value %q (use true/false/1/0)", v)
}

// parseBoolEnv returns nil if env is unset or unparseable.
func parseBoolEnv(key string) *bool {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// ServerURL returns the progress API base URL.
// Priority: ONBOARD_API_BASE env > sync.url > default.
func ServerURL() string {
	if v := os.Getenv(EnvAPIBase); v != "" {
		return strings.TrimRight(v, "/")
	}
	if cfg := loadOrEmpty(); cfg.Sync.URL != "" {
		return strings.TrimRight(cfg.Sync.URL, "/")
	}
	return defaultServerURL
}

// SyncEnabled reports whether remote sync is enabled.
// Priority: ONBOARD_SYNC env > sync.enabled > true.
func SyncEnabled() bool {
	if v := parseBoolEnv(EnvSync); v != nil {
		return *v
	}
	if cfg := loadOrEmpty(); cfg.Sync.Enabled != nil {
		return *cfg.Sync.Enabled
	}
	return true
}

// Debounce returns the quiet period before an outbound save.
// Priority: ONBOARD_SYNC_DEBOUNCE env > sync.debounce > 600ms.
func Debounce() time.Duration {
	if d, ok := parseDuration(os.Getenv(EnvSyncDebounce)); ok {
		return d
	}
	if d, ok := parseDuration(loadOrEmpty().Sync.Debounce); ok {
		return d
	}
	return defaultDebounce
}

// Timeout returns the per-request timeout for remote calls.
// Priority: ONBOARD_SYNC_TIMEOUT env > sync.timeout > 5s.
func Timeout() time.Duration {
	if d, ok := parseDuration(os.Getenv(EnvSyncTimeout)); ok && d > 0 {
		return d
	}
	if d, ok := parseDuration(loadOrEmpty().Sync.Timeout); ok && d > 0 {
		return d
	}
	return defaultTimeout
}

// SessionCookie returns the session cookie sent with remote calls.
// Priority: ONBOARD_SESSION_COOKIE env > sync.session_cookie.
func SessionCookie() string {
	if v := os.Getenv(EnvSessionCookie); v != "" {
		return v
	}
	return loadOrEmpty().Sync.SessionCookie
}

// Token returns the bearer token sent with remote calls, if any.
// Priority: ONBOARD_TOKEN env > sync.token.
func Token() string {
	if v := os.Getenv(EnvToken); v != "" {
		return v
	}
	return loadOrEmpty().Sync.Token
}

// Offline reports whether the environment declares itself offline.
// Priority: ONBOARD_OFFLINE env > offline > false.
func Offline() bool {
	if v := parseBoolEnv(EnvOffline); v != nil {
		return *v
	}
	if cfg := loadOrEmpty(); cfg.Offline != nil {
		return *cfg.Offline
	}
	return false
}

// Platform returns an explicit platform override, or "" to auto-detect.
// Priority: ONBOARD_PLATFORM env > platform.
func Platform() string {
	if v := os.Getenv(EnvPlatform); v != "" {
		return v
	}
	return loadOrEmpty().Platform
}

// Theme returns the guide rendering theme.
// Priority: ONBOARD_THEME env > display.theme > system.
func Theme() string {
	for _, v := range []string{os.Getenv(EnvTheme), loadOrEmpty().Display.Theme} {
		switch strings.ToLower(v) {
		case ThemeLight, ThemeDark, ThemeSystem:
			return strings.ToLower(v)
		}
	}
	return defaultTheme
}

// Width returns the configured markdown wrap width, or 0 for terminal width.
func Width() int {
	if w := loadOrEmpty().Display.Width; w > 0 {
		return w
	}
	return 0
}
