package features

import (
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/marcus/onboard/internal/config"
)

// Feature describes a named feature flag.
type Feature struct {
	Name        string
	Default     bool
	Description string
}

var (
	// RemoteSync gates hydration from and saves to the progress API.
	RemoteSync = Feature{
		Name:        "remote_sync",
		Default:     true,
		Description: "Hydrate from and push progress to the remote API",
	}

	// PushOnStart pushes local progress after hydration when it is newer
	// than the remote copy.
	PushOnStart = Feature{
		Name:        "push_on_start",
		Default:     true,
		Description: "Push newer local progress right after hydration",
	}
)

var allFeatures = []Feature{
	PushOnStart,
	RemoteSync,
}

// Source names where a resolved flag value came from.
const (
	SourceEnv     = "env"
	SourceConfig  = "config"
	SourceDefault = "default"
)

func lookup(name string) (Feature, bool) {
	for _, f := range allFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// ListAll returns all known features sorted by name.
func ListAll() []Feature {
	items := append([]Feature(nil), allFeatures...)
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func IsKnownFeature(name string) bool {
	_, ok := lookup(Normalize(name))
	return ok
}

// IsEnabled resolves a feature using env overrides, then config, then defaults.
func IsEnabled(name string) bool {
	enabled, _ := Resolve(name)
	return enabled
}

// Resolve returns the flag value and its source. Unknown flags are off.
func Resolve(name string) (bool, string) {
	name = Normalize(name)
	if enabled, ok := envOverride(name); ok {
		return enabled, SourceEnv
	}
	if cfg, err := config.Load(); err == nil {
		if enabled, ok := cfg.FeatureFlags[name]; ok {
			return enabled, SourceConfig
		}
	}
	f, _ := lookup(name)
	return f.Default, SourceDefault
}

// Normalize returns the canonical form of a feature name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// envOverride checks ONBOARD_FEATURE_<NAME>, then the comma lists in
// ONBOARD_DISABLE_FEATURES and ONBOARD_ENABLE_FEATURES.
func envOverride(name string) (enabled, ok bool) {
	if v := os.Getenv("ONBOARD_FEATURE_" + envKey(name)); v != "" {
		if b, err := config.ParseBool(v); err == nil {
			return b, true
		}
	}
	if listed(os.Getenv("ONBOARD_DISABLE_FEATURES"), name) {
		return false, true
	}
	if listed(os.Getenv("ONBOARD_ENABLE_FEATURES"), name) {
		return true, true
	}
	return false, false
}

func envKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

func listed(raw, name string) bool {
	for _, item := range strings.Split(raw, ",") {
		if Normalize(item) == name {
			return true
		}
	}
	return false
}
