// Package device classifies the runtime environment into a platform
// category. Classification is pure and has no side effects.
package device

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/marcus/onboard/internal/models"
)

// UserAgentEnv lets a wrapper (a webview shell, a test) pass a browser
// user agent through to the classifier.
const UserAgentEnv = "ONBOARD_USER_AGENT"

// Signals are the platform hints the classifier looks at
type Signals struct {
	UserAgent      string
	GOOS           string
	HasTouchEnd    bool
	MaxTouchPoints int
}

// Classify maps signals to a platform. iPadOS reports a desktop Mac user
// agent, so a "mac" agent with multi-touch support also counts as iOS.
// Anything unrecognized is PC.
func Classify(s Signals) models.Platform {
	ua := strings.ToLower(s.UserAgent)
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return models.PlatformIOS
	case strings.Contains(ua, "mac") && s.HasTouchEnd && s.MaxTouchPoints > 1:
		return models.PlatformIOS
	case strings.Contains(ua, "android"):
		return models.PlatformAndroid
	}

	switch s.GOOS {
	case "ios":
		return models.PlatformIOS
	case "android":
		return models.PlatformAndroid
	}
	return models.PlatformPC
}

// CurrentSignals reads signals from the process environment.
func CurrentSignals() Signals {
	return Signals{
		UserAgent: os.Getenv(UserAgentEnv),
		GOOS:      runtime.GOOS,
	}
}

var detectOnce = sync.OnceValue(func() models.Platform {
	return Classify(CurrentSignals())
})

// Detect returns the platform of this process. The result is computed once
// per process; it does not change during a session.
func Detect() models.Platform {
	return detectOnce()
}

// ParsePlatform parses a user supplied platform name, case-insensitively.
func ParsePlatform(s string) (models.Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "desktop":
		return models.PlatformPC, true
	case "ios", "iphone", "ipad":
		return models.PlatformIOS, true
	case "android":
		return models.PlatformAndroid, true
	}
	return "", false
}
