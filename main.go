package main

import (
	"runtime/debug"

	"github.com/marcus/onboard/cmd"
)

// Version is injected by release builds: -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

// resolveVersion prefers an injected version, then the module version
// recorded by `go install`, then the VCS revision of a local build.
func resolveVersion(injected string) string {
	if injected != "" && injected != "dev" {
		return injected
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return injected
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return devVersion(info.Settings, injected)
}

// devVersion builds "devel+<rev>[+dirty]" from build settings.
func devVersion(settings []debug.BuildSetting, fallback string) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return fallback
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "devel+" + rev
	if dirty {
		v += "+dirty"
	}
	return v
}

func main() {
	cmd.SetVersion(resolveVersion(Version))
	cmd.Execute()
}
