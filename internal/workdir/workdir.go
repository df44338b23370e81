// Package workdir resolves the onboard data directory, supporting shared
// progress via .onboard-root redirect files.
package workdir

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the data directory outright.
const HomeEnv = "ONBOARD_HOME"

const rootFile = ".onboard-root"

// ResolveDataDir returns the directory holding the progress database.
// Priority: ONBOARD_HOME > .onboard-root in cwd > ~/.local/share/onboard.
func ResolveDataDir(cwd string) string {
	if v := strings.TrimSpace(os.Getenv(HomeEnv)); v != "" {
		return v
	}
	if cwd != "" {
		if dir, ok := readRootFile(cwd); ok {
			return dir
		}
	}
	return defaultDataDir()
}

// readRootFile reads a .onboard-root file in dir. The file holds a path,
// relative paths resolve against dir.
func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	resolved := strings.TrimSpace(string(content))
	if resolved == "" {
		return "", false
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}
	return filepath.Clean(resolved), true
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "onboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "onboard")
	}
	return filepath.Join(home, ".local", "share", "onboard")
}
