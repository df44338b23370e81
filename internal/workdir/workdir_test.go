package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func assertSamePath(t *testing.T, want, got string) {
	t.Helper()
	if filepath.Clean(want) != filepath.Clean(got) {
		t.Fatalf("path mismatch: got %q, want %q", got, want)
	}
}

func TestResolveDataDir_HomeEnvWins(t *testing.T) {
	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, rootFile), []byte("/elsewhere"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}
	home := filepath.Join(t.TempDir(), "data")
	t.Setenv(HomeEnv, home)

	assertSamePath(t, home, ResolveDataDir(cwd))
}

func TestResolveDataDir_FollowsRootFile(t *testing.T) {
	t.Setenv(HomeEnv, "")
	cwd := t.TempDir()
	shared := filepath.Join(t.TempDir(), "shared")
	if err := os.WriteFile(filepath.Join(cwd, rootFile), []byte(shared+"\n"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	assertSamePath(t, shared, ResolveDataDir(cwd))
}

func TestResolveDataDir_RelativeRootFile(t *testing.T) {
	t.Setenv(HomeEnv, "")
	parent := t.TempDir()
	cwd := filepath.Join(parent, "team")
	if err := os.MkdirAll(cwd, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cwd, rootFile), []byte("../shared"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	assertSamePath(t, filepath.Join(parent, "shared"), ResolveDataDir(cwd))
}

func TestResolveDataDir_EmptyRootFileIgnored(t *testing.T) {
	t.Setenv(HomeEnv, "")
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)
	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, rootFile), []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	assertSamePath(t, filepath.Join(xdg, "onboard"), ResolveDataDir(cwd))
}

func TestResolveDataDir_DefaultUnderHome(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_DATA_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	assertSamePath(t, filepath.Join(home, ".local", "share", "onboard"), ResolveDataDir(""))
}
