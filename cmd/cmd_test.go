package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/marcus/onboard/internal/config"
	"github.com/marcus/onboard/internal/db"
	"github.com/marcus/onboard/internal/features"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/store"
	"github.com/marcus/onboard/internal/syncclient"
	"github.com/marcus/onboard/internal/workdir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolate points every onboard path and setting at temp dirs and returns
// the data dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(workdir.HomeEnv, home)
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv(config.EnvAPIBase, "")
	t.Setenv(config.EnvSync, "false")
	t.Setenv(config.EnvOffline, "")
	t.Setenv(config.EnvPlatform, "")
	t.Setenv(config.EnvSyncDebounce, "10s")
	t.Setenv(config.EnvSyncTimeout, "2s")
	t.Setenv(config.EnvSessionCookie, "")
	t.Setenv(config.EnvToken, "")
	t.Setenv("ONBOARD_DISABLE_FEATURES", "")
	t.Setenv("ONBOARD_ENABLE_FEATURES", "")
	return home
}

// resetFlags restores every flag to its default so runs do not leak
// into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func readItems(t *testing.T, home string) []models.Item {
	t.Helper()
	database, err := db.Open(home)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()
	items, _ := db.Read[[]models.Item](database, store.KeyAccountItems)
	return items
}

func itemDone(items []models.Item, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return it.Done
		}
	}
	return false
}

// progressServer is a fake progress API recording PUT bodies
type progressServer struct {
	mu     sync.Mutex
	remote *models.Snapshot
	puts   []models.Snapshot
}

func (p *progressServer) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != syncclient.ProgressPath {
		http.NotFound(w, r)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		if p.remote == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(p.remote)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		var snap models.Snapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.puts = append(p.puts, snap)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (p *progressServer) putCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.puts)
}

func (p *progressServer) put(i int) models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.puts[i]
}

func startServer(t *testing.T) *progressServer {
	t.Helper()
	ps := &progressServer{}
	srv := httptest.NewServer(http.HandlerFunc(ps.handler))
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvAPIBase, srv.URL)
	t.Setenv(config.EnvSync, "true")
	return ps
}

func TestToggleLocalOnly(t *testing.T) {
	home := isolate(t)

	if err := run(t, "toggle", "vpn"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !itemDone(readItems(t, home), "vpn") {
		t.Fatal("vpn should be done after toggle")
	}
	if err := run(t, "toggle", "vpn"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if itemDone(readItems(t, home), "vpn") {
		t.Fatal("vpn should be open after second toggle")
	}
}

func TestToggleUnknownItem(t *testing.T) {
	isolate(t)
	err := run(t, "toggle", "nope")
	if !errors.Is(err, store.ErrUnknownItem) {
		t.Fatalf("err = %v, want ErrUnknownItem", err)
	}
	err = run(t, "toggle", "figm")
	if err == nil || !strings.Contains(err.Error(), "did you mean figma") {
		t.Fatalf("err = %v, want a suggestion", err)
	}
}

func TestNameValidation(t *testing.T) {
	home := isolate(t)

	if err := run(t, "name", "   "); !errors.Is(err, store.ErrInvalidName) {
		t.Fatalf("blank name: err = %v", err)
	}
	if err := run(t, "name", "Ada", "Lovelace"); err != nil {
		t.Fatalf("name: %v", err)
	}

	database, err := db.Open(home)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if got, _ := db.Read[string](database, store.KeyUserName); got != "Ada Lovelace" {
		t.Errorf("stored name = %q", got)
	}
}

func TestReadAndUnset(t *testing.T) {
	home := isolate(t)

	if err := run(t, "read", "env", "--platform", "ios"); err != nil {
		t.Fatalf("read: %v", err)
	}
	database, err := db.Open(home)
	if err != nil {
		t.Fatal(err)
	}
	m, _ := db.Read[models.ReadMap](database, store.KeyDevRead)
	database.Close()
	if !m["ios_env"] || m["pc_env"] {
		t.Fatalf("dev read map = %v", m)
	}

	if err := run(t, "read", "ios_env", "--unset"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	database, err = db.Open(home)
	if err != nil {
		t.Fatal(err)
	}
	m, _ = db.Read[models.ReadMap](database, store.KeyDevRead)
	database.Close()
	if m["ios_env"] {
		t.Errorf("ios_env should be unset: %v", m)
	}
}

func TestBadPlatformFlag(t *testing.T) {
	isolate(t)
	if err := run(t, "status", "--platform", "amiga"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	home := isolate(t)

	if err := run(t, "toggle", "gitlab"); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "reset"); err != nil {
		t.Fatalf("reset without --yes: %v", err)
	}
	if !itemDone(readItems(t, home), "gitlab") {
		t.Fatal("reset without --yes must not change progress")
	}
	if err := run(t, "reset", "--yes"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if itemDone(readItems(t, home), "gitlab") {
		t.Fatal("gitlab should be open after reset")
	}
}

func TestMutationPushedToServer(t *testing.T) {
	home := isolate(t)
	ps := startServer(t)

	if err := run(t, "toggle", "figma"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if ps.putCount() != 1 {
		t.Fatalf("puts = %d, want 1", ps.putCount())
	}
	put := ps.put(0)
	if !itemDone(put.AccountItems, "figma") {
		t.Errorf("pushed snapshot missing change: %+v", put.AccountItems)
	}
	if put.UpdatedAt == 0 {
		t.Error("pushed snapshot should be stamped")
	}
	if !itemDone(readItems(t, home), "figma") {
		t.Error("change should also be saved locally")
	}
}

func TestSyncPullAppliesNewerRemote(t *testing.T) {
	home := isolate(t)
	ps := startServer(t)

	items := []models.Item{{ID: "corp-email", Done: true}, {ID: "wechat", Done: true}}
	ps.remote = &models.Snapshot{
		UserName:     "Grace",
		AccountItems: items,
		UpdatedAt:    models.Timestamp(1772353800123),
	}

	if err := run(t, "sync", "--pull"); err != nil {
		t.Fatalf("sync --pull: %v", err)
	}
	if !itemDone(readItems(t, home), "wechat") {
		t.Error("remote progress should be applied locally")
	}
	if ps.putCount() != 0 {
		t.Errorf("applying remote must not echo a save, got %d puts", ps.putCount())
	}
}

func TestSyncPushesLocal(t *testing.T) {
	isolate(t)
	ps := startServer(t)

	if err := run(t, "sync"); err != nil {
		t.Fatalf("sync on a fresh install: %v", err)
	}
	if ps.putCount() != 0 {
		t.Fatalf("fresh install pushed %d times", ps.putCount())
	}

	if err := run(t, "name", "Ada"); err != nil {
		t.Fatal(err)
	}
	before := ps.putCount()
	if err := run(t, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if ps.putCount() != before+1 {
		t.Fatalf("puts = %d, want %d", ps.putCount(), before+1)
	}
}

func TestSyncDisabledAndOffline(t *testing.T) {
	isolate(t)
	if err := run(t, "sync"); !errors.Is(err, store.ErrNoRemote) {
		t.Errorf("disabled: err = %v, want ErrNoRemote", err)
	}

	startServer(t)
	t.Setenv(config.EnvOffline, "1")
	if err := run(t, "sync"); !errors.Is(err, store.ErrOffline) {
		t.Errorf("offline: err = %v, want ErrOffline", err)
	}
}

func TestSyncReportsServerError(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	t.Setenv(config.EnvAPIBase, srv.URL)
	t.Setenv(config.EnvSync, "true")

	if err := run(t, "sync"); err == nil {
		t.Fatal("expected pull error")
	}
	// mutations still succeed locally
	if err := run(t, "toggle", "itask"); err != nil {
		t.Fatalf("toggle with failing server: %v", err)
	}
}

func TestStatusJSONAndGuide(t *testing.T) {
	isolate(t)
	if err := run(t, "status", "--json"); err != nil {
		t.Fatalf("status --json: %v", err)
	}
	if err := run(t, "next"); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := run(t, "guide", "vpn", "--raw"); err != nil {
		t.Fatalf("guide: %v", err)
	}
	if err := run(t, "guide", "nope"); err == nil {
		t.Fatal("unknown guide topic should fail")
	}
}

func TestWelcomeWithNameFlag(t *testing.T) {
	home := isolate(t)
	if err := run(t, "welcome", "--name", "Linus"); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	database, err := db.Open(home)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if got, _ := db.Read[string](database, store.KeyUserName); got != "Linus" {
		t.Errorf("name = %q", got)
	}
}

func TestConfigSetGet(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvSync, "")

	if err := run(t, "config", "set", "sync.debounce", "250ms"); err != nil {
		t.Fatalf("set: %v", err)
	}
	t.Setenv(config.EnvSyncDebounce, "")
	if got := effectiveConfigValue("sync.debounce"); got != "250ms" {
		t.Errorf("debounce = %q", got)
	}

	if err := run(t, "config", "set", "sync.enabled", "off"); err != nil {
		t.Fatal(err)
	}
	if config.SyncEnabled() {
		t.Error("sync should be disabled")
	}
	if err := run(t, "config", "set", "sync.enabled", ""); err != nil {
		t.Fatal(err)
	}
	if !config.SyncEnabled() {
		t.Error("empty value should restore the default")
	}

	if err := run(t, "config", "set", "nope", "1"); err == nil {
		t.Error("unknown key accepted")
	}
	if err := run(t, "config", "set", "sync.timeout", "0s"); err == nil {
		t.Error("zero timeout accepted")
	}
	if err := run(t, "config", "set", "display.theme", "neon"); err == nil {
		t.Error("bad theme accepted")
	}
}

func TestConfigFeatureFlag(t *testing.T) {
	isolate(t)
	if err := run(t, "config", "feature", "remote_sync", "false"); err != nil {
		t.Fatalf("feature: %v", err)
	}
	if enabled, source := features.Resolve("remote_sync"); enabled || source != "config" {
		t.Errorf("remote_sync = %v from %s", enabled, source)
	}
	if err := run(t, "config", "feature", "remote_sync", "default"); err != nil {
		t.Fatal(err)
	}
	if _, source := features.Resolve("remote_sync"); source != "default" {
		t.Errorf("source = %s after reset", source)
	}
	if err := run(t, "config", "feature", "warp_drive", "true"); err == nil {
		t.Error("unknown feature accepted")
	}
}
