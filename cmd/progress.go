package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/onboard/internal/config"
	"github.com/marcus/onboard/internal/db"
	"github.com/marcus/onboard/internal/device"
	"github.com/marcus/onboard/internal/features"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/marcus/onboard/internal/syncclient"
	"github.com/marcus/onboard/internal/workdir"
	"github.com/spf13/cobra"
)

// progress is an open store plus the database behind it.
type progress struct {
	db    *db.DB
	store *store.Store
}

// openProgress opens the local database, builds the remote client when
// sync is enabled and starts hydration. It waits up to the sync timeout
// for hydration; on timeout the command continues against local state.
func openProgress(cmd *cobra.Command) (*progress, error) {
	platform, err := resolvePlatform(cmd)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(workdir.ResolveDataDir(getBaseDir()))
	if err != nil {
		return nil, err
	}

	s := store.New(database, newRemote(), store.Options{
		Debounce:    config.Debounce(),
		Timeout:     config.Timeout(),
		Platform:    platform,
		PushOnStart: features.IsEnabled(features.PushOnStart.Name),
	})
	s.Start()

	ctx, cancel := syncContext(cmd)
	defer cancel()
	if err := s.WaitHydrated(ctx); err != nil {
		slog.Debug("cmd: hydration wait", "err", err)
	}

	return &progress{db: database, store: s}, nil
}

// newRemote returns the progress API client, or nil when sync is off.
// A nil *syncclient.Client must not reach the store as a non-nil interface.
func newRemote() store.Remote {
	if !config.SyncEnabled() || !features.IsEnabled(features.RemoteSync.Name) {
		return nil
	}
	return syncclient.New(config.ServerURL(),
		syncclient.WithTimeout(config.Timeout()),
		syncclient.WithToken(config.Token()),
		syncclient.WithSessionCookie(config.SessionCookie()),
		syncclient.WithConnectivity(func() bool { return !config.Offline() }),
	)
}

// finish sends any pending save and closes everything. Sync failures are
// logged, not returned: the change is already saved locally.
func (p *progress) finish(cmd *cobra.Command) {
	ctx, cancel := syncContext(cmd)
	defer cancel()
	if err := p.store.Flush(ctx); err != nil && !errors.Is(err, store.ErrOffline) {
		slog.Debug("cmd: flush", "err", err)
	}
	p.close()
}

// warnLocalOnly tells the user an edit was made before hydration finished.
func (p *progress) warnLocalOnly() {
	if msg := hydrationWarning(p.store.Status()); msg != "" {
		output.Warning("%s", msg)
	}
}

func (p *progress) close() {
	p.store.Close()
	if err := p.db.Close(); err != nil {
		slog.Debug("cmd: close db", "err", err)
	}
}

// resolvePlatform picks the dev guide platform: --platform flag, then
// config/env, then device detection.
func resolvePlatform(cmd *cobra.Command) (models.Platform, error) {
	if v, _ := cmd.Flags().GetString("platform"); v != "" {
		p, ok := device.ParsePlatform(v)
		if !ok {
			return "", fmt.Errorf("unknown platform %q (use pc, ios or android)", v)
		}
		return p, nil
	}
	if v := config.Platform(); v != "" {
		if p, ok := device.ParsePlatform(v); ok {
			return p, nil
		}
		slog.Warn("ignoring unknown platform in config", "platform", v)
	}
	return device.Detect(), nil
}

// syncContext bounds one remote call by the sync timeout.
func syncContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(commandContext(cmd), config.Timeout())
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
