package cmd

import (
	"errors"
	"fmt"

	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull progress from the server and push local progress now",
	Long: `Hydrate from the progress API and push the local snapshot immediately instead of
waiting for the background save. With --pull only the hydration step runs.

The newer copy wins: remote progress replaces local progress only when its
updatedAt is strictly later.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.close()

		if err := pullResult(p.store.Status()); err != nil {
			return err
		}

		ctx, cancel := syncContext(cmd)
		defer cancel()
		pull, _ := cmd.Flags().GetBool("pull")
		if !pull {
			err := p.store.Push(ctx)
			if errors.Is(err, store.ErrNoProgress) {
				output.Info("nothing to push yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
		} else if err := p.store.Flush(ctx); err != nil {
			// a catch-up push scheduled during hydration
			return fmt.Errorf("push: %w", err)
		}

		status := p.store.Status()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(status)
		}
		if pull {
			output.Success("pulled (updated %s)", output.FormatTimeAgo(status.UpdatedAt.Time()))
		} else {
			output.Success("synced (updated %s)", output.FormatTimeAgo(status.UpdatedAt.Time()))
		}
		return nil
	},
}

// pullResult turns the hydration outcome into an error for the sync command.
func pullResult(s store.Status) error {
	switch {
	case s.RemoteState == "disabled":
		return fmt.Errorf("%w (see 'onboard config set sync.enabled true')", store.ErrNoRemote)
	case s.Phase != store.PhaseHydrated:
		return fmt.Errorf("pull: %w", store.ErrNotHydrated)
	case s.RemoteState == "offline":
		return store.ErrOffline
	case s.RemoteState == "error":
		return errors.New("pull: " + s.LastError)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("pull", false, "Only pull; do not push local progress")
	syncCmd.Flags().Bool("json", false, "Output sync status as JSON")
}
