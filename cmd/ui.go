package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/onboard/internal/tui/monitor"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"monitor"},
	Short:   "Interactive checklist with live sync status",
	Long: `Launch the interactive checklist. Changes are saved locally at once and
pushed to the server in the background.

Key bindings:
  ↑/↓, j/k         Move
  Tab/Shift+Tab    Next/previous section
  Space, x, Enter  Toggle the item (or mark its guide read)
  n                Change your name
  ?                Toggle help
  q                Quit`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 250*time.Millisecond {
			interval = time.Second
		}

		model := monitor.NewModel(p.store, interval)
		defer model.Close()

		prog := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("error running ui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().Duration("interval", time.Second, "Sync status refresh interval")
}
