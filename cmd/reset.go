package cmd

import (
	"github.com/marcus/onboard/internal/output"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Reset all progress to the defaults",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			output.Warning("this clears your name and every checklist item; rerun with --yes")
			return nil
		}

		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		if err := p.store.Reset(); err != nil {
			return err
		}
		output.Success("progress reset")
		p.warnLocalOnly()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolP("yes", "y", false, "Confirm the reset")
}
