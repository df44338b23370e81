package cmd

import (
	"strings"

	"github.com/marcus/onboard/internal/output"
	"github.com/spf13/cobra"
)

var nameCmd = &cobra.Command{
	Use:     "name <name>",
	Short:   "Set your display name",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		if err := p.store.SetUserName(strings.Join(args, " ")); err != nil {
			return err
		}
		output.Success("你好，%s", p.store.State().UserName)
		p.warnLocalOnly()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nameCmd)
}
