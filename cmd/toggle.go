package cmd

import (
	"errors"
	"fmt"

	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:     "toggle <item-id>",
	Aliases: []string{"done"},
	Short:   "Toggle an account registration item",
	Long: `Toggle an item of the account registration checklist between done and open.

Item ids: corp-email, vpn, aicoin, itask, gitlab, figma, wechat.
Dev, tools and workflow items follow their guides; use 'onboard read'.`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return accountItemIDs(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		it, err := p.store.ToggleChecklistItem(args[0])
		switch {
		case errors.Is(err, store.ErrUnknownItem):
			if hint := didYouMean(args[0], accountItemIDs()); hint != "" {
				return fmt.Errorf("%w: %s%s", err, args[0], hint)
			}
			return fmt.Errorf("%w: %s (see 'onboard status')", err, args[0])
		case err != nil:
			return err
		}

		if it.Done {
			output.Success("✓ %s", it.Title)
		} else {
			output.Info("○ %s", it.Title)
		}
		p.warnLocalOnly()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
