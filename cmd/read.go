package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/output"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <flag>",
	Short: "Mark a guide section as read",
	Long: `Mark a guide section as read (or unread with --unset).

A flag is a dev topic for the current platform (env, flow, branch, commit, pre),
an explicit dev flag such as ios_env, or one of tools, workflow.`,
	GroupID: "guide",
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return readArgs(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		key, err := resolveReadKey(args[0], p.store.Platform())
		if err != nil {
			return err
		}
		unset, _ := cmd.Flags().GetBool("unset")
		if err := p.store.SetReadFlag(key, !unset); err != nil {
			return err
		}
		if unset {
			output.Info("○ %s unread", key)
		} else {
			output.Success("✓ %s read", key)
		}
		p.warnLocalOnly()
		return nil
	},
}

// resolveReadKey maps a user argument to a read flag. Bare dev topics are
// prefixed for platform.
func resolveReadKey(arg string, platform models.Platform) (string, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if checklist.IsGuideReadKey(arg) || checklist.IsDevReadKey(arg) {
		return arg, nil
	}
	for _, topic := range checklist.DevTopics() {
		if arg == topic {
			return checklist.DevReadKey(platform, topic), nil
		}
	}
	if hint := didYouMean(arg, readArgs()); hint != "" {
		return "", fmt.Errorf("unknown read flag %q%s", arg, hint)
	}
	return "", fmt.Errorf("unknown read flag %q (try: %s, %s)", arg,
		strings.Join(checklist.DevTopics(), ", "), strings.Join(checklist.GuideReadKeys(), ", "))
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("unset", false, "Mark as unread")
}
