package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/config"
	"github.com/marcus/onboard/internal/guide"
	"github.com/marcus/onboard/internal/output"
	"github.com/spf13/cobra"
)

var guideCmd = &cobra.Command{
	Use:   "guide [topic]",
	Short: "Show setup steps, links and tips",
	Long: `Show reference material for a section (accounts, dev, tools, workflow) or for
one account item (vpn, gitlab, ...). Reading a guide does not mark it read;
use 'onboard read' for that.`,
	GroupID: "guide",
	Args:    cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		c, err := guide.Default()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return c.Topics(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := guide.Default()
		if err != nil {
			return err
		}

		if list, _ := cmd.Flags().GetBool("list"); list {
			writeTopics(os.Stdout, c)
			return nil
		}

		platform, err := resolvePlatform(cmd)
		if err != nil {
			return err
		}
		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}
		md, err := c.Render(topic, platform)
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Print(md)
			return nil
		}
		rendered, err := renderGuide(md)
		if err != nil {
			// fall back to the plain markdown
			fmt.Print(md)
			return nil
		}
		fmt.Println(rendered)
		return nil
	},
}

// writeTopics lists guide topics grouped into sections and account items.
func writeTopics(w io.Writer, c *guide.Content) {
	fmt.Fprint(w, strings.TrimPrefix(output.SectionHeader("sections"), "\n"))
	sections := []string{checklist.SectionAccounts, checklist.SectionDev, checklist.SectionTools, checklist.SectionWorkflow}
	for _, line := range output.BulletList(sections, 2) {
		fmt.Fprintln(w, line)
	}

	fmt.Fprint(w, output.SectionHeader("accounts"))
	var accounts []string
	for _, a := range c.Accounts {
		accounts = append(accounts, fmt.Sprintf("%-12s %s", a.ID, a.Purpose))
	}
	for _, line := range output.BulletList(accounts, 2) {
		fmt.Fprintln(w, line)
	}
}

// renderGuide renders markdown with the configured theme and width
func renderGuide(md string) (string, error) {
	width := config.Width()
	if width <= 0 {
		width = output.TerminalWidth(80)
	}
	return output.RenderMarkdownWithStyle(md, width, config.Theme())
}

func init() {
	rootCmd.AddCommand(guideCmd)
	guideCmd.Flags().Bool("raw", false, "Print markdown without rendering")
	guideCmd.Flags().Bool("list", false, "List guide topics")
}
