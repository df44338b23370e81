package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/spf13/cobra"
)

// sectionReport is one section in `status --json`
type sectionReport struct {
	models.Section
	Progress models.Progress `json:"progress"`
}

// statusReport is the `status --json` document
type statusReport struct {
	UserName  string             `json:"userName"`
	Role      models.Role        `json:"role"`
	Platform  models.Platform    `json:"platform"`
	Onboarded bool               `json:"onboarded"`
	Overall   models.Progress    `json:"overall"`
	Sections  []sectionReport    `json:"sections"`
	Next      *models.NextAction `json:"next"`
	Sync      store.Status       `json:"sync"`
	Warning   string             `json:"warning,omitempty"`
}

func buildStatusReport(s *store.Store) statusReport {
	st := s.State()
	sections := s.Sections()
	r := statusReport{
		UserName:  st.UserName,
		Role:      st.Role,
		Platform:  s.Platform(),
		Onboarded: checklist.IsOnboarded(st.UserName),
		Overall:   checklist.OverallProgress(sections),
		Next:      checklist.PickNextAction(sections),
		Sync:      s.Status(),
	}
	r.Warning = hydrationWarning(r.Sync)
	for _, sec := range sections {
		r.Sections = append(r.Sections, sectionReport{Section: sec, Progress: checklist.SectionProgress(sec)})
	}
	return r
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show progress per section, the next step and sync state",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		report := buildStatusReport(p.store)
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(report)
		}
		writeStatus(os.Stdout, report)
		return nil
	},
}

// writeStatus renders the dashboard
func writeStatus(w io.Writer, r statusReport) {
	fmt.Fprintf(w, "%s  %s\n", output.Title(r.UserName), output.Subtle(fmt.Sprintf("%s · %s", r.Role, r.Platform)))
	if !r.Onboarded {
		fmt.Fprintln(w, output.Subtle("Run `onboard welcome` to set your name."))
	}
	fmt.Fprintf(w, "\nOVERALL  %s  %d/%d %d%%\n", output.ProgressBar(r.Overall.Pct, 24), r.Overall.Done, r.Overall.Total, r.Overall.Pct)

	for _, sec := range r.Sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, output.FormatSectionHeader(sec.Section, sec.Progress))
		for _, it := range sec.Items {
			fmt.Fprintln(w, output.FormatItem(it))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.FormatNextAction(r.Next))
	fmt.Fprintln(w, output.Subtle(formatSync(r.Sync)))
	if r.Warning != "" {
		fmt.Fprintln(w, output.WarningString(r.Warning))
	}
}

// hydrationWarning is set while the remote fetch has not finished. Edits
// made then are saved locally but neither stamped nor pushed until a later
// run hydrates.
func hydrationWarning(s store.Status) string {
	if s.Phase == store.PhaseHydrated {
		return ""
	}
	return "sync still in progress: changes are saved locally only"
}

// formatSync renders sync status on one line
func formatSync(s store.Status) string {
	line := fmt.Sprintf("sync: %s, remote %s, last saved %s", s.Phase, s.RemoteState, output.FormatTimeAgo(s.LastSavedAt))
	if s.Pending {
		line += ", save pending"
	}
	if s.LastError != "" {
		line += " (" + s.LastError + ")"
	}
	return line
}

var nextCmd = &cobra.Command{
	Use:     "next",
	Short:   "Show the next open checklist item",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		next := p.store.NextAction()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(map[string]any{"next": next})
		}
		fmt.Println(output.FormatNextAction(next))
		if next != nil && next.Section.ID == checklist.SectionAccounts {
			hint := fmt.Sprintf("See `onboard guide %s`, then `onboard toggle %s`.", next.Item.ID, next.Item.ID)
			fmt.Println(output.IndentString(output.Subtle(hint), 2))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(nextCmd)
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	nextCmd.Flags().Bool("json", false, "Output as JSON")
}
