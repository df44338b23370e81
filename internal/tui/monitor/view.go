package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/onboard/internal/output"
)

// chrome is the number of lines used around the checklist: header,
// overall bar, status line, flash line and help.
const chrome = 7

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	// Handle small terminal sizes gracefully
	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	parts := []string{m.renderHeader(), m.renderChecklist()}
	if m.Mode == ModeRename {
		parts = append(parts, m.renderRename())
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder
	p := overall(m.Rows)

	s.WriteString("onboard (resize for full view)\n\n")
	fmt.Fprintf(&s, "%s  %d/%d %d%%\n", m.State.UserName, p.Done, p.Total, p.Pct)
	if row, ok := m.current(); ok {
		fmt.Fprintf(&s, "> %s %s\n", output.Checkbox(row.Item), row.Item.Title)
	}
	fmt.Fprintf(&s, "sync: %s\n", m.Status.Phase)
	s.WriteString("\nq:quit space:toggle ?:help")

	return s.String()
}

func (m Model) renderHeader() string {
	p := overall(m.Rows)
	title := headerStyle.Render(fmt.Sprintf("ONBOARDING · %s · %s", m.State.UserName, m.Platform))
	bar := fmt.Sprintf("%s  %s", m.bar.ViewAs(float64(p.Pct)/100), subtleStyle.Render(fmt.Sprintf("%d/%d %d%%", p.Done, p.Total, p.Pct)))
	return title + "\n" + bar
}

// visibleRows is how many checklist lines fit between header and footer.
// Section headers take two lines each, so this is an upper bound used
// only for scrolling.
func (m Model) visibleRows() int {
	if m.Height == 0 {
		return 0
	}
	h := m.Height - chrome
	if m.Mode == ModeRename {
		h -= 3
	}
	if m.ShowHelp {
		h -= 4
	}
	return max(1, h-2*len(sectionStarts(m.Rows, m.ScrollOffset, m.Height)))
}

// sectionStarts counts section headers inside a window of rows.
func sectionStarts(rows []Row, from, n int) []int {
	var out []int
	for i := from; i < len(rows) && i < from+n; i++ {
		if rows[i].First || i == from {
			out = append(out, i)
		}
	}
	return out
}

func (m Model) renderChecklist() string {
	var content strings.Builder
	if len(m.Rows) == 0 {
		content.WriteString(subtleStyle.Render("Nothing to do"))
		return content.String()
	}

	end := min(len(m.Rows), m.ScrollOffset+m.visibleRows())
	for i := m.ScrollOffset; i < end; i++ {
		row := m.Rows[i]
		if row.First || i == m.ScrollOffset {
			content.WriteString(sectionHeader.Render(fmt.Sprintf("%s  %d/%d", row.SectionTitle, row.Progress.Done, row.Progress.Total)))
			content.WriteString("\n")
		}
		content.WriteString(m.renderRow(row, i == m.Cursor))
		content.WriteString("\n")
	}
	if end < len(m.Rows) {
		content.WriteString(subtleStyle.Render(fmt.Sprintf("  … %d more", len(m.Rows)-end)))
		content.WriteString("\n")
	}
	return strings.TrimRight(content.String(), "\n")
}

func (m Model) renderRow(row Row, selected bool) string {
	line := fmt.Sprintf("%s %s", output.Checkbox(row.Item), row.Item.Title)
	if row.Item.ETAMinutes > 0 {
		line += subtleStyle.Render(fmt.Sprintf("  %dm", row.Item.ETAMinutes))
	}
	prefix := "  "
	if selected {
		prefix = selectedRowStyle.Render("> ")
		line = titleStyle.Render(line)
	}
	return ansi.Truncate(prefix+line, max(1, m.Width), "…")
}

func (m Model) renderRename() string {
	body := titleStyle.Render("你的名字") + "\n" + m.input.View() + "\n" +
		subtleStyle.Render("enter 保存 · esc 取消")
	return inputBoxStyle.Render(body)
}

func (m Model) renderFooter() string {
	var s strings.Builder
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	switch {
	case m.Err != nil:
		s.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
	case m.Flash != "":
		s.WriteString(flashStyle.Render(m.Flash))
	}
	s.WriteString("\n")

	s.WriteString(m.help.View(m.keys))
	return s.String()
}

// renderStatus renders the sync status line
func (m Model) renderStatus() string {
	st := m.Status
	parts := []string{"sync: " + formatPhase(st.Phase), "remote: " + st.RemoteState}
	if st.Pending {
		parts = append(parts, "pending")
	}
	parts = append(parts, "saved: "+output.FormatTimeAgo(st.LastSavedAt))
	line := subtleStyle.Render(strings.Join(parts, " · "))
	if st.LastError != "" {
		line += "  " + errorStyle.Render(ansi.Truncate(st.LastError, 60, "…"))
	}
	return ansi.Truncate(line, max(1, m.Width), "…")
}
