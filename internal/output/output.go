// Package output provides styled terminal output helpers (success, error,
// warning, checklist formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/onboard/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	lockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	barFillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barRestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(WarningString(fmt.Sprintf(format, args...)))
}

// WarningString renders msg as a warning line without printing it.
func WarningString(msg string) string {
	return warningStyle.Render("Warning: " + msg)
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeLocked       = "locked"
	ErrCodeDatabase     = "database_error"
	ErrCodeSync         = "sync_error"
	ErrCodeInternal     = "internal_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// Checkbox returns the item state marker: "✓" done, "🔒" locked, "○" open.
func Checkbox(it models.Item) string {
	switch {
	case it.Done:
		return successStyle.Render("✓")
	case it.Locked:
		return lockedStyle.Render("🔒")
	default:
		return openStyle.Render("○")
	}
}

// FormatItem formats a checklist item on one line
// e.g. "  ○ vpn  安装VPN  8m"
func FormatItem(it models.Item) string {
	parts := []string{Checkbox(it), titleStyle.Render(it.ID), it.Title}
	if it.ETAMinutes > 0 {
		parts = append(parts, subtleStyle.Render(fmt.Sprintf("%dm", it.ETAMinutes)))
	}
	return "  " + strings.Join(parts, "  ")
}

// ProgressBar renders pct (0-100) as a bar of width cells.
func ProgressBar(pct, width int) string {
	if width <= 0 {
		return ""
	}
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		barRestStyle.Render(strings.Repeat("░", width-filled))
}

// FormatSectionHeader formats a section title with its progress
// e.g. "账号注册  ███░░░░░  2/7 29%"
func FormatSectionHeader(s models.Section, p models.Progress) string {
	return fmt.Sprintf("%s  %s  %s",
		titleStyle.Render(s.Title),
		ProgressBar(p.Pct, 16),
		subtleStyle.Render(fmt.Sprintf("%d/%d %d%%", p.Done, p.Total, p.Pct)))
}

// FormatNextAction formats the suggested next step.
func FormatNextAction(n *models.NextAction) string {
	if n == nil {
		return successStyle.Render("All done. Welcome aboard!")
	}
	return fmt.Sprintf("Next: %s %s %s",
		subtleStyle.Render("["+n.Section.Title+"]"),
		titleStyle.Render(n.Item.ID),
		n.Item.Title)
}

// Subtle renders s in the muted style.
func Subtle(s string) string {
	return subtleStyle.Render(s)
}

// Title renders s in the title style.
func Title(s string) string {
	return titleStyle.Render(s)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nSYNC:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
