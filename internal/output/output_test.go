package output

import (
	"strings"
	"testing"
	"time"

	"github.com/marcus/onboard/internal/models"
)

// TestFormatTimeAgo tests the relative time buckets
func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		ago      time.Duration
		expected string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{2 * time.Minute, "2m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tc := range tests {
		if got := FormatTimeAgo(time.Now().Add(-tc.ago)); got != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.ago, got, tc.expected)
		}
	}

	old := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	if got := FormatTimeAgo(old); got != "2024-01-02" {
		t.Errorf("old date: got %q", got)
	}
	if got := FormatTimeAgo(time.Time{}); got != "never" {
		t.Errorf("zero time: got %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct, width, filled int
	}{
		{0, 10, 0},
		{29, 10, 2},
		{50, 10, 5},
		{100, 10, 10},
		{140, 10, 10},
		{-5, 10, 0},
	}
	for _, tc := range tests {
		bar := ProgressBar(tc.pct, tc.width)
		if got := strings.Count(bar, "█"); got != tc.filled {
			t.Errorf("ProgressBar(%d, %d) filled = %d, want %d", tc.pct, tc.width, got, tc.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tc.width {
			t.Errorf("ProgressBar(%d, %d) cells = %d", tc.pct, tc.width, got)
		}
	}
	if ProgressBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestFormatItem(t *testing.T) {
	open := FormatItem(models.Item{ID: "vpn", Title: "安装VPN", ETAMinutes: 8})
	for _, want := range []string{"○", "vpn", "安装VPN", "8m"} {
		if !strings.Contains(open, want) {
			t.Errorf("open item %q missing %q", open, want)
		}
	}
	if done := FormatItem(models.Item{ID: "vpn", Done: true}); !strings.Contains(done, "✓") {
		t.Errorf("done item: %q", done)
	}
	if locked := FormatItem(models.Item{ID: "vpn", Locked: true}); !strings.Contains(locked, "🔒") {
		t.Errorf("locked item: %q", locked)
	}
}

func TestFormatNextAction(t *testing.T) {
	if got := FormatNextAction(nil); !strings.Contains(got, "All done") {
		t.Errorf("nil next action: %q", got)
	}
	got := FormatNextAction(&models.NextAction{
		Section: models.Section{Title: "账号注册"},
		Item:    models.Item{ID: "vpn", Title: "安装VPN"},
	})
	if !strings.Contains(got, "账号注册") || !strings.Contains(got, "vpn") {
		t.Errorf("next action: %q", got)
	}
}

func TestIndentString(t *testing.T) {
	if got := IndentString("a\nb", 2); got != "  a\n  b" {
		t.Errorf("got %q", got)
	}
	if got := IndentString("", 4); got != "" {
		t.Errorf("empty: got %q", got)
	}
}

func TestBulletList(t *testing.T) {
	got := BulletList([]string{"one", "two"}, 2)
	if len(got) != 2 || got[0] != "  - one" || got[1] != "  - two" {
		t.Errorf("got %q", got)
	}
}

func TestRenderMarkdownWithStyle(t *testing.T) {
	if got, err := RenderMarkdownWithStyle("   ", 80, "dark"); err != nil || got != "" {
		t.Errorf("blank input: %q/%v", got, err)
	}
	for _, style := range []string{"dark", "light", "system"} {
		got, err := RenderMarkdownWithStyle("# Setup\n\nInstall the **VPN** client.", 60, style)
		if err != nil {
			t.Fatalf("%s: %v", style, err)
		}
		if !strings.Contains(got, "Setup") || !strings.Contains(got, "VPN") {
			t.Errorf("%s: rendered output missing text: %q", style, got)
		}
	}
}
