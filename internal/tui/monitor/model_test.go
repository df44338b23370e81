package monitor

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/store"
)

// fakeBackend is an in-memory stand-in for the progress store
type fakeBackend struct {
	state    models.State
	platform models.Platform
	subs     []func(models.State)
	nameErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{state: checklist.DefaultState(), platform: models.PlatformIOS}
}

func (f *fakeBackend) State() models.State { return f.state.Clone() }

func (f *fakeBackend) Sections() []models.Section {
	return checklist.BuildSections(f.state.AccountItems, f.state.DevReadMap, f.state.GuideReadMap, f.platform)
}

func (f *fakeBackend) Status() store.Status {
	return store.Status{Phase: store.PhaseHydrated, RemoteState: "ok"}
}

func (f *fakeBackend) Platform() models.Platform { return f.platform }

func (f *fakeBackend) ToggleChecklistItem(id string) (models.Item, error) {
	for i := range f.state.AccountItems {
		it := &f.state.AccountItems[i]
		if it.ID == id {
			if it.Locked {
				return *it, store.ErrLocked
			}
			it.Done = !it.Done
			return *it, nil
		}
	}
	return models.Item{}, store.ErrUnknownItem
}

func (f *fakeBackend) SetReadFlag(key string, value bool) error {
	switch {
	case checklist.IsDevReadKey(key):
		f.state.DevReadMap[key] = value
	case checklist.IsGuideReadKey(key):
		f.state.GuideReadMap[key] = value
	default:
		return store.ErrUnknownFlag
	}
	return nil
}

func (f *fakeBackend) SetUserName(name string) error {
	if f.nameErr != nil {
		return f.nameErr
	}
	v, ok := checklist.ValidateUserName(name)
	if !ok {
		return store.ErrInvalidName
	}
	f.state.UserName = v
	return nil
}

func (f *fakeBackend) Subscribe(fn func(models.State)) func() {
	f.subs = append(f.subs, fn)
	return func() { f.subs = nil }
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return next.(Model)
}

func TestBuildRowsMarksSectionStarts(t *testing.T) {
	f := newFakeBackend()
	rows := BuildRows(f.Sections())

	firsts := 0
	for _, r := range rows {
		if r.First {
			firsts++
		}
	}
	if firsts != 4 {
		t.Errorf("section starts = %d, want 4", firsts)
	}
	if rows[0].SectionID != checklist.SectionAccounts || rows[0].Item.ID != "corp-email" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[0].Progress.Total != 7 || rows[0].Progress.Done != 1 {
		t.Errorf("accounts progress = %+v", rows[0].Progress)
	}
}

func TestCursorMovement(t *testing.T) {
	m := sized(NewModel(newFakeBackend(), 0))

	m = press(t, m, keyRunes("j"), tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.Cursor)
	}
	m = press(t, m, keyRunes("k"))
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.Cursor)
	}
	m = press(t, m, keyRunes("k"), keyRunes("k"))
	if m.Cursor != 0 {
		t.Fatalf("cursor should stop at 0, got %d", m.Cursor)
	}
	m = press(t, m, keyRunes("G"))
	if m.Cursor != len(m.Rows)-1 {
		t.Fatalf("G: cursor = %d, want %d", m.Cursor, len(m.Rows)-1)
	}
	m = press(t, m, keyRunes("j"))
	if m.Cursor != len(m.Rows)-1 {
		t.Fatalf("cursor should stop at bottom, got %d", m.Cursor)
	}
}

func TestSectionJumps(t *testing.T) {
	m := sized(NewModel(newFakeBackend(), 0))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.Rows[m.Cursor]; got.SectionID != checklist.SectionDev || !got.First {
		t.Fatalf("tab landed on %+v", got)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyRunes("j"), tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.Rows[m.Cursor]; got.SectionID != checklist.SectionDev || !got.First {
		t.Fatalf("shift+tab landed on %+v", got)
	}
}

func TestToggleAccountItem(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, keyRunes("j"), tea.KeyMsg{Type: tea.KeySpace})
	if m.Err != nil {
		t.Fatalf("toggle: %v", m.Err)
	}
	if !f.state.AccountItems[1].Done {
		t.Error("vpn should be done in the store")
	}
	if !m.Rows[1].Item.Done || !strings.Contains(m.Flash, "安装VPN") {
		t.Errorf("row not refreshed: %+v flash=%q", m.Rows[1], m.Flash)
	}
	if m.Cursor != 1 {
		t.Errorf("cursor moved to %d", m.Cursor)
	}
}

func TestToggleLockedItemShowsError(t *testing.T) {
	f := newFakeBackend()
	f.state.AccountItems[0].Locked = true
	f.state.AccountItems[0].Done = false
	m := sized(NewModel(f, 0))

	m = press(t, m, keyRunes("x"))
	if !errors.Is(m.Err, store.ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", m.Err)
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Error("view should show the error")
	}
}

func TestToggleDevItemUsesPlatformFlag(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Err != nil {
		t.Fatalf("toggle: %v", m.Err)
	}
	if !f.state.DevReadMap["ios_env"] {
		t.Errorf("ios_env not set: %v", f.state.DevReadMap)
	}
	if f.state.DevReadMap["pc_env"] {
		t.Error("pc_env must not change on iOS")
	}
	if !m.Rows[m.Cursor].Item.Done {
		t.Error("dev row should show done")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if f.state.DevReadMap["ios_env"] {
		t.Error("second toggle should clear ios_env")
	}
}

func TestToggleCatalogOnlyItem(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	for m.Rows[m.Cursor].Item.ID != "common" {
		m = press(t, m, keyRunes("j"))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !errors.Is(m.Err, errNotTrackable) {
		t.Errorf("err = %v", m.Err)
	}
}

func TestToggleToolsMarksWholeSection(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeySpace})
	if !f.state.GuideReadMap[checklist.GuideTools] {
		t.Fatal("tools flag not set")
	}
	for _, r := range m.Rows {
		if r.SectionID == checklist.SectionTools && !r.Item.Done {
			t.Errorf("%s should be done", r.Item.ID)
		}
	}
}

func TestRenameFlow(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, keyRunes("n"))
	if m.Mode != ModeRename {
		t.Fatal("n should open rename")
	}
	if !strings.Contains(m.View(), "你的名字") {
		t.Error("rename box not rendered")
	}

	m.input.SetValue("")
	m = press(t, m, keyRunes("Ada"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != ModeBrowse {
		t.Fatalf("mode = %v after enter", m.Mode)
	}
	if f.state.UserName != "Ada" || m.State.UserName != "Ada" {
		t.Errorf("name = %q / %q", f.state.UserName, m.State.UserName)
	}
}

func TestRenameRejectsInvalidName(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))

	m = press(t, m, keyRunes("n"))
	m.input.SetValue("   ")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != ModeRename || !errors.Is(m.Err, store.ErrInvalidName) {
		t.Errorf("mode=%v err=%v", m.Mode, m.Err)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Mode != ModeBrowse {
		t.Error("esc should cancel rename")
	}
	if f.state.UserName != checklist.DefaultUserName {
		t.Errorf("name changed to %q", f.state.UserName)
	}
}

func TestQuit(t *testing.T) {
	m := sized(NewModel(newFakeBackend(), 0))
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestStateMsgRefreshes(t *testing.T) {
	f := newFakeBackend()
	m := sized(NewModel(f, 0))
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init returned no command")
	}
	if len(f.subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(f.subs))
	}

	// a change from elsewhere (e.g. remote hydration)
	f.state.UserName = "Grace"
	f.state.AccountItems[2].Done = true
	f.subs[0](f.State())

	cmd := m.waitForState()
	msg := cmd()
	m = press(t, m, msg)
	if m.State.UserName != "Grace" || !m.Rows[2].Item.Done {
		t.Errorf("state not applied: %q %+v", m.State.UserName, m.Rows[2])
	}

	m.Close()
	if f.subs != nil {
		t.Error("Close should unsubscribe")
	}
}

func TestSubscriptionKeepsNewest(t *testing.T) {
	s := &subscription{events: make(chan models.State, 1)}
	s.push(models.State{UserName: "old"})
	s.push(models.State{UserName: "new"})
	if got := <-s.events; got.UserName != "new" {
		t.Errorf("got %q, want newest", got.UserName)
	}
}

func TestViewRendersSectionsAndStatus(t *testing.T) {
	m := sized(NewModel(newFakeBackend(), 0))
	view := m.View()
	for _, want := range []string{"账号注册", "开发指南", "sync:", "hydrated", "remote: ok", "新用户"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewCompactAndLoading(t *testing.T) {
	m := NewModel(newFakeBackend(), 0)
	if got := m.View(); got != "Loading..." {
		t.Errorf("unsized view = %q", got)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	if got := next.(Model).View(); !strings.Contains(got, "resize for full view") {
		t.Errorf("compact view = %q", got)
	}
}

func TestScrollFollowsCursor(t *testing.T) {
	m := NewModel(newFakeBackend(), 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})
	m = next.(Model)

	m = press(t, m, keyRunes("G"))
	if m.ScrollOffset == 0 {
		t.Fatal("scroll offset should advance to show the last row")
	}
	if m.Cursor < m.ScrollOffset || m.Cursor >= m.ScrollOffset+m.visibleRows() {
		t.Errorf("cursor %d outside window [%d,+%d)", m.Cursor, m.ScrollOffset, m.visibleRows())
	}
	m = press(t, m, keyRunes("g"))
	if m.ScrollOffset != 0 || m.Cursor != 0 {
		t.Errorf("g: cursor=%d offset=%d", m.Cursor, m.ScrollOffset)
	}
}
