package monitor

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/store"
)

// Backend is the slice of the progress store the monitor drives.
// *store.Store satisfies it.
type Backend interface {
	State() models.State
	Sections() []models.Section
	Status() store.Status
	Platform() models.Platform
	ToggleChecklistItem(id string) (models.Item, error)
	SetReadFlag(key string, value bool) error
	SetUserName(name string) error
	Subscribe(fn func(models.State)) func()
}

// Mode is the input mode of the monitor
type Mode int

const (
	ModeBrowse Mode = iota
	ModeRename
)

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 12

// Model is the main Bubble Tea model for the checklist monitor
type Model struct {
	Store Backend

	// Window dimensions
	Width  int
	Height int

	// Derived data
	State    models.State
	Rows     []Row
	Status   store.Status
	Platform models.Platform

	// UI state
	Cursor       int
	ScrollOffset int
	Mode         Mode
	ShowHelp     bool
	Flash        string // one-line feedback for the last action
	Err          error  // last action error, cleared on the next action
	LastRefresh  time.Time

	keys   keyMap
	help   help.Model
	bar    progress.Model
	input  textinput.Model
	sub    *subscription

	// Configuration
	RefreshInterval time.Duration
}

// TickMsg triggers a status refresh
type TickMsg time.Time

// StateMsg carries a state published by the store
type StateMsg models.State

// NewModel creates a monitor over s. interval controls how often sync
// status is re-read; state changes arrive through the store subscription.
func NewModel(s Backend, interval time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "你的名字"
	ti.CharLimit = checklist.MaxUserNameLength
	ti.Width = 30

	m := Model{
		Store:           s,
		Platform:        s.Platform(),
		keys:            defaultKeyMap(),
		help:            help.New(),
		bar:             progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:           ti,
		sub:             &subscription{events: make(chan models.State, 16)},
		RefreshInterval: interval,
	}
	m.refresh(s.State())
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.subscribe(), m.scheduleTick())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Mode == ModeRename {
			return m.handleRenameKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, min(40, msg.Width-30))
		m.clampScroll()
		return m, nil

	case TickMsg:
		m.Status = m.Store.Status()
		m.LastRefresh = time.Time(msg)
		return m, m.scheduleTick()

	case StateMsg:
		m.refresh(models.State(msg))
		return m, m.waitForState()
	}

	return m, nil
}

// handleKey processes key input in browse mode
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case matches(msg, m.keys.Quit):
		return m, tea.Quit

	case matches(msg, m.keys.Down):
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
		m.clampScroll()

	case matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.clampScroll()

	case matches(msg, m.keys.Top):
		m.Cursor = 0
		m.clampScroll()

	case matches(msg, m.keys.Bottom):
		m.Cursor = max(0, len(m.Rows)-1)
		m.clampScroll()

	case matches(msg, m.keys.NextSection):
		m.jumpSection(1)

	case matches(msg, m.keys.PrevSection):
		m.jumpSection(-1)

	case matches(msg, m.keys.Toggle):
		m.toggleCurrent()

	case matches(msg, m.keys.Rename):
		m.Mode = ModeRename
		m.Err = nil
		m.Flash = ""
		m.input.SetValue(m.State.UserName)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
		m.help.ShowAll = m.ShowHelp
	}

	return m, nil
}

// handleRenameKey routes keys to the name input
func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Mode = ModeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		if err := m.Store.SetUserName(m.input.Value()); err != nil {
			m.Err = err
			return m, nil
		}
		m.Mode = ModeBrowse
		m.input.Blur()
		m.Err = nil
		m.Flash = "名字已更新"
		m.refresh(m.Store.State())
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleCurrent flips the row under the cursor. Account items toggle
// directly; derived items flip their backing read flag.
func (m *Model) toggleCurrent() {
	m.Err = nil
	m.Flash = ""
	row, ok := m.current()
	if !ok {
		return
	}
	if row.SectionID == checklist.SectionAccounts {
		it, err := m.Store.ToggleChecklistItem(row.Item.ID)
		if err != nil {
			m.Err = err
			return
		}
		m.Flash = doneFlash(it.Title, it.Done)
	} else {
		key, ok := checklist.ReadKeyFor(row.SectionID, row.Item.ID, m.Platform)
		if !ok {
			m.Err = errNotTrackable
			return
		}
		if err := m.Store.SetReadFlag(key, !row.Item.Done); err != nil {
			m.Err = err
			return
		}
		m.Flash = doneFlash(row.Item.Title, !row.Item.Done)
	}
	m.refresh(m.Store.State())
}

var errNotTrackable = errors.New("this item has no progress to track")

func doneFlash(title string, done bool) string {
	if done {
		return "✓ " + title
	}
	return "○ " + title
}

// jumpSection moves the cursor to the first row of the next or previous section
func (m *Model) jumpSection(dir int) {
	row, ok := m.current()
	if !ok {
		return
	}
	i := m.Cursor
	for i >= 0 && i < len(m.Rows) && m.Rows[i].SectionID == row.SectionID {
		i += dir
	}
	if i < 0 || i >= len(m.Rows) {
		return
	}
	if dir < 0 {
		// land on the first row of the previous section
		target := m.Rows[i].SectionID
		for i > 0 && m.Rows[i-1].SectionID == target {
			i--
		}
	}
	m.Cursor = i
	m.clampScroll()
}

func (m Model) current() (Row, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return Row{}, false
	}
	return m.Rows[m.Cursor], true
}

// refresh rebuilds derived rows from st and keeps the cursor on the same item
func (m *Model) refresh(st models.State) {
	var selected Row
	if row, ok := m.current(); ok {
		selected = row
	}
	m.State = st
	m.Rows = BuildRows(m.Store.Sections())
	m.Status = m.Store.Status()
	for i, r := range m.Rows {
		if r.SectionID == selected.SectionID && r.Item.ID == selected.Item.ID {
			m.Cursor = i
			break
		}
	}
	if m.Cursor >= len(m.Rows) {
		m.Cursor = max(0, len(m.Rows)-1)
	}
}

// clampScroll keeps the cursor inside the visible window
func (m *Model) clampScroll() {
	visible := m.visibleRows()
	if visible <= 0 {
		return
	}
	if m.Cursor < m.ScrollOffset {
		m.ScrollOffset = m.Cursor
	}
	if m.Cursor >= m.ScrollOffset+visible {
		m.ScrollOffset = m.Cursor - visible + 1
	}
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// subscription forwards store publications into the program. It lives
// behind a pointer so the value-typed Model can share it across updates.
type subscription struct {
	events chan models.State
	unsub  func()
}

func (s *subscription) push(st models.State) {
	select {
	case s.events <- st:
		return
	default:
	}
	// full: drop the oldest so the newest state always gets through
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- st:
	default:
	}
}

// subscribe registers with the store and starts waiting for states.
func (m Model) subscribe() tea.Cmd {
	if m.sub.unsub == nil {
		m.sub.unsub = m.Store.Subscribe(m.sub.push)
	}
	return m.waitForState()
}

func (m Model) waitForState() tea.Cmd {
	events := m.sub.events
	return func() tea.Msg {
		return StateMsg(<-events)
	}
}

// Close detaches the monitor from the store.
func (m Model) Close() {
	if m.sub.unsub != nil {
		m.sub.unsub()
		m.sub.unsub = nil
	}
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	if m.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
