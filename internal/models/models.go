package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Role is the onboarding track a user follows
type Role string

const (
	RolePC      Role = "PC"
	RoleIOS     Role = "iOS"
	RoleAndroid Role = "Android"
	RolePM      Role = "PM"
	RoleQA      Role = "QA"
)

// DeploymentRole is the fixed role for this deployment; it is not user-editable.
const DeploymentRole = RolePM

// Platform is the device category a session runs on
type Platform string

const (
	PlatformPC      Platform = "PC"
	PlatformIOS     Platform = "iOS"
	PlatformAndroid Platform = "Android"
)

// Item is a single checklist entry
type Item struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ETAMinutes int    `json:"etaMinutes,omitempty"`
	Done       bool   `json:"done"`
	Locked     bool   `json:"locked,omitempty"`
}

// CloneItems returns a copy of items that shares no backing array with the input.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ReadMap records which guide sections the user has marked as read.
type ReadMap map[string]bool

// Clone returns an independent copy of the map
func (m ReadMap) Clone() ReadMap {
	out := make(ReadMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UnmarshalJSON keeps boolean entries and drops anything else, so a map
// written by an older or foreign client never fails the whole payload.
func (m *ReadMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ReadMap, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	*m = out
	return nil
}

// Section is a derived view grouping checklist items for display
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Progress summarizes completion of a section
type Progress struct {
	Total int `json:"total"`
	Done  int `json:"done"`
	Pct   int `json:"pct"`
}

// NextAction is the highest-priority item still open
type NextAction struct {
	Section Section `json:"section"`
	Item    Item    `json:"item"`
}

// UserProfile identifies the person being onboarded
type UserProfile struct {
	UserName string `json:"userName"`
	Role     Role   `json:"role"`
}

// Timestamp is a wall-clock instant in unix milliseconds. It is the sole
// conflict-resolution key between local and remote progress.
type Timestamp int64

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// TimestampOf converts t to a Timestamp
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the timestamp as a UTC time.Time
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// IsZero reports whether no update has ever been recorded
func (t Timestamp) IsZero() bool {
	return t == 0
}

// MarshalJSON encodes the timestamp as an RFC 3339 string with millisecond
// precision. The zero timestamp is encoded as 0.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == 0 {
		return []byte("0"), nil
	}
	return json.Marshal(t.Time().Format(timestampLayout))
}

// UnmarshalJSON accepts an RFC 3339 string, a number of unix milliseconds,
// or null. Unparseable strings decode to the zero timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			*t = 0
			return nil
		}
		*t = TimestampOf(parsed)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*t = Timestamp(int64(f))
	return nil
}

// Guide read flag keys
const (
	ReadKeyTools    = "tools"
	ReadKeyWorkflow = "workflow"
)

// Snapshot is the full progress payload exchanged with the remote endpoint.
// ToolsRead and WorkflowRead are nil when a client does not send them.
type Snapshot struct {
	UserName     string    `json:"userName"`
	AccountItems []Item    `json:"accountItems"`
	DevReadMap   ReadMap   `json:"devReadMap"`
	ToolsRead    *bool     `json:"toolsRead,omitempty"`
	WorkflowRead *bool     `json:"workflowRead,omitempty"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// GuideFlags returns the guide flags the snapshot carries. Absent flags
// are left out of the map.
func (s Snapshot) GuideFlags() ReadMap {
	m := ReadMap{}
	if s.ToolsRead != nil {
		m[ReadKeyTools] = *s.ToolsRead
	}
	if s.WorkflowRead != nil {
		m[ReadKeyWorkflow] = *s.WorkflowRead
	}
	return m
}

// SyncMeta is persisted locally to remember the last known-good timestamp.
// UpdatedAt is stored as plain unix milliseconds.
type SyncMeta struct {
	UpdatedAt int64 `json:"updatedAt"`
}

// State is the canonical synced state owned by the store
type State struct {
	UserName     string    `json:"userName"`
	Role         Role      `json:"role"`
	AccountItems []Item    `json:"accountItems"`
	DevReadMap   ReadMap   `json:"devReadMap"`
	GuideReadMap ReadMap   `json:"guideReadMap"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	s.AccountItems = CloneItems(s.AccountItems)
	s.DevReadMap = s.DevReadMap.Clone()
	s.GuideReadMap = s.GuideReadMap.Clone()
	return s
}

// Snapshot returns the wire payload for the state
func (s State) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		UserName:     c.UserName,
		AccountItems: c.AccountItems,
		DevReadMap:   c.DevReadMap,
		ToolsRead:    boolRef(c.GuideReadMap[ReadKeyTools]),
		WorkflowRead: boolRef(c.GuideReadMap[ReadKeyWorkflow]),
		UpdatedAt:    c.UpdatedAt,
	}
}

func boolRef(b bool) *bool { return &b }
