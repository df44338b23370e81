package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimestampMarshalRFC3339(t *testing.T) {
	ts := TimestampOf(time.Date(2026, 3, 1, 8, 30, 0, 123_000_000, time.UTC))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2026-03-01T08:30:00.123Z"` {
		t.Errorf("got %s", data)
	}

	zero, _ := json.Marshal(Timestamp(0))
	if string(zero) != "0" {
		t.Errorf("zero timestamp: got %s, want 0", zero)
	}
}

func TestTimestampUnmarshalForms(t *testing.T) {
	want := TimestampOf(time.Date(2026, 3, 1, 8, 30, 0, 123_000_000, time.UTC))
	cases := map[string]Timestamp{
		`"2026-03-01T08:30:00.123Z"`:      want,
		`"2026-03-01T16:30:00.123+08:00"`: want,
		`1772353800123`:                   want,
		`null`:                            0,
		`"not a date"`:                    0,
		`""`:                              0,
	}
	for in, expected := range cases {
		var got Timestamp
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if got != expected {
			t.Errorf("%s: got %d, want %d", in, got, expected)
		}
	}

	var bad Timestamp
	if err := json.Unmarshal([]byte(`true`), &bad); err == nil {
		t.Error("expected error for boolean timestamp")
	}
}

func TestReadMapDropsNonBooleans(t *testing.T) {
	var m ReadMap
	if err := json.Unmarshal([]byte(`{"pc_env":true,"pc_pre":"yes","ios_env":false,"n":1}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 2 || !m["pc_env"] || m["ios_env"] {
		t.Errorf("got %v", m)
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &m); err == nil {
		t.Error("expected error for array read map")
	}
}

func TestSnapshotRoundTripKeepsTimestamp(t *testing.T) {
	st := State{
		UserName:     "Alice",
		AccountItems: []Item{{ID: "vpn", Title: "VPN", Done: true}},
		DevReadMap:   ReadMap{"pc_env": true},
		UpdatedAt:    1772353800123,
	}
	data, err := json.Marshal(st.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.UpdatedAt != st.UpdatedAt || back.UserName != "Alice" || !back.DevReadMap["pc_env"] {
		t.Errorf("got %+v", back)
	}
}

func TestSnapshotGuideFlagsOnTheWire(t *testing.T) {
	st := State{GuideReadMap: ReadMap{ReadKeyTools: true}}
	data, err := json.Marshal(st.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"toolsRead":true`) || !strings.Contains(string(data), `"workflowRead":false`) {
		t.Errorf("wire: %s", data)
	}

	var old Snapshot
	if err := json.Unmarshal([]byte(`{"userName":"a","updatedAt":1}`), &old); err != nil {
		t.Fatal(err)
	}
	if old.ToolsRead != nil || old.WorkflowRead != nil || len(old.GuideFlags()) != 0 {
		t.Errorf("absent flags decoded as %v", old.GuideFlags())
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	st := State{
		AccountItems: []Item{{ID: "vpn"}},
		DevReadMap:   ReadMap{"pc_env": false},
		GuideReadMap: ReadMap{"tools": false},
	}
	c := st.Clone()
	c.AccountItems[0].Done = true
	c.DevReadMap["pc_env"] = true
	c.GuideReadMap["tools"] = true
	if st.AccountItems[0].Done || st.DevReadMap["pc_env"] || st.GuideReadMap["tools"] {
		t.Error("clone shares storage with original")
	}
}
