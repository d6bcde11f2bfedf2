package indexdb

import (
	"path/filepath"
	"testing"

	"focusfire.ai/internal/tuning"
	"focusfire.ai/internal/turn"
)

func TestSQLiteIndex_WritesTurnsAndFaults(t *testing.T) {
	path := Path(t.TempDir(), "g1")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.RecordSession("g1", "sess", "A", tuning.Defaults()); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	reports := []turn.Report{
		{SessionID: "sess", Round: 1, Turn: 1, AgentID: 1, Role: "COMMANDER", Team: "A", Reset: true, Registry: turn.RegistryView{Kind: "EMPTY"}, Applied: 1},
		{SessionID: "sess", Round: 2, Turn: 1, AgentID: 2, Role: "HARVESTER", Team: "A", Registry: turn.RegistryView{Kind: "EMPTY"}, Applied: 3, Skipped: 16},
		{SessionID: "sess", Round: 2, Turn: 2, AgentID: 1, Role: "COMMANDER", Team: "A", Registry: turn.RegistryView{Kind: "EMPTY"}, Fault: "boom", Panicked: true},
	}
	for _, r := range reports {
		if err := s.WriteTurn(r); err != nil {
			t.Fatalf("WriteTurn: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Writes after close are ignored.
	if err := s.WriteTurn(reports[0]); err != nil {
		t.Fatalf("WriteTurn after close: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	var turns, resets int
	if err := s.DB().QueryRow(`SELECT COUNT(*), SUM(reset) FROM turns`).Scan(&turns, &resets); err != nil {
		t.Fatalf("count turns: %v", err)
	}
	if turns != 3 || resets != 1 {
		t.Fatalf("turns=%d resets=%d", turns, resets)
	}
	var fault string
	var panicked int
	if err := s.DB().QueryRow(`SELECT fault, panicked FROM faults WHERE agent_id=1 AND turn=2`).Scan(&fault, &panicked); err != nil {
		t.Fatalf("fault row: %v", err)
	}
	if fault != "boom" || panicked != 1 {
		t.Fatalf("fault=%q panicked=%d", fault, panicked)
	}
	var team string
	if err := s.DB().QueryRow(`SELECT value FROM meta WHERE key='team'`).Scan(&team); err != nil || team != "A" {
		t.Fatalf("meta team=%q err=%v", team, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan turn.Report, 1)}
	s.ch <- turn.Report{Turn: 1}

	_ = s.WriteTurn(turn.Report{Turn: 2})
	_ = s.WriteTurn(turn.Report{Turn: 3})

	st := s.Stats()
	if st.DropTotal != 2 {
		t.Fatalf("DropTotal=%d want=2", st.DropTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestOpenSQLite_RejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error")
	}
	if got := Path("/data", "g7"); got != filepath.Join("/data", "games", "g7", "index", "turns.sqlite") {
		t.Fatalf("Path: %s", got)
	}
}
