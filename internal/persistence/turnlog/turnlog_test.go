package turnlog

import (
	"path/filepath"
	"testing"
	"time"

	"focusfire.ai/internal/turn"
)

func TestTurnLogger_RoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	l := NewTurnLogger(dataDir, "g1")
	want := []turn.Report{
		{Round: 1, Turn: 1, AgentID: 1, Role: "COMMANDER", Team: "A", Reset: true},
		{Round: 2, Turn: 1, AgentID: 4, Role: "MELEE", Team: "A", Fault: "move NORTH: illegal action", Intents: []turn.IntentRecord{{Intent: "MOVE NORTH", Status: "FAILED"}}},
		{Round: 2, Turn: 2, AgentID: 1, Role: "COMMANDER", Team: "A", Panicked: true, Fault: "boom"},
	}
	for _, r := range want {
		if err := l.WriteTurn(r); err != nil {
			t.Fatalf("WriteTurn: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []turn.Report
	if err := ReadDir(Dir(dataDir, "g1"), func(r turn.Report) error {
		got = append(got, r)
		return nil
	}); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d reports want %d", len(got), len(want))
	}
	if !got[0].Reset || got[1].Intents[0].Status != "FAILED" || !got[2].Panicked {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, FilePrefix)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(turn.Report{Round: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(turn.Report{Round: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files: %v", files)
	}
	if got := filepath.Base(files[0]); got != "turns-2026-03-01-10.jsonl.zst" {
		t.Fatalf("first file: %s", got)
	}
	rounds := 0
	for _, f := range files {
		if err := ReadFile(f, func(r turn.Report) error { rounds += r.Round; return nil }); err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
	}
	if rounds != 3 {
		t.Fatalf("round sum: %d", rounds)
	}
}

func TestJSONLZstdWriter_ReopenAppendsFrame(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 2; i++ {
		w := NewJSONLZstdWriter(dir, FilePrefix)
		w.now = func() time.Time { return clock }
		if err := w.Write(turn.Report{Round: i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	n := 0
	if err := ReadDir(dir, func(turn.Report) error { n++; return nil }); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("want both frames read, got %d", n)
	}
}
