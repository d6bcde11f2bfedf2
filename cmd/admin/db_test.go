package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"focusfire.ai/internal/persistence/indexdb"
	"focusfire.ai/internal/tuning"
	"focusfire.ai/internal/turn"
)

func TestRunQuery_TurnsAndRoles(t *testing.T) {
	dataDir := t.TempDir()
	idx, err := indexdb.OpenSQLite(indexdb.Path(dataDir, "g1"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.RecordSession("g1", "sess", "A", tuning.Defaults()); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	for _, r := range []turn.Report{
		{SessionID: "sess", Round: 1, Turn: 1, AgentID: 1, Role: "COMMANDER", Team: "A", Reset: true, Registry: turn.RegistryView{Kind: "EMPTY"}, Applied: 1},
		{SessionID: "sess", Round: 2, Turn: 1, AgentID: 2, Role: "HARVESTER", Team: "A", Registry: turn.RegistryView{Kind: "EMPTY"}, Applied: 2},
		{SessionID: "sess", Round: 3, Turn: 2, AgentID: 2, Role: "HARVESTER", Team: "A", Registry: turn.RegistryView{Kind: "EMPTY"}, Applied: 3, Fault: "mine: boom"},
	} {
		_ = idx.WriteTurn(r)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = indexdb.OpenSQLite(indexdb.Path(dataDir, "g1"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	var out bytes.Buffer
	if err := runQuery(idx.DB(), &out, "turns", queryOpts{AgentID: 2, Limit: 10}); err != nil {
		t.Fatalf("turns: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("turns output: %q", out.String())
	}
	var first struct {
		Round int    `json:"round"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Round != 3 || first.Role != "HARVESTER" {
		t.Fatalf("newest first: %+v", first)
	}

	out.Reset()
	if err := runQuery(idx.DB(), &out, "roles", queryOpts{AgentID: -1}); err != nil {
		t.Fatalf("roles: %v", err)
	}
	if !strings.Contains(out.String(), `"role":"HARVESTER","agents":1,"turns":2,"applied":5`) {
		t.Fatalf("roles output: %q", out.String())
	}

	out.Reset()
	if err := runQuery(idx.DB(), &out, "faults", queryOpts{}); err != nil {
		t.Fatalf("faults: %v", err)
	}
	if !strings.Contains(out.String(), "mine: boom") {
		t.Fatalf("faults output: %q", out.String())
	}

	if err := runQuery(idx.DB(), &out, "nope", queryOpts{}); err == nil {
		t.Fatalf("expected unknown query error")
	}
}

func TestListGames(t *testing.T) {
	dataDir := t.TempDir()
	for _, g := range []string{"g2", "g1"} {
		if err := os.MkdirAll(filepath.Join(dataDir, "games", g), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	games, err := listGames(dataDir)
	if err != nil {
		t.Fatalf("listGames: %v", err)
	}
	if len(games) != 2 || games[0] != "g1" || games[1] != "g2" {
		t.Fatalf("games: %v", games)
	}
}
