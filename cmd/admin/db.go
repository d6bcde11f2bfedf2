package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"focusfire.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "", "game id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	agentID := fs.Int("agent", -1, "agent_id filter (turns)")
	role := fs.String("role", "", "role filter (turns)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "meta"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*gameID) == "" {
			fmt.Fprintln(os.Stderr, "missing -game or -db")
			os.Exit(2)
		}
		path = indexdb.Path(*dataDir, *gameID)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, os.Stdout, q, queryOpts{AgentID: *agentID, Role: *role, Limit: *limit}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if strings.HasPrefix(err.Error(), "unknown query") {
			fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-game GAME|-db PATH] [-agent ID] [-role ROLE] meta|turns|faults|roles")
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type queryOpts struct {
	AgentID int
	Role    string
	Limit   int
}

func runQuery(db *sql.DB, out io.Writer, q string, o queryOpts) error {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	switch q {
	case "meta":
		rows, err := db.Query(`SELECT key,value FROM meta ORDER BY key`)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if err := rows.Scan(&r.Key, &r.Value); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "turns":
		where := []string{"1=1"}
		var args []any
		if o.AgentID >= 0 {
			where = append(where, "agent_id=?")
			args = append(args, o.AgentID)
		}
		if o.Role != "" {
			where = append(where, "role=?")
			args = append(args, strings.ToUpper(o.Role))
		}
		args = append(args, o.Limit)
		rows, err := db.Query(`SELECT session_id,agent_id,turn,round,role,team,x,y,hp,reset,registry_kind,COALESCE(note,''),intents,applied,skipped,duration_us FROM turns WHERE `+
			strings.Join(where, " AND ")+` ORDER BY round DESC, agent_id LIMIT ?`, args...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				SessionID    string `json:"session_id"`
				AgentID      int    `json:"agent_id"`
				Turn         int    `json:"turn"`
				Round        int    `json:"round"`
				Role         string `json:"role"`
				Team         string `json:"team"`
				X            int    `json:"x"`
				Y            int    `json:"y"`
				HP           int    `json:"hp"`
				Reset        bool   `json:"reset"`
				RegistryKind string `json:"registry_kind"`
				Note         string `json:"note,omitempty"`
				Intents      int    `json:"intents"`
				Applied      int    `json:"applied"`
				Skipped      int    `json:"skipped"`
				DurationUS   int64  `json:"duration_us"`
			}
			if err := rows.Scan(&r.SessionID, &r.AgentID, &r.Turn, &r.Round, &r.Role, &r.Team, &r.X, &r.Y, &r.HP, &r.Reset,
				&r.RegistryKind, &r.Note, &r.Intents, &r.Applied, &r.Skipped, &r.DurationUS); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "faults":
		rows, err := db.Query(`SELECT session_id,agent_id,turn,round,role,panicked,fault FROM faults ORDER BY round DESC, agent_id LIMIT ?`, o.Limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				SessionID string `json:"session_id"`
				AgentID   int    `json:"agent_id"`
				Turn      int    `json:"turn"`
				Round     int    `json:"round"`
				Role      string `json:"role"`
				Panicked  bool   `json:"panicked"`
				Fault     string `json:"fault"`
			}
			if err := rows.Scan(&r.SessionID, &r.AgentID, &r.Turn, &r.Round, &r.Role, &r.Panicked, &r.Fault); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "roles":
		rows, err := db.Query(`SELECT role, COUNT(DISTINCT agent_id), COUNT(*), SUM(applied), SUM(skipped) FROM turns GROUP BY role ORDER BY role`)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Role    string `json:"role"`
				Agents  int    `json:"agents"`
				Turns   int    `json:"turns"`
				Applied int64  `json:"applied"`
				Skipped int64  `json:"skipped"`
			}
			if err := rows.Scan(&r.Role, &r.Agents, &r.Turns, &r.Applied, &r.Skipped); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			printJSON(out, r)
		}
		return rows.Err()

	default:
		return fmt.Errorf("unknown query: %s", q)
	}
}

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
