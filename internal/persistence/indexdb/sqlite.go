// Package indexdb keeps a queryable SQLite index of turn reports. Writes go
// through a buffered channel to a single writer goroutine and are dropped
// when it falls behind; the turn log remains the source of truth.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"focusfire.ai/internal/tuning"
	"focusfire.ai/internal/turn"
)

const defaultQueue = 65536

type SQLiteIndex struct {
	db *sql.DB

	ch   chan turn.Report
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

// Stats reports queue health.
type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTotal     uint64 `json:"drop_total"`
}

// Path is where a game's index lives under dataDir.
func Path(dataDir, gameID string) string {
	return filepath.Join(dataDir, "games", gameID, "index", "turns.sqlite")
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, defaultQueue)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan turn.Report, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			agent_id INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			round INTEGER NOT NULL,
			role TEXT NOT NULL,
			team TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			hp INTEGER NOT NULL,
			reset INTEGER NOT NULL,
			registry_kind TEXT NOT NULL,
			note TEXT,
			intents INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			duration_us INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (session_id, agent_id, turn)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_round ON turns(round);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_role_round ON turns(role, round);`,
		`CREATE TABLE IF NOT EXISTS faults (
			session_id TEXT NOT NULL,
			agent_id INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			round INTEGER NOT NULL,
			role TEXT NOT NULL,
			panicked INTEGER NOT NULL,
			fault TEXT NOT NULL,
			PRIMARY KEY (session_id, agent_id, turn)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_faults_round ON faults(round);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// DB exposes the handle for read queries.
func (s *SQLiteIndex) DB() *sql.DB { return s.db }

// WriteTurn queues r. It never blocks the turn.
func (s *SQLiteIndex) WriteTurn(r turn.Report) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- r:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.dropped.Load(),
	}
}

// RecordSession stores who played this game and with which tuning.
func (s *SQLiteIndex) RecordSession(gameID, sessionID, team string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "1"},
		{"game_id", gameID},
		{"session_id", sessionID},
		{"team", team},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
		{"started_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(session_id,agent_id,turn,round,role,team,x,y,hp,reset,registry_kind,note,intents,applied,skipped,duration_us,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertFault, _ := s.db.Prepare(`INSERT OR REPLACE INTO faults(session_id,agent_id,turn,round,role,panicked,fault) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTurn != nil {
			_ = insertTurn.Close()
		}
		if insertFault != nil {
			_ = insertFault.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		raw, _ := json.Marshal(r)
		if insertTurn != nil {
			if _, err := tx.Stmt(insertTurn).Exec(
				r.SessionID,
				r.AgentID,
				r.Turn,
				r.Round,
				r.Role,
				r.Team,
				r.Pos[0], r.Pos[1],
				r.Health,
				boolInt(r.Reset),
				r.Registry.Kind,
				r.Note,
				len(r.Intents),
				r.Applied,
				r.Skipped,
				r.DurationMicros,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if r.Fault != "" && insertFault != nil {
			if _, err := tx.Stmt(insertFault).Exec(
				r.SessionID,
				r.AgentID,
				r.Turn,
				r.Round,
				r.Role,
				boolInt(r.Panicked),
				r.Fault,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
