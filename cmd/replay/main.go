package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"focusfire.ai/internal/persistence/turnlog"
	"focusfire.ai/internal/turn"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory")
		gameID  = flag.String("game", "", "game id (reads data/games/<game>/turns)")
		dir     = flag.String("dir", "", "turns dir containing turns-*.jsonl.zst (overrides -game)")
		agentID = flag.Int("agent", -1, "print every turn of this agent (optional)")
		faults  = flag.Bool("faults", false, "print faulted turns")
	)
	flag.Parse()

	turnsDir := *dir
	if turnsDir == "" {
		if *gameID == "" {
			fmt.Fprintln(os.Stderr, "missing -game or -dir")
			os.Exit(2)
		}
		turnsDir = turnlog.Dir(*dataDir, *gameID)
	}

	files, err := turnlog.ListFiles(turnsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list turns:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no turn files found in", turnsDir)
		os.Exit(1)
	}

	v := newVerifier()
	err = turnlog.ReadDir(turnsDir, func(r turn.Report) error {
		if err := v.check(r); err != nil {
			return err
		}
		if r.AgentID == *agentID {
			fmt.Printf("round=%d turn=%d %s@(%d,%d) hp=%d registry=%s intents=%d applied=%d skipped=%d %s\n",
				r.Round, r.Turn, r.Role, r.Pos[0], r.Pos[1], r.Health, r.Registry.Kind, len(r.Intents), r.Applied, r.Skipped, r.Note)
		}
		if *faults && r.Fault != "" {
			fmt.Printf("fault round=%d agent=%d role=%s panicked=%v: %s\n", r.Round, r.AgentID, r.Role, r.Panicked, r.Fault)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	s := v.summary
	fmt.Printf("files=%d sessions=%d agents=%d resets=%d faults=%d panics=%d\n",
		len(files), len(s.Sessions), s.Agents, s.Resets, s.Faults, s.Panics)
	roles := make([]string, 0, len(s.Roles))
	for role := range s.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Printf("  %-12s %d\n", role, s.Roles[role])
	}
	fmt.Printf("replay ok: checked=%d turns\n", s.Turns)
}
