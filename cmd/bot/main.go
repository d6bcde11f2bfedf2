package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"focusfire.ai/internal/persistence/indexdb"
	"focusfire.ai/internal/persistence/turnlog"
	"focusfire.ai/internal/transport/ws"
	"focusfire.ai/internal/turn"
	"focusfire.ai/internal/tuning"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "focusfire", "bot name")
		team       = flag.String("team", "", "requested team (A|B); empty lets the host choose")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite turn index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := ws.Dial(ctx, *url, *name, *team, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer client.Close()

	w := client.Welcome()
	if w.SharedSlots != tune.SharedSlots {
		logger.Fatalf("shared array mismatch: host has %d slots, tuning expects %d", w.SharedSlots, tune.SharedSlots)
	}
	logger.Printf("WELCOME game=%s team=%s session=%s", w.GameID, w.Team, client.SessionID())

	tl := turnlog.NewTurnLogger(*dataDir, w.GameID)
	defer tl.Close()
	recs := turn.Recorders{tl}

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(indexdb.Path(*dataDir, w.GameID))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			st := idx.Stats()
			if st.DropTotal > 0 {
				logger.Printf("index dropped %d turns", st.DropTotal)
			}
			_ = idx.Close()
		}()
		if err := idx.RecordSession(w.GameID, client.SessionID(), w.Team, tune); err != nil {
			logger.Printf("record session: %v", err)
		}
		recs = append(recs, idx)
	}

	roster := turn.NewRoster(tune, os.Stdout, client.Recorder(recs), client.SessionID())
	if err := client.Run(ctx, roster); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Printf("done: agents=%d", roster.Len())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
