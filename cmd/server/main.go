package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusfire.ai/internal/transport/ws"
	"focusfire.ai/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		gameID     = flag.String("game", "game_1", "game id")
		seed       = flag.Int64("seed", 1337, "map seed")
		width      = flag.Int("width", 32, "map width")
		height     = flag.Int("height", 32, "map height")
		rounds     = flag.Int("rounds", 2000, "round limit per match")
		stock      = flag.Int("stock", 200, "starting primary stock")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (shared_slots)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	stats := &matchStats{}
	cfg := matchConfig{
		Width:        *width,
		Height:       *height,
		Seed:         *seed,
		Rounds:       *rounds,
		StartPrimary: *stock,
		SharedSlots:  tune.SharedSlots,
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, *gameID, stats.snapshot())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(*gameID, tune.SharedSlots, newMatchFunc(cfg, stats, logger), logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s game=%s map=%dx%d seed=%d", *addr, *gameID, *width, *height, *seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func writeMetrics(rw http.ResponseWriter, gameID string, m statsSnapshot) {
	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP focusfire_sessions_active Connected bots.\n")
	fmt.Fprintf(rw, "# TYPE focusfire_sessions_active gauge\n")
	fmt.Fprintf(rw, "focusfire_sessions_active{game=%q} %d\n", gameID, m.Active)

	fmt.Fprintf(rw, "# HELP focusfire_matches_total Finished matches by outcome.\n")
	fmt.Fprintf(rw, "# TYPE focusfire_matches_total counter\n")
	fmt.Fprintf(rw, "focusfire_matches_total{game=%q,outcome=%q} %d\n", gameID, "win", m.Wins)
	fmt.Fprintf(rw, "focusfire_matches_total{game=%q,outcome=%q} %d\n", gameID, "loss", m.Losses)
	fmt.Fprintf(rw, "focusfire_matches_total{game=%q,outcome=%q} %d\n", gameID, "limit", m.Limits)
	fmt.Fprintf(rw, "focusfire_matches_total{game=%q,outcome=%q} %d\n", gameID, "error", m.Errors)

	fmt.Fprintf(rw, "# HELP focusfire_turns_total Agent turns served.\n")
	fmt.Fprintf(rw, "# TYPE focusfire_turns_total counter\n")
	fmt.Fprintf(rw, "focusfire_turns_total{game=%q} %d\n", gameID, m.Turns)
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
