package main

import (
	"context"
	"log"
	"math/rand"
	"sync/atomic"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/host/hosttest"
	"focusfire.ai/internal/transport/ws"
)

type matchConfig struct {
	Width, Height int
	Seed          int64
	Rounds        int
	StartPrimary  int
	SharedSlots   int
}

type matchStats struct {
	active atomic.Int64
	wins   atomic.Uint64
	losses atomic.Uint64
	limits atomic.Uint64
	errors atomic.Uint64
	turns  atomic.Uint64
}

type statsSnapshot struct {
	Active                              int64
	Wins, Losses, Limits, Errors, Turns uint64
}

func (s *matchStats) snapshot() statsSnapshot {
	return statsSnapshot{
		Active: s.active.Load(),
		Wins:   s.wins.Load(),
		Losses: s.losses.Load(),
		Limits: s.limits.Load(),
		Errors: s.errors.Load(),
		Turns:  s.turns.Load(),
	}
}

// newArena lays out a fresh map: scattered resource cells, the bot's
// commander in one corner and a passive enemy base in the opposite one.
func newArena(cfg matchConfig, team host.Team) *hosttest.Arena {
	a := hosttest.New(cfg.Width, cfg.Height, cfg.SharedSlots)
	rng := rand.New(rand.NewSource(cfg.Seed))
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			p := host.Position{X: x, Y: y}
			if rng.Intn(12) == 0 {
				a.SetResource(host.Primary, p, 5+rng.Intn(36))
			}
			if rng.Intn(60) == 0 {
				a.SetResource(host.Secondary, p, 1+rng.Intn(10))
			}
		}
	}
	a.SetStock(team, host.Primary, cfg.StartPrimary)

	home := host.Position{X: cfg.Width / 4, Y: cfg.Height / 4}
	enemy := host.Position{X: cfg.Width * 3 / 4, Y: cfg.Height * 3 / 4}
	a.Spawn(host.Commander, team, home)
	a.Spawn(host.Commander, team.Opponent(), enemy)
	a.Spawn(host.Melee, team.Opponent(), enemy.Add(host.West))
	a.Spawn(host.Melee, team.Opponent(), enemy.Add(host.South))
	return a
}

// newMatchFunc plays one match per connected bot. Only the bot's team acts;
// the enemy base is a target.
func newMatchFunc(cfg matchConfig, stats *matchStats, logger *log.Logger) ws.PlayFunc {
	return func(ctx context.Context, s *ws.Session) error {
		stats.active.Add(1)
		defer stats.active.Add(-1)

		a := newArena(cfg, s.Team)
		for round := 1; round <= cfg.Rounds; round++ {
			if err := ctx.Err(); err != nil {
				stats.errors.Add(1)
				return err
			}
			err := a.PlayRound(s.Team, func(ctl *hosttest.Controller) error {
				stats.turns.Add(1)
				_, err := s.PlayTurn(ctl)
				return err
			})
			if err != nil {
				stats.errors.Add(1)
				return err
			}

			switch {
			case !a.Alive(s.Team.Opponent(), host.Commander):
				stats.wins.Add(1)
				logger.Printf("session %s: won at round %d", s.Hello.SessionID, round)
				winner := s.Team
				return s.Bye("enemy commander destroyed", &winner)
			case !a.Alive(s.Team, host.Commander):
				stats.losses.Add(1)
				winner := s.Team.Opponent()
				return s.Bye("commander lost", &winner)
			}
		}
		stats.limits.Add(1)
		return s.Bye("round limit", nil)
	}
}
