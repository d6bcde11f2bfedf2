package main

import (
	"testing"

	"focusfire.ai/internal/host"
)

func TestNewArena_DeterministicLayout(t *testing.T) {
	cfg := matchConfig{Width: 24, Height: 24, Seed: 7, Rounds: 10, StartPrimary: 200, SharedSlots: 64}
	a, b := newArena(cfg, host.TeamA), newArena(cfg, host.TeamA)

	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			p := host.Position{X: x, Y: y}
			if a.Resource(host.Primary, p) != b.Resource(host.Primary, p) || a.Resource(host.Secondary, p) != b.Resource(host.Secondary, p) {
				t.Fatalf("layout differs at %v", p)
			}
		}
	}
	if !a.Alive(host.TeamA, host.Commander) || !a.Alive(host.TeamB, host.Commander) {
		t.Fatalf("both commanders must spawn")
	}
	if got := a.Stock(host.TeamA, host.Primary); got != 200 {
		t.Fatalf("stock: %d", got)
	}
	if got := a.Shared(host.TeamA).SharedCapacity(); got != 64 {
		t.Fatalf("shared slots: %d", got)
	}
}
