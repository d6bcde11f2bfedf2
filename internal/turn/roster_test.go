package turn

import (
	"testing"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/host/hosttest"
	"focusfire.ai/internal/tuning"
)

func TestRoster_KeepsStatePerAgent(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	c := a.Spawn(host.Converter, host.TeamA, host.Position{X: 3, Y: 3})
	b := a.Spawn(host.Builder, host.TeamA, host.Position{X: 9, Y: 9})
	rec := &memRecorder{}
	r := NewRoster(tuning.Defaults(), nil, rec, "sess-1")

	for i := 0; i < 3; i++ {
		r.Turn(a.Controller(c.ID))
		a.NextRound()
	}
	rep := r.Turn(a.Controller(b.ID))
	if rep.Turn != 1 {
		t.Fatalf("builder turn counter: %d", rep.Turn)
	}
	if got := r.Agent(c.ID, host.Converter).Turns(); got != 3 {
		t.Fatalf("converter turns: %d", got)
	}
	if r.Len() != 2 {
		t.Fatalf("len: %d", r.Len())
	}
	if len(rec.reports) != 4 || rec.reports[3].SessionID != "sess-1" {
		t.Fatalf("recorded: %+v", rec.reports)
	}

	r.Forget(c.ID)
	if r.Len() != 1 {
		t.Fatalf("len after forget: %d", r.Len())
	}
}
