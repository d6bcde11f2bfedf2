package turn

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"focusfire.ai/internal/channel"
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/host/hosttest"
	"focusfire.ai/internal/registry"
	"focusfire.ai/internal/tuning"
)

type panicOnSense struct{ *hosttest.Controller }

func (panicOnSense) SenseNearby(int, host.Team) ([]host.SensedAgent, error) {
	panic("sensor exploded")
}

type failingMove struct{ *hosttest.Controller }

func (failingMove) Move(host.Direction) error { return errors.New("link lost") }

type memRecorder struct{ reports []Report }

func (m *memRecorder) WriteTurn(r Report) error {
	m.reports = append(m.reports, r)
	return nil
}

func TestTurn_PanicIsContainedAndYieldsOnce(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Melee, host.TeamA, host.Position{X: 5, Y: 5})
	var logs bytes.Buffer
	rec := &memRecorder{}
	agent := NewAgent(me.ID, host.Melee, tuning.Defaults(), WithLogger(log.New(&logs, "", 0)), WithRecorder(rec))

	ctl := a.Controller(me.ID)
	rep := agent.Turn(panicOnSense{ctl})

	if ctl.Yields != 1 {
		t.Fatalf("yields: %d", ctl.Yields)
	}
	if !rep.Panicked || rep.Fault != "sensor exploded" {
		t.Fatalf("report: %+v", rep)
	}
	if agent.State() != StateYielded {
		t.Fatalf("state: %s", agent.State())
	}
	if !strings.Contains(logs.String(), "panic in DECIDING") {
		t.Fatalf("log: %q", logs.String())
	}
	if len(rec.reports) != 1 || !rec.reports[0].Panicked {
		t.Fatalf("recorded: %+v", rec.reports)
	}

	// The agent keeps working on the next round.
	a.NextRound()
	ctl = a.Controller(me.ID)
	rep = agent.Turn(ctl)
	if rep.Fault != "" || ctl.Yields != 1 || rep.Turn != 2 {
		t.Fatalf("second turn: %+v yields=%d", rep, ctl.Yields)
	}
}

func TestTurn_HostErrorIsContainedAndYieldsOnce(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Melee, host.TeamA, host.Position{X: 5, Y: 5})
	agent := NewAgent(me.ID, host.Melee, tuning.Defaults())

	ctl := a.Controller(me.ID)
	rep := agent.Turn(failingMove{ctl})
	if ctl.Yields != 1 {
		t.Fatalf("yields: %d", ctl.Yields)
	}
	if rep.Panicked || !strings.Contains(rep.Fault, "link lost") {
		t.Fatalf("report: %+v", rep)
	}
	if rep.Intents[len(rep.Intents)-1].Status != "FAILED" {
		t.Fatalf("intents: %+v", rep.Intents)
	}
}

func TestTurn_FirstTurnResetIsOrderIndependent(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}
	for _, order := range orders {
		a := hosttest.New(20, 20, 64)
		ids := []int{
			a.Spawn(host.Commander, host.TeamA, host.Position{X: 2, Y: 2}).ID,
			a.Spawn(host.Builder, host.TeamA, host.Position{X: 8, Y: 8}).ID,
			a.Spawn(host.Converter, host.TeamA, host.Position{X: 14, Y: 14}).ID,
		}
		roster := NewRoster(tuning.Defaults(), nil, nil, "")
		for _, i := range order {
			rep := roster.Turn(a.Controller(ids[i]))
			if !rep.Reset {
				t.Fatalf("order %v: agent %d did not reset on its first turn", order, ids[i])
			}
		}
		mem := a.Shared(host.TeamA)
		for i := 0; i < mem.SharedCapacity(); i++ {
			if v, _ := mem.ReadShared(i); v != int(channel.Empty) {
				t.Fatalf("order %v: slot %d = %d", order, i, v)
			}
		}
		if v, _ := a.Shared(host.TeamB).ReadShared(0); v != 0 {
			t.Fatalf("other team's array touched: %d", v)
		}
	}
}

func TestTurn_LateSpawnResetsByDefault(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Builder, host.TeamA, host.Position{X: 4, Y: 4})
	a.Round = 40
	mem := a.Shared(host.TeamA)
	_ = mem.WriteShared(int(channel.SlotOrdinaryID), 12)

	rep := NewAgent(me.ID, host.Builder, tuning.Defaults()).Turn(a.Controller(me.ID))
	if !rep.Reset {
		t.Fatalf("first turn in round 40 did not reset")
	}
	if v, _ := mem.ReadShared(int(channel.SlotOrdinaryID)); v != int(channel.Empty) {
		t.Fatalf("ordinary slot = %d, want empty", v)
	}
}

func TestTurn_ResetWindowLimitsLateSpawns(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Builder, host.TeamA, host.Position{X: 4, Y: 4})
	a.Round = 40
	mem := a.Shared(host.TeamA)
	_ = mem.WriteShared(int(channel.SlotOrdinaryID), 12)

	tune := tuning.Defaults()
	tune.ResetWindowRounds = 1
	rep := NewAgent(me.ID, host.Builder, tune).Turn(a.Controller(me.ID))
	if rep.Reset {
		t.Fatalf("round 40 is outside a 1-round window")
	}
	if v, _ := mem.ReadShared(int(channel.SlotOrdinaryID)); v != 12 {
		t.Fatalf("registry wiped: %d", v)
	}
}

type panicRecorder struct{}

func (panicRecorder) WriteTurn(Report) error { panic("disk gone") }

func TestTurn_PanickingRecorderStillYields(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Builder, host.TeamA, host.Position{X: 4, Y: 4})
	var logs bytes.Buffer
	agent := NewAgent(me.ID, host.Builder, tuning.Defaults(), WithLogger(log.New(&logs, "", 0)), WithRecorder(panicRecorder{}))

	for round := 0; round < 2; round++ {
		ctl := a.Controller(me.ID)
		agent.Turn(ctl)
		if ctl.Yields != 1 {
			t.Fatalf("round %d: yields = %d", round, ctl.Yields)
		}
		if agent.State() != StateYielded {
			t.Fatalf("round %d: state = %s", round, agent.State())
		}
		a.NextRound()
	}
	if !strings.Contains(logs.String(), "recorder panic: disk gone") {
		t.Fatalf("log: %q", logs.String())
	}
}

func TestTurn_MeleeKillsDyingLeaderAndClearsRegistry(t *testing.T) {
	a := hosttest.New(20, 20, 64)
	me := a.Spawn(host.Melee, host.TeamA, host.Position{X: 5, Y: 5})
	leader := a.Spawn(host.Commander, host.TeamB, host.Position{X: 6, Y: 6})
	leader.Health = 3
	a.Round = 10

	ctl := a.Controller(me.ID)
	ch, _ := channel.New(ctl)
	_ = ch.Reset()
	reg := registry.New(ch, registry.Config{LowHealth: 3, EvictAfterVacant: 3})
	if ok, err := reg.TryPublishPriority(leader.Pos); !ok || err != nil {
		t.Fatalf("seed registry: ok=%v err=%v", ok, err)
	}

	tune := tuning.Defaults()
	tune.ResetWindowRounds = 1
	rep := NewAgent(me.ID, host.Melee, tune).Turn(ctl)
	if rep.Fault != "" {
		t.Fatalf("fault: %s", rep.Fault)
	}
	if rep.Registry.Kind != "PRIORITY" {
		t.Fatalf("registry view before deciding: %+v", rep.Registry)
	}
	if a.Agent(leader.ID) != nil {
		t.Fatalf("leader should be dead")
	}
	if rec, _ := reg.Resolve(); rec.Kind != registry.KindEmpty {
		t.Fatalf("registry after kill: %+v", rec)
	}
	if len(ctl.Actions) != 1 || ctl.Actions[0] != "ATTACK (6,6)" {
		t.Fatalf("actions: %v", ctl.Actions)
	}
}

func TestTurn_SameSeedSameGame(t *testing.T) {
	play := func() []string {
		a := hosttest.New(12, 12, 64)
		a.SetStock(host.TeamA, host.Primary, 1000)
		a.Spawn(host.Commander, host.TeamA, host.Position{X: 6, Y: 6})
		roster := NewRoster(tuning.Defaults(), nil, nil, "")
		var actions []string
		for round := 0; round < 6; round++ {
			for _, ag := range a.Agents() {
				if a.Agent(ag.ID) == nil {
					continue
				}
				ctl := a.Controller(ag.ID)
				roster.Turn(ctl)
				actions = append(actions, ctl.Actions...)
			}
			a.NextRound()
		}
		return actions
	}
	first, second := play(), play()
	if strings.Join(first, "|") != strings.Join(second, "|") {
		t.Fatalf("runs diverged:\n%v\n%v", first, second)
	}
	if len(first) == 0 || !strings.HasPrefix(first[0], "BUILD HARVESTER") {
		t.Fatalf("commander should open with a harvester: %v", first)
	}
}
