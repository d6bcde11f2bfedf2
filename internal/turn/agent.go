// Package turn drives one decision cycle per agent per round.
//
// Every call to Agent.Turn walks Idle -> Deciding -> Applying -> Yielded and
// ends with exactly one Yield on the host, whatever fails in between.
package turn

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"runtime/debug"
	"time"

	"focusfire.ai/internal/channel"
	"focusfire.ai/internal/engine"
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/registry"
	"focusfire.ai/internal/tuning"
)

type State int

const (
	StateIdle State = iota
	StateDeciding
	StateApplying
	StateYielded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDeciding:
		return "DECIDING"
	case StateApplying:
		return "APPLYING"
	case StateYielded:
		return "YIELDED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recorder receives every turn report. Errors are logged, never fatal.
type Recorder interface {
	WriteTurn(Report) error
}

// Agent is the only state an agent keeps between rounds: its turn counter
// and its random source.
type Agent struct {
	ID   int
	Role host.Role

	tune    tuning.Tuning
	rng     engine.Rand
	log     *log.Logger
	rec     Recorder
	session string

	turns int
	state State
}

type Option func(*Agent)

// WithRand replaces the seeded source, for tests that script choices.
func WithRand(r engine.Rand) Option { return func(a *Agent) { a.rng = r } }

func WithLogger(l *log.Logger) Option { return func(a *Agent) { a.log = l } }

func WithRecorder(r Recorder) Option { return func(a *Agent) { a.rec = r } }

func WithSession(id string) Option { return func(a *Agent) { a.session = id } }

// NewAgent creates the per-agent state the first time the host schedules id.
// The random source is seeded once from the tuning seed and the id.
func NewAgent(id int, role host.Role, t tuning.Tuning, opts ...Option) *Agent {
	a := &Agent{
		ID:   id,
		Role: role,
		tune: t,
		rng:  rand.New(rand.NewSource(t.Seed ^ int64(id))),
		log:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Turns() int   { return a.turns }
func (a *Agent) State() State { return a.state }

// Turn runs one full cycle against h. Faults from deciding or applying are
// caught here, logged and reported; the host is always yielded to once.
func (a *Agent) Turn(h host.Host) (rep Report) {
	a.turns++
	a.state = StateIdle
	start := time.Now()
	rep = Report{SessionID: a.session, Turn: a.turns, AgentID: a.ID, Role: a.Role.String()}

	// Registered first so it runs last, after recording, whatever happens.
	defer func() {
		if err := h.Yield(); err != nil {
			a.log.Printf("turn %d: yield: %v", a.turns, err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			rep.Panicked = true
			rep.Fault = fmt.Sprint(r)
			a.log.Printf("turn %d: panic in %s: %v\n%s", a.turns, a.state, r, debug.Stack())
		}
		a.state = StateYielded
		rep.DurationMicros = time.Since(start).Microseconds()
		a.record(rep)
	}()

	if err := a.cycle(h, &rep); err != nil {
		rep.Fault = err.Error()
		a.log.Printf("turn %d: %s: %v", a.turns, a.state, err)
	}
	return rep
}

// record hands rep to the recorder. A failing or panicking recorder costs
// the record, never the turn.
func (a *Agent) record(rep Report) {
	if a.rec == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Printf("turn %d: recorder panic: %v", a.turns, r)
		}
	}()
	if err := a.rec.WriteTurn(rep); err != nil {
		a.log.Printf("turn %d: record: %v", a.turns, err)
	}
}

func (a *Agent) cycle(h host.Host, rep *Report) error {
	a.state = StateDeciding
	self := h.Self()
	rep.setSelf(self)
	rep.Round = h.Round()

	ch, err := channel.New(h)
	if err != nil {
		return err
	}
	if a.turns == 1 && (a.tune.ResetWindowRounds <= 0 || rep.Round <= a.tune.ResetWindowRounds) {
		if err := ch.Reset(); err != nil {
			return fmt.Errorf("reset channel: %w", err)
		}
		rep.Reset = true
	}

	reg := registry.New(ch, registry.Config{
		LowHealth:        a.tune.LowHealth,
		EvictAfterVacant: a.tune.EvictAfterVacantTurns,
	})
	rs, err := reg.Snapshot()
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	rep.Registry = viewOf(rs)

	snap, err := engine.Sense(h, rs, a.turns)
	if err != nil {
		return fmt.Errorf("sense: %w", err)
	}
	plan := engine.Decide(snap, a.rng, a.tune)
	rep.setPlan(plan)

	a.state = StateApplying
	out, err := engine.Apply(h, reg, plan)
	rep.setOutcome(out)
	return err
}
