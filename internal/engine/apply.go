package engine

import (
	"fmt"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/registry"
)

// maxMinesPerIntent bounds the mine loop against a host whose predicate
// never turns false.
const maxMinesPerIntent = 1024

// Status is what happened to an intent.
type Status int

const (
	StatusApplied Status = iota + 1
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "APPLIED"
	case StatusSkipped:
		return "SKIPPED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result records one intent of an applied plan.
type Result struct {
	Intent Intent
	Status Status
	// Count is the number of host actions performed (mines can be many).
	Count int
	// UsedFallback is set when Intent itself was infeasible and its
	// fallback was applied instead.
	UsedFallback bool
}

// Outcome summarises an applied plan.
type Outcome struct {
	Results []Result
	Applied int
	Skipped int
}

// Apply executes plan in order. Each intent's feasibility is checked right
// before it runs, since earlier intents change the world. Infeasible intents
// are skipped. The first host error stops the plan and is returned along
// with everything applied so far.
func Apply(h host.Host, reg *registry.Registry, plan Plan) (Outcome, error) {
	var out Outcome
	for _, in := range plan.Intents {
		res, err := applyWithFallback(h, reg, in)
		out.Results = append(out.Results, res)
		switch res.Status {
		case StatusApplied:
			out.Applied++
		case StatusSkipped:
			out.Skipped++
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", in, err)
		}
	}
	return out, nil
}

func applyWithFallback(h host.Host, reg *registry.Registry, in Intent) (Result, error) {
	n, err := applyOne(h, reg, in)
	if err != nil {
		return Result{Intent: in, Status: StatusFailed, Count: n}, err
	}
	if n > 0 {
		return Result{Intent: in, Status: StatusApplied, Count: n}, nil
	}
	if in.Fallback == nil {
		return Result{Intent: in, Status: StatusSkipped}, nil
	}
	res, err := applyWithFallback(h, reg, *in.Fallback)
	res.Intent = in
	res.UsedFallback = res.Status == StatusApplied || res.UsedFallback
	return res, err
}

// applyOne returns how many host actions or registry changes it made;
// zero means the intent was infeasible.
func applyOne(h host.Host, reg *registry.Registry, in Intent) (int, error) {
	switch in.Kind {
	case KindMove:
		if !h.CanMove(in.Dir) {
			return 0, nil
		}
		return 1, h.Move(in.Dir)

	case KindAttack:
		if !h.CanAttack(in.Pos) {
			return 0, nil
		}
		return 1, h.Attack(in.Pos)

	case KindMine:
		return mine(h, in)

	case KindBuild:
		if !h.CanBuild(in.Role, in.Dir) {
			return 0, nil
		}
		return 1, h.Build(in.Role, in.Dir)

	case KindTransmute:
		if !h.CanTransmute() {
			return 0, nil
		}
		return 1, h.Transmute()

	case KindPublishPriority:
		return counted(reg.TryPublishPriority(in.Pos))
	case KindPublishOrdinary:
		return counted(reg.TryPublishOrdinary(in.ID))
	case KindRetractPriority:
		return counted(reg.RetractPriorityIfDying(in.Health))
	case KindRetractOrdinary:
		return counted(reg.RetractOrdinaryIfDying(in.Health))
	case KindNoteVacant:
		bumped, _, err := reg.NoteVacant(in.Round)
		return counted(bumped, err)
	case KindNoteOccupied:
		return counted(reg.ClearVacancy())
	}
	return 0, fmt.Errorf("unknown intent kind %d", int(in.Kind))
}

func mine(h host.Host, in Intent) (int, error) {
	n := 0
	for n < maxMinesPerIntent && h.CanMine(in.Resource, in.Pos) {
		if in.Floor > 0 {
			left, err := h.SenseResource(in.Resource, in.Pos)
			if err != nil {
				return n, err
			}
			if left <= in.Floor {
				break
			}
		}
		if err := h.Mine(in.Resource, in.Pos); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func counted(changed bool, err error) (int, error) {
	if changed {
		return 1, err
	}
	return 0, err
}
