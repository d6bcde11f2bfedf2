package engine

import (
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/tuning"
)

// decideMelee implements focus fire.
//
// A known enemy leader takes precedence over everything: close in, attack,
// and retract it from the registry once it is about to die. Without one, the
// team converges on a single ordinary target by id. The registry is trusted
// blindly whenever the target is out of sight.
func decideMelee(s Snapshot, rng Rand, t tuning.Tuning) Plan {
	p := Plan{Role: host.Melee}
	self := s.Self

	target, hasTarget := s.Registry.Priority, s.Registry.HasPriority
	visible, occupied, occupant := s.PriorityVisible, s.PriorityOccupied, s.PriorityOccupant
	if !hasTarget {
		if leader, ok := firstLeader(s.Enemies); ok {
			p.add(PublishPriority(leader.Pos))
			target, hasTarget = leader.Pos, true
			visible, occupied, occupant = true, true, leader
		}
	}

	switch {
	case hasTarget:
		if self.Pos.DistanceSquaredTo(target) <= self.ActionRadiusSq {
			switch {
			case occupied:
				p.Note = "engage leader"
				if s.Registry.Vacancy > 0 {
					p.add(NoteOccupied())
				}
				if occupant.Health <= t.LowHealth {
					p.add(RetractPriority(occupant.Health))
				}
				p.add(Attack(target))
			case visible:
				p.Note = "leader cell vacant"
				p.add(NoteVacant(s.Round))
			}
		} else {
			p.Note = "advance on " + target.String()
			p.add(Move(self.Pos.DirectionTo(target)))
		}

	case len(s.Enemies) > 0:
		nearest := s.Enemies[0]
		switch {
		case !s.Registry.HasOrdinary:
			p.Note = "mark target"
			p.add(PublishOrdinary(nearest.ID))
		case s.OrdinarySensed && s.Ordinary.Health <= t.LowHealth:
			p.Note = "finish target"
			p.add(Attack(s.Ordinary.Pos), RetractOrdinary(s.Ordinary.Health))
		case s.OrdinarySensed:
			p.Note = "focus fire"
			p.add(Attack(s.Ordinary.Pos).Or(Attack(nearest.Pos)))
		default:
			p.Note = "fire at nearest"
			p.add(Attack(nearest.Pos))
		}
	}

	step := randomDirection(rng)
	if !hasTarget {
		p.add(Move(step))
	}
	return p
}
