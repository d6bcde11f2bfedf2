package engine

import (
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/tuning"
)

// decideHarvester mines the 3x3 neighborhood dry, walks toward the richest
// cell it can see, and reports any enemy leader it passes.
func decideHarvester(s Snapshot, rng Rand, t tuning.Tuning) Plan {
	p := Plan{Role: host.Harvester}
	me := s.Self.Pos
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			cell := host.Position{X: me.X + dx, Y: me.Y + dy}
			p.add(
				Mine(host.Secondary, cell, 0),
				Mine(host.Primary, cell, t.Harvester.PrimaryFloor),
			)
		}
	}

	wander := Move(randomDirection(rng))
	if best, ok := richest(s.Visible, t.Harvester.RichPrimary); ok {
		p.Note = "toward " + best.Pos.String()
		p.add(Move(me.DirectionTo(best.Pos)).Or(wander))
	} else {
		p.Note = "wander"
		p.add(wander)
	}

	if !s.Registry.HasPriority {
		if leader, ok := firstLeader(s.Enemies); ok {
			p.Note += ", leader spotted"
			p.add(PublishPriority(leader.Pos))
		}
	}
	return p
}

// richest picks the cell with the most secondary, then the most primary.
// Cells with no secondary and primary at or below richPrimary are ignored.
func richest(cells []Cell, richPrimary int) (Cell, bool) {
	var (
		best  Cell
		found bool
	)
	for _, c := range cells {
		if c.Secondary <= 0 && c.Primary <= richPrimary {
			continue
		}
		if !found || c.Secondary > best.Secondary || (c.Secondary == best.Secondary && c.Primary > best.Primary) {
			best, found = c, true
		}
	}
	return best, found
}

func firstLeader(agents []host.SensedAgent) (host.SensedAgent, bool) {
	for _, a := range agents {
		if a.Role.IsLeader() {
			return a, true
		}
	}
	return host.SensedAgent{}, false
}
