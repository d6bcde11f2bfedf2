package engine

import (
	"errors"
	"sort"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/registry"
)

// Cell is a resource reading at one position.
type Cell struct {
	Pos       host.Position
	Primary   int
	Secondary int
}

// Snapshot is everything a decision may look at. It is gathered once at
// the start of the turn; decisions never call the host.
type Snapshot struct {
	// Turn counts this agent's own turns, starting at 1.
	Turn  int
	Round int
	Self  host.Self

	// Enemies within the action radius, nearest first. Ties keep host order.
	Enemies []host.SensedAgent

	Registry registry.Snapshot

	// PriorityVisible is set when the recorded priority cell lies inside the
	// vision radius. PriorityOccupant is the enemy standing there, if any.
	PriorityVisible  bool
	PriorityOccupied bool
	PriorityOccupant host.SensedAgent

	// OrdinarySensed is set when the registered focus-fire target is visible.
	OrdinarySensed bool
	Ordinary       host.SensedAgent

	// Visible resource cells outside the 3x3 neighborhood (Harvester only).
	Visible []Cell

	SecondaryStock int
}

// Sense gathers the snapshot for the acting agent. Only what the role's
// decision reads is queried, since every host call may be a round trip.
func Sense(s host.Sensor, reg registry.Snapshot, turn int) (Snapshot, error) {
	self := s.Self()
	snap := Snapshot{
		Turn:     turn,
		Round:    s.Round(),
		Self:     self,
		Registry: reg,
	}

	switch self.Role {
	case host.Harvester, host.Melee, host.RangedTower:
		enemies, err := s.SenseNearby(self.ActionRadiusSq, self.Team.Opponent())
		if err != nil {
			return snap, err
		}
		snap.Enemies = byDistance(self.Pos, enemies)
	}

	switch self.Role {
	case host.Harvester:
		cells, err := senseResources(s, self)
		if err != nil {
			return snap, err
		}
		snap.Visible = cells
	case host.Melee:
		if err := senseTargets(s, &snap); err != nil {
			return snap, err
		}
	case host.Builder:
		snap.SecondaryStock = s.TeamStock(self.Team, host.Secondary)
	}
	return snap, nil
}

func senseTargets(s host.Sensor, snap *Snapshot) error {
	self := snap.Self
	if snap.Registry.HasPriority && self.Pos.DistanceSquaredTo(snap.Registry.Priority) <= self.VisionRadiusSq {
		a, ok, err := s.SenseAgentAt(snap.Registry.Priority)
		switch {
		case errors.Is(err, host.ErrNotSensed):
		case err != nil:
			return err
		default:
			// A friend standing there means the leader has moved on.
			snap.PriorityVisible = true
			snap.PriorityOccupied = ok && a.Team != self.Team
			if snap.PriorityOccupied {
				snap.PriorityOccupant = a
			}
		}
	}
	if snap.Registry.HasOrdinary && s.CanSenseAgent(snap.Registry.OrdinaryID) {
		a, err := s.SenseAgent(snap.Registry.OrdinaryID)
		switch {
		case errors.Is(err, host.ErrNotSensed):
		case err != nil:
			return err
		default:
			snap.OrdinarySensed = true
			snap.Ordinary = a
		}
	}
	return nil
}

func senseResources(s host.Sensor, self host.Self) ([]Cell, error) {
	locs, err := s.LocationsWithin(self.Pos, self.VisionRadiusSq)
	if err != nil {
		return nil, err
	}
	out := make([]Cell, 0, len(locs))
	for _, p := range locs {
		if inNeighborhood(self.Pos, p) {
			continue
		}
		c := Cell{Pos: p}
		if c.Secondary, err = s.SenseResource(host.Secondary, p); err != nil {
			if errors.Is(err, host.ErrNotSensed) {
				continue
			}
			return nil, err
		}
		if c.Primary, err = s.SenseResource(host.Primary, p); err != nil {
			if errors.Is(err, host.ErrNotSensed) {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// inNeighborhood reports whether p is within one step of center. Those
// cells are mined out during the turn, so they are never walk targets.
func inNeighborhood(center, p host.Position) bool {
	dx, dy := p.X-center.X, p.Y-center.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func byDistance(from host.Position, agents []host.SensedAgent) []host.SensedAgent {
	out := append([]host.SensedAgent(nil), agents...)
	sort.SliceStable(out, func(i, j int) bool {
		return from.DistanceSquaredTo(out[i].Pos) < from.DistanceSquaredTo(out[j].Pos)
	})
	return out
}
