// Package engine turns a sensed snapshot into an ordered plan of intents,
// one decision function per role, and applies plans through the host.
package engine

import (
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/tuning"
)

// Rand is the randomness a decision may consume. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Decide is pure: the same snapshot, tuning and random sequence always give
// the same plan.
func Decide(s Snapshot, rng Rand, t tuning.Tuning) Plan {
	switch s.Self.Role {
	case host.Commander:
		return decideCommander(s, rng, t)
	case host.Harvester:
		return decideHarvester(s, rng, t)
	case host.Melee:
		return decideMelee(s, rng, t)
	case host.RangedTower:
		return decideRangedTower(s)
	case host.Builder:
		return decideBuilder(s, rng, t)
	case host.Converter:
		return decideConverter(s)
	case host.Caster:
		return decideCaster(s)
	default:
		return Plan{Role: s.Self.Role, Note: "unknown role"}
	}
}

func randomDirection(rng Rand) host.Direction {
	return host.Directions[rng.Intn(len(host.Directions))]
}

func decideCommander(s Snapshot, rng Rand, t tuning.Tuning) Plan {
	p := Plan{Role: host.Commander}
	dir := randomDirection(rng)
	if harvesterPhase(s.Turn, t.Commander) {
		p.Note = "build harvester"
		p.add(Build(host.Harvester, dir))
	} else {
		p.Note = "build melee"
		p.add(Build(host.Melee, dir))
	}
	return p
}

func harvesterPhase(turn int, c tuning.CommanderTuning) bool {
	return turn < c.EarlyHarvesterTurns || (turn > c.ResurgenceStart && turn < c.ResurgenceEnd)
}

func decideRangedTower(s Snapshot) Plan {
	p := Plan{Role: host.RangedTower}
	if len(s.Enemies) > 0 {
		p.Note = "fire"
		p.add(Attack(s.Enemies[0].Pos))
	}
	return p
}

func decideBuilder(s Snapshot, rng Rand, t tuning.Tuning) Plan {
	p := Plan{Role: host.Builder}
	dir := randomDirection(rng)
	if s.SecondaryStock >= t.Builder.CasterSecondaryCost {
		p.add(Build(host.Caster, dir))
	}
	if rng.Intn(2) == 1 {
		p.Note = "build converter"
		p.add(Build(host.Converter, dir))
	} else {
		p.Note = "build tower"
		p.add(Build(host.RangedTower, dir))
	}
	return p
}

func decideConverter(s Snapshot) Plan {
	return Plan{Role: host.Converter, Intents: []Intent{Transmute()}}
}

// decideCaster is a deliberate no-op: the role has no behaviour yet.
func decideCaster(s Snapshot) Plan {
	return Plan{Role: host.Caster, Note: "idle"}
}
