package hosttest

import (
	"fmt"

	"focusfire.ai/internal/host"
)

// Controller implements host.Host for a single turn of a single agent.
type Controller struct {
	arena *Arena
	self  *Agent

	moved      bool
	attacked   bool
	built      bool
	transmuted bool

	// Yields counts Yield calls; a well-behaved turn yields exactly once.
	Yields int
	// Actions logs every applied action in order, e.g. "MOVE NORTH".
	Actions []string
}

var _ host.Host = (*Controller)(nil)

func (c *Controller) radii() Radii { return DefaultRadii[c.self.Role] }

func (c *Controller) visible(p host.Position) bool {
	return c.arena.InBounds(p) && c.self.Pos.DistanceSquaredTo(p) <= c.radii().Vision
}

func (c *Controller) record(format string, args ...any) {
	c.Actions = append(c.Actions, fmt.Sprintf(format, args...))
}

func (c *Controller) Self() host.Self {
	r := c.radii()
	return host.Self{
		ID:             c.self.ID,
		Role:           c.self.Role,
		Team:           c.self.Team,
		Pos:            c.self.Pos,
		Health:         c.self.Health,
		ActionRadiusSq: r.Action,
		VisionRadiusSq: r.Vision,
	}
}

func (c *Controller) Round() int { return c.arena.Round }

func (c *Controller) SenseNearby(radiusSq int, team host.Team) ([]host.SensedAgent, error) {
	if radiusSq < 0 || radiusSq > c.radii().Vision {
		radiusSq = c.radii().Vision
	}
	var out []host.SensedAgent
	for _, ag := range c.arena.Agents() {
		if ag.ID == c.self.ID || ag.Team != team {
			continue
		}
		if c.self.Pos.DistanceSquaredTo(ag.Pos) <= radiusSq {
			out = append(out, ag.sensed())
		}
	}
	return out, nil
}

func (c *Controller) CanSenseAgent(id int) bool {
	ag := c.arena.agents[id]
	return ag != nil && c.visible(ag.Pos)
}

func (c *Controller) SenseAgent(id int) (host.SensedAgent, error) {
	if !c.CanSenseAgent(id) {
		return host.SensedAgent{}, fmt.Errorf("agent %d: %w", id, host.ErrNotSensed)
	}
	return c.arena.agents[id].sensed(), nil
}

func (c *Controller) SenseAgentAt(p host.Position) (host.SensedAgent, bool, error) {
	if !c.visible(p) {
		return host.SensedAgent{}, false, fmt.Errorf("cell %v: %w", p, host.ErrNotSensed)
	}
	ag := c.arena.AgentAt(p)
	if ag == nil {
		return host.SensedAgent{}, false, nil
	}
	return ag.sensed(), true, nil
}

func (c *Controller) LocationsWithin(center host.Position, radiusSq int) ([]host.Position, error) {
	var out []host.Position
	for x := 0; x < c.arena.Width; x++ {
		for y := 0; y < c.arena.Height; y++ {
			p := host.Position{X: x, Y: y}
			if center.DistanceSquaredTo(p) <= radiusSq && c.visible(p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (c *Controller) SenseResource(kind host.Resource, p host.Position) (int, error) {
	if !c.visible(p) {
		return 0, fmt.Errorf("cell %v: %w", p, host.ErrNotSensed)
	}
	return c.arena.Resource(kind, p), nil
}

func (c *Controller) TeamStock(team host.Team, kind host.Resource) int {
	return c.arena.Stock(team, kind)
}

func (c *Controller) CanMove(d host.Direction) bool {
	if c.moved || d == host.Center {
		return false
	}
	to := c.self.Pos.Add(d)
	return c.arena.InBounds(to) && c.arena.AgentAt(to) == nil && !isStationary(c.self.Role)
}

func (c *Controller) Move(d host.Direction) error {
	if !c.CanMove(d) {
		return fmt.Errorf("move %s: %w", d, host.ErrIllegalAction)
	}
	c.self.Pos = c.self.Pos.Add(d)
	c.moved = true
	c.record("MOVE %s", d)
	return nil
}

func (c *Controller) CanAttack(p host.Position) bool {
	if c.attacked || c.self.Pos.DistanceSquaredTo(p) > c.radii().Action {
		return false
	}
	switch c.self.Role {
	case host.Melee, host.RangedTower, host.Caster:
	default:
		return false
	}
	target := c.arena.AgentAt(p)
	return target != nil && target.Team != c.self.Team
}

func (c *Controller) Attack(p host.Position) error {
	if !c.CanAttack(p) {
		return fmt.Errorf("attack %v: %w", p, host.ErrIllegalAction)
	}
	target := c.arena.AgentAt(p)
	target.Health -= c.arena.Damage
	if target.Health <= 0 {
		c.arena.Remove(target.ID)
	}
	c.attacked = true
	c.record("ATTACK %v", p)
	return nil
}

func (c *Controller) CanMine(kind host.Resource, p host.Position) bool {
	return c.self.Role == host.Harvester &&
		c.arena.InBounds(p) &&
		c.self.Pos.DistanceSquaredTo(p) <= mineReachSquared &&
		c.arena.Resource(kind, p) > 0
}

func (c *Controller) Mine(kind host.Resource, p host.Position) error {
	if !c.CanMine(kind, p) {
		return fmt.Errorf("mine %s %v: %w", kind, p, host.ErrIllegalAction)
	}
	c.arena.SetResource(kind, p, c.arena.Resource(kind, p)-1)
	c.arena.stock[c.self.Team][kind]++
	c.record("MINE %s %v", kind, p)
	return nil
}

func (c *Controller) CanBuild(role host.Role, d host.Direction) bool {
	if c.built || d == host.Center || !canBuild(c.self.Role, role) {
		return false
	}
	to := c.self.Pos.Add(d)
	if !c.arena.InBounds(to) || c.arena.AgentAt(to) != nil {
		return false
	}
	cost := DefaultCosts[role]
	return c.arena.Stock(c.self.Team, cost.Resource) >= cost.Amount
}

func (c *Controller) Build(role host.Role, d host.Direction) error {
	if !c.CanBuild(role, d) {
		return fmt.Errorf("build %s %s: %w", role, d, host.ErrIllegalAction)
	}
	cost := DefaultCosts[role]
	c.arena.stock[c.self.Team][cost.Resource] -= cost.Amount
	c.arena.Spawn(role, c.self.Team, c.self.Pos.Add(d))
	c.built = true
	c.record("BUILD %s %s", role, d)
	return nil
}

func (c *Controller) CanTransmute() bool {
	return c.self.Role == host.Converter && !c.transmuted &&
		c.arena.Stock(c.self.Team, host.Primary) >= TransmuteCost
}

func (c *Controller) Transmute() error {
	if !c.CanTransmute() {
		return fmt.Errorf("transmute: %w", host.ErrIllegalAction)
	}
	c.arena.stock[c.self.Team][host.Primary] -= TransmuteCost
	c.arena.stock[c.self.Team][host.Secondary] += TransmuteYield
	c.transmuted = true
	c.record("TRANSMUTE")
	return nil
}

func (c *Controller) SharedCapacity() int { return c.arena.shared[c.self.Team].SharedCapacity() }

func (c *Controller) ReadShared(index int) (int, error) {
	return c.arena.shared[c.self.Team].ReadShared(index)
}

func (c *Controller) WriteShared(index, value int) error {
	return c.arena.shared[c.self.Team].WriteShared(index, value)
}

func (c *Controller) Yield() error {
	c.Yields++
	return nil
}

func isStationary(r host.Role) bool {
	return r == host.Commander || r == host.RangedTower || r == host.Converter
}

func canBuild(builder, role host.Role) bool {
	for _, r := range Builds[builder] {
		if r == role {
			return true
		}
	}
	return false
}
