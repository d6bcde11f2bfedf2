// Package hosttest is a small deterministic in-memory host for tests. It
// models just enough of the simulation (bounded grid, occupancy, one move,
// one attack and one build per turn, exhaustible resource cells, team stock
// and shared arrays) to drive the decision core through real turns.
package hosttest

import (
	"fmt"
	"sort"

	"focusfire.ai/internal/channel"
	"focusfire.ai/internal/host"
)

// Radii are squared distances.
type Radii struct {
	Action int
	Vision int
}

// Cost is what building a role takes from the team stock.
type Cost struct {
	Resource host.Resource
	Amount   int
}

var DefaultRadii = map[host.Role]Radii{
	host.Commander:   {Action: 20, Vision: 34},
	host.Harvester:   {Action: 2, Vision: 20},
	host.Melee:       {Action: 13, Vision: 20},
	host.RangedTower: {Action: 20, Vision: 34},
	host.Builder:     {Action: 5, Vision: 20},
	host.Converter:   {Action: 0, Vision: 20},
	host.Caster:      {Action: 25, Vision: 34},
}

var DefaultMaxHealth = map[host.Role]int{
	host.Commander:   100,
	host.Harvester:   40,
	host.Melee:       50,
	host.RangedTower: 130,
	host.Builder:     30,
	host.Converter:   100,
	host.Caster:      100,
}

var DefaultCosts = map[host.Role]Cost{
	host.Harvester:   {host.Primary, 50},
	host.Melee:       {host.Primary, 75},
	host.Builder:     {host.Primary, 40},
	host.RangedTower: {host.Primary, 150},
	host.Converter:   {host.Primary, 180},
	host.Caster:      {host.Secondary, 50},
}

// Builds lists which roles may construct which.
var Builds = map[host.Role][]host.Role{
	host.Commander: {host.Harvester, host.Melee, host.Builder},
	host.Builder:   {host.RangedTower, host.Converter, host.Caster},
}

const (
	DefaultDamage    = 3
	TransmuteCost    = 20
	TransmuteYield   = 1
	mineReachSquared = 2
)

// Agent is the arena's record of a unit.
type Agent struct {
	ID     int
	Role   host.Role
	Team   host.Team
	Pos    host.Position
	Health int
}

func (a *Agent) sensed() host.SensedAgent {
	return host.SensedAgent{ID: a.ID, Role: a.Role, Team: a.Team, Pos: a.Pos, Health: a.Health}
}

// Arena holds the whole world. It is not safe for concurrent use; turns are
// run one at a time like a real host.
type Arena struct {
	Width, Height int
	Round         int
	Damage        int

	agents    map[int]*Agent
	resources map[host.Resource]map[host.Position]int
	stock     map[host.Team]map[host.Resource]int
	shared    map[host.Team]*channel.Memory
	nextID    int
}

// New returns an arena at round 1 whose shared arrays hold zeros, as a
// fresh game does.
func New(width, height, slots int) *Arena {
	a := &Arena{
		Width:  width,
		Height: height,
		Round:  1,
		Damage: DefaultDamage,
		agents: map[int]*Agent{},
		resources: map[host.Resource]map[host.Position]int{
			host.Primary:   {},
			host.Secondary: {},
		},
		stock: map[host.Team]map[host.Resource]int{
			host.TeamA: {},
			host.TeamB: {},
		},
		shared: map[host.Team]*channel.Memory{
			host.TeamA: channel.NewMemory(slots, 0),
			host.TeamB: channel.NewMemory(slots, 0),
		},
		nextID: 1,
	}
	return a
}

func (a *Arena) InBounds(p host.Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < a.Width && p.Y < a.Height
}

// Spawn places a unit at full health. It panics on an occupied or
// out-of-bounds cell since that is a broken test setup.
func (a *Arena) Spawn(role host.Role, team host.Team, pos host.Position) *Agent {
	if !a.InBounds(pos) {
		panic(fmt.Sprintf("hosttest: spawn out of bounds at %v", pos))
	}
	if a.AgentAt(pos) != nil {
		panic(fmt.Sprintf("hosttest: spawn on occupied cell %v", pos))
	}
	ag := &Agent{ID: a.nextID, Role: role, Team: team, Pos: pos, Health: DefaultMaxHealth[role]}
	a.nextID++
	a.agents[ag.ID] = ag
	return ag
}

func (a *Arena) Agent(id int) *Agent { return a.agents[id] }

func (a *Arena) AgentAt(p host.Position) *Agent {
	for _, ag := range a.agents {
		if ag.Pos == p {
			return ag
		}
	}
	return nil
}

// Agents returns live units ordered by id, the order a host schedules them.
func (a *Arena) Agents() []*Agent {
	out := make([]*Agent, 0, len(a.agents))
	for _, ag := range a.agents {
		out = append(out, ag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (a *Arena) Remove(id int) { delete(a.agents, id) }

func (a *Arena) SetResource(kind host.Resource, p host.Position, amount int) {
	if amount <= 0 {
		delete(a.resources[kind], p)
		return
	}
	a.resources[kind][p] = amount
}

func (a *Arena) Resource(kind host.Resource, p host.Position) int {
	return a.resources[kind][p]
}

func (a *Arena) SetStock(team host.Team, kind host.Resource, amount int) {
	a.stock[team][kind] = amount
}

func (a *Arena) Stock(team host.Team, kind host.Resource) int {
	return a.stock[team][kind]
}

// Shared exposes a team's shared array for assertions.
func (a *Arena) Shared(team host.Team) *channel.Memory { return a.shared[team] }

// NextRound advances the global round counter.
func (a *Arena) NextRound() { a.Round++ }

// Controller binds the arena to one acting agent for one turn.
func (a *Arena) Controller(id int) *Controller {
	ag := a.agents[id]
	if ag == nil {
		panic(fmt.Sprintf("hosttest: no agent %d", id))
	}
	return &Controller{arena: a, self: ag}
}

// PlayRound schedules every live unit of team once, in id order, then
// advances the round. Units spawned during the round act from the next one.
// The first error stops the round.
func (a *Arena) PlayRound(team host.Team, turn func(*Controller) error) error {
	defer a.NextRound()
	for _, ag := range a.Agents() {
		if ag.Team != team || a.agents[ag.ID] == nil {
			continue
		}
		if err := turn(a.Controller(ag.ID)); err != nil {
			return err
		}
	}
	return nil
}

// Alive reports whether team still has a unit of role.
func (a *Arena) Alive(team host.Team, role host.Role) bool {
	for _, ag := range a.agents {
		if ag.Team == team && ag.Role == role {
			return true
		}
	}
	return false
}
