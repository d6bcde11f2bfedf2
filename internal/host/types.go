package host

import "fmt"

// Team identifies one side of a game.
type Team int

const (
	TeamA Team = iota
	TeamB
)

func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return fmt.Sprintf("Team(%d)", int(t))
	}
}

// ParseTeam accepts "A" or "B".
func ParseTeam(s string) (Team, bool) {
	switch s {
	case "A":
		return TeamA, true
	case "B":
		return TeamB, true
	}
	return TeamA, false
}

// Role is the archetype an agent is created with. It never changes.
type Role int

const (
	Commander Role = iota
	Harvester
	Melee
	RangedTower
	Builder
	Converter
	Caster
)

// Roles lists every role in declaration order.
var Roles = [...]Role{Commander, Harvester, Melee, RangedTower, Builder, Converter, Caster}

var roleNames = [...]string{"COMMANDER", "HARVESTER", "MELEE", "RANGED_TOWER", "BUILDER", "CONVERTER", "CASTER"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func ParseRole(s string) (Role, bool) {
	for i, n := range roleNames {
		if n == s {
			return Role(i), true
		}
	}
	return Commander, false
}

// IsLeader reports whether r is the high-value unit that the team tracks as
// a priority target.
func (r Role) IsLeader() bool { return r == Commander }

// Resource is a minable field kind.
type Resource int

const (
	// Primary is the abundant resource.
	Primary Resource = iota
	// Secondary is the scarce resource; Builders spend it on Casters.
	Secondary
)

func (r Resource) String() string {
	switch r {
	case Primary:
		return "PRIMARY"
	case Secondary:
		return "SECONDARY"
	default:
		return fmt.Sprintf("Resource(%d)", int(r))
	}
}

func ParseResource(s string) (Resource, bool) {
	switch s {
	case "PRIMARY":
		return Primary, true
	case "SECONDARY":
		return Secondary, true
	}
	return Primary, false
}

// SensedAgent is what the host reports about a visible agent this tick.
type SensedAgent struct {
	ID     int
	Role   Role
	Team   Team
	Pos    Position
	Health int
}

// Self describes the acting agent. Radii are squared distances and depend
// on the role.
type Self struct {
	ID             int
	Role           Role
	Team           Team
	Pos            Position
	Health         int
	ActionRadiusSq int
	VisionRadiusSq int
}
