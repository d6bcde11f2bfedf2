// Package host declares the contract between the decision core and the
// simulation that schedules it. The simulation owns physics, vision,
// the economy and the shared arrays; the core only calls through Host.
package host

import "errors"

var (
	// ErrIllegalAction is returned by an action primitive whose
	// preconditions no longer hold when it is applied.
	ErrIllegalAction = errors.New("illegal action")
	// ErrNotSensed is returned when a sensing call names an agent or cell
	// outside the caller's vision.
	ErrNotSensed = errors.New("not sensed")
)

// Sensor is the per-tick read side of the host.
type Sensor interface {
	Self() Self
	// Round is the global game round, starting at 1.
	Round() int

	// SenseNearby returns agents of team within radiusSq of the caller, in
	// host order. A negative radiusSq means the caller's vision radius.
	SenseNearby(radiusSq int, team Team) ([]SensedAgent, error)
	CanSenseAgent(id int) bool
	SenseAgent(id int) (SensedAgent, error)
	// SenseAgentAt returns ok=false when the cell is visible and empty.
	SenseAgentAt(p Position) (a SensedAgent, ok bool, err error)
	LocationsWithin(center Position, radiusSq int) ([]Position, error)
	SenseResource(kind Resource, p Position) (int, error)
	TeamStock(team Team, kind Resource) int
}

// Actuator pairs every action primitive with its feasibility predicate.
type Actuator interface {
	CanMove(d Direction) bool
	Move(d Direction) error
	CanAttack(p Position) bool
	Attack(p Position) error
	CanMine(kind Resource, p Position) bool
	Mine(kind Resource, p Position) error
	CanBuild(role Role, d Direction) bool
	Build(role Role, d Direction) error
	CanTransmute() bool
	Transmute() error
}

// SharedArray is the team-scoped shared memory exposed by the host.
type SharedArray interface {
	SharedCapacity() int
	ReadShared(index int) (int, error)
	WriteShared(index, value int) error
}

// Host is everything an agent can touch during its turn. Yield ends the
// turn and hands control back to the simulation.
type Host interface {
	Sensor
	Actuator
	SharedArray
	Yield() error
}
