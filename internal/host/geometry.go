package host

import "fmt"

// Position is a cell on the host grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func (p Position) Add(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) DistanceSquaredTo(o Position) int {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// DirectionTo returns the compass direction that best approximates the
// heading from p to o. Center is returned when p == o.
func (p Position) DirectionTo(o Position) Direction {
	dx := o.X - p.X
	dy := o.Y - p.Y
	if dx == 0 && dy == 0 {
		return Center
	}
	ax, ay := abs(dx), abs(dy)
	// tan(22.5deg) ~= 5/12: a heading within that cone of an axis snaps to it.
	sx, sy := sign(dx), sign(dy)
	if 12*ay < 5*ax {
		sy = 0
	} else if 12*ax < 5*ay {
		sx = 0
	}
	return directionOf(sx, sy)
}

// Direction is one of the eight compass directions, or Center.
type Direction int

const (
	Center Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists the eight movement directions in compass order.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionNames = [...]string{"CENTER", "NORTH", "NORTHEAST", "EAST", "SOUTHEAST", "SOUTH", "SOUTHWEST", "WEST", "NORTHWEST"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return Center, false
}

// Delta returns the unit step for d. North increases Y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case NorthEast:
		return 1, 1
	case East:
		return 1, 0
	case SouthEast:
		return 1, -1
	case South:
		return 0, -1
	case SouthWest:
		return -1, -1
	case West:
		return -1, 0
	case NorthWest:
		return -1, 1
	default:
		return 0, 0
	}
}

func directionOf(dx, dy int) Direction {
	for _, d := range Directions {
		x, y := d.Delta()
		if x == dx && y == dy {
			return d
		}
	}
	return Center
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
