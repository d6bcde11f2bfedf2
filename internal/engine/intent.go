package engine

import (
	"fmt"
	"strings"

	"focusfire.ai/internal/host"
)

// Kind is the primitive an Intent asks for.
type Kind int

const (
	KindMove Kind = iota + 1
	KindAttack
	KindMine
	KindBuild
	KindTransmute
	KindPublishPriority
	KindPublishOrdinary
	KindRetractPriority
	KindRetractOrdinary
	KindNoteVacant
	KindNoteOccupied
)

var kindNames = map[Kind]string{
	KindMove:            "MOVE",
	KindAttack:          "ATTACK",
	KindMine:            "MINE",
	KindBuild:           "BUILD",
	KindTransmute:       "TRANSMUTE",
	KindPublishPriority: "PUBLISH_PRIORITY",
	KindPublishOrdinary: "PUBLISH_ORDINARY",
	KindRetractPriority: "RETRACT_PRIORITY",
	KindRetractOrdinary: "RETRACT_ORDINARY",
	KindNoteVacant:      "NOTE_VACANT",
	KindNoteOccupied:    "NOTE_OCCUPIED",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Intent is one step of a plan. Only the fields relevant to Kind are set.
type Intent struct {
	Kind Kind

	Dir      host.Direction
	Pos      host.Position
	Resource host.Resource
	// Floor is the amount a Mine intent leaves in the cell.
	Floor int
	Role  host.Role
	ID    int
	// Health is the observation that justifies a retraction.
	Health int
	// Round dates a vacancy observation.
	Round int

	// Fallback is tried only when this intent is infeasible.
	Fallback *Intent
}

func Move(d host.Direction) Intent               { return Intent{Kind: KindMove, Dir: d} }
func Attack(p host.Position) Intent              { return Intent{Kind: KindAttack, Pos: p} }
func Build(r host.Role, d host.Direction) Intent { return Intent{Kind: KindBuild, Role: r, Dir: d} }
func Transmute() Intent                          { return Intent{Kind: KindTransmute} }

func Mine(kind host.Resource, p host.Position, floor int) Intent {
	return Intent{Kind: KindMine, Resource: kind, Pos: p, Floor: floor}
}

func PublishPriority(p host.Position) Intent { return Intent{Kind: KindPublishPriority, Pos: p} }
func PublishOrdinary(id int) Intent          { return Intent{Kind: KindPublishOrdinary, ID: id} }
func RetractPriority(health int) Intent      { return Intent{Kind: KindRetractPriority, Health: health} }
func RetractOrdinary(health int) Intent      { return Intent{Kind: KindRetractOrdinary, Health: health} }
func NoteVacant(round int) Intent            { return Intent{Kind: KindNoteVacant, Round: round} }
func NoteOccupied() Intent                   { return Intent{Kind: KindNoteOccupied} }

// Or returns a copy of in that falls back to alt.
func (in Intent) Or(alt Intent) Intent {
	in.Fallback = &alt
	return in
}

func (in Intent) String() string {
	var s string
	switch in.Kind {
	case KindMove:
		s = fmt.Sprintf("MOVE %s", in.Dir)
	case KindAttack:
		s = fmt.Sprintf("ATTACK %s", in.Pos)
	case KindMine:
		s = fmt.Sprintf("MINE %s %s>%d", in.Resource, in.Pos, in.Floor)
	case KindBuild:
		s = fmt.Sprintf("BUILD %s %s", in.Role, in.Dir)
	case KindPublishPriority:
		s = fmt.Sprintf("PUBLISH_PRIORITY %s", in.Pos)
	case KindPublishOrdinary:
		s = fmt.Sprintf("PUBLISH_ORDINARY #%d", in.ID)
	case KindRetractPriority, KindRetractOrdinary:
		s = fmt.Sprintf("%s hp=%d", in.Kind, in.Health)
	case KindNoteVacant:
		s = fmt.Sprintf("NOTE_VACANT round=%d", in.Round)
	default:
		s = in.Kind.String()
	}
	if in.Fallback != nil {
		s += " | " + in.Fallback.String()
	}
	return s
}

// Plan is the ordered output of one decision.
type Plan struct {
	Role    host.Role
	Intents []Intent
	// Note is a short human-readable summary of why, for turn records.
	Note string
}

func (p *Plan) add(in ...Intent) { p.Intents = append(p.Intents, in...) }

func (p Plan) String() string {
	parts := make([]string, len(p.Intents))
	for i, in := range p.Intents {
		parts[i] = in.String()
	}
	return fmt.Sprintf("%s[%s]", p.Role, strings.Join(parts, "; "))
}
