// Package registry layers the team's shared target record on top of the
// shared channel.
//
// There is no owner and no lock. Any agent may publish into an empty record
// and any agent that can see the referent may retract it, so every value read
// here is a hint: it was true for somebody at some point this game.
package registry

import (
	"fmt"

	"focusfire.ai/internal/channel"
	"focusfire.ai/internal/host"
)

// Kind classifies a resolved record.
type Kind int

const (
	KindEmpty Kind = iota
	KindPriority
	KindOrdinary
)

func (k Kind) String() string {
	switch k {
	case KindPriority:
		return "PRIORITY"
	case KindOrdinary:
		return "ORDINARY"
	default:
		return "EMPTY"
	}
}

// Record is the classified view over the registry slots.
type Record struct {
	Kind Kind
	Pos  host.Position // KindPriority
	ID   int           // KindOrdinary
}

// Snapshot exposes both halves of the registry at once. Combat roles need
// the ordinary target even while a priority target is set.
type Snapshot struct {
	Priority    host.Position
	HasPriority bool
	// Vacancy counts the rounds in which an in-range observer found the
	// priority cell empty. VacancyRound is the last such round modulo
	// VacancyRoundSpan.
	Vacancy      int
	VacancyRound int

	OrdinaryID  int
	HasOrdinary bool
}

// Record applies the priority-first classification to s.
func (s Snapshot) Record() Record {
	switch {
	case s.HasPriority:
		return Record{Kind: KindPriority, Pos: s.Priority}
	case s.HasOrdinary:
		return Record{Kind: KindOrdinary, ID: s.OrdinaryID}
	default:
		return Record{Kind: KindEmpty}
	}
}

type Config struct {
	// LowHealth is the retraction threshold (inclusive).
	LowHealth int
	// EvictAfterVacant is the number of vacant rounds that clears the
	// priority target. 0 disables eviction; at most MaxEvictAfterVacant.
	EvictAfterVacant int
}

// The vacancy slot packs the count into the high bits and the round it was
// last bumped into the low bits, so one observation per round is counted
// however many teammates are in range.
const (
	vacancyRoundBits = 12
	VacancyRoundSpan = 1 << vacancyRoundBits

	// MaxEvictAfterVacant keeps every stored count below the sentinel.
	MaxEvictAfterVacant = 15
)

func packVacancy(count, round int) int {
	return count<<vacancyRoundBits | round&(VacancyRoundSpan-1)
}

func unpackVacancy(v uint16) (count, round int) {
	return int(v) >> vacancyRoundBits, int(v) & (VacancyRoundSpan - 1)
}

type Registry struct {
	ch  *channel.Channel
	cfg Config
}

func New(ch *channel.Channel, cfg Config) *Registry {
	return &Registry{ch: ch, cfg: cfg}
}

func (r *Registry) Config() Config { return r.cfg }

// Snapshot reads every registry slot. A coordinate pair with only one half
// written is reported as no priority target.
func (r *Registry) Snapshot() (Snapshot, error) {
	var s Snapshot
	x, err := r.ch.Read(channel.SlotPriorityX)
	if err != nil {
		return s, err
	}
	y, err := r.ch.Read(channel.SlotPriorityY)
	if err != nil {
		return s, err
	}
	if x != channel.Empty && y != channel.Empty {
		s.Priority = host.Position{X: int(x), Y: int(y)}
		s.HasPriority = true
	}
	vac, err := r.ch.Read(channel.SlotPriorityVacancy)
	if err != nil {
		return s, err
	}
	if vac != channel.Empty {
		s.Vacancy, s.VacancyRound = unpackVacancy(vac)
	}
	id, err := r.ch.Read(channel.SlotOrdinaryID)
	if err != nil {
		return s, err
	}
	if id != channel.Empty {
		s.OrdinaryID = int(id)
		s.HasOrdinary = true
	}
	return s, nil
}

func (r *Registry) Resolve() (Record, error) {
	s, err := r.Snapshot()
	if err != nil {
		return Record{Kind: KindEmpty}, err
	}
	return s.Record(), nil
}

// TryPublishPriority records pos as the priority target if none is set.
// Two agents publishing in the same round race; the later write wins.
func (r *Registry) TryPublishPriority(pos host.Position) (bool, error) {
	s, err := r.Snapshot()
	if err != nil {
		return false, err
	}
	if s.HasPriority {
		return false, nil
	}
	if err := r.ch.WritePayload(channel.SlotPriorityX, pos.X); err != nil {
		return false, fmt.Errorf("publish priority %v: %w", pos, err)
	}
	if err := r.ch.WritePayload(channel.SlotPriorityY, pos.Y); err != nil {
		return false, fmt.Errorf("publish priority %v: %w", pos, err)
	}
	if err := r.ch.Clear(channel.SlotPriorityVacancy); err != nil {
		return false, err
	}
	return true, nil
}

// TryPublishOrdinary records id as the focus-fire target if none is set.
func (r *Registry) TryPublishOrdinary(id int) (bool, error) {
	empty, err := r.ch.IsEmpty(channel.SlotOrdinaryID)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	if err := r.ch.WritePayload(channel.SlotOrdinaryID, id); err != nil {
		return false, fmt.Errorf("publish ordinary %d: %w", id, err)
	}
	return true, nil
}

// RetractPriorityIfDying clears the priority target when the caller has
// just observed it at or below the low-health threshold. It reports whether
// any slot changed, so retracting an already empty record is a no-op.
func (r *Registry) RetractPriorityIfDying(observedHealth int) (bool, error) {
	if observedHealth > r.cfg.LowHealth {
		return false, nil
	}
	return r.clear(channel.SlotPriorityX, channel.SlotPriorityY, channel.SlotPriorityVacancy)
}

func (r *Registry) RetractOrdinaryIfDying(observedHealth int) (bool, error) {
	if observedHealth > r.cfg.LowHealth {
		return false, nil
	}
	return r.clear(channel.SlotOrdinaryID)
}

// NoteVacant is called by an agent that is within attack range of the
// recorded priority cell and senses nobody there during round. The first
// such observation in a round bumps the vacancy count; later ones in the
// same round are ignored. Reaching EvictAfterVacant clears the record.
func (r *Registry) NoteVacant(round int) (counted, evicted bool, err error) {
	if r.cfg.EvictAfterVacant <= 0 {
		return false, false, nil
	}
	s, err := r.Snapshot()
	if err != nil {
		return false, false, err
	}
	if !s.HasPriority {
		return false, false, nil
	}
	if s.Vacancy > 0 && s.VacancyRound == round&(VacancyRoundSpan-1) {
		return false, false, nil
	}
	n := s.Vacancy + 1
	if n >= r.cfg.EvictAfterVacant {
		_, err := r.clear(channel.SlotPriorityX, channel.SlotPriorityY, channel.SlotPriorityVacancy)
		return true, true, err
	}
	if err := r.ch.WritePayload(channel.SlotPriorityVacancy, packVacancy(n, round)); err != nil {
		return false, false, err
	}
	return true, false, nil
}

// ClearVacancy forgets earlier vacant observations. An observer that finds
// the target back on its cell calls it.
func (r *Registry) ClearVacancy() (bool, error) {
	return r.clear(channel.SlotPriorityVacancy)
}

// clear empties every slot that is not already empty and reports whether
// it wrote anything.
func (r *Registry) clear(slots ...channel.Slot) (bool, error) {
	changed := false
	for _, s := range slots {
		empty, err := r.ch.IsEmpty(s)
		if err != nil {
			return changed, err
		}
		if empty {
			continue
		}
		if err := r.ch.Clear(s); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
