// Package channel wraps the host's team-scoped shared array as a fixed set
// of bounded slots whose meaning is fixed by index for the whole game.
package channel

import (
	"errors"
	"fmt"

	"focusfire.ai/internal/host"
)

// Empty is the sentinel stored in a slot that carries no data.
const Empty uint16 = 65535

const (
	MinCapacity = 4
	MaxCapacity = 64
)

// Slot is an index into the channel. Only the constants below are used by
// the core; everything at or above SlotReservedStart is reset and otherwise
// left alone.
type Slot int

const (
	SlotOrdinaryID Slot = iota
	SlotPriorityVacancy
	SlotPriorityX
	SlotPriorityY

	SlotReservedStart
)

var slotNames = map[Slot]string{
	SlotOrdinaryID:      "ordinary_id",
	SlotPriorityVacancy: "priority_vacancy",
	SlotPriorityX:       "priority_x",
	SlotPriorityY:       "priority_y",
}

func (s Slot) String() string {
	if n, ok := slotNames[s]; ok {
		return n
	}
	return fmt.Sprintf("slot_%d", int(s))
}

var ErrValueOutOfRange = errors.New("channel: value out of range")

// Channel is one team's view of the shared array. It holds no data itself;
// every read goes to the host so writes from teammates become visible as
// soon as the host exposes them.
type Channel struct {
	arr      host.SharedArray
	capacity int
}

// New binds a channel to arr. It fails when the host capacity cannot hold
// the fixed slot layout, so later slot accesses never go out of range.
func New(arr host.SharedArray) (*Channel, error) {
	if arr == nil {
		return nil, errors.New("channel: nil shared array")
	}
	n := arr.SharedCapacity()
	if n < MinCapacity || n > MaxCapacity {
		return nil, fmt.Errorf("channel: capacity %d outside [%d,%d]", n, MinCapacity, MaxCapacity)
	}
	if int(SlotReservedStart) > n {
		return nil, fmt.Errorf("channel: layout needs %d slots, host has %d", SlotReservedStart, n)
	}
	return &Channel{arr: arr, capacity: n}, nil
}

func (c *Channel) Capacity() int { return c.capacity }

func (c *Channel) Read(s Slot) (uint16, error) {
	v, err := c.arr.ReadShared(int(s))
	if err != nil {
		return Empty, fmt.Errorf("read %s: %w", s, err)
	}
	if v < 0 || v > int(Empty) {
		return Empty, fmt.Errorf("read %s: %w: %d", s, ErrValueOutOfRange, v)
	}
	return uint16(v), nil
}

// IsEmpty reports whether slot s currently holds the sentinel.
func (c *Channel) IsEmpty(s Slot) (bool, error) {
	v, err := c.Read(s)
	if err != nil {
		return false, err
	}
	return v == Empty, nil
}

// Write stores v. Callers clear a slot with Clear; passing Empty here is
// allowed and equivalent.
func (c *Channel) Write(s Slot, v uint16) error {
	if err := c.arr.WriteShared(int(s), int(v)); err != nil {
		return fmt.Errorf("write %s: %w", s, err)
	}
	return nil
}

// WritePayload stores a meaningful value, rejecting anything that would
// collide with the sentinel.
func (c *Channel) WritePayload(s Slot, v int) error {
	if v < 0 || v >= int(Empty) {
		return fmt.Errorf("write %s: %w: %d", s, ErrValueOutOfRange, v)
	}
	return c.Write(s, uint16(v))
}

func (c *Channel) Clear(s Slot) error { return c.Write(s, Empty) }

// Reset writes Empty to every slot. Concurrent resets by teammates are
// harmless since they all write the same value.
func (c *Channel) Reset() error {
	for i := 0; i < c.capacity; i++ {
		if err := c.Clear(Slot(i)); err != nil {
			return err
		}
	}
	return nil
}

// Dump returns every slot in index order. Used for turn records.
func (c *Channel) Dump() ([]uint16, error) {
	out := make([]uint16, c.capacity)
	for i := range out {
		v, err := c.Read(Slot(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
