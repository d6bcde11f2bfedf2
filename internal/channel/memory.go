package channel

import (
	"fmt"
	"sync"
)

// Memory is an in-process host.SharedArray. The test host uses one per team.
type Memory struct {
	mu     sync.Mutex
	slots  []int
	writes int
}

// NewMemory returns n slots all holding fill. Real hosts start games with
// zeroed arrays, which is why agents reset the channel on their first turn.
func NewMemory(n int, fill uint16) *Memory {
	m := &Memory{slots: make([]int, n)}
	for i := range m.slots {
		m.slots[i] = int(fill)
	}
	return m
}

func (m *Memory) SharedCapacity() int { return len(m.slots) }

func (m *Memory) ReadShared(index int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.slots) {
		return 0, fmt.Errorf("shared index %d out of range", index)
	}
	return m.slots[index], nil
}

func (m *Memory) WriteShared(index, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.slots) {
		return fmt.Errorf("shared index %d out of range", index)
	}
	if value < 0 || value > int(Empty) {
		return fmt.Errorf("shared value %d out of range", value)
	}
	m.slots[index] = value
	m.writes++
	return nil
}

// Writes counts successful writes since creation.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
