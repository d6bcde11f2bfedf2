package channel

import (
	"errors"
	"testing"
)

func TestNew_RejectsCapacityOutsideLayout(t *testing.T) {
	for _, n := range []int{0, 3, 65} {
		if _, err := New(NewMemory(n, Empty)); err == nil {
			t.Fatalf("capacity %d: expected error", n)
		}
	}
	for _, n := range []int{4, 64} {
		if _, err := New(NewMemory(n, Empty)); err != nil {
			t.Fatalf("capacity %d: %v", n, err)
		}
	}
}

func TestChannel_WriteThenReadSameTurn(t *testing.T) {
	c, err := New(NewMemory(8, Empty))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.WritePayload(SlotPriorityX, 17); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}
	v, err := c.Read(SlotPriorityX)
	if err != nil || v != 17 {
		t.Fatalf("Read = %d, %v; want 17", v, err)
	}
	if err := c.WritePayload(SlotPriorityX, 23); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}
	if v, _ := c.Read(SlotPriorityX); v != 23 {
		t.Fatalf("last write should win, got %d", v)
	}
}

func TestChannel_PayloadCannotCollideWithSentinel(t *testing.T) {
	c, _ := New(NewMemory(4, Empty))
	for _, v := range []int{-1, int(Empty), 70000} {
		if err := c.WritePayload(SlotOrdinaryID, v); !errors.Is(err, ErrValueOutOfRange) {
			t.Fatalf("WritePayload(%d) err=%v, want ErrValueOutOfRange", v, err)
		}
	}
}

func TestChannel_ResetClearsEverySlot(t *testing.T) {
	mem := NewMemory(64, 0)
	c, _ := New(mem)
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := c.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(got) != 64 {
		t.Fatalf("Dump len=%d", len(got))
	}
	for i, v := range got {
		if v != Empty {
			t.Fatalf("slot %d = %d after reset", i, v)
		}
	}
	if mem.Writes() != 64 {
		t.Fatalf("writes=%d want 64", mem.Writes())
	}
}

func TestSlot_String(t *testing.T) {
	if SlotPriorityY.String() != "priority_y" {
		t.Fatalf("got %q", SlotPriorityY.String())
	}
	if Slot(9).String() != "slot_9" {
		t.Fatalf("got %q", Slot(9).String())
	}
}
