package eventsource

import (
	"context"
	"testing"
)

func TestMemoryPollReturnsNilOnEmptyQueue(t *testing.T) {
	m := NewMemory()
	ev, err := m.Poll(context.Background())
	if err != nil || ev != nil {
		t.Fatalf("Poll() on empty queue = (%+v, %v), want (nil, nil)", ev, err)
	}
}

func TestMemoryPollIsFIFO(t *testing.T) {
	m := NewMemory()
	m.Push(&Event{Op: OpAdd, ProductID: 1})
	m.Push(&Event{Op: OpModify, ProductID: 2})

	first, err := m.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.ProductID != 1 {
		t.Fatalf("first Poll() = product %d, want 1", first.ProductID)
	}

	second, err := m.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.ProductID != 2 {
		t.Fatalf("second Poll() = product %d, want 2", second.ProductID)
	}

	third, err := m.Poll(context.Background())
	if err != nil || third != nil {
		t.Fatalf("third Poll() on drained queue = (%+v, %v), want (nil, nil)", third, err)
	}
}
