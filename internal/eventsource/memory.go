package eventsource

import (
	"context"
	"sync"
)

// Memory is an in-process FIFO Source fake for tests.
type Memory struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemory returns an empty Memory source.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Poll(_ context.Context) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) == 0 {
		return nil, nil
	}
	ev := m.events[0]
	m.events = m.events[1:]
	return ev, nil
}

// Push enqueues ev at the tail.
func (m *Memory) Push(ev *Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}
