package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	last   time.Time
	rows   map[uuid.UUID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID][]Event)}
}

// Append keeps occurred_at strictly increasing so insertion order and
// (occurred_at, id) order agree.
func (m *MemoryStore) Append(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	m.nextID++
	e.ID = m.nextID
	e.OccurredAt = t
	m.rows[e.ShipmentID] = append(m.rows[e.ShipmentID], *e)
	return nil
}

func (m *MemoryStore) List(_ context.Context, shipmentID uuid.UUID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.rows[shipmentID]))
	copy(out, m.rows[shipmentID])
	return out, nil
}
