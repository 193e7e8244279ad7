package location

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNoSample = errors.New("no location sample")

// Store keeps only the latest sample per driver; Put overwrites.
type Store interface {
	Put(ctx context.Context, s Sample) error
	Latest(ctx context.Context, driverID uuid.UUID) (*Sample, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	latest map[uuid.UUID]Sample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[uuid.UUID]Sample)}
}

func (m *MemoryStore) Put(_ context.Context, s Sample) error {
	m.mu.Lock()
	m.latest[s.DriverID] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, driverID uuid.UUID) (*Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.latest[driverID]
	if !ok {
		return nil, ErrNoSample
	}
	return &s, nil
}
