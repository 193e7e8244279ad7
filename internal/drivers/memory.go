package drivers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Driver
	byUser map[string]uuid.UUID
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*Driver),
		byUser: make(map[string]uuid.UUID),
		now:    time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, d *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[d.UserID]; ok {
		return ErrAlreadyRegistered
	}
	now := m.now()
	d.CreatedAt, d.UpdatedAt = now, now
	cp := *d
	m.byID[d.ID] = &cp
	m.byUser[d.UserID] = d.ID
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) FindByUserID(ctx context.Context, userID string) (*Driver, error) {
	m.mu.RLock()
	id, ok := m.byUser[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *MemoryStore) List(_ context.Context) ([]Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Driver, 0, len(m.byID))
	for _, d := range m.byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id uuid.UUID, u UpdateProfile) (*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.VehicleType != nil {
		d.VehicleType = *u.VehicleType
	}
	if u.LicenseNumber != nil {
		d.LicenseNumber = *u.LicenseNumber
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
	d.UpdatedAt = m.now()
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) SetStatusIf(_ context.Context, id uuid.UUID, from, to domain.DriverStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	d.UpdatedAt = m.now()
	return true, nil
}

// LockForUpdate only checks existence; in-process callers serialize themselves.
func (m *MemoryStore) LockForUpdate(_ context.Context, id uuid.UUID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) TouchOnline(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	d.LastOnlineAt = &t
	return nil
}

func (m *MemoryStore) MarkOffline(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, d := range m.byID {
		seen := d.CreatedAt
		if d.LastOnlineAt != nil {
			seen = *d.LastOnlineAt
		}
		if d.Status == domain.DriverAvailable && seen.Before(cutoff) {
			d.Status = domain.DriverOffline
			d.UpdatedAt = m.now()
			ids = append(ids, id)
		}
	}
	return ids, nil
}
