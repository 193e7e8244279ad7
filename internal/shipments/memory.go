package shipments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

// MemoryStore is an in-process Store for STORAGE_DRIVER=memory and tests.
// A single mutex makes every conditional write atomic.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*Shipment
	byTracking map[string]uuid.UUID
	now        func() time.Time
	last       time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uuid.UUID]*Shipment),
		byTracking: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (m *MemoryStore) Insert(_ context.Context, s *Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTracking[s.TrackingNumber]; ok {
		return ErrDuplicateTrackingNumber
	}
	now := m.tick()
	s.CreatedAt, s.UpdatedAt = now, now
	cp := *s
	m.byID[s.ID] = &cp
	m.byTracking[s.TrackingNumber] = s.ID
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	m.mu.RLock()
	id, ok := m.byTracking[trackingNumber]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *MemoryStore) ListByCustomer(_ context.Context, customerID string) ([]Shipment, error) {
	out := m.filter(func(s *Shipment) bool { return s.CustomerID == customerID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListByDriver(_ context.Context, driverID uuid.UUID, status *domain.ShipmentStatus) ([]Shipment, error) {
	out := m.filter(func(s *Shipment) bool {
		return s.DriverID != nil && *s.DriverID == driverID && (status == nil || s.Status == *status)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) ListAvailable(_ context.Context, limit int) ([]Shipment, error) {
	out := m.filter(func(s *Shipment) bool { return s.Status == domain.StatusPending && s.DriverID == nil })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeletePending(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if s.Status != domain.StatusPending || s.DriverID != nil {
		return ErrStale
	}
	delete(m.byID, id)
	delete(m.byTracking, s.TrackingNumber)
	return nil
}

func (m *MemoryStore) Claim(_ context.Context, id, driverID uuid.UUID) (*Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status != domain.StatusPending || s.DriverID != nil {
		return nil, ErrStale
	}
	d := driverID
	s.DriverID = &d
	s.Status = domain.StatusAssigned
	s.UpdatedAt = m.tick()
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id, driverID uuid.UUID, from, to domain.ShipmentStatus) (*Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status != from || s.DriverID == nil || *s.DriverID != driverID {
		return nil, ErrStale
	}
	s.Status = to
	s.UpdatedAt = m.tick()
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) SetPackageStatus(_ context.Context, id uuid.UUID, ps domain.PackageStatus) (*Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := ps
	s.PackageStatus = &v
	s.UpdatedAt = m.tick()
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) CountActiveByDriver(_ context.Context, driverID uuid.UUID) (int, error) {
	return len(m.filter(func(s *Shipment) bool {
		return s.DriverID != nil && *s.DriverID == driverID && s.Status.Active()
	})), nil
}

func (m *MemoryStore) CountByCustomer(_ context.Context, customerID string) (map[domain.ShipmentStatus]int, error) {
	return countStatuses(m.filter(func(s *Shipment) bool { return s.CustomerID == customerID })), nil
}

func (m *MemoryStore) CountByDriver(_ context.Context, driverID uuid.UUID) (map[domain.ShipmentStatus]int, error) {
	return countStatuses(m.filter(func(s *Shipment) bool { return s.DriverID != nil && *s.DriverID == driverID })), nil
}

// tick returns a strictly increasing timestamp; callers hold m.mu.
func (m *MemoryStore) tick() time.Time {
	t := m.now().UTC().Truncate(time.Microsecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *MemoryStore) filter(keep func(*Shipment) bool) []Shipment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Shipment, 0)
	for _, s := range m.byID {
		if keep(s) {
			out = append(out, *s)
		}
	}
	// map order is random; id keeps equal timestamps deterministic
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func countStatuses(list []Shipment) map[domain.ShipmentStatus]int {
	out := make(map[domain.ShipmentStatus]int)
	for _, s := range list {
		out[s.Status]++
	}
	return out
}
