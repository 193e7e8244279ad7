package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/shipments"
)

type published struct {
	topic   string
	payload any
}

type recorder struct {
	mu  sync.Mutex
	got []published
}

func (r *recorder) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, published{topic, payload})
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, p := range r.got {
		out = append(out, p.topic)
	}
	return out
}

type fixture struct {
	ctx       context.Context
	shipments *shipments.Service
	drivers   *drivers.Service
	log       *events.Log
	engine    *Engine
	pub       *recorder
}

func newFixture() *fixture {
	store := shipments.NewMemoryStore()
	log := events.NewLog(events.NewMemoryStore())
	drv := drivers.NewService(drivers.NewMemoryStore(), zap.NewNop())
	pub := &recorder{}
	return &fixture{
		ctx:       context.Background(),
		shipments: shipments.NewService(store, log, zap.NewNop()),
		drivers:   drv,
		log:       log,
		engine:    NewEngine(store, drv, log, pub, zap.NewNop()),
		pub:       pub,
	}
}

func (f *fixture) driver(t *testing.T, userID string) domain.Caller {
	t.Helper()
	d, err := f.drivers.Register(f.ctx, userID, drivers.Registration{Name: "Driver " + userID, VehicleType: "bike", LicenseNumber: "L-" + userID})
	require.NoError(t, err)
	id := d.ID
	return domain.Caller{UserID: userID, Role: domain.RoleDriver, DriverID: &id}
}

func (f *fixture) shipment(t *testing.T) *shipments.Shipment {
	t.Helper()
	sh, err := f.shipments.Create(f.ctx, "customer-1", shipments.NewShipment{
		Sender:          shipments.Party{Name: "Alice", Phone: "+15551234567"},
		Receiver:        shipments.Party{Name: "Bob", Phone: "+15557654321"},
		PickupAddress:   shipments.Address{Text: "1 Main St"},
		DeliveryAddress: shipments.Address{Text: "2 Side St"},
		Package:         shipments.Package{Weight: 2.5, Description: "books"},
		TotalAmount:     10,
	})
	require.NoError(t, err)
	return sh
}

func (f *fixture) driverStatus(t *testing.T, c domain.Caller) domain.DriverStatus {
	t.Helper()
	d, err := f.drivers.Get(f.ctx, *c.DriverID)
	require.NoError(t, err)
	return d.Status
}

func TestClaimRaceExactlyOneWinner(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)

	const n = 32
	callers := make([]domain.Caller, n)
	for i := range callers {
		callers[i] = f.driver(t, fmt.Sprintf("driver-%d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []uuid.UUID
		conflicts int
	)
	start := make(chan struct{})
	for _, c := range callers {
		wg.Add(1)
		go func(c domain.Caller) {
			defer wg.Done()
			<-start
			got, err := f.engine.Claim(f.ctx, c, sh.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				assert.Equal(t, domain.StatusAssigned, got.Status)
				winners = append(winners, *c.DriverID)
				return
			}
			if errors.Is(err, domain.ErrConflict) {
				conflicts++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}(c)
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, n-1, conflicts)

	stored, err := f.shipments.Lookup(f.ctx, sh.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, winners[0], *stored.DriverID)

	evs, err := f.log.ListForShipment(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Len(t, evs, 2)
}

func TestClaimRequiresDriver(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	_, err := f.engine.Claim(f.ctx, domain.Caller{UserID: "customer-1", Role: domain.RoleCustomer}, sh.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestClaimUnknownShipment(t *testing.T) {
	f := newFixture()
	c := f.driver(t, "d1")
	_, err := f.engine.Claim(f.ctx, c, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClaimMarksDriverBusyAndPublishes(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")

	_, err := f.engine.Claim(f.ctx, c, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverBusy, f.driverStatus(t, c))
	assert.Equal(t, []string{domain.TopicShipmentAssigned, domain.TopicShipmentUpdated}, f.pub.topics())

	p, ok := f.pub.got[0].payload.(AssignedPayload)
	require.True(t, ok)
	assert.Equal(t, sh.ID, p.ShipmentID)
	assert.Equal(t, *c.DriverID, p.DriverID)
}

func TestTransitionLegality(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")

	_, err := f.engine.Transition(f.ctx, c, sh.ID, domain.StatusDelivered)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "pending -> delivered")

	_, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusAssigned)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "pending -> assigned outside claim")

	_, err = f.engine.Transition(f.ctx, c, sh.ID, "lost")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.engine.Claim(f.ctx, c, sh.ID)
	require.NoError(t, err)

	_, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusDelivered)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "assigned -> delivered")

	other := f.driver(t, "d2")
	_, err = f.engine.Transition(f.ctx, other, sh.ID, domain.StatusInTransit)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusExceptions)
	require.NoError(t, err)

	_, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusInTransit)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "exceptions is terminal")
	assert.Equal(t, domain.DriverAvailable, f.driverStatus(t, c))
}

func TestDeliveryFlowEvents(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")

	avail, err := f.engine.ListAvailable(f.ctx, c, 10)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, sh.ID, avail[0].ID)

	got, err := f.engine.Claim(f.ctx, c, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, got.Status)
	assert.Equal(t, *c.DriverID, *got.DriverID)

	avail, err = f.engine.ListAvailable(f.ctx, c, 10)
	require.NoError(t, err)
	assert.Empty(t, avail)

	_, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusInTransit)
	require.NoError(t, err)
	got, err = f.engine.Transition(f.ctx, c, sh.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	evs, err := f.log.ListForShipment(f.ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, evs, 4)
	assert.Equal(t, domain.EventCreated, evs[0].Type)
	assert.Equal(t, domain.EventAssigned, evs[1].Type)
	assert.Equal(t, domain.EventStatusChanged, evs[2].Type)
	assert.Contains(t, evs[2].Description, "in_transit")
	assert.Equal(t, domain.EventStatusChanged, evs[3].Type)
	assert.Contains(t, evs[3].Description, "delivered")
	for i := 1; i < len(evs); i++ {
		assert.True(t, evs[i].OccurredAt.After(evs[i-1].OccurredAt))
	}

	assert.Equal(t, domain.DriverAvailable, f.driverStatus(t, c))
}

func TestDriverStaysBusyWithOtherActiveDelivery(t *testing.T) {
	f := newFixture()
	first, second := f.shipment(t), f.shipment(t)
	c := f.driver(t, "d1")

	for _, sh := range []*shipments.Shipment{first, second} {
		_, err := f.engine.Claim(f.ctx, c, sh.ID)
		require.NoError(t, err)
	}
	_, err := f.engine.Transition(f.ctx, c, first.ID, domain.StatusInTransit)
	require.NoError(t, err)
	_, err = f.engine.Transition(f.ctx, c, first.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverBusy, f.driverStatus(t, c))
}

func TestAssignDriverAdminOnly(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")
	admin := domain.Caller{UserID: "root", Role: domain.RoleAdmin}

	_, err := f.engine.AssignDriver(f.ctx, c, sh.ID, *c.DriverID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.engine.AssignDriver(f.ctx, admin, sh.ID, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err := f.engine.AssignDriver(f.ctx, admin, sh.ID, *c.DriverID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, got.Status)

	_, err = f.engine.AssignDriver(f.ctx, admin, sh.ID, *c.DriverID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSetPackageStatus(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	admin := domain.Caller{UserID: "root", Role: domain.RoleAdmin}

	_, err := f.engine.SetPackageStatus(f.ctx, domain.Caller{UserID: "customer-1", Role: domain.RoleCustomer}, sh.ID, domain.PackageOutForDelivery)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.engine.SetPackageStatus(f.ctx, admin, sh.ID, "lost")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := f.engine.SetPackageStatus(f.ctx, admin, sh.ID, domain.PackageOutForDelivery)
	require.NoError(t, err)
	require.NotNil(t, got.PackageStatus)
	assert.Equal(t, domain.PackageOutForDelivery, *got.PackageStatus)
	assert.Equal(t, domain.StatusPending, got.Status)

	evs, err := f.log.ListForShipment(f.ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, domain.EventPackageStatus, evs[1].Type)
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(domain.StatusAssigned, domain.StatusInTransit))
	assert.True(t, CanTransition(domain.StatusInTransit, domain.StatusExceptions))
	assert.False(t, CanTransition(domain.StatusPending, domain.StatusAssigned))
	assert.False(t, CanTransition(domain.StatusDelivered, domain.StatusExceptions))
	assert.Empty(t, Next(domain.StatusDelivered))
}

// countHookStore runs after once, right after the active-delivery count is
// read inside a terminal transition.
type countHookStore struct {
	shipments.Store
	once  sync.Once
	after func()
}

func (s *countHookStore) CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int, error) {
	n, err := s.Store.CountActiveByDriver(ctx, driverID)
	if s.after != nil {
		s.once.Do(s.after)
	}
	return n, err
}

func TestClaimDuringReleaseKeepsDriverBusy(t *testing.T) {
	f := newFixture()
	first, second := f.shipment(t), f.shipment(t)
	c := f.driver(t, "d1")

	hooked := &countHookStore{Store: f.engine.store}
	engine := NewEngine(hooked, f.drivers, f.log, f.pub, zap.NewNop())

	_, err := engine.Claim(f.ctx, c, first.ID)
	require.NoError(t, err)
	_, err = engine.Transition(f.ctx, c, first.ID, domain.StatusInTransit)
	require.NoError(t, err)

	claimed := make(chan error, 1)
	hooked.after = func() {
		go func() {
			_, err := engine.Claim(f.ctx, c, second.ID)
			claimed <- err
		}()
		// give the claim a chance to slip in between count and release
		select {
		case err := <-claimed:
			claimed <- err
		case <-time.After(100 * time.Millisecond):
		}
	}

	_, err = engine.Transition(f.ctx, c, first.ID, domain.StatusDelivered)
	require.NoError(t, err)
	require.NoError(t, <-claimed)

	sh, err := f.shipments.Lookup(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, sh.Status)
	assert.Equal(t, domain.DriverBusy, f.driverStatus(t, c))
}

type txMarker struct{}

// recordingTx counts transactions and marks the ctx handed to fn.
type recordingTx struct {
	calls int
}

func (r *recordingTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(context.WithValue(ctx, txMarker{}, r.calls))
}

type txAppender struct {
	EventAppender
	t    *testing.T
	fail error
}

func (a txAppender) Append(ctx context.Context, shipmentID uuid.UUID, typ domain.EventType, description string) (*events.Event, error) {
	if ctx.Value(txMarker{}) == nil {
		a.t.Errorf("%s event appended outside a transaction", typ)
	}
	if a.fail != nil {
		return nil, a.fail
	}
	return a.EventAppender.Append(ctx, shipmentID, typ, description)
}

func TestMutationsAndEventsShareTransaction(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")
	admin := domain.Caller{UserID: "root", Role: domain.RoleAdmin}

	tx := &recordingTx{}
	engine := NewEngine(f.engine.store, f.drivers, txAppender{EventAppender: f.log, t: t}, f.pub, zap.NewNop()).WithTx(tx)

	_, err := engine.Claim(f.ctx, c, sh.ID)
	require.NoError(t, err)
	_, err = engine.Transition(f.ctx, c, sh.ID, domain.StatusInTransit)
	require.NoError(t, err)
	_, err = engine.SetPackageStatus(f.ctx, admin, sh.ID, domain.PackageOutForDelivery)
	require.NoError(t, err)
	_, err = engine.Transition(f.ctx, c, sh.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, 4, tx.calls)
}

func TestFailedEventAppendPublishesNothing(t *testing.T) {
	f := newFixture()
	sh := f.shipment(t)
	c := f.driver(t, "d1")

	boom := errors.New("events table unavailable")
	engine := NewEngine(f.engine.store, f.drivers, txAppender{EventAppender: f.log, t: t, fail: boom}, f.pub, zap.NewNop()).
		WithTx(&recordingTx{})

	_, err := engine.Claim(f.ctx, c, sh.ID)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.pub.topics())
	assert.Equal(t, domain.DriverAvailable, f.driverStatus(t, c))
}
