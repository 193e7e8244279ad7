//go:build integration

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/db/dbtest"
	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/shipments"
)

func newPostgresFixture(t *testing.T) (*fixture, *db.PoolTx) {
	t.Helper()
	pool := dbtest.Open(t)
	tx := db.NewTxRunner(pool)
	store := shipments.NewRepo(pool)
	log := events.NewLog(events.NewRepo(pool))
	drv := drivers.NewService(drivers.NewRepo(pool), zap.NewNop())
	pub := &recorder{}
	return &fixture{
		ctx:       context.Background(),
		shipments: shipments.NewService(store, log, zap.NewNop()).WithTx(tx),
		drivers:   drv,
		log:       log,
		engine:    NewEngine(store, drv, log, pub, zap.NewNop()).WithTx(tx),
		pub:       pub,
	}, tx
}

func TestPostgresClaimRace(t *testing.T) {
	f, _ := newPostgresFixture(t)
	sh := f.shipment(t)

	const n = 16
	callers := make([]domain.Caller, n)
	for i := range callers {
		callers[i] = f.driver(t, "race-"+sh.ID.String()+"-"+string(rune('a'+i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, c := range callers {
		wg.Add(1)
		go func(c domain.Caller) {
			defer wg.Done()
			_, err := f.engine.Claim(f.ctx, c, sh.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(c)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestPostgresDeliveryFlowEvents(t *testing.T) {
	f, _ := newPostgresFixture(t)
	sh := f.shipment(t)
	c := f.driver(t, "flow-"+sh.ID.String())

	_, err := f.engine.Claim(f.ctx, c, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverBusy, f.driverStatus(t, c))
	for _, to := range []domain.ShipmentStatus{domain.StatusInTransit, domain.StatusDelivered} {
		_, err = f.engine.Transition(f.ctx, c, sh.ID, to)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.DriverAvailable, f.driverStatus(t, c))

	list, err := f.log.ListForShipment(f.ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []domain.EventType{domain.EventCreated, domain.EventAssigned, domain.EventStatusChanged, domain.EventStatusChanged},
		[]domain.EventType{list[0].Type, list[1].Type, list[2].Type, list[3].Type})
}

func TestPostgresFailedAppendRollsBackClaim(t *testing.T) {
	f, tx := newPostgresFixture(t)
	sh := f.shipment(t)
	c := f.driver(t, "rollback-"+sh.ID.String())

	boom := errors.New("events table unavailable")
	engine := NewEngine(f.engine.store, f.drivers, txAppender{EventAppender: f.log, t: t, fail: boom}, f.pub, zap.NewNop()).WithTx(&markedTx{inner: tx})

	_, err := engine.Claim(f.ctx, c, sh.ID)
	require.ErrorIs(t, err, boom)

	got, err := f.shipments.Lookup(f.ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.DriverID)
	assert.Equal(t, domain.DriverAvailable, f.driverStatus(t, c))
	assert.Empty(t, f.pub.topics())
}

func TestPostgresClaimDuringReleaseKeepsDriverBusy(t *testing.T) {
	f, tx := newPostgresFixture(t)
	first, second := f.shipment(t), f.shipment(t)
	c := f.driver(t, "release-"+first.ID.String())

	hooked := &countHookStore{Store: f.engine.store}
	engine := NewEngine(hooked, f.drivers, f.log, f.pub, zap.NewNop()).WithTx(tx)

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
		select {
		case err := <-claimed:
			claimed <- err
		case <-time.After(200 * time.Millisecond):
		}
	}
	_, err = engine.Transition(f.ctx, c, first.ID, domain.StatusDelivered)
	require.NoError(t, err)
	require.NoError(t, <-claimed)
	assert.Equal(t, domain.DriverBusy, f.driverStatus(t, c))
}

// markedTx wraps a real transaction runner and marks ctx for txAppender.
type markedTx struct {
	inner db.TxRunner
}

func (m *markedTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.inner.InTx(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, txMarker{}, 1))
	})
}
