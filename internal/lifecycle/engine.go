package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/realtime"
	"github.com/parceltrack/backend/internal/shipments"
)

const (
	defaultAvailableLimit = 20
	maxAvailableLimit     = 100
)

// DriverRegistry is what the engine needs from the driver service.
type DriverRegistry interface {
	Get(ctx context.Context, id uuid.UUID) (*drivers.Driver, error)
	Lock(ctx context.Context, id uuid.UUID) error
	MarkBusy(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
}

type EventAppender interface {
	Append(ctx context.Context, shipmentID uuid.UUID, typ domain.EventType, description string) (*events.Event, error)
}

// Engine owns every change of shipment status and driver assignment: the
// claim coordinator and the status state machine.
//
// Lock order: shipment stripe, then driver stripe. Inside a transaction the
// driver row is locked before the active-delivery count is read, so a claim
// and a release of the same driver never interleave.
type Engine struct {
	store       shipments.Store
	drivers     DriverRegistry
	events      EventAppender
	pub         realtime.Publisher
	tx          db.TxRunner
	logger      *zap.Logger
	locks       stripedLock
	driverLocks stripedLock
}

func NewEngine(store shipments.Store, drv DriverRegistry, ev EventAppender, pub realtime.Publisher, logger *zap.Logger) *Engine {
	return &Engine{store: store, drivers: drv, events: ev, pub: pub, tx: db.NoTx{}, logger: logger}
}

// WithTx makes each mutation, its event and the driver status change one
// transaction.
func (e *Engine) WithTx(tx db.TxRunner) *Engine {
	if tx != nil {
		e.tx = tx
	}
	return e
}

// ListAvailable returns unclaimed pending shipments, oldest first.
func (e *Engine) ListAvailable(ctx context.Context, caller domain.Caller, limit int) ([]shipments.Shipment, error) {
	if !caller.IsDriver() && !caller.IsAdmin() {
		return nil, domain.Forbidden("only registered drivers can list available packages")
	}
	if limit <= 0 {
		limit = defaultAvailableLimit
	}
	if limit > maxAvailableLimit {
		limit = maxAvailableLimit
	}
	return e.store.ListAvailable(ctx, limit)
}

// Claim assigns the shipment to the calling driver. Exactly one of several
// concurrent claims wins; the others get a conflict.
func (e *Engine) Claim(ctx context.Context, caller domain.Caller, shipmentID uuid.UUID) (*shipments.Shipment, error) {
	if !caller.IsDriver() {
		return nil, domain.Forbidden("only registered drivers can claim packages")
	}
	d, err := e.drivers.Get(ctx, *caller.DriverID)
	if err != nil {
		return nil, err
	}
	return e.assign(ctx, shipmentID, d, "claimed by driver "+d.Name)
}

// AssignDriver is the administrative variant of Claim.
func (e *Engine) AssignDriver(ctx context.Context, caller domain.Caller, shipmentID, driverID uuid.UUID) (*shipments.Shipment, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("only administrators can assign drivers")
	}
	d, err := e.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return e.assign(ctx, shipmentID, d, "assigned to driver "+d.Name+" by administrator")
}

func (e *Engine) assign(ctx context.Context, shipmentID uuid.UUID, d *drivers.Driver, description string) (*shipments.Shipment, error) {
	unlock := e.locks.lock(shipmentID)
	defer unlock()
	unlockDriver := e.driverLocks.lock(d.ID)
	defer unlockDriver()

	var sh *shipments.Shipment
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		if err := e.drivers.Lock(ctx, d.ID); err != nil {
			return err
		}
		var err error
		sh, err = e.store.Claim(ctx, shipmentID, d.ID)
		switch {
		case errors.Is(err, shipments.ErrNotFound):
			return domain.NotFound("shipment %s not found", shipmentID)
		case errors.Is(err, shipments.ErrStale):
			return domain.Conflict("shipment already claimed")
		case err != nil:
			return fmt.Errorf("claim shipment: %w", err)
		}
		if _, err := e.events.Append(ctx, sh.ID, domain.EventAssigned, description); err != nil {
			return err
		}
		if err := e.drivers.MarkBusy(ctx, d.ID); err != nil {
			return fmt.Errorf("mark driver busy: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("shipment assigned",
		zap.String("shipment_id", sh.ID.String()),
		zap.String("driver_id", d.ID.String()))

	e.publish(ctx, domain.TopicShipmentAssigned, AssignedPayload{ShipmentID: sh.ID, DriverID: d.ID})
	e.publish(ctx, domain.TopicShipmentUpdated, updated(sh))
	return sh, nil
}

// Transition moves the shipment to status `to` on behalf of its assigned
// driver. Legality is checked before authority.
func (e *Engine) Transition(ctx context.Context, caller domain.Caller, shipmentID uuid.UUID, to domain.ShipmentStatus) (*shipments.Shipment, error) {
	if !to.Valid() {
		return nil, domain.Validation("unknown status %q", to)
	}

	unlock := e.locks.lock(shipmentID)
	defer unlock()

	cur, err := e.store.FindByID(ctx, shipmentID)
	if errors.Is(err, shipments.ErrNotFound) {
		return nil, domain.NotFound("shipment %s not found", shipmentID)
	}
	if err != nil {
		return nil, err
	}
	from := cur.Status
	if !CanTransition(from, to) {
		return nil, domain.InvalidTransition(from, to)
	}
	if !cur.AssignedTo(caller.DriverID) {
		return nil, domain.Forbidden("only the assigned driver can change the status")
	}

	driverID := *cur.DriverID
	unlockDriver := e.driverLocks.lock(driverID)
	defer unlockDriver()

	var sh *shipments.Shipment
	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		sh, err = e.store.UpdateStatus(ctx, shipmentID, driverID, from, to)
		switch {
		case errors.Is(err, shipments.ErrNotFound):
			return domain.NotFound("shipment %s not found", shipmentID)
		case errors.Is(err, shipments.ErrStale):
			return domain.Conflict("shipment status changed concurrently, reload and retry")
		case err != nil:
			return fmt.Errorf("update status: %w", err)
		}
		if _, err := e.events.Append(ctx, sh.ID, domain.EventStatusChanged,
			fmt.Sprintf("status changed from %s to %s", from, to)); err != nil {
			return err
		}
		if to.Terminal() {
			return e.releaseIfIdle(ctx, driverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("shipment status changed",
		zap.String("shipment_id", sh.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	e.publish(ctx, domain.TopicShipmentUpdated, updated(sh))
	return sh, nil
}

// releaseIfIdle runs under the driver stripe and inside the transaction.
func (e *Engine) releaseIfIdle(ctx context.Context, driverID uuid.UUID) error {
	if err := e.drivers.Lock(ctx, driverID); err != nil {
		return err
	}
	n, err := e.store.CountActiveByDriver(ctx, driverID)
	if err != nil {
		return fmt.Errorf("count active deliveries: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := e.drivers.Release(ctx, driverID); err != nil {
		return fmt.Errorf("release driver: %w", err)
	}
	return nil
}

// SetPackageStatus records the administrative package sub-status; it does
// not touch the governed status.
func (e *Engine) SetPackageStatus(ctx context.Context, caller domain.Caller, shipmentID uuid.UUID, ps domain.PackageStatus) (*shipments.Shipment, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("only administrators can set the package status")
	}
	if !ps.Valid() {
		return nil, domain.Validation("invalid package status (allowed: in_transit, out_for_delivery, delivered, exceptions)")
	}

	unlock := e.locks.lock(shipmentID)
	defer unlock()

	var sh *shipments.Shipment
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		sh, err = e.store.SetPackageStatus(ctx, shipmentID, ps)
		if errors.Is(err, shipments.ErrNotFound) {
			return domain.NotFound("shipment %s not found", shipmentID)
		}
		if err != nil {
			return fmt.Errorf("set package status: %w", err)
		}
		if _, err := e.events.Append(ctx, sh.ID, domain.EventPackageStatus, "package status set to "+string(ps)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, domain.TopicShipmentUpdated, updated(sh))
	return sh, nil
}

// publish never fails the operation: the change is already committed and
// subscribers re-fetch on reconnect.
func (e *Engine) publish(ctx context.Context, topic string, payload any) {
	if err := e.pub.Publish(ctx, topic, payload); err != nil {
		e.logger.Warn("realtime publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
