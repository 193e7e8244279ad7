package shipments

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

var (
	ErrNotFound                = errors.New("shipment not found")
	ErrDuplicateTrackingNumber = errors.New("tracking number already exists")
	// ErrStale means a conditional update matched no row: the shipment
	// exists but its status or driver changed since it was read.
	ErrStale = errors.New("shipment changed concurrently")
)

// Store owns the shipment rows. Claim, UpdateStatus and DeletePending are
// conditional writes; they are the only way to mutate status and driver_id.
type Store interface {
	Insert(ctx context.Context, s *Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Shipment, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, status *domain.ShipmentStatus) ([]Shipment, error)
	ListAvailable(ctx context.Context, limit int) ([]Shipment, error)

	// DeletePending removes the row only while it is pending and unclaimed.
	DeletePending(ctx context.Context, id uuid.UUID) error
	// Claim sets driver_id and status=assigned only if the row is pending
	// with no driver.
	Claim(ctx context.Context, id, driverID uuid.UUID) (*Shipment, error)
	// UpdateStatus moves the row from -> to only if it is still in from and
	// still assigned to driverID.
	UpdateStatus(ctx context.Context, id, driverID uuid.UUID, from, to domain.ShipmentStatus) (*Shipment, error)
	SetPackageStatus(ctx context.Context, id uuid.UUID, ps domain.PackageStatus) (*Shipment, error)

	CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int, error)
	CountByCustomer(ctx context.Context, customerID string) (map[domain.ShipmentStatus]int, error)
	CountByDriver(ctx context.Context, driverID uuid.UUID) (map[domain.ShipmentStatus]int, error)
}
