package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/shipments"
)

type DriverRegistry interface {
	Get(ctx context.Context, id uuid.UUID) (*drivers.Driver, error)
	SeenAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ShipmentLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*shipments.Shipment, error)
}

// Service ingests driver positions and answers "where is my parcel".
type Service struct {
	store     Store
	drivers   DriverRegistry
	shipments ShipmentLookup
	limiter   Limiter
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, drv DriverRegistry, sh ShipmentLookup, logger *zap.Logger) *Service {
	return &Service{store: store, drivers: drv, shipments: sh, logger: logger, now: time.Now}
}

// WithLimiter enables per-driver ingest limiting.
func (s *Service) WithLimiter(l Limiter) *Service {
	s.limiter = l
	return s
}

// ReportLocation overwrites the driver's current sample. Only the driver
// itself or an administrator may report.
func (s *Service) ReportLocation(ctx context.Context, caller domain.Caller, driverID uuid.UUID, in Report) (*Sample, error) {
	if in.Latitude < -90 || in.Latitude > 90 {
		return nil, domain.Validation("latitude must be between -90 and 90")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return nil, domain.Validation("longitude must be between -180 and 180")
	}
	if in.Accuracy != nil && *in.Accuracy < 0 {
		return nil, domain.Validation("accuracy cannot be negative")
	}
	if _, err := s.drivers.Get(ctx, driverID); err != nil {
		return nil, err
	}
	isSelf := caller.DriverID != nil && *caller.DriverID == driverID
	if !isSelf && !caller.IsAdmin() {
		return nil, domain.Forbidden("cannot report location for another driver")
	}
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.RateLimited("too many location updates, slow down")
		}
	}

	sample := Sample{
		DriverID:  driverID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Put(ctx, sample); err != nil {
		return nil, fmt.Errorf("store location: %w", err)
	}
	if err := s.drivers.SeenAt(ctx, driverID, sample.Timestamp); err != nil {
		return nil, err
	}
	s.logger.Debug("location reported", zap.String("driver_id", driverID.String()))
	return &sample, nil
}

// GetLocation returns nil when the shipment has no driver or the driver has
// not reported yet.
func (s *Service) GetLocation(ctx context.Context, shipmentID uuid.UUID) (*View, error) {
	sh, err := s.shipments.Lookup(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if sh.DriverID == nil {
		return nil, nil
	}
	d, err := s.drivers.Get(ctx, *sh.DriverID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sample, err := s.store.Latest(ctx, d.ID)
	if errors.Is(err, ErrNoSample) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	age := s.now().Sub(sample.Timestamp).Seconds()
	if age < 0 {
		age = 0
	}
	return &View{
		Latitude:   sample.Latitude,
		Longitude:  sample.Longitude,
		Accuracy:   sample.Accuracy,
		Timestamp:  sample.Timestamp,
		DriverID:   d.ID,
		DriverName: d.Name,
		AgeSeconds: age,
	}, nil
}
