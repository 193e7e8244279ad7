package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/events"
)

const maxTrackingAttempts = 5

// EventAppender is the part of the event log the service writes to.
type EventAppender interface {
	Append(ctx context.Context, shipmentID uuid.UUID, typ domain.EventType, description string) (*events.Event, error)
}

// Service implements customer-facing shipment operations. Status and driver
// changes live in the lifecycle engine.
type Service struct {
	store    Store
	events   EventAppender
	logger   *zap.Logger
	tracking TrackingGenerator
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(store Store, ev EventAppender, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		events:   ev,
		logger:   logger,
		tracking: GenerateTrackingNumber,
		tx:       db.NoTx{},
		now:      time.Now,
	}
}

// WithTrackingGenerator replaces the tracking number source.
func (s *Service) WithTrackingGenerator(g TrackingGenerator) *Service {
	s.tracking = g
	return s
}

// WithTx stores the shipment and its created event in one transaction.
func (s *Service) WithTx(tx db.TxRunner) *Service {
	if tx != nil {
		s.tx = tx
	}
	return s
}

// Create validates input, allocates a unique tracking number and stores a
// pending shipment owned by customerID.
func (s *Service) Create(ctx context.Context, customerID string, in NewShipment) (*Shipment, error) {
	if customerID == "" {
		return nil, domain.Forbidden("customer identity is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sh := &Shipment{
		ID:              uuid.New(),
		Status:          domain.StatusPending,
		CustomerID:      customerID,
		Sender:          in.Sender,
		Receiver:        in.Receiver,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
		Package:         in.Package,
		TotalAmount:     in.TotalAmount,
	}

	inserted := false
	for attempt := 1; attempt <= maxTrackingAttempts; attempt++ {
		tn, err := s.tracking(s.now())
		if err != nil {
			return nil, fmt.Errorf("generate tracking number: %w", err)
		}
		sh.TrackingNumber = tn
		// each attempt is its own transaction: a unique violation aborts it
		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.store.Insert(ctx, sh); err != nil {
				return err
			}
			if _, err := s.events.Append(ctx, sh.ID, domain.EventCreated, "shipment created with tracking number "+tn); err != nil {
				return err
			}
			return nil
		})
		if errors.Is(err, ErrDuplicateTrackingNumber) {
			s.logger.Warn("tracking number collision, retrying",
				zap.String("tracking_number", tn), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert shipment: %w", err)
		}
		inserted = true
		break
	}
	if !inserted {
		return nil, domain.Conflict("could not allocate a unique tracking number after %d attempts", maxTrackingAttempts)
	}

	s.logger.Info("shipment created",
		zap.String("shipment_id", sh.ID.String()),
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("customer_id", customerID))
	return sh, nil
}

// Get returns the shipment when the caller owns it, is its assigned driver
// or is an administrator.
func (s *Service) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*Shipment, error) {
	sh, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || sh.CustomerID == caller.UserID || sh.AssignedTo(caller.DriverID) {
		return sh, nil
	}
	return nil, domain.Forbidden("you do not have access to this shipment")
}

// Lookup loads a shipment without an ownership check.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*Shipment, error) {
	sh, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.NotFound("shipment %s not found", id)
	}
	return sh, err
}

// Track is public: knowing the tracking number grants read access.
func (s *Service) Track(ctx context.Context, trackingNumber string) (*Shipment, error) {
	tn, ok := NormalizeTrackingNumber(trackingNumber)
	if !ok {
		return nil, domain.Validation("invalid tracking number")
	}
	sh, err := s.store.FindByTrackingNumber(ctx, tn)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.NotFound("no shipment with tracking number %s", tn)
	}
	return sh, err
}

// ListForCustomer returns the customer's shipments, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]Shipment, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// ListDeliveries returns shipments assigned to the calling driver,
// optionally filtered by status.
func (s *Service) ListDeliveries(ctx context.Context, caller domain.Caller, status string) ([]Shipment, error) {
	if !caller.IsDriver() {
		return nil, domain.Forbidden("only registered drivers have deliveries")
	}
	var filter *domain.ShipmentStatus
	if status != "" {
		st := domain.ShipmentStatus(status)
		if !st.Valid() {
			return nil, domain.Validation("unknown status %q", status)
		}
		filter = &st
	}
	return s.store.ListByDriver(ctx, *caller.DriverID, filter)
}

// Delete removes a pending shipment owned by customerID.
func (s *Service) Delete(ctx context.Context, customerID string, id uuid.UUID) error {
	sh, err := s.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if sh.CustomerID != customerID {
		return domain.Forbidden("you do not own this shipment")
	}
	if sh.Status != domain.StatusPending {
		return domain.Forbidden("shipment is %s and can no longer be deleted", sh.Status)
	}
	err = s.store.DeletePending(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return domain.NotFound("shipment %s not found", id)
	case errors.Is(err, ErrStale):
		return domain.Forbidden("shipment was claimed and can no longer be deleted")
	case err != nil:
		return fmt.Errorf("delete shipment: %w", err)
	}
	s.logger.Info("shipment deleted", zap.String("shipment_id", id.String()), zap.String("customer_id", customerID))
	return nil
}

// Stats counts the caller's shipments (customer) or deliveries (driver).
type Stats struct {
	Role     domain.Role                   `json:"role"`
	Total    int                           `json:"total"`
	ByStatus map[domain.ShipmentStatus]int `json:"by_status"`
}

func (s *Service) Stats(ctx context.Context, caller domain.Caller) (*Stats, error) {
	var (
		counts map[domain.ShipmentStatus]int
		err    error
	)
	role := caller.Role
	if caller.IsDriver() && role != domain.RoleAdmin {
		counts, err = s.store.CountByDriver(ctx, *caller.DriverID)
		role = domain.RoleDriver
	} else {
		counts, err = s.store.CountByCustomer(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}
	st := &Stats{Role: role, ByStatus: counts}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}
