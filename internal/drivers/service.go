package drivers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/domain"
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates the driver profile of userID with status available.
func (s *Service) Register(ctx context.Context, userID string, in Registration) (*Driver, error) {
	if userID == "" {
		return nil, domain.Forbidden("user identity is required")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.VehicleType = strings.TrimSpace(in.VehicleType)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	switch {
	case in.Name == "":
		return nil, domain.Validation("name is required")
	case in.VehicleType == "":
		return nil, domain.Validation("vehicle type is required")
	case in.LicenseNumber == "":
		return nil, domain.Validation("license number is required")
	}

	d := &Driver{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          in.Name,
		VehicleType:   in.VehicleType,
		LicenseNumber: in.LicenseNumber,
		Status:        domain.DriverAvailable,
	}
	if err := s.store.Create(ctx, d); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, domain.Conflict("user is already registered as a driver")
		}
		return nil, fmt.Errorf("create driver: %w", err)
	}
	s.logger.Info("driver registered", zap.String("driver_id", d.ID.String()), zap.String("user_id", userID))
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Driver, error) {
	d, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.NotFound("driver %s not found", id)
	}
	return d, err
}

// ByUserID returns ErrNotFound (not a domain error) when the user has no
// driver profile; the identity gate treats that as "customer".
func (s *Service) ByUserID(ctx context.Context, userID string) (*Driver, error) {
	return s.store.FindByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]Driver, error) {
	return s.store.List(ctx)
}

// UpdateOwnProfile lets a driver edit the profile and switch between
// available and offline. busy is owned by the delivery lifecycle.
func (s *Service) UpdateOwnProfile(ctx context.Context, id uuid.UUID, u UpdateProfile) (*Driver, error) {
	for _, f := range []struct {
		name string
		v    **string
	}{{"name", &u.Name}, {"vehicle type", &u.VehicleType}, {"license number", &u.LicenseNumber}} {
		if *f.v == nil {
			continue
		}
		t := strings.TrimSpace(**f.v)
		if t == "" {
			return nil, domain.Validation("%s cannot be empty", f.name)
		}
		*f.v = &t
	}
	if u.Status != nil {
		switch *u.Status {
		case domain.DriverAvailable, domain.DriverOffline:
		case domain.DriverBusy:
			return nil, domain.Validation("status busy is set by claiming a delivery")
		default:
			return nil, domain.Validation("invalid status (allowed: available, offline)")
		}
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == domain.DriverBusy {
			return nil, domain.Conflict("driver has active deliveries")
		}
		// conditional write: a claim between Get and here wins
		if cur.Status != *u.Status {
			ok, err := s.store.SetStatusIf(ctx, id, cur.Status, *u.Status)
			if err != nil {
				return nil, fmt.Errorf("set driver status: %w", err)
			}
			if !ok {
				return nil, domain.Conflict("driver status changed concurrently, reload and retry")
			}
		}
		u.Status = nil
	}
	return s.update(ctx, id, u)
}

// SetStatus is the administrative override.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.DriverStatus) (*Driver, error) {
	if !status.Valid() {
		return nil, domain.Validation("invalid status (allowed: available, busy, offline)")
	}
	return s.update(ctx, id, UpdateProfile{Status: &status})
}

func (s *Service) update(ctx context.Context, id uuid.UUID, u UpdateProfile) (*Driver, error) {
	d, err := s.store.Update(ctx, id, u)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.NotFound("driver %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update driver: %w", err)
	}
	return d, nil
}

// MarkBusy is called after a successful claim.
func (s *Service) MarkBusy(ctx context.Context, id uuid.UUID) error {
	busy := domain.DriverBusy
	_, err := s.update(ctx, id, UpdateProfile{Status: &busy})
	return err
}

// Lock holds the driver row for the rest of the current transaction.
func (s *Service) Lock(ctx context.Context, id uuid.UUID) error {
	err := s.store.LockForUpdate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return domain.NotFound("driver %s not found", id)
	}
	return err
}

// Release makes a busy driver available again.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	_, err := s.store.SetStatusIf(ctx, id, domain.DriverBusy, domain.DriverAvailable)
	return err
}

// SeenAt records driver activity; an offline driver comes back online.
func (s *Service) SeenAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.store.TouchOnline(ctx, id, at); err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.NotFound("driver %s not found", id)
		}
		return err
	}
	if ok, err := s.store.SetStatusIf(ctx, id, domain.DriverOffline, domain.DriverAvailable); err != nil {
		return err
	} else if ok {
		s.logger.Info("driver back online", zap.String("driver_id", id.String()))
	}
	return nil
}

// SweepOffline moves available drivers silent for longer than after to
// offline and returns their ids.
func (s *Service) SweepOffline(ctx context.Context, now time.Time, after time.Duration) ([]uuid.UUID, error) {
	return s.store.MarkOffline(ctx, now.Add(-after))
}
