package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("driver not found")
	ErrAlreadyRegistered = errors.New("user already registered as driver")
)

type Store interface {
	Create(ctx context.Context, d *Driver) error
	FindByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	FindByUserID(ctx context.Context, userID string) (*Driver, error)
	List(ctx context.Context) ([]Driver, error)
	Update(ctx context.Context, id uuid.UUID, u UpdateProfile) (*Driver, error)
	// SetStatusIf changes status only when the current one is from.
	SetStatusIf(ctx context.Context, id uuid.UUID, from, to domain.DriverStatus) (bool, error)
	// LockForUpdate holds the driver row until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id uuid.UUID) error
	TouchOnline(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkOffline moves available drivers not seen since cutoff to offline.
	MarkOffline(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
