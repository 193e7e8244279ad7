package drivers

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

// Mirrors DB columns from the table `drivers`.
type Driver struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"user_id"`

	Name          string `json:"name"`
	VehicleType   string `json:"vehicle_type"`
	LicenseNumber string `json:"license_number"`

	Status       domain.DriverStatus `json:"status"`
	LastOnlineAt *time.Time          `json:"last_online_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Registration struct {
	Name          string
	VehicleType   string
	LicenseNumber string
}

// UpdateProfile holds optional fields; nil means "keep".
type UpdateProfile struct {
	Name          *string
	VehicleType   *string
	LicenseNumber *string
	Status        *domain.DriverStatus
}
