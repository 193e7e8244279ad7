package shipments

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

// Address is a free-text address with optional coordinates.
type Address struct {
	Text string   `json:"text"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// Party is the sender or the receiver of a shipment.
type Party struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Package struct {
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Dimensions  *string `json:"dimensions,omitempty"`
	Fragile     bool    `json:"fragile"`
}

// Mirrors DB columns from the table `shipments`.
type Shipment struct {
	ID             uuid.UUID             `json:"id"`
	TrackingNumber string                `json:"tracking_number"`
	Status         domain.ShipmentStatus `json:"status"`
	CustomerID     string                `json:"customer_id"`
	DriverID       *uuid.UUID            `json:"driver_id"`

	Sender          Party   `json:"sender"`
	Receiver        Party   `json:"receiver"`
	PickupAddress   Address `json:"pickup_address"`
	DeliveryAddress Address `json:"delivery_address"`
	Package         Package `json:"package"`

	PackageStatus *domain.PackageStatus `json:"package_status"`
	TotalAmount   float64               `json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignedTo reports whether driverID is the assigned driver.
func (s *Shipment) AssignedTo(driverID *uuid.UUID) bool {
	return s.DriverID != nil && driverID != nil && *s.DriverID == *driverID
}

// NewShipment is the validated input of Create.
type NewShipment struct {
	Sender          Party
	Receiver        Party
	PickupAddress   Address
	DeliveryAddress Address
	Package         Package
	TotalAmount     float64
}
