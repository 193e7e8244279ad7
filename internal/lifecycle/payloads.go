package lifecycle

import (
	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/shipments"
)

// UpdatedPayload is published on shipment_updated.
type UpdatedPayload struct {
	ID             uuid.UUID             `json:"id"`
	Status         domain.ShipmentStatus `json:"status"`
	TrackingNumber string                `json:"tracking_number"`
	DriverID       *uuid.UUID            `json:"driver_id"`
	PackageStatus  *domain.PackageStatus `json:"package_status"`
}

// AssignedPayload is published on shipment_assigned.
type AssignedPayload struct {
	ShipmentID uuid.UUID `json:"shipmentId"`
	DriverID   uuid.UUID `json:"driverId"`
}

func updated(sh *shipments.Shipment) UpdatedPayload {
	return UpdatedPayload{
		ID:             sh.ID,
		Status:         sh.Status,
		TrackingNumber: sh.TrackingNumber,
		DriverID:       sh.DriverID,
		PackageStatus:  sh.PackageStatus,
	}
}
