package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

// Event mirrors a row of `shipment_events`. Rows are append-only.
type Event struct {
	ID          int64            `json:"id"`
	ShipmentID  uuid.UUID        `json:"shipment_id"`
	Type        domain.EventType `json:"event_type"`
	Description string           `json:"description"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
