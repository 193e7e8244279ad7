package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
)

// Log is the only write path to shipment history. It is called by the
// shipment and lifecycle services, never from HTTP handlers.
type Log struct {
	store Store
}

func NewLog(store Store) *Log {
	return &Log{store: store}
}

// Append writes a new event row. Retries of the same action produce new
// rows; callers de-duplicate if they need to.
func (l *Log) Append(ctx context.Context, shipmentID uuid.UUID, typ domain.EventType, description string) (*Event, error) {
	e := &Event{ShipmentID: shipmentID, Type: typ, Description: description}
	if err := l.store.Append(ctx, e); err != nil {
		return nil, fmt.Errorf("append %s event: %w", typ, err)
	}
	return e, nil
}

func (l *Log) ListForShipment(ctx context.Context, shipmentID uuid.UUID) ([]Event, error) {
	return l.store.List(ctx, shipmentID)
}
