package events

import (
	"context"

	"github.com/google/uuid"
)

// Store persists events. Append assigns ID and OccurredAt; List returns
// events ordered by occurred_at, then id.
type Store interface {
	Append(ctx context.Context, e *Event) error
	List(ctx context.Context, shipmentID uuid.UUID) ([]Event, error)
}
