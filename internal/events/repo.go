package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/domain"
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

func (r *Repo) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pg) }

func (r *Repo) Append(ctx context.Context, e *Event) error {
	const q = `
INSERT INTO shipment_events (shipment_id, event_type, description, occurred_at)
VALUES ($1, $2, $3, clock_timestamp())
RETURNING id, occurred_at`
	return r.conn(ctx).QueryRow(ctx, q, e.ShipmentID, string(e.Type), e.Description).Scan(&e.ID, &e.OccurredAt)
}

func (r *Repo) List(ctx context.Context, shipmentID uuid.UUID) ([]Event, error) {
	const q = `
SELECT id, shipment_id, event_type, description, occurred_at
FROM shipment_events
WHERE shipment_id = $1
ORDER BY occurred_at ASC, id ASC`
	rows, err := r.conn(ctx).Query(ctx, q, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var (
			e   Event
			typ string
		)
		if err := rows.Scan(&e.ID, &e.ShipmentID, &typ, &e.Description, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Type = domain.EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
