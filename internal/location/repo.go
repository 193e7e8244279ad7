package location

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parceltrack/backend/internal/db"
)

// Repo хранит последнюю точку в таблице driver_locations (одна строка на водителя).
type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

func (r *Repo) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pg) }

func (r *Repo) Put(ctx context.Context, s Sample) error {
	_, err := r.conn(ctx).Exec(ctx, `
INSERT INTO driver_locations (driver_id, latitude, longitude, accuracy, recorded_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (driver_id) DO UPDATE SET
  latitude = EXCLUDED.latitude,
  longitude = EXCLUDED.longitude,
  accuracy = EXCLUDED.accuracy,
  recorded_at = EXCLUDED.recorded_at
`, s.DriverID, s.Latitude, s.Longitude, s.Accuracy, s.Timestamp)
	return err
}

func (r *Repo) Latest(ctx context.Context, driverID uuid.UUID) (*Sample, error) {
	s := &Sample{DriverID: driverID}
	err := r.conn(ctx).QueryRow(ctx, `
SELECT latitude, longitude, accuracy, recorded_at
FROM driver_locations
WHERE driver_id = $1
`, driverID).Scan(&s.Latitude, &s.Longitude, &s.Accuracy, &s.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSample
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
