package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const driverColumns = `
  id, user_id, name, vehicle_type, license_number, status, last_online_at, created_at, updated_at`

func scanDriver(row pgx.Row) (*Driver, error) {
	var (
		d      Driver
		status string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.VehicleType, &d.LicenseNumber, &status, &d.LastOnlineAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Status = domain.DriverStatus(status)
	return &d, nil
}

func (r *Repo) Create(ctx context.Context, d *Driver) error {
	const q = `
INSERT INTO drivers (id, user_id, name, vehicle_type, license_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, q, d.ID, d.UserID, d.Name, d.VehicleType, d.LicenseNumber, string(d.Status)).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Driver, error) {
	q := `SELECT` + driverColumns + ` FROM drivers WHERE id = $1 LIMIT 1`
	return scanDriver(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *Repo) FindByUserID(ctx context.Context, userID string) (*Driver, error) {
	q := `SELECT` + driverColumns + ` FROM drivers WHERE user_id = $1 LIMIT 1`
	return scanDriver(r.conn(ctx).QueryRow(ctx, q, userID))
}

func (r *Repo) List(ctx context.Context) ([]Driver, error) {
	q := `SELECT` + driverColumns + ` FROM drivers ORDER BY created_at ASC, id`
	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, u UpdateProfile) (*Driver, error) {
	q := `
UPDATE drivers
SET name = COALESCE($2, name),
    vehicle_type = COALESCE($3, vehicle_type),
    license_number = COALESCE($4, license_number),
    status = COALESCE($5, status),
    updated_at = now()
WHERE id = $1
RETURNING` + driverColumns
	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	return scanDriver(r.conn(ctx).QueryRow(ctx, q, id, u.Name, u.VehicleType, u.LicenseNumber, status))
}

func (r *Repo) SetStatusIf(ctx context.Context, id uuid.UUID, from, to domain.DriverStatus) (bool, error) {
	const q = `UPDATE drivers SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`
	tag, err := r.conn(ctx).Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var one int
	err := r.conn(ctx).QueryRow(ctx, `SELECT 1 FROM drivers WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) TouchOnline(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE drivers SET last_online_at = $2 WHERE id = $1`
	tag, err := r.conn(ctx).Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) MarkOffline(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	const q = `
UPDATE drivers
SET status = 'offline',
    updated_at = now()
WHERE status = 'available' AND COALESCE(last_online_at, created_at) < $1
RETURNING id`
	rows, err := r.conn(ctx).Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
