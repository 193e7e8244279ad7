package shipments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/domain"
)

// Repo is the Postgres Store.
type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

func (r *Repo) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pg) }

const shipmentColumns = `
  id, tracking_number, status, customer_id, driver_id,
  sender_name, sender_phone, receiver_name, receiver_phone,
  pickup_address, pickup_lat, pickup_lng,
  delivery_address, delivery_lat, delivery_lng,
  package_weight, package_description, package_dimensions, package_fragile, package_status,
  total_amount, created_at, updated_at`

func scanShipment(row pgx.Row) (*Shipment, error) {
	var (
		s             Shipment
		status        string
		packageStatus *string
	)
	err := row.Scan(
		&s.ID, &s.TrackingNumber, &status, &s.CustomerID, &s.DriverID,
		&s.Sender.Name, &s.Sender.Phone, &s.Receiver.Name, &s.Receiver.Phone,
		&s.PickupAddress.Text, &s.PickupAddress.Lat, &s.PickupAddress.Lng,
		&s.DeliveryAddress.Text, &s.DeliveryAddress.Lat, &s.DeliveryAddress.Lng,
		&s.Package.Weight, &s.Package.Description, &s.Package.Dimensions, &s.Package.Fragile, &packageStatus,
		&s.TotalAmount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.ShipmentStatus(status)
	if packageStatus != nil {
		ps := domain.PackageStatus(*packageStatus)
		s.PackageStatus = &ps
	}
	return &s, nil
}

func collectShipments(rows pgx.Rows) ([]Shipment, error) {
	defer rows.Close()
	out := make([]Shipment, 0)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, s *Shipment) error {
	const q = `
INSERT INTO shipments (
  id, tracking_number, status, customer_id,
  sender_name, sender_phone, receiver_name, receiver_phone,
  pickup_address, pickup_lat, pickup_lng,
  delivery_address, delivery_lat, delivery_lng,
  package_weight, package_description, package_dimensions, package_fragile,
  total_amount, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now(), now())
RETURNING created_at, updated_at`

	err := r.conn(ctx).QueryRow(ctx, q,
		s.ID, s.TrackingNumber, string(s.Status), s.CustomerID,
		s.Sender.Name, s.Sender.Phone, s.Receiver.Name, s.Receiver.Phone,
		s.PickupAddress.Text, s.PickupAddress.Lat, s.PickupAddress.Lng,
		s.DeliveryAddress.Text, s.DeliveryAddress.Lat, s.DeliveryAddress.Lng,
		s.Package.Weight, s.Package.Description, s.Package.Dimensions, s.Package.Fragile,
		s.TotalAmount,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "shipments_tracking_number_key" {
			return ErrDuplicateTrackingNumber
		}
		return err
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error) {
	q := `SELECT` + shipmentColumns + ` FROM shipments WHERE id = $1 LIMIT 1`
	return scanShipment(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *Repo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	q := `SELECT` + shipmentColumns + ` FROM shipments WHERE tracking_number = $1 LIMIT 1`
	return scanShipment(r.conn(ctx).QueryRow(ctx, q, trackingNumber))
}

func (r *Repo) ListByCustomer(ctx context.Context, customerID string) ([]Shipment, error) {
	q := `SELECT` + shipmentColumns + ` FROM shipments WHERE customer_id = $1 ORDER BY created_at DESC, id`
	rows, err := r.conn(ctx).Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	return collectShipments(rows)
}

func (r *Repo) ListByDriver(ctx context.Context, driverID uuid.UUID, status *domain.ShipmentStatus) ([]Shipment, error) {
	q := `SELECT` + shipmentColumns + `
FROM shipments
WHERE driver_id = $1 AND ($2::text IS NULL OR status = $2)
ORDER BY updated_at DESC, id`
	var st *string
	if status != nil {
		v := string(*status)
		st = &v
	}
	rows, err := r.conn(ctx).Query(ctx, q, driverID, st)
	if err != nil {
		return nil, err
	}
	return collectShipments(rows)
}

func (r *Repo) ListAvailable(ctx context.Context, limit int) ([]Shipment, error) {
	q := `SELECT` + shipmentColumns + `
FROM shipments
WHERE status = 'pending' AND driver_id IS NULL
ORDER BY created_at ASC, id
LIMIT $1`
	rows, err := r.conn(ctx).Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectShipments(rows)
}

func (r *Repo) DeletePending(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM shipments WHERE id = $1 AND status = 'pending' AND driver_id IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

func (r *Repo) Claim(ctx context.Context, id, driverID uuid.UUID) (*Shipment, error) {
	q := `
UPDATE shipments
SET driver_id = $2,
    status = 'assigned',
    updated_at = now()
WHERE id = $1 AND status = 'pending' AND driver_id IS NULL
RETURNING` + shipmentColumns
	s, err := scanShipment(r.conn(ctx).QueryRow(ctx, q, id, driverID))
	if errors.Is(err, ErrNotFound) {
		return nil, r.missOrStale(ctx, id)
	}
	return s, err
}

func (r *Repo) UpdateStatus(ctx context.Context, id, driverID uuid.UUID, from, to domain.ShipmentStatus) (*Shipment, error) {
	q := `
UPDATE shipments
SET status = $4,
    updated_at = now()
WHERE id = $1 AND driver_id = $2 AND status = $3
RETURNING` + shipmentColumns
	s, err := scanShipment(r.conn(ctx).QueryRow(ctx, q, id, driverID, string(from), string(to)))
	if errors.Is(err, ErrNotFound) {
		return nil, r.missOrStale(ctx, id)
	}
	return s, err
}

func (r *Repo) SetPackageStatus(ctx context.Context, id uuid.UUID, ps domain.PackageStatus) (*Shipment, error) {
	q := `
UPDATE shipments
SET package_status = $2,
    updated_at = now()
WHERE id = $1
RETURNING` + shipmentColumns
	return scanShipment(r.conn(ctx).QueryRow(ctx, q, id, string(ps)))
}

func (r *Repo) CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM shipments WHERE driver_id = $1 AND status IN ('assigned', 'in_transit')`
	var n int
	err := r.conn(ctx).QueryRow(ctx, q, driverID).Scan(&n)
	return n, err
}

func (r *Repo) CountByCustomer(ctx context.Context, customerID string) (map[domain.ShipmentStatus]int, error) {
	return r.countBy(ctx, `SELECT status, count(*) FROM shipments WHERE customer_id = $1 GROUP BY status`, customerID)
}

func (r *Repo) CountByDriver(ctx context.Context, driverID uuid.UUID) (map[domain.ShipmentStatus]int, error) {
	return r.countBy(ctx, `SELECT status, count(*) FROM shipments WHERE driver_id = $1 GROUP BY status`, driverID)
}

func (r *Repo) countBy(ctx context.Context, q string, arg any) (map[domain.ShipmentStatus]int, error) {
	rows, err := r.conn(ctx).Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.ShipmentStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.ShipmentStatus(status)] = n
	}
	return out, rows.Err()
}

// missOrStale tells a missing row apart from a failed condition.
func (r *Repo) missOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shipments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}
