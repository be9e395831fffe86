// README: Ride store backed by PostgreSQL; status changes are compare-and-set on (status, status_version).
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/types"
)

const rideColumns = `id, customer_id, driver_id, vehicle_id, status, status_version,
	pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
	estimated_fare, actual_fare, distance_km, estimated_duration, notes,
	requested_at, accepted_at, picked_up_at, completed_at, cancelled_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, customer_id, status, status_version,
			pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
			estimated_fare, distance_km, estimated_duration, notes, requested_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)`,
		string(r.ID), string(r.CustomerID), string(r.Status), r.StatusVersion,
		r.Pickup.Lat, r.Pickup.Lng, r.PickupAddress, r.Dropoff.Lat, r.Dropoff.Lng, r.DropoffAddress,
		r.EstimatedFare.Amount, r.DistanceKm, r.EstimatedDuration, r.Notes, r.RequestedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Accept binds driver and vehicle to a ride still in requested. It reports
// false when another writer moved the ride first.
func (s *Store) Accept(ctx context.Context, id, driverID, vehicleID types.ID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET driver_id = $1,
			vehicle_id = $2,
			status = 'accepted',
			status_version = status_version + 1,
			accepted_at = $3
		WHERE id = $4 AND status = 'requested'`,
		string(driverID), string(vehicleID), at, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type StatusChange struct {
	RideID     types.ID
	From       Status
	To         Status
	Version    int
	At         time.Time
	ActualFare *types.Money
}

func (s *Store) UpdateStatus(ctx context.Context, c StatusChange) (bool, error) {
	var fare *int64
	if c.ActualFare != nil {
		v := c.ActualFare.Amount
		fare = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1::text,
			status_version = status_version + 1,
			picked_up_at = CASE WHEN $1::text = 'picked_up' THEN $2 ELSE picked_up_at END,
			completed_at = CASE WHEN $1::text = 'completed' THEN $2 ELSE completed_at END,
			cancelled_at = CASE WHEN $1::text = 'cancelled' THEN $2 ELSE cancelled_at END,
			actual_fare = CASE WHEN $1::text = 'completed' THEN $3 ELSE actual_fare END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(c.To), c.At, fare, string(c.RideID), string(c.From), c.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_state_events (
			ride_id, from_status, to_status, actor_role, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID), string(e.FromStatus), string(e.ToStatus), string(e.ActorRole),
		toStringPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

func (s *Store) ListForCustomer(ctx context.Context, customerID types.ID) ([]*Ride, error) {
	return s.list(ctx, `WHERE customer_id = $1`, string(customerID))
}

// ListForDriver returns rides driven by driverID and every ride without a driver.
func (s *Store) ListForDriver(ctx context.Context, driverID types.ID) ([]*Ride, error) {
	return s.list(ctx, `WHERE driver_id = $1 OR driver_id IS NULL`, string(driverID))
}

func (s *Store) list(ctx context.Context, where string, args ...any) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `SELECT `+rideColumns+` FROM rides `+where+` ORDER BY requested_at DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var id, customerID, status string
	var driverID, vehicleID *string
	var actualFare *int64

	err := row.Scan(
		&id, &customerID, &driverID, &vehicleID, &status, &r.StatusVersion,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.PickupAddress, &r.Dropoff.Lat, &r.Dropoff.Lng, &r.DropoffAddress,
		&r.EstimatedFare.Amount, &actualFare, &r.DistanceKm, &r.EstimatedDuration, &r.Notes,
		&r.RequestedAt, &r.AcceptedAt, &r.PickedUpAt, &r.CompletedAt, &r.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	r.ID = types.ID(id)
	r.CustomerID = types.ID(customerID)
	r.Status = Status(status)
	r.DriverID = toIDPtr(driverID)
	r.VehicleID = toIDPtr(vehicleID)
	r.EstimatedFare.Currency = types.DefaultCurrency
	if actualFare != nil {
		m := types.NewMoney(*actualFare)
		r.ActualFare = &m
	}
	return &r, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}
