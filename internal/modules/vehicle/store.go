// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/types"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const vehicleColumns = `id, driver_id, vehicle_type, make, model, year, license_plate,
	fuel_type, seating_capacity, is_active, is_verified, created_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(v.ID), string(v.DriverID), string(v.VehicleType), v.Make, v.Model, v.Year,
		v.LicensePlate, string(v.FuelType), v.SeatingCapacity, v.IsActive, v.IsVerified, v.CreatedAt,
	)
	return mapPgError(err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, string(id))
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *Store) ListByDriver(ctx context.Context, driverID types.ID) ([]*Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE driver_id = $1
		ORDER BY created_at, id`, string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, v *Vehicle) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET vehicle_type = $1, make = $2, model = $3, year = $4, license_plate = $5,
			fuel_type = $6, seating_capacity = $7, is_active = $8
		WHERE id = $9 AND driver_id = $10`,
		string(v.VehicleType), v.Make, v.Model, v.Year, v.LicensePlate,
		string(v.FuelType), v.SeatingCapacity, v.IsActive,
		string(v.ID), string(v.DriverID),
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, driverID, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1 AND driver_id = $2`, string(id), string(driverID))
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetVerified(ctx context.Context, id types.ID, verified bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE vehicles SET is_verified = $1 WHERE id = $2`, verified, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FirstEligible returns the oldest active and verified vehicle of the driver.
func (s *Store) FirstEligible(ctx context.Context, driverID types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE driver_id = $1 AND is_active AND is_verified
		ORDER BY created_at, id
		LIMIT 1`, string(driverID),
	)
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEligibleVehicle
	}
	return v, err
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var vehicleType, fuelType string
	err := row.Scan(
		&v.ID, &v.DriverID, &vehicleType, &v.Make, &v.Model, &v.Year, &v.LicensePlate,
		&fuelType, &v.SeatingCapacity, &v.IsActive, &v.IsVerified, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.VehicleType = Type(vehicleType)
	v.FuelType = FuelType(fuelType)
	return &v, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicatePlate
		case pgForeignKeyViolation:
			return ErrInUse
		}
	}
	return err
}
