// README: Driver profile store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/types"
)

const profileColumns = `driver_id, license_number, license_expiry, experience_years, average_rating,
	total_rides, is_online, is_verified, current_lat, current_lng, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetOrCreate(ctx context.Context, driverID types.ID) (*Profile, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_profiles (driver_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (driver_id) DO NOTHING`,
		string(driverID), time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, driverID)
}

func (s *Store) Get(ctx context.Context, driverID types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM driver_profiles WHERE driver_id = $1`, string(driverID))
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Update writes the driver-editable fields. Rating, ride count and verification are untouched.
func (s *Store) Update(ctx context.Context, p *Profile) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE driver_profiles
		SET license_number = $1, license_expiry = $2, experience_years = $3, is_online = $4,
			current_lat = $5, current_lng = $6, updated_at = $7
		WHERE driver_id = $8`,
		p.LicenseNumber, p.LicenseExpiry, p.ExperienceYears, p.IsOnline,
		p.CurrentLat, p.CurrentLng, p.UpdatedAt, string(p.DriverID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetVerified(ctx context.Context, driverID types.ID, verified bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE driver_profiles SET is_verified = $1, updated_at = $2 WHERE driver_id = $3`,
		verified, time.Now().UTC(), string(driverID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IncrementRides(ctx context.Context, driverID types.ID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_profiles (driver_id, total_rides, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (driver_id) DO UPDATE
		SET total_rides = driver_profiles.total_rides + 1, updated_at = EXCLUDED.updated_at`,
		string(driverID), time.Now().UTC(),
	)
	return err
}

// ListAvailable returns online, verified drivers with a known position in driver id order.
func (s *Store) ListAvailable(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+` FROM driver_profiles
		WHERE is_online AND is_verified AND current_lat IS NOT NULL AND current_lng IS NOT NULL
		ORDER BY driver_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.DriverID, &p.LicenseNumber, &p.LicenseExpiry, &p.ExperienceYears, &p.AverageRating,
		&p.TotalRides, &p.IsOnline, &p.IsVerified, &p.CurrentLat, &p.CurrentLng, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
