// README: Rating store; the insert and the driver average recompute share one transaction.
package rating

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert records r unless the ride already has a rating. When refreshDriver is
// set, the ratee's driver profile is locked and its average_rating recomputed
// over every rating it received.
func (s *Store) Insert(ctx context.Context, r *Rating, refreshDriver bool) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO ride_ratings (id, ride_id, rated_by, rated_to, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ride_id) DO NOTHING`,
			string(r.ID), string(r.RideID), string(r.RatedBy), string(r.RatedTo),
			r.Score, r.Comment, r.CreatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyRated
		}
		if !refreshDriver {
			return nil
		}
		return refreshAverage(ctx, tx, r.RatedTo)
	})
}

func refreshAverage(ctx context.Context, tx pgx.Tx, driverID types.ID) error {
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		INSERT INTO driver_profiles (driver_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (driver_id) DO NOTHING`,
		string(driverID), now,
	); err != nil {
		return err
	}

	var locked string
	if err := tx.QueryRow(ctx, `
		SELECT driver_id FROM driver_profiles WHERE driver_id = $1 FOR UPDATE`,
		string(driverID),
	).Scan(&locked); err != nil {
		return err
	}

	var avg float64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8 FROM ride_ratings WHERE rated_to = $1`,
		string(driverID),
	).Scan(&avg); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		UPDATE driver_profiles SET average_rating = $1, updated_at = $2 WHERE driver_id = $3`,
		avg, now, string(driverID),
	)
	return err
}

func (s *Store) GetByRide(ctx context.Context, rideID types.ID) (*Rating, error) {
	var r Rating
	var id, ride, by, to string
	err := s.db.QueryRow(ctx, `
		SELECT id, ride_id, rated_by, rated_to, rating, comment, created_at
		FROM ride_ratings WHERE ride_id = $1`, string(rideID),
	).Scan(&id, &ride, &by, &to, &r.Score, &r.Comment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.ID, r.RideID, r.RatedBy, r.RatedTo = types.ID(id), types.ID(ride), types.ID(by), types.ID(to)
	return &r, nil
}
