// README: PostgreSQL-backed rating store tests; skipped unless SAHAYOG_TEST_DSN is set.
package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/testutil"
	"sahayog/internal/types"
)

func TestStoreInsertRecomputesAverage(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	store := NewStore(db)
	testutil.InsertVehicle(t, db, "v_db_1", "d_db_1", "KA01DB0001")

	r1 := insertCompletedRide(t, db, "c_db_1", "d_db_1", "v_db_1")
	r2 := insertCompletedRide(t, db, "c_db_2", "d_db_1", "v_db_1")

	if err := store.Insert(ctx, newRating(r1, "c_db_1", "d_db_1", 5), true); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, newRating(r2, "c_db_2", "d_db_1", 4), true); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, newRating(r1, "d_db_1", "c_db_1", 1), false); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("duplicate: expected ErrAlreadyRated, got %v", err)
	}

	var avg float64
	if err := db.QueryRow(ctx, `SELECT average_rating FROM driver_profiles WHERE driver_id = 'd_db_1'`).Scan(&avg); err != nil {
		t.Fatalf("read average: %v", err)
	}
	if avg != 4.5 {
		t.Fatalf("expected average 4.5, got %f", avg)
	}

	got, err := store.GetByRide(ctx, r1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 5 || got.RatedTo != "d_db_1" {
		t.Fatalf("unexpected stored rating %+v", got)
	}
}

func newRating(rideID, by, to types.ID, score int) *Rating {
	return &Rating{ID: types.NewID(), RideID: rideID, RatedBy: by, RatedTo: to, Score: score, CreatedAt: time.Now().UTC()}
}

func insertCompletedRide(t *testing.T, db *pgxpool.Pool, customerID, driverID, vehicleID string) types.ID {
	t.Helper()
	id := types.NewID()
	_, err := db.Exec(context.Background(), `
		INSERT INTO rides (id, customer_id, driver_id, vehicle_id, status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, estimated_fare, actual_fare,
			requested_at, accepted_at, completed_at)
		VALUES ($1, $2, $3, $4, 'completed', 3, 12.90, 77.59, 12.95, 77.60, 15000, 18000, NOW(), NOW(), NOW())`,
		string(id), customerID, driverID, vehicleID,
	)
	if err != nil {
		t.Fatalf("insert ride: %v", err)
	}
	return id
}
