// README: PostgreSQL-backed ride store tests; skipped unless SAHAYOG_TEST_DSN is set.
package ride

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/testutil"
	"sahayog/internal/types"
)

func TestStoreAcceptIsExclusive(t *testing.T) {
	ctx := context.Background()
	store, db := setupTestStore(t)
	testutil.InsertVehicle(t, db, "v_db_1", "d_db_1", "KA01DB0001")
	testutil.InsertVehicle(t, db, "v_db_2", "d_db_2", "KA01DB0002")

	r := newStoredRide(t, store)

	var wg sync.WaitGroup
	wins := make(chan bool, 2)
	for _, pair := range [][2]types.ID{{"d_db_1", "v_db_1"}, {"d_db_2", "v_db_2"}} {
		wg.Add(1)
		go func(driverID, vehicleID types.ID) {
			defer wg.Done()
			ok, err := store.Accept(ctx, r.ID, driverID, vehicleID, time.Now().UTC())
			if err != nil {
				t.Errorf("accept: %v", err)
			}
			wins <- ok
		}(pair[0], pair[1])
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one accept to win, got %d", won)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusAccepted || got.StatusVersion != 1 || got.AcceptedAt == nil {
		t.Fatalf("unexpected ride after accept: %+v", got)
	}
}

func TestStoreUpdateStatusCAS(t *testing.T) {
	ctx := context.Background()
	store, db := setupTestStore(t)
	testutil.InsertVehicle(t, db, "v_db_1", "d_db_1", "KA01DB0001")

	r := newStoredRide(t, store)
	if ok, err := store.Accept(ctx, r.ID, "d_db_1", "v_db_1", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("accept: ok=%v err=%v", ok, err)
	}

	now := time.Now().UTC()
	ok, err := store.UpdateStatus(ctx, StatusChange{RideID: r.ID, From: StatusAccepted, To: StatusPickedUp, Version: 1, At: now})
	if err != nil || !ok {
		t.Fatalf("pick up: ok=%v err=%v", ok, err)
	}

	// Stale version loses.
	fare := types.NewMoney(18000)
	ok, err = store.UpdateStatus(ctx, StatusChange{RideID: r.ID, From: StatusPickedUp, To: StatusCompleted, Version: 1, At: now, ActualFare: &fare})
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("stale version must not win")
	}

	ok, err = store.UpdateStatus(ctx, StatusChange{RideID: r.ID, From: StatusPickedUp, To: StatusCompleted, Version: 2, At: now, ActualFare: &fare})
	if err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.ActualFare == nil || got.ActualFare.Amount != 18000 {
		t.Fatalf("unexpected completed ride: %+v", got)
	}
	if got.PickedUpAt == nil || got.CompletedAt == nil || got.CancelledAt != nil {
		t.Fatalf("unexpected timestamps: %+v", got)
	}
}

func TestStoreListForDriver(t *testing.T) {
	ctx := context.Background()
	store, db := setupTestStore(t)
	testutil.InsertVehicle(t, db, "v_db_1", "d_db_1", "KA01DB0001")

	open := newStoredRide(t, store)
	taken := newStoredRide(t, store)
	if ok, err := store.Accept(ctx, taken.ID, "d_db_1", "v_db_1", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("accept: ok=%v err=%v", ok, err)
	}

	mine, err := store.ListForDriver(ctx, "d_db_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 rides for d_db_1, got %d", len(mine))
	}
	if mine[0].ID != taken.ID {
		t.Fatalf("expected newest ride first")
	}

	other, err := store.ListForDriver(ctx, "d_db_2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 1 || other[0].ID != open.ID {
		t.Fatalf("expected only the open ride for d_db_2, got %d", len(other))
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var rideSeq int

func newStoredRide(t *testing.T, store *Store) *Ride {
	t.Helper()
	rideSeq++
	r := &Ride{
		ID:            types.NewID(),
		CustomerID:    "c_db",
		Status:        StatusRequested,
		Pickup:        types.Point{Lat: 12.90, Lng: 77.59},
		Dropoff:       types.Point{Lat: 12.95, Lng: 77.60},
		EstimatedFare: types.NewMoney(15000),
		RequestedAt:   time.Now().UTC().Add(time.Duration(rideSeq) * time.Millisecond),
	}
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}

func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	db := testutil.OpenDB(t)
	return NewStore(db), db
}
