// README: PostgreSQL-backed vehicle store tests; skipped unless SAHAYOG_TEST_DSN is set.
package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"sahayog/internal/testutil"
	"sahayog/internal/types"
)

func newStoredVehicle(id, driverID, plate string, createdAt time.Time) *Vehicle {
	return &Vehicle{
		ID:              types.ID(id),
		DriverID:        types.ID(driverID),
		VehicleType:     TypeAuto,
		Make:            "Bajaj",
		Model:           "RE",
		Year:            2021,
		LicensePlate:    plate,
		FuelType:        FuelCNG,
		SeatingCapacity: 3,
		IsActive:        true,
		CreatedAt:       createdAt,
	}
}

func TestStoreFirstEligibleOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.OpenDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, v := range []*Vehicle{
		newStoredVehicle("v_new", "d1", "KA01AA0001", base.Add(2*time.Hour)),
		newStoredVehicle("v_old", "d1", "KA01AA0002", base),
		newStoredVehicle("v_unverified", "d1", "KA01AA0003", base.Add(-time.Hour)),
	} {
		if err := store.Create(ctx, v); err != nil {
			t.Fatalf("create %s: %v", v.ID, err)
		}
	}

	if _, err := store.FirstEligible(ctx, "d1"); !errors.Is(err, ErrNoEligibleVehicle) {
		t.Fatalf("expected ErrNoEligibleVehicle before verification, got %v", err)
	}

	for _, id := range []types.ID{"v_new", "v_old"} {
		if err := store.SetVerified(ctx, id, true); err != nil {
			t.Fatalf("verify %s: %v", id, err)
		}
	}
	got, err := store.FirstEligible(ctx, "d1")
	if err != nil {
		t.Fatalf("first eligible: %v", err)
	}
	if got.ID != "v_old" {
		t.Fatalf("expected oldest verified vehicle v_old, got %s", got.ID)
	}
}

func TestStoreDuplicatePlateAndOwnerScopedDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.OpenDB(t))
	now := time.Now().UTC()

	if err := store.Create(ctx, newStoredVehicle("v1", "d1", "KA02BB0001", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Create(ctx, newStoredVehicle("v2", "d2", "KA02BB0001", now))
	if !errors.Is(err, ErrDuplicatePlate) {
		t.Fatalf("expected ErrDuplicatePlate, got %v", err)
	}

	if err := store.Delete(ctx, "d2", "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "d1", "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestStoreDeleteReferencedVehicle(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	store := NewStore(db)

	if err := store.Create(ctx, newStoredVehicle("v1", "d1", "KA03CC0001", time.Now().UTC())); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := db.Exec(ctx, `
		INSERT INTO rides (id, customer_id, driver_id, vehicle_id, status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, estimated_fare, requested_at)
		VALUES ('r1', 'c1', 'd1', 'v1', 'accepted', 1, 12.9, 77.59, 12.95, 77.6, 15000, NOW())`)
	if err != nil {
		t.Fatalf("insert ride: %v", err)
	}

	if err := store.Delete(ctx, "d1", "v1"); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
}
