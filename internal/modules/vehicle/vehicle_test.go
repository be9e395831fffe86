package vehicle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/types"
)

// memStore is an in-memory Repository mirroring the SQL store's semantics.
type memStore struct {
	mu       sync.Mutex
	vehicles map[types.ID]*Vehicle
	inUse    map[types.ID]bool
}

func newMemStore() *memStore {
	return &memStore{vehicles: map[types.ID]*Vehicle{}, inUse: map[types.ID]bool{}}
}

func (m *memStore) Create(_ context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vehicles {
		if existing.LicensePlate == v.LicensePlate {
			return ErrDuplicatePlate
		}
	}
	cp := *v
	m.vehicles[v.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) ListByDriver(_ context.Context, driverID types.ID) ([]*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Vehicle
	for _, v := range m.vehicles {
		if v.DriverID == driverID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sortVehicles(out)
	return out, nil
}

func (m *memStore) Update(_ context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.vehicles[v.ID]
	if !ok || existing.DriverID != v.DriverID {
		return ErrNotFound
	}
	for id, other := range m.vehicles {
		if id != v.ID && other.LicensePlate == v.LicensePlate {
			return ErrDuplicatePlate
		}
	}
	cp := *v
	cp.IsVerified = existing.IsVerified
	m.vehicles[v.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, driverID, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok || v.DriverID != driverID {
		return ErrNotFound
	}
	if m.inUse[id] {
		return ErrInUse
	}
	delete(m.vehicles, id)
	return nil
}

func (m *memStore) SetVerified(_ context.Context, id types.ID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	v.IsVerified = verified
	return nil
}

func (m *memStore) FirstEligible(ctx context.Context, driverID types.ID) (*Vehicle, error) {
	all, _ := m.ListByDriver(ctx, driverID)
	for _, v := range all {
		if v.Eligible() {
			return v, nil
		}
	}
	return nil, ErrNoEligibleVehicle
}

func sortVehicles(vs []*Vehicle) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].ID < vs[j].ID
		}
		return vs[i].CreatedAt.Before(vs[j].CreatedAt)
	})
}

func validCreate(driverID types.ID, plate string) CreateCommand {
	return CreateCommand{
		Owner:           account.Principal{ID: driverID, Role: account.RoleDriver},
		VehicleType:     TypeAuto,
		Make:            "Bajaj",
		Model:           "RE",
		Year:            2021,
		LicensePlate:    plate,
		FuelType:        FuelCNG,
		SeatingCapacity: 3,
	}
}

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newMemStore())
	v, err := svc.Create(context.Background(), validCreate("d1", "ka 01 ab 1234"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !v.IsActive || v.IsVerified {
		t.Fatalf("expected active and unverified, got active=%v verified=%v", v.IsActive, v.IsVerified)
	}
	if v.LicensePlate != "KA01AB1234" {
		t.Fatalf("expected normalized plate, got %q", v.LicensePlate)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	bad := validCreate("d1", "KA01")
	bad.VehicleType = "rocket"
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown vehicle type: expected ErrValidation, got %v", err)
	}

	bad = validCreate("d1", "KA01")
	bad.SeatingCapacity = 0
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero capacity: expected ErrValidation, got %v", err)
	}

	bad = validCreate("c1", "KA01")
	bad.Owner.Role = account.RoleCustomer
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("customer owner: expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateDuplicatePlate(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	if _, err := svc.Create(ctx, validCreate("d1", "KA01AB1234")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, validCreate("d2", "ka01ab1234")); !errors.Is(err, ErrDuplicatePlate) {
		t.Fatalf("expected ErrDuplicatePlate, got %v", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	v, err := svc.Create(ctx, validCreate("d1", "KA01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Get(ctx, "d2", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: expected ErrNotFound, got %v", err)
	}
	active := false
	if _, err := svc.Update(ctx, UpdateCommand{DriverID: "d2", VehicleID: v.ID, IsActive: &active}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "d2", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDoesNotTouchVerification(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	v, _ := svc.Create(ctx, validCreate("d1", "KA01"))
	if err := svc.SetVerified(ctx, v.ID, true); err != nil {
		t.Fatalf("verify: %v", err)
	}
	active := false
	updated, err := svc.Update(ctx, UpdateCommand{DriverID: "d1", VehicleID: v.ID, IsActive: &active})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected vehicle deactivated")
	}
	got, _ := store.Get(ctx, v.ID)
	if !got.IsVerified {
		t.Fatal("owner update must not clear verification")
	}
}

func TestDeleteInUse(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	v, _ := svc.Create(ctx, validCreate("d1", "KA01"))
	store.inUse[v.ID] = true
	if err := svc.Delete(ctx, "d1", v.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
}

func TestEligibleVehiclePicksOldest(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	if _, ok, err := svc.EligibleVehicle(ctx, "d1"); err != nil || ok {
		t.Fatalf("expected no eligible vehicle, got ok=%v err=%v", ok, err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	unverified := &Vehicle{ID: "v0", DriverID: "d1", IsActive: true, CreatedAt: base}
	inactive := &Vehicle{ID: "v1", DriverID: "d1", IsVerified: true, CreatedAt: base.Add(time.Minute)}
	newer := &Vehicle{ID: "v3", DriverID: "d1", IsActive: true, IsVerified: true, CreatedAt: base.Add(3 * time.Minute)}
	older := &Vehicle{ID: "v2", DriverID: "d1", IsActive: true, IsVerified: true, CreatedAt: base.Add(2 * time.Minute)}
	other := &Vehicle{ID: "v9", DriverID: "d2", IsActive: true, IsVerified: true, CreatedAt: base}
	for _, v := range []*Vehicle{unverified, inactive, newer, older, other} {
		store.vehicles[v.ID] = v
	}

	id, ok, err := svc.EligibleVehicle(ctx, "d1")
	if err != nil || !ok {
		t.Fatalf("expected eligible vehicle, got ok=%v err=%v", ok, err)
	}
	if id != "v2" {
		t.Fatalf("expected oldest eligible vehicle v2, got %s", id)
	}
}
