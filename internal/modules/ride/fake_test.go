package ride

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"sahayog/internal/types"
)

// memStore is an in-memory Repository with the same compare-and-set semantics as Store.
type memStore struct {
	mu         sync.Mutex
	rides      map[types.ID]*Ride
	events     []Event
	failEvents bool
}

func newMemStore() *memStore {
	return &memStore{rides: map[types.ID]*Ride{}}
}

func (m *memStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = cloneRide(r)
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRide(r), nil
}

func (m *memStore) Accept(_ context.Context, id, driverID, vehicleID types.ID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != StatusRequested {
		return false, nil
	}
	r.DriverID = &driverID
	r.VehicleID = &vehicleID
	r.Status = StatusAccepted
	r.StatusVersion++
	r.AcceptedAt = &at
	return true, nil
}

func (m *memStore) UpdateStatus(_ context.Context, c StatusChange) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[c.RideID]
	if !ok || r.Status != c.From || r.StatusVersion != c.Version {
		return false, nil
	}
	at := c.At
	r.Status = c.To
	r.StatusVersion++
	switch c.To {
	case StatusPickedUp:
		r.PickedUpAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
		fare := *c.ActualFare
		r.ActualFare = &fare
	case StatusCancelled:
		r.CancelledAt = &at
	}
	return true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEvents {
		return errors.New("event log unavailable")
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) ListForCustomer(_ context.Context, customerID types.ID) ([]*Ride, error) {
	return m.filter(func(r *Ride) bool { return r.CustomerID == customerID }), nil
}

func (m *memStore) ListForDriver(_ context.Context, driverID types.ID) ([]*Ride, error) {
	return m.filter(func(r *Ride) bool { return r.DriverID == nil || *r.DriverID == driverID }), nil
}

func (m *memStore) filter(keep func(*Ride) bool) []*Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ride
	for _, r := range m.rides {
		if keep(r) {
			out = append(out, cloneRide(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out
}

func (m *memStore) eventsFor(id types.ID) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.RideID == id {
			out = append(out, e)
		}
	}
	return out
}

func cloneRide(r *Ride) *Ride {
	cp := *r
	return &cp
}

// stubVehicles maps drivers to their eligible vehicle.
type stubVehicles struct {
	eligible map[types.ID]types.ID
	err      error
}

func (s *stubVehicles) EligibleVehicle(_ context.Context, driverID types.ID) (types.ID, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	id, ok := s.eligible[driverID]
	return id, ok, nil
}

type countingDrivers struct {
	mu    sync.Mutex
	rides map[types.ID]int
}

func (c *countingDrivers) IncrementRides(_ context.Context, driverID types.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rides == nil {
		c.rides = map[types.ID]int{}
	}
	c.rides[driverID]++
	return nil
}

type stubEstimator struct {
	km      float64
	minutes int
	err     error
	calls   int
	// block waits for the caller's context to end instead of answering.
	block bool
}

func (s *stubEstimator) Estimate(ctx context.Context, _, _ types.Point) (float64, int, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return 0, 0, ctx.Err()
	}
	return s.km, s.minutes, s.err
}
