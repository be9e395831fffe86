package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"sahayog/internal/types"
)

type fakeDirections struct {
	routes []maps.Route
	err    error
	got    *maps.DirectionsRequest
}

func (f *fakeDirections) Directions(_ context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.got = r
	return f.routes, nil, f.err
}

func TestEstimate(t *testing.T) {
	fake := &fakeDirections{routes: []maps.Route{{
		Legs: []*maps.Leg{
			{Distance: maps.Distance{Meters: 6234}, Duration: 17*time.Minute + 10*time.Second},
		},
	}}}
	e := &Estimator{client: fake}

	km, minutes, err := e.Estimate(context.Background(), types.Point{Lat: 12.9, Lng: 77.59}, types.Point{Lat: 12.95, Lng: 77.6})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if km != 6.23 {
		t.Errorf("expected 6.23 km, got %f", km)
	}
	if minutes != 18 {
		t.Errorf("expected 18 minutes, got %d", minutes)
	}
	if fake.got.Origin != "12.900000,77.590000" || fake.got.Mode != maps.TravelModeDriving {
		t.Errorf("unexpected request %+v", fake.got)
	}
}

func TestEstimateNoRoute(t *testing.T) {
	e := &Estimator{client: &fakeDirections{}}
	if _, _, err := e.Estimate(context.Background(), types.Point{}, types.Point{}); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestEstimateAPIError(t *testing.T) {
	e := &Estimator{client: &fakeDirections{err: errors.New("REQUEST_DENIED")}}
	if _, _, err := e.Estimate(context.Background(), types.Point{}, types.Point{}); err == nil {
		t.Fatal("expected error")
	}
}
