// README: Route estimator backed by the Google Maps Directions API.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"googlemaps.github.io/maps"

	"sahayog/internal/types"
)

var ErrNoRoute = errors.New("no route found")

type directionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// Estimator returns driving distance and duration between two coordinates.
type Estimator struct {
	client directionsClient
}

func NewEstimator(apiKey string) (*Estimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Estimator{client: client}, nil
}

// Estimate returns kilometres (2 decimals) and whole minutes, rounded up, of the first route.
func (e *Estimator) Estimate(ctx context.Context, from, to types.Point) (float64, int, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLng(from),
		Destination: latLng(to),
		Mode:        maps.TravelModeDriving,
		Region:      "in",
	}

	routes, _, err := e.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, ErrNoRoute
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}
	km := math.Round(float64(meters)/10) / 100
	return km, int(math.Ceil(seconds / 60)), nil
}

func latLng(p types.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
