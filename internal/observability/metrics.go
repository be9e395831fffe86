// README: Prometheus collectors for HTTP traffic and the ride lifecycle.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sahayog"

var (
	RidesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "rides_created_total", Help: "Rides requested by customers",
	})
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_transitions_total", Help: "Ride status transitions by target status"},
		[]string{"to"},
	)
	RideAcceptConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "ride_accept_conflicts_total", Help: "Accept attempts that lost the race for a ride",
	})
	RatingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "ratings_total", Help: "Ride ratings recorded",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
