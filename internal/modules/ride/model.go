// README: Ride aggregate, status definitions and the lifecycle transition table.
package ride

import (
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusRequested  Status = "requested"
	StatusAccepted   Status = "accepted"
	StatusPickedUp   Status = "picked_up"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus maps an API value to a Status. StatusNone is not a valid input.
func ParseStatus(v string) (Status, bool) {
	switch s := Status(v); s {
	case StatusRequested, StatusAccepted, StatusPickedUp, StatusInProgress, StatusCompleted, StatusCancelled:
		return s, true
	}
	return "", false
}

type Ride struct {
	ID                types.ID
	CustomerID        types.ID
	DriverID          *types.ID
	VehicleID         *types.ID
	Pickup            types.Point
	PickupAddress     string
	Dropoff           types.Point
	DropoffAddress    string
	Status            Status
	StatusVersion     int
	EstimatedFare     types.Money
	ActualFare        *types.Money
	DistanceKm        float64
	EstimatedDuration int
	Notes             string
	RequestedAt       time.Time
	AcceptedAt        *time.Time
	PickedUpAt        *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
}

// IsParty reports whether id is the ride's customer or its bound driver.
func (r *Ride) IsParty(id types.ID) bool {
	if r.CustomerID == id {
		return true
	}
	return r.DriverID != nil && *r.DriverID == id
}

// Counterparty returns the other party of id on the ride.
func (r *Ride) Counterparty(id types.ID) (types.ID, bool) {
	switch {
	case r.DriverID == nil:
		return "", false
	case r.CustomerID == id:
		return *r.DriverID, true
	case *r.DriverID == id:
		return r.CustomerID, true
	}
	return "", false
}

type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  account.Role
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow as code. Acceptance is
// handled separately because it also binds a driver and vehicle.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:  {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusPickedUp, StatusCancelled},
	StatusPickedUp:   {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	_, ok := AllowedTransitions[s]
	return !ok
}
