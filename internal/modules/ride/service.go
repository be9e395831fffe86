// README: Ride service implements the lifecycle (create, accept, status updates) on top of the store.
package ride

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/observability"
	"sahayog/internal/types"
)

var (
	ErrNotFound          = errors.New("ride not found")
	ErrForbidden         = errors.New("not a party to this ride")
	ErrInvalidRole       = errors.New("role not allowed for this action")
	ErrNoEligibleVehicle = errors.New("no verified active vehicle found")
	ErrValidation        = errors.New("invalid ride request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("ride state conflict")
)

type Repository interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	Accept(ctx context.Context, id, driverID, vehicleID types.ID, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, c StatusChange) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	ListForCustomer(ctx context.Context, customerID types.ID) ([]*Ride, error)
	ListForDriver(ctx context.Context, driverID types.ID) ([]*Ride, error)
}

// VehicleRegistry answers which vehicle a driver brings to an accepted ride.
type VehicleRegistry interface {
	EligibleVehicle(ctx context.Context, driverID types.ID) (types.ID, bool, error)
}

type DriverStats interface {
	IncrementRides(ctx context.Context, driverID types.ID) error
}

// Estimator fills distance and duration for rides created without them.
type Estimator interface {
	Estimate(ctx context.Context, from, to types.Point) (distanceKm float64, minutes int, err error)
}

// DefaultEstimateTimeout bounds the route lookup made while creating a ride.
const DefaultEstimateTimeout = 3 * time.Second

type ServiceDeps struct {
	Store           Repository
	Vehicles        VehicleRegistry
	Drivers         DriverStats
	Estimator       Estimator
	EstimateTimeout time.Duration
	Logger          *slog.Logger
}

type Service struct {
	store     Repository
	vehicles  VehicleRegistry
	drivers   DriverStats
	estimator Estimator
	estimateT time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	estimateT := deps.EstimateTimeout
	if estimateT <= 0 {
		estimateT = DefaultEstimateTimeout
	}
	return &Service{
		store:     deps.Store,
		vehicles:  deps.Vehicles,
		drivers:   deps.Drivers,
		estimator: deps.Estimator,
		estimateT: estimateT,
		log:       logger.With("module", "ride"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateCommand struct {
	Customer          account.Principal
	Pickup            types.Point
	PickupAddress     string
	Dropoff           types.Point
	DropoffAddress    string
	EstimatedFare     types.Money
	DistanceKm        float64
	EstimatedDuration int
	Notes             string
}

type StatusCommand struct {
	RideID     types.ID
	Actor      account.Principal
	Status     string
	ActualFare *types.Money
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if !cmd.Customer.CanRequestRide() {
		return nil, ErrInvalidRole
	}
	if cmd.Customer.ID == "" ||
		!cmd.Pickup.Valid() || !cmd.Dropoff.Valid() ||
		cmd.EstimatedFare.IsNegative() ||
		cmd.DistanceKm < 0 || cmd.EstimatedDuration < 0 {
		return nil, ErrValidation
	}

	r := &Ride{
		ID:                types.NewID(),
		CustomerID:        cmd.Customer.ID,
		Pickup:            cmd.Pickup,
		PickupAddress:     strings.TrimSpace(cmd.PickupAddress),
		Dropoff:           cmd.Dropoff,
		DropoffAddress:    strings.TrimSpace(cmd.DropoffAddress),
		Status:            StatusRequested,
		StatusVersion:     0,
		EstimatedFare:     types.NewMoney(cmd.EstimatedFare.Amount),
		DistanceKm:        cmd.DistanceKm,
		EstimatedDuration: cmd.EstimatedDuration,
		Notes:             cmd.Notes,
		RequestedAt:       s.now(),
	}
	if r.DistanceKm == 0 && s.estimator != nil {
		estCtx, cancel := context.WithTimeout(ctx, s.estimateT)
		km, minutes, err := s.estimator.Estimate(estCtx, r.Pickup, r.Dropoff)
		cancel()
		if err != nil {
			s.log.WarnContext(ctx, "route estimate failed", "error", err)
		} else {
			r.DistanceKm = km
			if r.EstimatedDuration == 0 {
				r.EstimatedDuration = minutes
			}
		}
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	observability.RidesCreated.Inc()
	s.appendEvent(ctx, r.ID, StatusNone, StatusRequested, cmd.Customer, r.RequestedAt)
	return r, nil
}

// Accept binds the driver and their oldest eligible vehicle to a requested ride.
// At most one concurrent caller succeeds; the others see ErrNotFound.
func (s *Service) Accept(ctx context.Context, rideID types.ID, driver account.Principal) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusRequested {
		return nil, ErrNotFound
	}
	if !driver.CanAcceptRide() {
		return nil, ErrInvalidRole
	}
	vehicleID, ok, err := s.vehicles.EligibleVehicle(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoEligibleVehicle
	}

	at := s.now()
	won, err := s.store.Accept(ctx, r.ID, driver.ID, vehicleID, at)
	if err != nil {
		return nil, err
	}
	if !won {
		observability.RideAcceptConflicts.Inc()
		return nil, ErrNotFound
	}

	driverID := driver.ID
	r.DriverID = &driverID
	r.VehicleID = &vehicleID
	r.Status = StatusAccepted
	r.StatusVersion++
	r.AcceptedAt = &at
	observability.RideTransitions.WithLabelValues(string(StatusAccepted)).Inc()
	s.appendEvent(ctx, r.ID, StatusRequested, StatusAccepted, driver, at)
	return r, nil
}

// UpdateStatus moves a ride along the transition table on behalf of one of its parties.
func (s *Service) UpdateStatus(ctx context.Context, cmd StatusCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !r.IsParty(cmd.Actor.ID) {
		return nil, ErrForbidden
	}
	to, ok := ParseStatus(cmd.Status)
	if !ok {
		return nil, ErrValidation
	}
	if to == StatusAccepted || !CanTransition(r.Status, to) {
		return nil, ErrInvalidTransition
	}

	change := StatusChange{
		RideID:  r.ID,
		From:    r.Status,
		To:      to,
		Version: r.StatusVersion,
		At:      s.now(),
	}
	if to == StatusCompleted {
		fare := r.EstimatedFare
		if cmd.ActualFare != nil {
			if cmd.ActualFare.IsNegative() {
				return nil, ErrValidation
			}
			fare = types.NewMoney(cmd.ActualFare.Amount)
		}
		change.ActualFare = &fare
	}

	won, err := s.store.UpdateStatus(ctx, change)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrConflict
	}

	from := r.Status
	r.Status = to
	r.StatusVersion++
	switch to {
	case StatusPickedUp:
		r.PickedUpAt = &change.At
	case StatusCompleted:
		r.CompletedAt = &change.At
		r.ActualFare = change.ActualFare
	case StatusCancelled:
		r.CancelledAt = &change.At
	}
	observability.RideTransitions.WithLabelValues(string(to)).Inc()
	s.appendEvent(ctx, r.ID, from, to, cmd.Actor, change.At)

	if to == StatusCompleted && r.DriverID != nil && s.drivers != nil {
		if err := s.drivers.IncrementRides(ctx, *r.DriverID); err != nil {
			s.log.WarnContext(ctx, "increment driver rides failed", "ride_id", r.ID, "driver_id", *r.DriverID, "error", err)
		}
	}
	return r, nil
}

// Get returns a ride visible to p: its customer, its driver, or any driver
// while the ride has no driver yet.
func (s *Service) Get(ctx context.Context, p account.Principal, id types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.IsParty(p.ID) || (p.IsDriver() && r.DriverID == nil) {
		return r, nil
	}
	return nil, ErrNotFound
}

// List returns newest rides first. Drivers see unassigned rides plus the ones
// they drive; everyone else sees the rides they requested.
func (s *Service) List(ctx context.Context, p account.Principal) ([]*Ride, error) {
	if p.IsDriver() {
		return s.store.ListForDriver(ctx, p.ID)
	}
	return s.store.ListForCustomer(ctx, p.ID)
}

func (s *Service) appendEvent(ctx context.Context, rideID types.ID, from, to Status, actor account.Principal, at time.Time) {
	actorID := actor.ID
	err := s.store.AppendEvent(ctx, &Event{
		RideID:     rideID,
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  actor.Role,
		ActorID:    &actorID,
		CreatedAt:  at,
	})
	if err != nil {
		s.log.WarnContext(ctx, "append ride event failed", "ride_id", rideID, "to", to, "error", err)
	}
}
