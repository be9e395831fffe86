// README: Rating service validates who may rate a completed ride and folds driver ratings into their average.
package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/modules/ride"
	"sahayog/internal/observability"
	"sahayog/internal/types"
)

var (
	ErrNotFound     = errors.New("completed ride not found")
	ErrForbidden    = errors.New("not a party to this ride")
	ErrValidation   = errors.New("rating must be between 1 and 5")
	ErrAlreadyRated = errors.New("ride already rated")
)

type Repository interface {
	Insert(ctx context.Context, r *Rating, refreshDriver bool) error
	GetByRide(ctx context.Context, rideID types.ID) (*Rating, error)
}

// RideSource reads rides regardless of caller visibility.
type RideSource interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

type RoleLookup interface {
	Role(ctx context.Context, id types.ID) (account.Role, error)
}

type Service struct {
	store Repository
	rides RideSource
	roles RoleLookup
}

func NewService(store Repository, rides RideSource, roles RoleLookup) *Service {
	return &Service{store: store, rides: rides, roles: roles}
}

type RateCommand struct {
	RideID  types.ID
	Rater   account.Principal
	Score   int
	Comment string
}

func (s *Service) Rate(ctx context.Context, cmd RateCommand) (*Rating, error) {
	if cmd.Score < MinScore || cmd.Score > MaxScore {
		return nil, ErrValidation
	}
	rd, err := s.rides.Get(ctx, cmd.RideID)
	if errors.Is(err, ride.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rd.Status != ride.StatusCompleted {
		return nil, ErrNotFound
	}
	ratee, ok := rd.Counterparty(cmd.Rater.ID)
	if !ok {
		return nil, ErrForbidden
	}
	// The ride's bound driver is always refreshed, whatever the directory says.
	refresh := rd.DriverID != nil && ratee == *rd.DriverID
	if !refresh {
		role, err := s.roles.Role(ctx, ratee)
		if err != nil {
			return nil, err
		}
		refresh = role == account.RoleDriver
	}

	r := &Rating{
		ID:        types.NewID(),
		RideID:    rd.ID,
		RatedBy:   cmd.Rater.ID,
		RatedTo:   ratee,
		Score:     cmd.Score,
		Comment:   strings.TrimSpace(cmd.Comment),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, r, refresh); err != nil {
		return nil, err
	}
	observability.RatingsTotal.Inc()
	return r, nil
}

// Get returns the rating of a ride to either of its parties.
func (s *Service) Get(ctx context.Context, p account.Principal, rideID types.ID) (*Rating, error) {
	r, err := s.store.GetByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.RatedBy != p.ID && r.RatedTo != p.ID {
		return nil, ErrNotFound
	}
	return r, nil
}
