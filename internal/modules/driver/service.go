// README: Driver presence service (profile upkeep, verification, nearby-driver query).
package driver

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/types"
)

var (
	ErrNotFound    = errors.New("driver profile not found")
	ErrValidation  = errors.New("invalid driver profile")
	ErrInvalidRole = errors.New("only drivers have a driver profile")
)

type Repository interface {
	GetOrCreate(ctx context.Context, driverID types.ID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SetVerified(ctx context.Context, driverID types.ID, verified bool) error
	IncrementRides(ctx context.Context, driverID types.ID) error
	ListAvailable(ctx context.Context) ([]*Profile, error)
}

type Service struct {
	store    Repository
	radiusKm float64
}

func NewService(store Repository, radiusKm float64) *Service {
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Service{store: store, radiusKm: radiusKm}
}

// UpdateCommand is a partial profile update. Location and ClearLocation are exclusive.
type UpdateCommand struct {
	Driver          account.Principal
	LicenseNumber   *string
	LicenseExpiry   *time.Time
	ExperienceYears *int
	IsOnline        *bool
	Location        *types.Point
	ClearLocation   bool
}

func (s *Service) Get(ctx context.Context, p account.Principal) (*Profile, error) {
	if !p.CanManageDriverProfile() {
		return nil, ErrInvalidRole
	}
	return s.store.GetOrCreate(ctx, p.ID)
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Profile, error) {
	if cmd.Location != nil && cmd.ClearLocation {
		return nil, ErrValidation
	}
	if cmd.ExperienceYears != nil && *cmd.ExperienceYears < 0 {
		return nil, ErrValidation
	}
	if cmd.Location != nil && !cmd.Location.Valid() {
		return nil, ErrValidation
	}

	profile, err := s.Get(ctx, cmd.Driver)
	if err != nil {
		return nil, err
	}
	if cmd.LicenseNumber != nil {
		profile.LicenseNumber = strings.TrimSpace(*cmd.LicenseNumber)
	}
	if cmd.LicenseExpiry != nil {
		expiry := cmd.LicenseExpiry.UTC()
		profile.LicenseExpiry = &expiry
	}
	if cmd.ExperienceYears != nil {
		profile.ExperienceYears = *cmd.ExperienceYears
	}
	if cmd.IsOnline != nil {
		profile.IsOnline = *cmd.IsOnline
	}
	switch {
	case cmd.Location != nil:
		lat, lng := cmd.Location.Lat, cmd.Location.Lng
		profile.CurrentLat, profile.CurrentLng = &lat, &lng
	case cmd.ClearLocation:
		profile.CurrentLat, profile.CurrentLng = nil, nil
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) SetVerified(ctx context.Context, driverID types.ID, verified bool) error {
	return s.store.SetVerified(ctx, driverID, verified)
}

// IncrementRides bumps the completed-ride counter of a driver.
func (s *Service) IncrementRides(ctx context.Context, driverID types.ID) error {
	return s.store.IncrementRides(ctx, driverID)
}

// FindNearby returns available drivers within the configured radius of origin,
// in store order.
func (s *Service) FindNearby(ctx context.Context, origin types.Point) ([]NearbyDriver, error) {
	if !origin.Valid() {
		return nil, ErrValidation
	}
	profiles, err := s.store.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return nearby(profiles, origin, s.radiusKm), nil
}
