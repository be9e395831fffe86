// README: Vehicle registry service (owner-scoped CRUD, verification, ride eligibility).
package vehicle

import (
	"context"
	"errors"
	"strings"
	"time"

	"sahayog/internal/modules/account"
	"sahayog/internal/types"
)

var (
	ErrNotFound          = errors.New("vehicle not found")
	ErrValidation        = errors.New("invalid vehicle")
	ErrInvalidRole       = errors.New("only drivers can manage vehicles")
	ErrDuplicatePlate    = errors.New("license plate already registered")
	ErrInUse             = errors.New("vehicle is referenced by rides")
	ErrNoEligibleVehicle = errors.New("no verified active vehicle found")
)

type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, driverID, id types.ID) error
	SetVerified(ctx context.Context, id types.ID, verified bool) error
	FirstEligible(ctx context.Context, driverID types.ID) (*Vehicle, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Owner           account.Principal
	VehicleType     Type
	Make            string
	Model           string
	Year            int
	LicensePlate    string
	FuelType        FuelType
	SeatingCapacity int
}

// UpdateCommand carries a partial update; nil fields are left unchanged.
type UpdateCommand struct {
	DriverID        types.ID
	VehicleID       types.ID
	VehicleType     *Type
	Make            *string
	Model           *string
	Year            *int
	LicensePlate    *string
	FuelType        *FuelType
	SeatingCapacity *int
	IsActive        *bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Vehicle, error) {
	if !cmd.Owner.CanManageVehicles() {
		return nil, ErrInvalidRole
	}
	v := &Vehicle{
		ID:              types.NewID(),
		DriverID:        cmd.Owner.ID,
		VehicleType:     cmd.VehicleType,
		Make:            strings.TrimSpace(cmd.Make),
		Model:           strings.TrimSpace(cmd.Model),
		Year:            cmd.Year,
		LicensePlate:    normalizePlate(cmd.LicensePlate),
		FuelType:        cmd.FuelType,
		SeatingCapacity: cmd.SeatingCapacity,
		IsActive:        true,
		IsVerified:      false,
		CreatedAt:       time.Now().UTC(),
	}
	if v.DriverID == "" || !valid(v) {
		return nil, ErrValidation
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, driverID types.ID) ([]*Vehicle, error) {
	return s.store.ListByDriver(ctx, driverID)
}

// Get returns a vehicle owned by driverID. Vehicles of other drivers are reported as missing.
func (s *Service) Get(ctx context.Context, driverID, id types.ID) (*Vehicle, error) {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.DriverID != driverID {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Vehicle, error) {
	v, err := s.Get(ctx, cmd.DriverID, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	if cmd.VehicleType != nil {
		v.VehicleType = *cmd.VehicleType
	}
	if cmd.Make != nil {
		v.Make = strings.TrimSpace(*cmd.Make)
	}
	if cmd.Model != nil {
		v.Model = strings.TrimSpace(*cmd.Model)
	}
	if cmd.Year != nil {
		v.Year = *cmd.Year
	}
	if cmd.LicensePlate != nil {
		v.LicensePlate = normalizePlate(*cmd.LicensePlate)
	}
	if cmd.FuelType != nil {
		v.FuelType = *cmd.FuelType
	}
	if cmd.SeatingCapacity != nil {
		v.SeatingCapacity = *cmd.SeatingCapacity
	}
	if cmd.IsActive != nil {
		v.IsActive = *cmd.IsActive
	}
	if !valid(v) {
		return nil, ErrValidation
	}
	if err := s.store.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, driverID, id types.ID) error {
	return s.store.Delete(ctx, driverID, id)
}

func (s *Service) SetVerified(ctx context.Context, id types.ID, verified bool) error {
	return s.store.SetVerified(ctx, id, verified)
}

// EligibleVehicle returns the id of the vehicle a driver would bring to a ride.
// ok is false when the driver has no active and verified vehicle.
func (s *Service) EligibleVehicle(ctx context.Context, driverID types.ID) (types.ID, bool, error) {
	v, err := s.store.FirstEligible(ctx, driverID)
	if errors.Is(err, ErrNoEligibleVehicle) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.ID, true, nil
}

func valid(v *Vehicle) bool {
	return validType(v.VehicleType) &&
		validFuel(v.FuelType) &&
		v.Make != "" &&
		v.Model != "" &&
		v.Year > 1900 &&
		v.LicensePlate != "" &&
		v.SeatingCapacity > 0
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), ""))
}
