// README: Vehicle aggregate owned by a single driver.
package vehicle

import (
	"time"

	"sahayog/internal/types"
)

type Type string

const (
	TypeBike  Type = "bike"
	TypeAuto  Type = "auto"
	TypeCar   Type = "car"
	TypeTempo Type = "tempo"
	TypeTruck Type = "truck"
)

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
)

type Vehicle struct {
	ID              types.ID  `json:"id"`
	DriverID        types.ID  `json:"driver_id"`
	VehicleType     Type      `json:"vehicle_type"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	Year            int       `json:"year"`
	LicensePlate    string    `json:"license_plate"`
	FuelType        FuelType  `json:"fuel_type"`
	SeatingCapacity int       `json:"seating_capacity"`
	IsActive        bool      `json:"is_active"`
	IsVerified      bool      `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// Eligible reports whether the vehicle may be bound to a ride.
func (v *Vehicle) Eligible() bool {
	return v.IsActive && v.IsVerified
}

func validType(t Type) bool {
	switch t {
	case TypeBike, TypeAuto, TypeCar, TypeTempo, TypeTruck:
		return true
	}
	return false
}

func validFuel(f FuelType) bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelCNG, FuelElectric:
		return true
	}
	return false
}
