// README: Driver presence profile (license metadata, rating aggregate, availability and last position).
package driver

import (
	"time"

	"sahayog/internal/types"
)

type Profile struct {
	DriverID        types.ID   `json:"driver_id"`
	LicenseNumber   string     `json:"license_number"`
	LicenseExpiry   *time.Time `json:"license_expiry"`
	ExperienceYears int        `json:"experience_years"`
	AverageRating   float64    `json:"average_rating"`
	TotalRides      int        `json:"total_rides"`
	IsOnline        bool       `json:"is_online"`
	IsVerified      bool       `json:"is_verified"`
	CurrentLat      *float64   `json:"current_latitude"`
	CurrentLng      *float64   `json:"current_longitude"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Location returns the last reported position, if any.
func (p *Profile) Location() (types.Point, bool) {
	if p.CurrentLat == nil || p.CurrentLng == nil {
		return types.Point{}, false
	}
	return types.Point{Lat: *p.CurrentLat, Lng: *p.CurrentLng}, true
}

// Available reports whether the driver can show up in proximity results.
func (p *Profile) Available() bool {
	_, located := p.Location()
	return p.IsOnline && p.IsVerified && located
}

// NearbyDriver is a profile annotated with its distance from the query origin.
type NearbyDriver struct {
	Profile
	Distance float64 `json:"distance"`
}
