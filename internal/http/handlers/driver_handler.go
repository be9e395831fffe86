// README: Driver profile and nearby-driver handlers.
package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sahayog/internal/http/middleware"
	"sahayog/internal/modules/account"
	"sahayog/internal/modules/driver"
	"sahayog/internal/types"
)

const licenseExpiryLayout = "2006-01-02"

type DriverService interface {
	Get(ctx context.Context, p account.Principal) (*driver.Profile, error)
	Update(ctx context.Context, cmd driver.UpdateCommand) (*driver.Profile, error)
	FindNearby(ctx context.Context, origin types.Point) ([]driver.NearbyDriver, error)
}

type DriverHandler struct {
	drivers DriverService
	log     *slog.Logger
}

func NewDriverHandler(drivers DriverService, log *slog.Logger) *DriverHandler {
	return &DriverHandler{drivers: drivers, log: log}
}

type updateProfileRequest struct {
	LicenseNumber   *string  `json:"license_number" validate:"omitempty,max=50"`
	LicenseExpiry   *string  `json:"license_expiry" validate:"omitempty,datetime=2006-01-02"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0"`
	IsOnline        *bool    `json:"is_online"`
	CurrentLat      *float64 `json:"current_latitude" validate:"required_with=CurrentLng,omitempty,latitude"`
	CurrentLng      *float64 `json:"current_longitude" validate:"required_with=CurrentLat,omitempty,longitude"`
	ClearLocation   bool     `json:"clear_location"`
}

func (h *DriverHandler) GetProfile(c *gin.Context) {
	p, err := h.drivers.Get(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *DriverHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := driver.UpdateCommand{
		Driver:          middleware.Caller(c),
		LicenseNumber:   req.LicenseNumber,
		ExperienceYears: req.ExperienceYears,
		IsOnline:        req.IsOnline,
		ClearLocation:   req.ClearLocation,
	}
	if req.LicenseExpiry != nil {
		expiry, err := time.Parse(licenseExpiryLayout, *req.LicenseExpiry)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation_error", "license_expiry must be YYYY-MM-DD")
			return
		}
		cmd.LicenseExpiry = &expiry
	}
	if req.CurrentLat != nil && req.CurrentLng != nil {
		cmd.Location = &types.Point{Lat: *req.CurrentLat, Lng: *req.CurrentLng}
	}
	p, err := h.drivers.Update(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

// Nearby lists available drivers around ?latitude=&longitude=. Missing
// parameters default to zero.
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, ok := queryFloat(c, "latitude")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "longitude")
	if !ok {
		return
	}
	origin := types.Point{Lat: lat, Lng: lng}
	if !origin.Valid() {
		writeError(c, http.StatusBadRequest, "validation_error", "coordinates out of range")
		return
	}
	drivers, err := h.drivers.FindNearby(c.Request.Context(), origin)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	if drivers == nil {
		drivers = []driver.NearbyDriver{}
	}
	writeJSON(c, http.StatusOK, drivers)
}

func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		writeError(c, http.StatusBadRequest, "validation_error", name+" must be a number")
		return 0, false
	}
	return v, true
}
