// README: Vehicle registry handlers for the owning driver.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sahayog/internal/http/middleware"
	"sahayog/internal/modules/vehicle"
	"sahayog/internal/types"
)

type VehicleService interface {
	Create(ctx context.Context, cmd vehicle.CreateCommand) (*vehicle.Vehicle, error)
	List(ctx context.Context, driverID types.ID) ([]*vehicle.Vehicle, error)
	Get(ctx context.Context, driverID, id types.ID) (*vehicle.Vehicle, error)
	Update(ctx context.Context, cmd vehicle.UpdateCommand) (*vehicle.Vehicle, error)
	Delete(ctx context.Context, driverID, id types.ID) error
}

type VehicleHandler struct {
	vehicles VehicleService
	log      *slog.Logger
}

func NewVehicleHandler(vehicles VehicleService, log *slog.Logger) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, log: log}
}

type createVehicleRequest struct {
	VehicleType     vehicle.Type     `json:"vehicle_type" validate:"required,oneof=bike auto car tempo truck"`
	Make            string           `json:"make" validate:"required,max=100"`
	Model           string           `json:"model" validate:"required,max=100"`
	Year            int              `json:"year" validate:"required,gt=1900"`
	LicensePlate    string           `json:"license_plate" validate:"required,max=20"`
	FuelType        vehicle.FuelType `json:"fuel_type" validate:"required,oneof=petrol diesel cng electric"`
	SeatingCapacity int              `json:"seating_capacity" validate:"required,gt=0"`
}

type updateVehicleRequest struct {
	VehicleType     *vehicle.Type     `json:"vehicle_type" validate:"omitempty,oneof=bike auto car tempo truck"`
	Make            *string           `json:"make" validate:"omitempty,max=100"`
	Model           *string           `json:"model" validate:"omitempty,max=100"`
	Year            *int              `json:"year" validate:"omitempty,gt=1900"`
	LicensePlate    *string           `json:"license_plate" validate:"omitempty,max=20"`
	FuelType        *vehicle.FuelType `json:"fuel_type" validate:"omitempty,oneof=petrol diesel cng electric"`
	SeatingCapacity *int              `json:"seating_capacity" validate:"omitempty,gt=0"`
	IsActive        *bool             `json:"is_active"`
}

// requireDriver rejects callers that cannot own vehicles.
func (h *VehicleHandler) requireDriver(c *gin.Context) (types.ID, bool) {
	p := middleware.Caller(c)
	if !p.CanManageVehicles() {
		writeDomainError(c, h.log, vehicle.ErrInvalidRole)
		return "", false
	}
	return p.ID, true
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req createVehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.vehicles.Create(c.Request.Context(), vehicle.CreateCommand{
		Owner:           middleware.Caller(c),
		VehicleType:     req.VehicleType,
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		LicensePlate:    req.LicensePlate,
		FuelType:        req.FuelType,
		SeatingCapacity: req.SeatingCapacity,
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, v)
}

func (h *VehicleHandler) List(c *gin.Context) {
	driverID, ok := h.requireDriver(c)
	if !ok {
		return
	}
	vs, err := h.vehicles.List(c.Request.Context(), driverID)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	if vs == nil {
		vs = []*vehicle.Vehicle{}
	}
	writeJSON(c, http.StatusOK, vs)
}

func (h *VehicleHandler) Get(c *gin.Context) {
	driverID, ok := h.requireDriver(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.vehicles.Get(c.Request.Context(), driverID, id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *VehicleHandler) Update(c *gin.Context) {
	driverID, ok := h.requireDriver(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateVehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.vehicles.Update(c.Request.Context(), vehicle.UpdateCommand{
		DriverID:        driverID,
		VehicleID:       id,
		VehicleType:     req.VehicleType,
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		LicensePlate:    req.LicensePlate,
		FuelType:        req.FuelType,
		SeatingCapacity: req.SeatingCapacity,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	driverID, ok := h.requireDriver(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.vehicles.Delete(c.Request.Context(), driverID, id); err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
