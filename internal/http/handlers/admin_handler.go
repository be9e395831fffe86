// README: Approval-authority handlers (vehicle and driver verification).
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sahayog/internal/types"
)

type VehicleVerifier interface {
	SetVerified(ctx context.Context, id types.ID, verified bool) error
}

type DriverVerifier interface {
	SetVerified(ctx context.Context, driverID types.ID, verified bool) error
}

type AdminHandler struct {
	vehicles VehicleVerifier
	drivers  DriverVerifier
	log      *slog.Logger
}

func NewAdminHandler(vehicles VehicleVerifier, drivers DriverVerifier, log *slog.Logger) *AdminHandler {
	return &AdminHandler{vehicles: vehicles, drivers: drivers, log: log}
}

type verifyRequest struct {
	IsVerified *bool `json:"is_verified"`
}

type verifyResponse struct {
	ID         types.ID `json:"id"`
	IsVerified bool     `json:"is_verified"`
}

func (h *AdminHandler) VerifyVehicle(c *gin.Context) {
	h.verify(c, h.vehicles.SetVerified)
}

func (h *AdminHandler) VerifyDriver(c *gin.Context) {
	h.verify(c, h.drivers.SetVerified)
}

func (h *AdminHandler) verify(c *gin.Context, set func(context.Context, types.ID, bool) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	verified, ok := readVerified(c)
	if !ok {
		return
	}
	if err := set(c.Request.Context(), id, verified); err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, verifyResponse{ID: id, IsVerified: verified})
}

// readVerified reads the optional body; an empty body means approve.
func readVerified(c *gin.Context) (bool, bool) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json body")
		return false, false
	}
	if req.IsVerified == nil {
		return true, true
	}
	return *req.IsVerified, true
}
