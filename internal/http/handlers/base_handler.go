// README: Base handler utilities (JSON helpers, request validation, error mapping).
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"sahayog/internal/modules/driver"
	"sahayog/internal/modules/rating"
	"sahayog/internal/modules/ride"
	"sahayog/internal/modules/vehicle"
	"sahayog/internal/types"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: code, Message: msg})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{ride.ErrNotFound, http.StatusNotFound, "not_found"},
	{vehicle.ErrNotFound, http.StatusNotFound, "not_found"},
	{driver.ErrNotFound, http.StatusNotFound, "not_found"},
	{rating.ErrNotFound, http.StatusNotFound, "not_found"},

	{ride.ErrForbidden, http.StatusForbidden, "forbidden"},
	{rating.ErrForbidden, http.StatusForbidden, "forbidden"},

	{ride.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{vehicle.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{driver.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{ride.ErrValidation, http.StatusBadRequest, "validation_error"},
	{vehicle.ErrValidation, http.StatusBadRequest, "validation_error"},
	{driver.ErrValidation, http.StatusBadRequest, "validation_error"},
	{rating.ErrValidation, http.StatusBadRequest, "validation_error"},
	{rating.ErrAlreadyRated, http.StatusBadRequest, "already_rated"},
	{ride.ErrNoEligibleVehicle, http.StatusBadRequest, "no_eligible_vehicle"},
	{vehicle.ErrNoEligibleVehicle, http.StatusBadRequest, "no_eligible_vehicle"},

	{ride.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{ride.ErrConflict, http.StatusConflict, "conflict"},
	{vehicle.ErrDuplicatePlate, http.StatusConflict, "duplicate_plate"},
	{vehicle.ErrInUse, http.StatusConflict, "vehicle_in_use"},
}

// writeDomainError maps module errors to HTTP responses. Anything unmapped is a 500
// and is logged without leaking details to the client.
func writeDomainError(c *gin.Context, log *slog.Logger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			writeError(c, m.status, m.code, m.err.Error())
			return
		}
	}
	log.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method, "route", c.FullPath(), "error", err)
	writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
}

// bindJSON decodes the body into req and runs struct validation. It writes a
// 400 and returns false on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", describeValidation(err))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// pathID reads and validates the :id route parameter.
func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !types.IsValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid_id", "invalid id")
		return "", false
	}
	return types.ID(id), true
}
