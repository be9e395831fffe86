// README: Ride handlers (create, list, get, accept, status updates, rating).
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sahayog/internal/http/middleware"
	"sahayog/internal/modules/account"
	"sahayog/internal/modules/rating"
	"sahayog/internal/modules/ride"
	"sahayog/internal/types"
)

type RideService interface {
	Create(ctx context.Context, cmd ride.CreateCommand) (*ride.Ride, error)
	Accept(ctx context.Context, rideID types.ID, driver account.Principal) (*ride.Ride, error)
	UpdateStatus(ctx context.Context, cmd ride.StatusCommand) (*ride.Ride, error)
	Get(ctx context.Context, p account.Principal, id types.ID) (*ride.Ride, error)
	List(ctx context.Context, p account.Principal) ([]*ride.Ride, error)
}

type RatingService interface {
	Rate(ctx context.Context, cmd rating.RateCommand) (*rating.Rating, error)
	Get(ctx context.Context, p account.Principal, rideID types.ID) (*rating.Rating, error)
}

type RideHandler struct {
	rides   RideService
	ratings RatingService
	log     *slog.Logger
}

func NewRideHandler(rides RideService, ratings RatingService, log *slog.Logger) *RideHandler {
	return &RideHandler{rides: rides, ratings: ratings, log: log}
}

type createRideRequest struct {
	PickupLat         *float64     `json:"pickup_latitude" validate:"required,latitude"`
	PickupLng         *float64     `json:"pickup_longitude" validate:"required,longitude"`
	PickupAddress     string       `json:"pickup_address" validate:"max=500"`
	DropoffLat        *float64     `json:"dropoff_latitude" validate:"required,latitude"`
	DropoffLng        *float64     `json:"dropoff_longitude" validate:"required,longitude"`
	DropoffAddress    string       `json:"dropoff_address" validate:"max=500"`
	EstimatedFare     *types.Money `json:"estimated_fare" validate:"required"`
	DistanceKm        float64      `json:"distance_km" validate:"gte=0"`
	EstimatedDuration int          `json:"estimated_duration" validate:"gte=0"`
	Notes             string       `json:"notes" validate:"max=1000"`
}

type statusRequest struct {
	Status     string       `json:"status" validate:"required"`
	ActualFare *types.Money `json:"actual_fare"`
}

type rateRequest struct {
	Rating  *int   `json:"rating" validate:"required"`
	Comment string `json:"comment" validate:"max=1000"`
}

type rideResponse struct {
	ID                types.ID     `json:"id"`
	Customer          types.ID     `json:"customer"`
	Driver            *types.ID    `json:"driver"`
	Vehicle           *types.ID    `json:"vehicle"`
	PickupLatitude    float64      `json:"pickup_latitude"`
	PickupLongitude   float64      `json:"pickup_longitude"`
	PickupAddress     string       `json:"pickup_address"`
	DropoffLatitude   float64      `json:"dropoff_latitude"`
	DropoffLongitude  float64      `json:"dropoff_longitude"`
	DropoffAddress    string       `json:"dropoff_address"`
	Status            ride.Status  `json:"status"`
	EstimatedFare     types.Money  `json:"estimated_fare"`
	ActualFare        *types.Money `json:"actual_fare"`
	DistanceKm        float64      `json:"distance_km"`
	EstimatedDuration int          `json:"estimated_duration"`
	Notes             string       `json:"notes"`
	RequestedAt       time.Time    `json:"requested_at"`
	AcceptedAt        *time.Time   `json:"accepted_at"`
	PickedUpAt        *time.Time   `json:"picked_up_at"`
	CompletedAt       *time.Time   `json:"completed_at"`
	CancelledAt       *time.Time   `json:"cancelled_at"`
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:                r.ID,
		Customer:          r.CustomerID,
		Driver:            r.DriverID,
		Vehicle:           r.VehicleID,
		PickupLatitude:    r.Pickup.Lat,
		PickupLongitude:   r.Pickup.Lng,
		PickupAddress:     r.PickupAddress,
		DropoffLatitude:   r.Dropoff.Lat,
		DropoffLongitude:  r.Dropoff.Lng,
		DropoffAddress:    r.DropoffAddress,
		Status:            r.Status,
		EstimatedFare:     r.EstimatedFare,
		ActualFare:        r.ActualFare,
		DistanceKm:        r.DistanceKm,
		EstimatedDuration: r.EstimatedDuration,
		Notes:             r.Notes,
		RequestedAt:       r.RequestedAt,
		AcceptedAt:        r.AcceptedAt,
		PickedUpAt:        r.PickedUpAt,
		CompletedAt:       r.CompletedAt,
		CancelledAt:       r.CancelledAt,
	}
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		Customer:          middleware.Caller(c),
		Pickup:            types.Point{Lat: *req.PickupLat, Lng: *req.PickupLng},
		PickupAddress:     req.PickupAddress,
		Dropoff:           types.Point{Lat: *req.DropoffLat, Lng: *req.DropoffLng},
		DropoffAddress:    req.DropoffAddress,
		EstimatedFare:     *req.EstimatedFare,
		DistanceKm:        req.DistanceKm,
		EstimatedDuration: req.EstimatedDuration,
		Notes:             req.Notes,
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRideResponse(r))
}

func (h *RideHandler) List(c *gin.Context) {
	rides, err := h.rides.List(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	out := make([]rideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *RideHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.rides.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.rides.Accept(c.Request.Context(), id, middleware.Caller(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.rides.UpdateStatus(c.Request.Context(), ride.StatusCommand{
		RideID:     id,
		Actor:      middleware.Caller(c),
		Status:     req.Status,
		ActualFare: req.ActualFare,
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Rate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rateRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.ratings.Rate(c.Request.Context(), rating.RateCommand{
		RideID:  id,
		Rater:   middleware.Caller(c),
		Score:   *req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *RideHandler) GetRating(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.ratings.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
