package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridefare/internal/domain"
	"ridefare/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	settlement *service.SettlementService
	drivers    *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(settlement *service.SettlementService, drivers *service.DriverService) *DriverHandler {
	return &DriverHandler{
		settlement: settlement,
		drivers:    drivers,
	}
}

// DecisionRequest is the HTTP request body for accepting or rejecting a ride.
type DecisionRequest struct {
	RideID int64 `json:"ride_id"`
}

// AvailabilityRequest is the HTTP request body for going online or offline.
type AvailabilityRequest struct {
	Online *bool `json:"online"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsOnline   bool   `json:"is_online"`
	LastSeenAt string `json:"last_seen_at,omitempty"`
}

func newDriverResponse(d *domain.Driver) DriverResponse {
	resp := DriverResponse{ID: d.ID, Name: d.Name, IsOnline: d.IsOnline}
	if d.LastSeenAt != nil {
		resp.LastSeenAt = d.LastSeenAt.Format(time.RFC3339)
	}
	return resp
}

// AcceptRide handles POST /v1/drivers/:id/accept
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	h.decide(c, h.settlement.Accept)
}

// RejectRide handles POST /v1/drivers/:id/reject
func (h *DriverHandler) RejectRide(c *gin.Context) {
	h.decide(c, h.settlement.Reject)
}

func (h *DriverHandler) decide(c *gin.Context, fn func(ctx context.Context, req service.SettleRequest) (*domain.Ride, error)) {
	driverID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ride, err := fn(c.Request.Context(), service.SettleRequest{DriverID: driverID, RideID: req.RideID})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// SetAvailability handles POST /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	driverID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		badRequest(c, "online is required")
		return
	}

	driver, err := h.drivers.SetAvailability(c.Request.Context(), service.AvailabilityRequest{
		DriverID: driverID,
		Online:   *req.Online,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newDriverResponse(driver))
}
