package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
	"ridefare/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	settlement *service.SettlementService
	receipts   *service.ReceiptService
	rides      repository.RideReader
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(settlement *service.SettlementService, receipts *service.ReceiptService, rides repository.RideReader) *RideHandler {
	return &RideHandler{
		settlement: settlement,
		receipts:   receipts,
		rides:      rides,
	}
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	RiderID       int64  `json:"rider_id"`
	DriverID      int64  `json:"driver_id"`
	OriginID      int64  `json:"origin_id"`
	DestinationID int64  `json:"destination_id"`
	CategoryID    int64  `json:"category_id"`
	PaymentMethod string `json:"payment_method,omitempty"` // card (default) or wallet
}

// BookRide handles POST /v1/rides
func (h *RideHandler) BookRide(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ride, err := h.settlement.Book(c.Request.Context(), service.BookRequest{
		RiderID:       req.RiderID,
		DriverID:      req.DriverID,
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		CategoryID:    req.CategoryID,
		Method:        domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rides.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// GetReceipt handles GET /v1/rides/:id/receipt. ?format=text returns the
// printable receipt.
func (h *RideHandler) GetReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receipts.GenerateReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, h.receipts.FormatReceipt(receipt))
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"ride_id":        receipt.RideID,
		"rider_id":       receipt.RiderID,
		"driver_id":      receipt.DriverID,
		"category":       receipt.CategoryName,
		"origin":         receipt.OriginName,
		"destination":    receipt.DestinationName,
		"distance_miles": receipt.DistanceMiles.StringFixed(2),
		"breakdown":      receipt.Breakdown,
		"payment_method": receipt.PaymentMethod,
		"payment_status": receipt.PaymentStatus,
		"status":         receipt.Status,
		"requested_at":   receipt.RequestedAt,
	})
}
