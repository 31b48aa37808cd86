package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridefare/internal/service"
)

// QuoteHandler handles fare quotes.
type QuoteHandler struct {
	pricing *service.PricingService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(pricing *service.PricingService) *QuoteHandler {
	return &QuoteHandler{pricing: pricing}
}

// QuoteRequest is the HTTP request body for a quote.
type QuoteRequest struct {
	OriginID      int64 `json:"origin_id"`
	DestinationID int64 `json:"destination_id"`
	CategoryID    int64 `json:"category_id"`
}

// Quote handles POST /v1/quotes
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	quote, err := h.pricing.Quote(c.Request.Context(), service.QuoteRequest{
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newQuoteResponse(quote))
}
