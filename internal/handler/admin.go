package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridefare/internal/service"
)

// AdminHandler exposes operator tooling.
type AdminHandler struct {
	simulation *service.SimulationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(simulation *service.SimulationService) *AdminHandler {
	return &AdminHandler{simulation: simulation}
}

// SimulateRequest is the HTTP request body for a simulated batch. A missing
// n takes the configured default; any other value is clamped to [1, max].
type SimulateRequest struct {
	N *int `json:"n"`
}

// Simulate handles POST /v1/admin/simulate
func (h *AdminHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	result, err := h.simulation.SimulateBatch(c.Request.Context(), req.N)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"run_id":    result.RunID,
		"requested": result.Requested,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"aborted":   result.Aborted,
	})
}
