package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
	"ridefare/internal/service"
)

// CompanyHandler handles operator settings.
type CompanyHandler struct {
	policy *service.PolicyService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(policy *service.PolicyService) *CompanyHandler {
	return &CompanyHandler{policy: policy}
}

// SettingsRequest is the HTTP request body for updating deduction percentages.
type SettingsRequest struct {
	Items []struct {
		Name string          `json:"name"`
		Pct  decimal.Decimal `json:"pct"`
	} `json:"items"`
}

// HotAreaRequest is the HTTP request body for updating a hot area.
type HotAreaRequest struct {
	LocationID  int64           `json:"location_id"`
	IsHotArea   bool            `json:"is_hot_area"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// GetSettings handles GET /v1/company/settings
func (h *CompanyHandler) GetSettings(c *gin.Context) {
	types, err := h.policy.GetDeductionTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"deductions": newDeductionResponses(types)})
}

// UpdateSettings handles POST /v1/company/settings
func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	items := make([]service.DeductionSetting, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.DeductionSetting{
			Name: domain.DeductionName(item.Name),
			Pct:  item.Pct,
		})
	}

	types, err := h.policy.SetDeductionTypes(c.Request.Context(), service.SetDeductionsRequest{Items: items})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"deductions": newDeductionResponses(types)})
}

// UpdateHotArea handles POST /v1/company/hot-areas
func (h *CompanyHandler) UpdateHotArea(c *gin.Context) {
	var req HotAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.policy.UpdateHotArea(c.Request.Context(), service.HotAreaRequest{
		LocationID:  req.LocationID,
		IsHotArea:   req.IsHotArea,
		DiscountPct: req.DiscountPct,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"location_id":              result.Location.ID,
		"name":                     result.Location.Name,
		"is_hot_area":              result.Location.IsHotArea,
		"discount_pct":             result.Location.CommissionDiscountPct.StringFixed(2),
		"effective_commission_pct": result.EffectiveCommissionPct.StringFixed(2),
	})
}
