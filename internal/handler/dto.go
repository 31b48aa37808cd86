package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
	"ridefare/internal/service"
)

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID               int64            `json:"id"`
	RiderID          int64            `json:"rider_id"`
	DriverID         int64            `json:"driver_id"`
	CategoryID       int64            `json:"category_id"`
	OriginLocationID int64            `json:"origin_location_id"`
	DestLocationID   int64            `json:"dest_location_id"`
	Status           string           `json:"status"`
	PaymentMethod    string           `json:"payment_method"`
	DistanceMiles    string           `json:"distance_miles"`
	Breakdown        domain.Breakdown `json:"breakdown"`
	RequestedAt      string           `json:"requested_at"`
	StartTime        string           `json:"start_time,omitempty"`
}

func newRideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:               r.ID,
		RiderID:          r.RiderID,
		DriverID:         r.DriverID,
		CategoryID:       r.CategoryID,
		OriginLocationID: r.OriginLocationID,
		DestLocationID:   r.DestLocationID,
		Status:           string(r.Status),
		PaymentMethod:    string(r.PaymentMethod),
		DistanceMiles:    r.DistanceMiles.StringFixed(2),
		Breakdown:        r.Breakdown,
		RequestedAt:      r.RequestedAt.Format(time.RFC3339),
	}
	if r.StartTime != nil {
		resp.StartTime = r.StartTime.Format(time.RFC3339)
	}
	return resp
}

// QuoteResponse is the HTTP representation of a priced trip.
type QuoteResponse struct {
	OriginID      int64            `json:"origin_id"`
	DestinationID int64            `json:"destination_id"`
	CategoryID    int64            `json:"category_id"`
	DistanceMiles string           `json:"distance_miles"`
	HotArea       bool             `json:"hot_area"`
	PolicyVersion int64            `json:"policy_version"`
	Breakdown     domain.Breakdown `json:"breakdown"`
}

func newQuoteResponse(q *service.Quote) QuoteResponse {
	return QuoteResponse{
		OriginID:      q.Origin.ID,
		DestinationID: q.Destination.ID,
		CategoryID:    q.Category.ID,
		DistanceMiles: service.RoundDistance(q.DistanceMiles).StringFixed(2),
		HotArea:       q.HotArea,
		PolicyVersion: q.PolicyVersion,
		Breakdown:     q.Breakdown,
	}
}

// DeductionResponse is one configured percentage.
type DeductionResponse struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Pct     decimal.Decimal `json:"pct"`
	Version int64           `json:"version"`
}

func newDeductionResponses(types []*domain.DeductionType) []DeductionResponse {
	out := make([]DeductionResponse, 0, len(types))
	for _, t := range types {
		out = append(out, DeductionResponse{
			ID:      t.ID,
			Name:    string(t.Name),
			Pct:     t.DefaultPct,
			Version: t.Version,
		})
	}
	return out
}
