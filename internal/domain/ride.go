package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCanceled  RideStatus = "canceled"
)

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodWallet
}

// AppliedRates are the percentages and per-mile rate a breakdown was priced with.
type AppliedRates struct {
	CompanyCommissionPct decimal.Decimal `json:"company_commission_pct"`
	RiderFeePct          decimal.Decimal `json:"rider_fee_pct"`
	DriverDeductionPct   decimal.Decimal `json:"driver_deduction_pct"`
	TaxPct               decimal.Decimal `json:"tax_pct"`
	RateCentsPerMile     int64           `json:"rate_cents_per_mile"`
}

// Breakdown is the cent-exact result of pricing a ride.
type Breakdown struct {
	FareBaseCents          int64        `json:"fare_base_cents"`
	RiderFeeCents          int64        `json:"rider_fee_cents"`
	TaxCents               int64        `json:"tax_cents"`
	FareTotalCents         int64        `json:"fare_total_cents"`
	CompanyCommissionCents int64        `json:"company_commission_cents"`
	DriverDeductionCents   int64        `json:"driver_deduction_cents"`
	DriverPayoutCents      int64        `json:"driver_payout_cents"`
	Applied                AppliedRates `json:"applied"`
}

// CompanyCreditCents is what the company account receives when the ride settles.
// Tax is excluded.
func (b Breakdown) CompanyCreditCents() int64 {
	return b.CompanyCommissionCents + b.RiderFeeCents + b.DriverDeductionCents
}

// Ride represents a booked ride with its frozen price.
type Ride struct {
	ID               int64
	RiderID          int64
	DriverID         int64
	CategoryID       int64
	OriginLocationID int64
	DestLocationID   int64
	RequestedAt      time.Time
	StartTime        *time.Time
	EndTime          *time.Time
	DistanceMiles    decimal.Decimal // two fraction digits
	PaymentMethod    PaymentMethod
	Breakdown        Breakdown
	Status           RideStatus
	StatusVersion    int
}
