package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a rider-facing summary of a ride's frozen price.
type Receipt struct {
	RideID          int64
	RiderID         int64
	DriverID        int64
	CategoryName    string
	OriginName      string
	DestinationName string
	DistanceMiles   decimal.Decimal
	Breakdown       Breakdown
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Status          RideStatus
	RequestedAt     time.Time
	CreatedAt       time.Time
}
