package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "authorized"
)

// Payment records how a ride is paid. There is at most one per (ride, method).
type Payment struct {
	ID               int64
	RideID           int64
	Method           PaymentMethod
	AmountTotalCents int64
	Status           PaymentStatus
	PaidAt           time.Time
}
