package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	rides    repository.RideReader
	payments repository.PaymentReader
	catalog  repository.CatalogRepository
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(rides repository.RideReader, payments repository.PaymentReader, catalog repository.CatalogRepository) *ReceiptService {
	return &ReceiptService{
		rides:    rides,
		payments: payments,
		catalog:  catalog,
	}
}

// GenerateReceipt builds a receipt from the ride's frozen breakdown.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, rideID int64) (*domain.Receipt, error) {
	if rideID <= 0 {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, storeError(err)
	}

	receipt := &domain.Receipt{
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		DriverID:      ride.DriverID,
		DistanceMiles: ride.DistanceMiles,
		Breakdown:     ride.Breakdown,
		PaymentMethod: ride.PaymentMethod,
		Status:        ride.Status,
		RequestedAt:   ride.RequestedAt,
		CreatedAt:     time.Now(),
	}

	// Names are cosmetic; a missing row leaves the field empty.
	if l, err := s.catalog.GetLocation(ctx, ride.OriginLocationID); err == nil {
		receipt.OriginName = l.Name
	}
	if l, err := s.catalog.GetLocation(ctx, ride.DestLocationID); err == nil {
		receipt.DestinationName = l.Name
	}
	if c, err := s.catalog.GetCategory(ctx, ride.CategoryID); err == nil {
		receipt.CategoryName = c.Name
	}

	payments, err := s.payments.ListByRide(ctx, ride.ID)
	if err != nil {
		return nil, storeError(err)
	}
	for _, p := range payments {
		if p.Method == ride.PaymentMethod {
			receipt.PaymentStatus = p.Status
		}
	}

	return receipt, nil
}

// FormatReceipt formats the receipt as plain text.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	b := receipt.Breakdown
	return `
=====================================
        RIDE RECEIPT
=====================================
Ride ID: ` + fmt.Sprint(receipt.RideID) + `
Date: ` + receipt.RequestedAt.Format("Jan 02, 2006 3:04 PM") + `

TRIP DETAILS
-------------------------------------
From:      ` + receipt.OriginName + `
To:        ` + receipt.DestinationName + `
Category:  ` + receipt.CategoryName + `
Distance:  ` + receipt.DistanceMiles.StringFixed(2) + ` mi
Rate:      ` + formatCents(b.Applied.RateCentsPerMile) + `/mi

FARE BREAKDOWN
-------------------------------------
Base Fare:        ` + formatCents(b.FareBaseCents) + `
Rider Fee (` + b.Applied.RiderFeePct.StringFixed(2) + `%): ` + formatCents(b.RiderFeeCents) + `
Tax (` + b.Applied.TaxPct.StringFixed(2) + `%):       ` + formatCents(b.TaxCents) + `
-------------------------------------
TOTAL:            ` + formatCents(b.FareTotalCents) + `

PAYMENT
-------------------------------------
Method: ` + string(receipt.PaymentMethod) + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for riding with us!
=====================================
`
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
