package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// DriverService handles driver operations.
type DriverService struct {
	driverRepo repository.DriverRepository
	log        logrus.FieldLogger
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository, log logrus.FieldLogger) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		log:        loggerOrStandard(log),
	}
}

// AvailabilityRequest contains the parameters for toggling a driver online.
type AvailabilityRequest struct {
	DriverID int64 `validate:"gt=0"`
	Online   bool
}

// SetAvailability marks a driver online or offline and stamps last_seen_at.
// Only online drivers are picked for simulated rides.
func (s *DriverService) SetAvailability(ctx context.Context, req AvailabilityRequest) (*domain.Driver, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.SetAvailability(ctx, req.DriverID, req.Online, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, storeError(err)
	}

	s.log.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"online":    driver.IsOnline,
	}).Info("driver availability updated")

	return driver, nil
}
