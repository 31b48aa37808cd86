package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
)

// EventPublisher delivers an encoded event keyed by ride.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// EventType names a ride lifecycle event.
type EventType string

const (
	EventRideBooked   EventType = "ride.booked"
	EventRideAccepted EventType = "ride.accepted"
	EventRideCanceled EventType = "ride.canceled"
)

// RideEvent is the payload published after a ride changes state.
type RideEvent struct {
	ID                 string               `json:"id"`
	Type               EventType            `json:"type"`
	RideID             int64                `json:"ride_id"`
	RiderID            int64                `json:"rider_id"`
	DriverID           int64                `json:"driver_id"`
	Status             domain.RideStatus    `json:"status"`
	PaymentMethod      domain.PaymentMethod `json:"payment_method"`
	FareTotalCents     int64                `json:"fare_total_cents"`
	CompanyCreditCents int64                `json:"company_credit_cents"`
	DriverPayoutCents  int64                `json:"driver_payout_cents"`
	OccurredAt         time.Time            `json:"occurred_at"`
}

// NotificationService publishes ride events. Delivery failures are logged
// and never undo the state change that produced the event.
type NotificationService struct {
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(publisher EventPublisher, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		log:       loggerOrStandard(log),
	}
}

// NotifyRideBooked announces a newly booked ride.
func (s *NotificationService) NotifyRideBooked(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, newRideEvent(EventRideBooked, ride))
}

// NotifyRideAccepted announces a settled ride.
func (s *NotificationService) NotifyRideAccepted(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, newRideEvent(EventRideAccepted, ride))
}

// NotifyRideCanceled announces a rejected ride.
func (s *NotificationService) NotifyRideCanceled(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, newRideEvent(EventRideCanceled, ride))
}

func newRideEvent(t EventType, ride *domain.Ride) RideEvent {
	return RideEvent{
		ID:                 uuid.New().String(),
		Type:               t,
		RideID:             ride.ID,
		RiderID:            ride.RiderID,
		DriverID:           ride.DriverID,
		Status:             ride.Status,
		PaymentMethod:      ride.PaymentMethod,
		FareTotalCents:     ride.Breakdown.FareTotalCents,
		CompanyCreditCents: ride.Breakdown.CompanyCreditCents(),
		DriverPayoutCents:  ride.Breakdown.DriverPayoutCents,
		OccurredAt:         time.Now().UTC(),
	}
}

func (s *NotificationService) send(ctx context.Context, event RideEvent) error {
	if s == nil || s.publisher == nil {
		return nil
	}

	log := s.log.WithFields(logrus.Fields{
		"event":   event.Type,
		"ride_id": event.RideID,
	})

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("failed to encode ride event")
		return err
	}

	if err := s.publisher.Publish(ctx, strconv.FormatInt(event.RideID, 10), payload); err != nil {
		log.WithError(err).Warn("failed to publish ride event")
		return err
	}

	log.Debug("ride event published")
	return nil
}

// loggerOrStandard returns l, or the logrus standard logger when l is nil.
func loggerOrStandard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
