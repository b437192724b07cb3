package notify

import (
	"context"
	"fmt"
	"time"

	"serenity/internal/directory"
	"serenity/pkg/kafka"
	"serenity/pkg/logger"
	"serenity/pkg/model"
)

// Template names the customer message a notification carries.
type Template string

const (
	TemplateOtpCode          Template = "otp_code"
	TemplateBookingConfirmed Template = "booking_confirmed"
	TemplateBookingCancelled Template = "booking_cancelled"
	TemplateBookingCompleted Template = "booking_completed"
)

// Sender delivers a customer notification for a booking. Callers treat
// delivery as best effort: a failed send never fails the booking
// operation that triggered it.
type Sender interface {
	Send(ctx context.Context, booking *model.Booking, tmpl Template, data map[string]any) error
}

// Payload is the message body published for downstream delivery workers.
type Payload struct {
	BookingCode string         `json:"booking_code"`
	BookingID   string         `json:"booking_id"`
	Template    Template       `json:"template"`
	Phone       string         `json:"phone"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// KafkaSender publishes notifications to the notification topic, keyed
// by booking code so retries for one booking stay ordered.
type KafkaSender struct {
	producer *kafka.Producer
	users    directory.UserDirectory
	log      *logger.Logger
}

func NewKafkaSender(producer *kafka.Producer, users directory.UserDirectory, log *logger.Logger) *KafkaSender {
	return &KafkaSender{
		producer: producer,
		users:    users,
		log:      log,
	}
}

func (s *KafkaSender) Send(ctx context.Context, booking *model.Booking, tmpl Template, data map[string]any) error {
	phone, err := s.resolvePhone(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to resolve contact phone: %w", err)
	}

	payload := Payload{
		BookingCode: booking.BookingCode,
		BookingID:   booking.ID,
		Template:    tmpl,
		Phone:       phone,
		ScheduledAt: booking.ScheduledAt(),
		Data:        data,
	}

	msg := kafka.NewMessage().
		WithKey(booking.BookingCode).
		WithValue(payload).
		WithEventType(string(tmpl)).
		WithSource("bookings").
		Build()

	if err := s.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	s.log.Debug("Notification published",
		"booking_code", booking.BookingCode,
		"template", tmpl,
	)
	return nil
}

// resolvePhone prefers the embedded guest contact and falls back to the
// member profile.
func (s *KafkaSender) resolvePhone(ctx context.Context, booking *model.Booking) (string, error) {
	if phone := booking.ContactPhone(); phone != "" {
		return phone, nil
	}
	if booking.Customer == "" {
		return "", fmt.Errorf("booking %s has no contact", booking.BookingCode)
	}

	user, err := s.users.FindByID(ctx, booking.Customer)
	if err != nil {
		return "", err
	}
	return user.Phone, nil
}

// NoopSender swallows notifications. Used when delivery is disabled.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(_ context.Context, booking *model.Booking, tmpl Template, _ map[string]any) error {
	s.log.Debug("Notification delivery disabled, dropping message",
		"booking_code", booking.BookingCode,
		"template", tmpl,
	)
	return nil
}
