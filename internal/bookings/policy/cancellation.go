package policy

import (
	"math"
	"time"

	apperrors "serenity/pkg/errors"
	"serenity/pkg/model"
)

const (
	// MinNotice is the shortest notice a customer may cancel with.
	MinNotice = 24 * time.Hour

	// FreeCancellationNotice is the notice beyond which no fee applies.
	FreeCancellationNotice = 48 * time.Hour
)

// CancellationPolicy decides whether a booking may be cancelled and what
// fee the cancellation carries. Fee and eligibility are evaluated
// separately: staff may force a cancellation inside the notice window,
// and the fee schedule still applies.
type CancellationPolicy struct {
	now func() time.Time
}

func NewCancellationPolicy() *CancellationPolicy {
	return &CancellationPolicy{now: time.Now}
}

// Evaluate reports whether the booking is eligible for customer
// cancellation. Status objections come back as Conflict, a too-late
// request as Forbidden.
func (p *CancellationPolicy) Evaluate(b *model.Booking) error {
	switch b.Status {
	case model.StatusCompleted:
		return apperrors.Conflict("booking already completed")
	case model.StatusCancelled:
		return apperrors.Conflict("booking already cancelled")
	case model.StatusInProgress:
		return apperrors.Conflict("booking is in progress")
	case model.StatusNoShow, model.StatusRefunded:
		return apperrors.Conflict("booking can no longer be cancelled")
	}

	if p.now().Add(MinNotice).After(b.ScheduledAt()) {
		return apperrors.Forbidden("must cancel at least 24 hours before the appointment")
	}

	return nil
}

// Fee returns the cancellation fee for the booking at the current time.
// More than 48 hours of notice is free, 24 to 48 hours costs 30% of the
// final amount, anything less costs 50%. Fees are rounded to the nearest
// currency unit.
func (p *CancellationPolicy) Fee(b *model.Booking) int64 {
	notice := b.ScheduledAt().Sub(p.now())

	switch {
	case notice > FreeCancellationNotice:
		return 0
	case notice > MinNotice:
		return roundedShare(b.FinalAmount, 0.3)
	default:
		return roundedShare(b.FinalAmount, 0.5)
	}
}

func roundedShare(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
