package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	apperrors "serenity/pkg/errors"
	"serenity/pkg/model"
)

// Store is the slice of booking persistence the guard needs. Each call
// is a single conditional document update so two concurrent requests
// cannot both issue or both confirm.
type Store interface {
	// SetOtp installs a fresh code when no live one exists. Returns false
	// when another writer got there first or the booking is not eligible.
	SetOtp(ctx context.Context, id, code string, expiresAt time.Time) (bool, error)
	IncrementOtpAttempts(ctx context.Context, id string) error
	// ConfirmOtp marks the booking verified and moves it to confirmed.
	ConfirmOtp(ctx context.Context, id string, change model.StatusChange) (bool, error)
}

// Guard issues and checks one-time verification codes for guest
// bookings.
type Guard struct {
	store       Store
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewGuard(store Store, ttl time.Duration, maxAttempts int) *Guard {
	return &Guard{
		store:       store,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue makes sure the booking carries a live verification code and
// returns it. A still-valid code is reused rather than replaced, so
// repeated resend requests keep delivering the same code until it
// expires.
func (g *Guard) Issue(ctx context.Context, b *model.Booking) (string, bool, error) {
	if b.BookingType != model.BookingTypeGuest {
		return "", false, apperrors.Conflict("verification only applies to guest bookings")
	}
	if b.IsOtpVerified {
		return "", false, apperrors.Conflict("booking is already verified")
	}

	now := g.now()
	if b.OtpCode != "" && b.OtpExpiredAt != nil && b.OtpExpiredAt.After(now) {
		return b.OtpCode, false, nil
	}

	code, err := generateCode()
	if err != nil {
		return "", false, apperrors.Internal("Failed to generate verification code", err)
	}

	ok, err := g.store.SetOtp(ctx, b.ID, code, now.Add(g.ttl))
	if err != nil {
		return "", false, apperrors.Internal("Failed to store verification code", err)
	}
	if !ok {
		return "", false, apperrors.Conflict("a verification code was just issued, request a resend shortly")
	}

	return code, true, nil
}

// Verify checks the submitted code. Every attempt, right or wrong, is
// counted before the comparison so a flood of guesses runs into the
// attempt ceiling rather than the code space.
func (g *Guard) Verify(ctx context.Context, b *model.Booking, code string) error {
	if b.BookingType != model.BookingTypeGuest {
		return apperrors.Conflict("verification only applies to guest bookings")
	}
	if b.IsOtpVerified {
		return nil
	}
	if b.OtpCode == "" {
		return apperrors.Conflict("no verification code has been issued")
	}
	if b.OtpAttempts >= g.maxAttempts {
		return apperrors.Forbidden("too many verification attempts")
	}
	if b.OtpExpiredAt == nil || !b.OtpExpiredAt.After(g.now()) {
		return apperrors.Conflict("verification code has expired")
	}

	if err := g.store.IncrementOtpAttempts(ctx, b.ID); err != nil {
		return apperrors.Internal("Failed to record verification attempt", err)
	}

	if code != b.OtpCode {
		return apperrors.InvalidInput("incorrect verification code")
	}

	change := model.StatusChange{
		Status:    model.StatusConfirmed,
		Timestamp: g.now(),
		Note:      "verified via OTP",
	}
	ok, err := g.store.ConfirmOtp(ctx, b.ID, change)
	if err != nil {
		return apperrors.Internal("Failed to confirm verification", err)
	}
	if !ok {
		// Another request confirmed first. The outcome the caller wanted
		// already holds.
		return nil
	}

	return nil
}

// generateCode produces a 6-digit numeric code with a CSPRNG.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
