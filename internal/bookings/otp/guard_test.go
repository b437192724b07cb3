package otp

import (
	"context"
	"testing"
	"time"

	apperrors "serenity/pkg/errors"
	"serenity/pkg/model"
)

type mockStore struct {
	SetOtpFunc               func(ctx context.Context, id, code string, expiresAt time.Time) (bool, error)
	IncrementOtpAttemptsFunc func(ctx context.Context, id string) error
	ConfirmOtpFunc           func(ctx context.Context, id string, change model.StatusChange) (bool, error)
}

func (m *mockStore) SetOtp(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
	return m.SetOtpFunc(ctx, id, code, expiresAt)
}

func (m *mockStore) IncrementOtpAttempts(ctx context.Context, id string) error {
	return m.IncrementOtpAttemptsFunc(ctx, id)
}

func (m *mockStore) ConfirmOtp(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	return m.ConfirmOtpFunc(ctx, id, change)
}

func fixedGuard(store Store, now time.Time) *Guard {
	g := NewGuard(store, 5*time.Minute, 5)
	g.now = func() time.Time { return now }
	return g
}

func guestBooking() *model.Booking {
	return &model.Booking{
		ID:          "booking-1",
		BookingType: model.BookingTypeGuest,
		Status:      model.StatusPending,
	}
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Errorf("code = %s, want %s", appErr.Code, code)
	}
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	now := time.Now()
	var stored string
	store := &mockStore{
		SetOtpFunc: func(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
			stored = code
			if want := now.Add(5 * time.Minute); !expiresAt.Equal(want) {
				t.Errorf("expiresAt = %v, want %v", expiresAt, want)
			}
			return true, nil
		},
	}

	g := fixedGuard(store, now)
	code, issued, err := g.Issue(context.Background(), guestBooking())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !issued {
		t.Error("expected a fresh code to be issued")
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit", code)
		}
	}
	if code != stored {
		t.Errorf("returned code %q does not match stored %q", code, stored)
	}
}

func TestIssueReusesLiveCode(t *testing.T) {
	now := time.Now()
	store := &mockStore{
		SetOtpFunc: func(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
			t.Fatal("SetOtp should not be called when a live code exists")
			return false, nil
		},
	}

	b := guestBooking()
	b.OtpCode = "123456"
	expires := now.Add(2 * time.Minute)
	b.OtpExpiredAt = &expires

	g := fixedGuard(store, now)
	code, issued, err := g.Issue(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued {
		t.Error("a live code should be reused, not reissued")
	}
	if code != "123456" {
		t.Errorf("code = %q, want the live code", code)
	}
}

func TestIssueReplacesExpiredCode(t *testing.T) {
	now := time.Now()
	called := false
	store := &mockStore{
		SetOtpFunc: func(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
			called = true
			return true, nil
		},
	}

	b := guestBooking()
	b.OtpCode = "123456"
	expires := now.Add(-1 * time.Minute)
	b.OtpExpiredAt = &expires

	g := fixedGuard(store, now)
	code, issued, err := g.Issue(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || !issued {
		t.Error("an expired code should be replaced")
	}
	if code == "123456" {
		t.Error("expected a fresh code, got the expired one")
	}
}

func TestIssueRejectsMemberBooking(t *testing.T) {
	b := guestBooking()
	b.BookingType = model.BookingTypeMember

	g := fixedGuard(&mockStore{}, time.Now())
	_, _, err := g.Issue(context.Background(), b)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestIssueRejectsVerifiedBooking(t *testing.T) {
	b := guestBooking()
	b.IsOtpVerified = true

	g := fixedGuard(&mockStore{}, time.Now())
	_, _, err := g.Issue(context.Background(), b)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestIssueLosesRace(t *testing.T) {
	store := &mockStore{
		SetOtpFunc: func(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
			return false, nil
		},
	}

	g := fixedGuard(store, time.Now())
	_, _, err := g.Issue(context.Background(), guestBooking())
	expectCode(t, err, apperrors.CodeConflict)
}

func TestVerifySuccess(t *testing.T) {
	now := time.Now()
	attempts := 0
	confirmed := false
	store := &mockStore{
		IncrementOtpAttemptsFunc: func(ctx context.Context, id string) error {
			attempts++
			return nil
		},
		ConfirmOtpFunc: func(ctx context.Context, id string, change model.StatusChange) (bool, error) {
			confirmed = true
			if change.Status != model.StatusConfirmed {
				t.Errorf("change.Status = %s, want confirmed", change.Status)
			}
			return true, nil
		},
	}

	b := guestBooking()
	b.OtpCode = "654321"
	expires := now.Add(3 * time.Minute)
	b.OtpExpiredAt = &expires

	g := fixedGuard(store, now)
	if err := g.Verify(context.Background(), b, "654321"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts recorded = %d, want 1", attempts)
	}
	if !confirmed {
		t.Error("expected booking to be confirmed")
	}
}

func TestVerifyWrongCodeCountsAttempt(t *testing.T) {
	now := time.Now()
	attempts := 0
	store := &mockStore{
		IncrementOtpAttemptsFunc: func(ctx context.Context, id string) error {
			attempts++
			return nil
		},
		ConfirmOtpFunc: func(ctx context.Context, id string, change model.StatusChange) (bool, error) {
			t.Fatal("ConfirmOtp should not be called for a wrong code")
			return false, nil
		},
	}

	b := guestBooking()
	b.OtpCode = "654321"
	expires := now.Add(3 * time.Minute)
	b.OtpExpiredAt = &expires

	g := fixedGuard(store, now)
	err := g.Verify(context.Background(), b, "000000")
	expectCode(t, err, apperrors.CodeInvalidInput)
	if attempts != 1 {
		t.Errorf("attempts recorded = %d, want 1", attempts)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	now := time.Now()
	b := guestBooking()
	b.OtpCode = "654321"
	expires := now.Add(-1 * time.Second)
	b.OtpExpiredAt = &expires

	g := fixedGuard(&mockStore{}, now)
	err := g.Verify(context.Background(), b, "654321")
	expectCode(t, err, apperrors.CodeConflict)
}

func TestVerifyTooManyAttempts(t *testing.T) {
	now := time.Now()
	b := guestBooking()
	b.OtpCode = "654321"
	expires := now.Add(3 * time.Minute)
	b.OtpExpiredAt = &expires
	b.OtpAttempts = 5

	g := fixedGuard(&mockStore{}, now)
	err := g.Verify(context.Background(), b, "654321")
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestVerifyAlreadyVerifiedIsNoop(t *testing.T) {
	b := guestBooking()
	b.IsOtpVerified = true

	g := fixedGuard(&mockStore{}, time.Now())
	if err := g.Verify(context.Background(), b, "whatever"); err != nil {
		t.Errorf("verified booking should accept repeat verify, got %v", err)
	}
}

func TestVerifyNoCodeIssued(t *testing.T) {
	g := fixedGuard(&mockStore{}, time.Now())
	err := g.Verify(context.Background(), guestBooking(), "123456")
	expectCode(t, err, apperrors.CodeConflict)
}

func TestVerifyConfirmRaceIsSuccess(t *testing.T) {
	now := time.Now()
	store := &mockStore{
		IncrementOtpAttemptsFunc: func(ctx context.Context, id string) error { return nil },
		ConfirmOtpFunc: func(ctx context.Context, id string, change model.StatusChange) (bool, error) {
			return false, nil
		},
	}

	b := guestBooking()
	b.OtpCode = "654321"
	expires := now.Add(3 * time.Minute)
	b.OtpExpiredAt = &expires

	g := fixedGuard(store, now)
	if err := g.Verify(context.Background(), b, "654321"); err != nil {
		t.Errorf("losing the confirm race should still succeed, got %v", err)
	}
}
