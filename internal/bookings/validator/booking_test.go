package validator

import (
	"strings"
	"testing"
	"time"

	"serenity/pkg/logger"
	"serenity/pkg/model"
)

func newTestValidator(t *testing.T) *BookingValidator {
	t.Helper()
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT})
	v := NewBookingValidator(log)
	v.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return v
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		ServiceIDs:  []string{"507f1f77bcf86cd799439011"},
		BookingDate: "2025-06-10",
		BookingTime: "14:30",
		GuestInfo: &model.GuestInfo{
			FullName: "Nguyen Thi Mai",
			Phone:    "+84901234567",
		},
	}
}

func TestValidateCreateAcceptsValidGuestRequest(t *testing.T) {
	v := newTestValidator(t)
	if err := v.ValidateCreate(validRequest(), true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateCreateRejectsMissingServices(t *testing.T) {
	v := newTestValidator(t)
	req := validRequest()
	req.ServiceIDs = nil

	err := v.ValidateCreate(req, true)
	if err == nil {
		t.Fatal("expected error for missing service_ids")
	}
	if !strings.Contains(err.Error(), "ServiceIDs") {
		t.Errorf("error should name ServiceIDs, got %v", err)
	}
}

func TestValidateCreateRejectsMalformedServiceID(t *testing.T) {
	v := newTestValidator(t)
	req := validRequest()
	req.ServiceIDs = []string{"not-an-objectid"}

	if err := v.ValidateCreate(req, true); err == nil {
		t.Fatal("expected error for malformed service ID")
	}
}

func TestValidateCreateRejectsBadClockTime(t *testing.T) {
	v := newTestValidator(t)

	for _, bad := range []string{"25:00", "9:30", "14:61", "noon"} {
		req := validRequest()
		req.BookingTime = bad
		if err := v.ValidateCreate(req, true); err == nil {
			t.Errorf("expected error for booking_time %q", bad)
		}
	}
}

func TestValidateCreateRejectsPastAppointment(t *testing.T) {
	v := newTestValidator(t)
	req := validRequest()
	req.BookingDate = "2025-05-01"

	err := v.ValidateCreate(req, true)
	if err == nil {
		t.Fatal("expected error for past appointment")
	}
	if !strings.Contains(err.Error(), "future") {
		t.Errorf("error should mention the future, got %v", err)
	}
}

func TestValidateCreateRequiresGuestInfoForGuests(t *testing.T) {
	v := newTestValidator(t)
	req := validRequest()
	req.GuestInfo = nil

	if err := v.ValidateCreate(req, true); err == nil {
		t.Fatal("expected error for missing guest_info")
	}

	// Member bookings carry no guest block.
	if err := v.ValidateCreate(req, false); err != nil {
		t.Errorf("member request without guest_info should pass, got %v", err)
	}
}

func TestValidateCreateRejectsNonE164GuestPhone(t *testing.T) {
	v := newTestValidator(t)
	req := validRequest()
	req.GuestInfo.Phone = "0901234567"

	err := v.ValidateCreate(req, true)
	if err == nil {
		t.Fatal("expected error for non-E.164 phone")
	}
	if !strings.Contains(err.Error(), "E.164") {
		t.Errorf("error should mention E.164, got %v", err)
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := newTestValidator(t)

	if err := v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: model.StatusConfirmed}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Cancellation goes through its own endpoint, never a status update.
	if err := v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: model.StatusCancelled}); err == nil {
		t.Error("expected error for cancelled via status update")
	}

	if err := v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: "unknown"}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestValidateCancel(t *testing.T) {
	v := newTestValidator(t)

	if err := v.ValidateCancel(&model.CancelRequest{Reason: "schedule conflict"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateCancel(&model.CancelRequest{}); err == nil {
		t.Error("expected error for missing reason")
	}
}

func TestValidateVerifyOtp(t *testing.T) {
	v := newTestValidator(t)

	if err := v.ValidateVerifyOtp(&model.VerifyOtpRequest{Code: "123456"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "12345", "1234567", "12345a"} {
		if err := v.ValidateVerifyOtp(&model.VerifyOtpRequest{Code: bad}); err == nil {
			t.Errorf("expected error for code %q", bad)
		}
	}
}
