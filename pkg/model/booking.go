package model

import (
	"time"
)

type BookingType string

const (
	BookingTypeGuest  BookingType = "guest"
	BookingTypeMember BookingType = "member"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
	StatusRefunded   BookingStatus = "refunded"
)

// Terminal reports whether no further lifecycle transition is accepted
// from s. The one exception, completed to refunded, is handled by the
// transition table in the booking service.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentDeposit           PaymentStatus = "deposit"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
)

// GuestInfo is the embedded contact block carried by guest bookings.
type GuestInfo struct {
	FullName string `json:"full_name" bson:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" bson:"phone" validate:"required"`
	Email    string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

// ServiceLine is the per-service price snapshot taken at creation time.
// Catalog prices are never re-read after the booking exists.
type ServiceLine struct {
	ServiceID     string `json:"service_id" bson:"service_id"`
	Name          string `json:"name" bson:"name"`
	Price         int64  `json:"price" bson:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty" bson:"discount_price,omitempty"`
	Duration      int    `json:"duration" bson:"duration"`
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status    BookingStatus `json:"status" bson:"status"`
	Timestamp time.Time     `json:"timestamp" bson:"timestamp"`
	Note      string        `json:"note,omitempty" bson:"note,omitempty"`
	UpdatedBy string        `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

type Booking struct {
	ID          string      `json:"id,omitempty" bson:"_id,omitempty"`
	BookingCode string      `json:"booking_code" bson:"booking_code"`
	BookingType BookingType `json:"booking_type" bson:"booking_type"`

	// Customer is set for member bookings, GuestInfo for guest bookings.
	// Exactly one of the two is present.
	Customer  string     `json:"customer,omitempty" bson:"customer,omitempty"`
	GuestInfo *GuestInfo `json:"guest_info,omitempty" bson:"guest_info,omitempty"`

	Services         []ServiceLine `json:"services" bson:"services"`
	Employee         string        `json:"employee,omitempty" bson:"employee,omitempty"`
	IsRandomEmployee bool          `json:"is_random_employee" bson:"is_random_employee"`

	BookingDate       time.Time `json:"booking_date" bson:"booking_date"`
	BookingTime       string    `json:"booking_time" bson:"booking_time"`
	EstimatedDuration int       `json:"estimated_duration" bson:"estimated_duration"`

	Status        BookingStatus  `json:"status" bson:"status"`
	StatusHistory []StatusChange `json:"status_history" bson:"status_history"`

	TotalAmount    int64         `json:"total_amount" bson:"total_amount"`
	DiscountAmount int64         `json:"discount_amount" bson:"discount_amount"`
	FinalAmount    int64         `json:"final_amount" bson:"final_amount"`
	PaymentStatus  PaymentStatus `json:"payment_status" bson:"payment_status"`
	PaymentMethod  string        `json:"payment_method,omitempty" bson:"payment_method,omitempty"`

	// OTP sub-state, guest bookings only. The code itself is never
	// serialized to API responses.
	OtpCode       string     `json:"-" bson:"otp_code,omitempty"`
	OtpExpiredAt  *time.Time `json:"otp_expired_at,omitempty" bson:"otp_expired_at,omitempty"`
	IsOtpVerified bool       `json:"is_otp_verified" bson:"is_otp_verified"`
	OtpVerifiedAt *time.Time `json:"otp_verified_at,omitempty" bson:"otp_verified_at,omitempty"`
	OtpAttempts   int        `json:"otp_attempts" bson:"otp_attempts"`

	PointsUsed    int64 `json:"points_used" bson:"points_used"`
	PointsEarned  int64 `json:"points_earned" bson:"points_earned"`
	PointsAwarded bool  `json:"points_awarded" bson:"points_awarded"`

	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationFee    int64      `json:"cancellation_fee,omitempty" bson:"cancellation_fee,omitempty"`

	CustomerNote  string    `json:"customer_note,omitempty" bson:"customer_note,omitempty"`
	BookingSource string    `json:"booking_source" bson:"booking_source"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// ScheduledAt combines the booking date with the "HH:MM" time-of-day
// string into the appointment instant. Booking dates are anchored at
// UTC midnight when written, and a decode may hand the same instant
// back in another zone, so the calendar fields are always read in UTC.
// A malformed time-of-day falls back to midnight of the booking date.
func (b *Booking) ScheduledAt() time.Time {
	day := b.BookingDate.UTC()
	t, err := time.Parse("15:04", b.BookingTime)
	if err != nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// ContactPhone returns the number notifications should be sent to, or
// empty when the member profile has to be consulted.
func (b *Booking) ContactPhone() string {
	if b.GuestInfo != nil {
		return b.GuestInfo.Phone
	}
	return ""
}

func (b *Booking) ServiceIDs() []string {
	ids := make([]string, 0, len(b.Services))
	for _, line := range b.Services {
		ids = append(ids, line.ServiceID)
	}
	return ids
}
