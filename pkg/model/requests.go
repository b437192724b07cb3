package model

// BookingRequest is the create payload. The caller's identity (member
// vs guest) is resolved by the service layer, not by the payload.
type BookingRequest struct {
	GuestInfo        *GuestInfo `json:"guest_info,omitempty" validate:"omitempty"`
	ServiceIDs       []string   `json:"service_ids" validate:"required,min=1,dive,mongodb"`
	Employee         string     `json:"employee,omitempty" validate:"omitempty,mongodb"`
	IsRandomEmployee bool       `json:"is_random_employee,omitempty"`
	BookingDate      string     `json:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime      string     `json:"booking_time" validate:"required,clock_time"`
	CustomerNote     string     `json:"customer_note,omitempty" validate:"omitempty,max=500"`
	PaymentMethod    string     `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card bank_transfer zalopay momo vnpay"`
	BookingSource    string     `json:"booking_source,omitempty" validate:"omitempty,max=50"`
}

type StatusUpdateRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed checked_in in_progress completed no_show refunded"`
	Note   string        `json:"note,omitempty" validate:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=500"`
}

type VerifyOtpRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}
