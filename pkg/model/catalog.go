package model

import "time"

type ServiceStatus string

const (
	ServiceActive     ServiceStatus = "active"
	ServiceInactive   ServiceStatus = "inactive"
	ServiceComingSoon ServiceStatus = "coming_soon"
)

// Service is a catalog entry. Amounts are in the smallest currency unit.
type Service struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string        `json:"name" bson:"name"`
	Price         int64         `json:"price" bson:"price"`
	DiscountPrice *int64        `json:"discount_price,omitempty" bson:"discount_price,omitempty"`
	Duration      int           `json:"duration" bson:"duration"`
	Status        ServiceStatus `json:"status" bson:"status"`

	BookingCount   int64 `json:"booking_count" bson:"booking_count"`
	CompletedCount int64 `json:"completed_count" bson:"completed_count"`
}

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
	EmployeeOnLeave  EmployeeStatus = "on_leave"
)

type Employee struct {
	ID       string         `json:"id,omitempty" bson:"_id,omitempty"`
	FullName string         `json:"full_name" bson:"full_name"`
	Status   EmployeeStatus `json:"status" bson:"status"`

	TotalBookings     int64      `json:"total_bookings" bson:"total_bookings"`
	CompletedBookings int64      `json:"completed_bookings" bson:"completed_bookings"`
	CancelledBookings int64      `json:"cancelled_bookings" bson:"cancelled_bookings"`
	TotalRevenue      int64      `json:"total_revenue" bson:"total_revenue"`
	LastBookingDate   *time.Time `json:"last_booking_date,omitempty" bson:"last_booking_date,omitempty"`
}
