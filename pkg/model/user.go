package model

import "time"

type MembershipTier string

const (
	TierBronze   MembershipTier = "bronze"
	TierSilver   MembershipTier = "silver"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

type User struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	FullName string `json:"full_name" bson:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" bson:"phone" validate:"required"`
	Email    string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`

	// ExternalID is the messaging-platform identity the auth boundary
	// resolves members by.
	ExternalID string `json:"external_id,omitempty" bson:"external_id,omitempty"`

	LoyaltyPoints  int64          `json:"loyalty_points" bson:"loyalty_points"`
	MembershipTier MembershipTier `json:"membership_tier" bson:"membership_tier"`

	TotalBookings    int64      `json:"total_bookings" bson:"total_bookings"`
	TotalSpent       int64      `json:"total_spent" bson:"total_spent"`
	FirstBookingDate *time.Time `json:"first_booking_date,omitempty" bson:"first_booking_date,omitempty"`
	LastBookingDate  *time.Time `json:"last_booking_date,omitempty" bson:"last_booking_date,omitempty"`

	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
