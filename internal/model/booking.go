package model

import "time"

// Booking statuses. Cancelled is terminal; rows are never hard-deleted by
// normal application flow.
const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

// Vehicle classifications accepted on a booking.
const (
	VehicleCar        = "car"
	VehicleMotorcycle = "motorcycle"
	VehicleTruck      = "truck"
)

// Booking reserves the half-open interval [StartTime, EndTime) on a
// sub-spot. The no-overlap rule for active bookings on the same sub-spot is
// enforced by the database, not here; see internal/db for the DDL.
type Booking struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	SubSpotID   int64     `gorm:"index;not null" json:"subSpotId"`
	StartTime   time.Time `gorm:"not null" json:"startTime"`
	EndTime     time.Time `gorm:"not null" json:"endTime"`
	Status      string    `gorm:"size:16;not null;default:active" json:"status"`
	Comment     string    `gorm:"type:text" json:"comment,omitempty"`
	VehicleType string    `gorm:"size:32;not null;default:car" json:"vehicleType"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	User    User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SubSpot SubSpot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
