package model

import "time"

// WatchSubscription holds a browser push subscription for "notify me when
// this sub-spot becomes free" watches.
type WatchSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	SubSpots []*SubSpot `gorm:"many2many:watch_subspot_mapping;"`
}
