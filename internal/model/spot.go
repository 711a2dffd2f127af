package model

import "time"

// Spot is a parking spot: a stretch of kerb holding one or more sub-spots.
// Centerline stores the polyline used by the offline geometry generator as
// a JSON array of [lng, lat] pairs; it is opaque to the API layer.
type Spot struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	AreaID     int64     `gorm:"index;not null" json:"areaId"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	Centerline string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`

	// Associations
	Area     Area      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SubSpots []SubSpot `gorm:"foreignKey:SpotID" json:"-"`
}

// SubSpot is the atomic bookable unit. Seq is its stable ordering index
// within the parent spot. Geometry holds the display rectangle as a JSON
// ring of [lng, lat] pairs, or "" when not yet generated.
type SubSpot struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	SpotID    int64     `gorm:"index;not null" json:"spotId"`
	Seq       int       `gorm:"not null" json:"seq"`
	Geometry  string    `gorm:"type:text" json:"geometry,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Spot Spot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
