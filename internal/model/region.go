package model

import "time"

// Region represents a top-level geographic region.
type Region struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Areas []Area `gorm:"foreignKey:RegionID" json:"-"`
}

// Area is a sub-area within a region.
type Area struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	RegionID  int64     `gorm:"index;not null" json:"regionId"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Region Region `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Spots  []Spot `gorm:"foreignKey:AreaID" json:"-"`
}
