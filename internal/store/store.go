package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"parkspot-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Bookings
	InsertBooking(ctx context.Context, b *model.Booking) error
	CancelBooking(ctx context.Context, bookingID, userID int64) (*model.Booking, bool, error)
	UpdateBookingComment(ctx context.Context, bookingID, userID int64, comment string) (bool, error)
	ListBookingsForUser(ctx context.Context, userID int64) ([]model.Booking, error)
	ActiveNow(ctx context.Context, subSpotID int64, at time.Time) (*ActiveNowInfo, error)
	ActiveNowBulk(ctx context.Context, subSpotIDs []int64, at time.Time) (map[int64]ActiveNowInfo, error)
	ListBookingsInRange(ctx context.Context, from, to time.Time) ([]model.Booking, error)

	// Catalog
	ListRegions(ctx context.Context) ([]model.Region, error)
	ListAreas(ctx context.Context, regionID int64) ([]model.Area, error)
	ListSpots(ctx context.Context, areaID int64) ([]model.Spot, error)
	ListSubSpots(ctx context.Context, spotID int64) ([]model.SubSpot, error)
	GetSubSpot(ctx context.Context, subSpotID int64) (*model.SubSpot, error)

	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// Watches
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for collaborators that manage their own
// queries (watch subscriptions, notification worker).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
