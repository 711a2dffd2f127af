package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"parkspot-backend/internal/db"
	"parkspot-backend/internal/model"
)

// pgExclusionViolation is SQLSTATE 23P01, raised when the bookings_no_overlap
// exclusion constraint rejects a row. pgForeignKeyViolation is 23503.
const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

// InsertBooking persists a new active booking for the half-open range
// [b.StartTime, b.EndTime). It never pre-checks availability: the insert is
// always attempted and the database's rejection is the conflict signal, so
// the guarantee holds under concurrent writers from any process.
func (s *gormStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if !b.EndTime.After(b.StartTime) {
		return ErrInvalidRange
	}

	// Stored in UTC: Postgres compares tstzrange values by instant, but the
	// SQLite trigger compares timestamp text, which is only sound when every
	// row carries the same offset.
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()

	b.Status = model.BookingStatusActive
	if b.VehicleType == "" {
		b.VehicleType = model.VehicleCar
	}

	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return translateBookingErr(err)
	}
	return nil
}

// translateBookingErr maps engine-level rejections onto the store's typed
// outcomes so nothing above the store ever inspects driver error codes. A
// foreign-key failure maps to ErrSubSpotNotFound: the sub-spot is the only
// client-supplied reference on a booking (the user ID comes from a token).
func translateBookingErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrOverlap
		case pgForeignKeyViolation:
			return ErrSubSpotNotFound
		}
	}
	// SQLite paths: the bookings_no_overlap trigger aborts with a fixed
	// message; foreign keys fail with the stock constraint text.
	if strings.Contains(err.Error(), db.OverlapAbortMessage) {
		return ErrOverlap
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return ErrSubSpotNotFound
	}
	return err
}

// CancelBooking soft-cancels the booking when it is active and owned by
// userID. The bool result is false when no such row exists; missing,
// foreign and already-cancelled rows are deliberately indistinguishable.
func (s *gormStore) CancelBooking(ctx context.Context, bookingID, userID int64) (*model.Booking, bool, error) {
	var cancelled model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND user_id = ? AND status = ?", bookingID, userID, model.BookingStatusActive).
			Update("status", model.BookingStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&cancelled, bookingID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &cancelled, true, nil
}

// UpdateBookingComment edits the comment with the same ownership-gated
// semantics as CancelBooking; the status is left untouched.
func (s *gormStore) UpdateBookingComment(ctx context.Context, bookingID, userID int64, comment string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND user_id = ? AND status = ?", bookingID, userID, model.BookingStatusActive).
		Update("comment", comment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListBookingsForUser returns the caller's bookings newest-created first,
// cancelled history included.
func (s *gormStore) ListBookingsForUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

// ActiveNow reports the active booking whose range contains `at`, or nil.
func (s *gormStore) ActiveNow(ctx context.Context, subSpotID int64, at time.Time) (*ActiveNowInfo, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).
		Where("sub_spot_id = ? AND status = ? AND start_time <= ? AND end_time > ?",
			subSpotID, model.BookingStatusActive, at, at).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ActiveNowInfo{UserID: b.UserID, StartTime: b.StartTime, EndTime: b.EndTime}, nil
}

// ActiveNowBulk resolves free/busy for a batch of sub-spots in one query,
// for the sub-spot listing read path.
func (s *gormStore) ActiveNowBulk(ctx context.Context, subSpotIDs []int64, at time.Time) (map[int64]ActiveNowInfo, error) {
	result := make(map[int64]ActiveNowInfo, len(subSpotIDs))
	if len(subSpotIDs) == 0 {
		return result, nil
	}

	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("sub_spot_id IN ? AND status = ? AND start_time <= ? AND end_time > ?",
			subSpotIDs, model.BookingStatusActive, at, at).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	for _, b := range bookings {
		result[b.SubSpotID] = ActiveNowInfo{UserID: b.UserID, StartTime: b.StartTime, EndTime: b.EndTime}
	}
	return result, nil
}

// ListBookingsInRange returns bookings whose range intersects [from, to),
// any status, ordered by start time. Used by the admin export.
func (s *gormStore) ListBookingsInRange(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("SubSpot").
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}
