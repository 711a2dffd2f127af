package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkspot-backend/internal/db"
	"parkspot-backend/internal/model"
)

// newSQLiteStore opens a private in-memory database with the full schema,
// including the overlap trigger that mirrors the Postgres exclusion
// constraint.
func newSQLiteStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection: in-memory SQLite is per-connection, and serialized
	// writes are what production Postgres gives us via its constraint.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return NewGormStore(gdb), gdb
}

func seedCatalog(t *testing.T, gdb *gorm.DB) (userA, userB int64, subSpot int64) {
	t.Helper()

	users := []model.User{
		{Email: "a@example.com", PasswordHash: "x"},
		{Email: "b@example.com", PasswordHash: "x"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	region := model.Region{Name: "Downtown"}
	require.NoError(t, gdb.Create(&region).Error)
	area := model.Area{RegionID: region.ID, Name: "North"}
	require.NoError(t, gdb.Create(&area).Error)
	spot := model.Spot{AreaID: area.ID, Name: "Main St"}
	require.NoError(t, gdb.Create(&spot).Error)
	ss := model.SubSpot{SpotID: spot.ID, Seq: 0}
	require.NoError(t, gdb.Create(&ss).Error)

	return users[0].ID, users[1].ID, ss.ID
}

func at(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func mustInsert(t *testing.T, s Store, userID, subSpotID int64, start, end time.Time) *model.Booking {
	t.Helper()
	b := &model.Booking{UserID: userID, SubSpotID: subSpotID, StartTime: start, EndTime: end}
	require.NoError(t, s.InsertBooking(context.Background(), b))
	return b
}

func TestInsertBookingRejectsInvalidRange(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u, _, ss := seedCatalog(t, gdb)

	err := s.InsertBooking(context.Background(), &model.Booking{
		UserID: u, SubSpotID: ss, StartTime: at(10, 0), EndTime: at(10, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	err = s.InsertBooking(context.Background(), &model.Booking{
		UserID: u, SubSpotID: ss, StartTime: at(10, 1), EndTime: at(10, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	var count int64
	require.NoError(t, gdb.Model(&model.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInsertBookingOverlapRejected(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	// Contained range conflicts.
	err := s.InsertBooking(context.Background(), &model.Booking{
		UserID: u2, SubSpotID: ss, StartTime: at(10, 30), EndTime: at(10, 45),
	})
	assert.ErrorIs(t, err, ErrOverlap)

	// Straddling an endpoint conflicts.
	err = s.InsertBooking(context.Background(), &model.Booking{
		UserID: u2, SubSpotID: ss, StartTime: at(10, 59), EndTime: at(11, 1),
	})
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestInsertBookingHalfOpenAdjacency(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	// [11:00, 12:00) shares only the excluded endpoint: no conflict.
	mustInsert(t, s, u2, ss, at(11, 0), at(12, 0))

	// [9:00, 10:00) likewise.
	mustInsert(t, s, u2, ss, at(9, 0), at(10, 0))
}

// siblingSubSpot creates another sub-spot under the same spot as ss.
func siblingSubSpot(t *testing.T, gdb *gorm.DB, ss int64, seq int) int64 {
	t.Helper()
	var existing model.SubSpot
	require.NoError(t, gdb.First(&existing, ss).Error)
	sibling := model.SubSpot{SpotID: existing.SpotID, Seq: seq}
	require.NoError(t, gdb.Create(&sibling).Error)
	return sibling.ID
}

func TestInsertBookingOtherSubSpotUnaffected(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)
	otherID := siblingSubSpot(t, gdb, ss, 1)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))
	mustInsert(t, s, u2, otherID, at(10, 0), at(11, 0))
}

func TestCancelFreesTheRange(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	b := mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	cancelled, ok, err := s.CancelBooking(context.Background(), b.ID, u1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, ss, cancelled.SubSpotID)

	// Cancelled rows do not count toward the invariant: the exact original
	// range can be rebooked by someone else.
	mustInsert(t, s, u2, ss, at(10, 0), at(11, 0))
}

func TestCancelConflatesMissingForeignAndTerminal(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	b := mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	// Foreign booking.
	_, ok, err := s.CancelBooking(context.Background(), b.ID, u2)
	require.NoError(t, err)
	assert.False(t, ok)

	// Missing booking.
	_, ok, err = s.CancelBooking(context.Background(), 9999, u1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Already cancelled.
	_, ok, err = s.CancelBooking(context.Background(), b.ID, u1)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = s.CancelBooking(context.Background(), b.ID, u1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateBookingCommentOwnershipGated(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	b := mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	ok, err := s.UpdateBookingComment(context.Background(), b.ID, u2, "not mine")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdateBookingComment(context.Background(), b.ID, u1, "white SUV")
	require.NoError(t, err)
	assert.True(t, ok)

	var reloaded model.Booking
	require.NoError(t, gdb.First(&reloaded, b.ID).Error)
	assert.Equal(t, "white SUV", reloaded.Comment)
	assert.Equal(t, model.BookingStatusActive, reloaded.Status)

	// Cancelled bookings are no longer editable.
	_, ok, err = s.CancelBooking(context.Background(), b.ID, u1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.UpdateBookingComment(context.Background(), b.ID, u1, "too late")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListBookingsForUserNewestFirstWithHistory(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	b1 := mustInsert(t, s, u1, ss, at(8, 0), at(9, 0))
	b2 := mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))
	mustInsert(t, s, u2, ss, at(12, 0), at(13, 0))

	_, ok, err := s.CancelBooking(context.Background(), b1.ID, u1)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := s.ListBookingsForUser(context.Background(), u1)
	require.NoError(t, err)
	require.Len(t, list, 2, "history includes cancelled bookings, excludes other users")
	assert.Equal(t, b2.ID, list[0].ID)
	assert.Equal(t, b1.ID, list[1].ID)
	assert.Equal(t, model.BookingStatusCancelled, list[1].Status)
}

func TestActiveNowBoundaries(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, _, ss := seedCatalog(t, gdb)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	// Start is inclusive.
	info, err := s.ActiveNow(context.Background(), ss, at(10, 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, u1, info.UserID)
	assert.True(t, info.StartTime.Equal(at(10, 0)))

	// End is exclusive.
	info, err = s.ActiveNow(context.Background(), ss, at(11, 0))
	require.NoError(t, err)
	assert.Nil(t, info)

	info, err = s.ActiveNow(context.Background(), ss, at(9, 59))
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestActiveNowIgnoresCancelled(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, _, ss := seedCatalog(t, gdb)

	b := mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))
	_, ok, err := s.CancelBooking(context.Background(), b.ID, u1)
	require.NoError(t, err)
	require.True(t, ok)

	info, err := s.ActiveNow(context.Background(), ss, at(10, 30))
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestActiveNowBulk(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)
	otherID := siblingSubSpot(t, gdb, ss, 1)
	freeID := siblingSubSpot(t, gdb, ss, 2)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))
	mustInsert(t, s, u2, otherID, at(9, 0), at(12, 0))

	result, err := s.ActiveNowBulk(context.Background(),
		[]int64{ss, otherID, freeID}, at(10, 30))
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, u1, result[ss].UserID)
	assert.Equal(t, u2, result[otherID].UserID)
	_, found := result[freeID]
	assert.False(t, found)
}

func TestListBookingsInRange(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	mustInsert(t, s, u1, ss, at(8, 0), at(9, 0))
	mid := mustInsert(t, s, u2, ss, at(10, 0), at(11, 0))
	mustInsert(t, s, u1, ss, at(14, 0), at(15, 0))

	list, err := s.ListBookingsInRange(context.Background(), at(9, 30), at(11, 30))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mid.ID, list[0].ID)
	assert.Equal(t, "b@example.com", list[0].User.Email)
}

func TestConcurrentInsertsSingleWinner(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, _, ss := seedCatalog(t, gdb)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.InsertBooking(context.Background(), &model.Booking{
				UserID: u1, SubSpotID: ss, StartTime: at(10, 0), EndTime: at(11, 0),
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrOverlap):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer may win the slot")
	assert.Equal(t, racers-1, conflicts)

	var active int64
	require.NoError(t, gdb.Model(&model.Booking{}).
		Where("status = ?", model.BookingStatusActive).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestInsertBookingNormalizesOffsets(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, u2, ss := seedCatalog(t, gdb)

	mustInsert(t, s, u1, ss, at(10, 0), at(11, 0))

	// 15:30+05:00 is 10:30 UTC: inside the slot above, whatever text form
	// the client's offset would produce.
	tz := time.FixedZone("UTC+5", 5*3600)
	err := s.InsertBooking(context.Background(), &model.Booking{
		UserID:    u2,
		SubSpotID: ss,
		StartTime: time.Date(2024, 1, 1, 15, 30, 0, 0, tz),
		EndTime:   time.Date(2024, 1, 1, 16, 30, 0, 0, tz),
	})
	assert.ErrorIs(t, err, ErrOverlap)

	// 16:00+05:00 is exactly the 11:00 UTC boundary; adjacency stays legal
	// across offsets too.
	adj := &model.Booking{
		UserID:    u2,
		SubSpotID: ss,
		StartTime: time.Date(2024, 1, 1, 16, 0, 0, 0, tz),
		EndTime:   time.Date(2024, 1, 1, 17, 0, 0, 0, tz),
	}
	require.NoError(t, s.InsertBooking(context.Background(), adj))
	assert.Equal(t, time.UTC, adj.StartTime.Location())
	assert.True(t, adj.StartTime.Equal(at(11, 0)))
}

func TestInsertBookingUnknownSubSpot(t *testing.T) {
	s, gdb := newSQLiteStore(t)
	u1, _, _ := seedCatalog(t, gdb)

	err := s.InsertBooking(context.Background(), &model.Booking{
		UserID:    u1,
		SubSpotID: 999999,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	assert.ErrorIs(t, err, ErrSubSpotNotFound)
}

func TestTranslateBookingErr(t *testing.T) {
	assert.ErrorIs(t, translateBookingErr(&pgconn.PgError{Code: "23P01"}), ErrOverlap)
	assert.ErrorIs(t, translateBookingErr(&pgconn.PgError{Code: "23503"}), ErrSubSpotNotFound)

	other := &pgconn.PgError{Code: "23505"}
	assert.NotErrorIs(t, translateBookingErr(other), ErrOverlap)

	sqliteErr := errors.New("constraint failed: " + db.OverlapAbortMessage)
	assert.ErrorIs(t, translateBookingErr(sqliteErr), ErrOverlap)

	fkErr := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")
	assert.ErrorIs(t, translateBookingErr(fkErr), ErrSubSpotNotFound)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, translateBookingErr(plain))
}
