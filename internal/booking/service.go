package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"parkspot-backend/internal/live"
	"parkspot-backend/internal/metrics"
	"parkspot-backend/internal/model"
	"parkspot-backend/internal/store"
)

// ErrNotFound covers missing, foreign and already-cancelled bookings alike.
// The three cases are deliberately indistinguishable to the caller.
var ErrNotFound = errors.New("booking not found")

// Broadcaster pushes booking lifecycle events to connected viewers.
type Broadcaster interface {
	Broadcast(ev live.Event)
}

// FreeDispatcher queues a sub-spot that may have become free, for the
// web-push watch notifications.
type FreeDispatcher interface {
	Dispatch(subSpotID int64)
}

// Service validates and orchestrates booking operations between the store
// and the live/push side channels. It holds no locks: overlap correctness
// is owned entirely by the database constraint.
type Service struct {
	store      store.Store
	broadcast  Broadcaster
	dispatcher FreeDispatcher
	logger     zerolog.Logger
}

// NewService wires a booking service. broadcast and dispatcher may be nil
// in tests that only exercise validation.
func NewService(s store.Store, broadcast Broadcaster, dispatcher FreeDispatcher, logger zerolog.Logger) *Service {
	return &Service{store: s, broadcast: broadcast, dispatcher: dispatcher, logger: logger}
}

// Create books [start, end) on a sub-spot for the caller. The end > start
// check is repeated here as a cheap fail-fast so the common bad request
// never reaches the database; the store enforces it again regardless.
func (svc *Service) Create(ctx context.Context, userID, subSpotID int64, start, end time.Time, comment, vehicleType string) (*model.Booking, error) {
	if !end.After(start) {
		metrics.IncBookingOutcome("invalid")
		return nil, store.ErrInvalidRange
	}

	b := &model.Booking{
		UserID:      userID,
		SubSpotID:   subSpotID,
		StartTime:   start,
		EndTime:     end,
		Comment:     comment,
		VehicleType: vehicleType,
	}

	if err := svc.store.InsertBooking(ctx, b); err != nil {
		switch {
		case errors.Is(err, store.ErrOverlap):
			metrics.IncBookingOutcome("conflict")
		case errors.Is(err, store.ErrInvalidRange), errors.Is(err, store.ErrSubSpotNotFound):
			metrics.IncBookingOutcome("invalid")
		default:
			metrics.IncBookingOutcome("error")
			svc.logger.Error().Err(err).Int64("sub_spot_id", subSpotID).Msg("booking insert failed")
		}
		return nil, err
	}

	metrics.IncBookingOutcome("created")
	svc.logger.Info().
		Int64("booking_id", b.ID).
		Int64("user_id", userID).
		Int64("sub_spot_id", subSpotID).
		Time("start", start).
		Time("end", end).
		Msg("booking created")

	if svc.broadcast != nil {
		st := b.StartTime
		svc.broadcast.Broadcast(live.Event{
			Event:     live.EventStart,
			SubSpotID: b.SubSpotID,
			UserID:    b.UserID,
			StartTime: &st,
		})
	}
	return b, nil
}

// Cancel soft-cancels the caller's active booking. A false from the store
// maps to ErrNotFound without revealing which of the conflated cases hit.
func (svc *Service) Cancel(ctx context.Context, userID, bookingID int64) error {
	cancelled, ok, err := svc.store.CancelBooking(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	svc.logger.Info().
		Int64("booking_id", bookingID).
		Int64("user_id", userID).
		Int64("sub_spot_id", cancelled.SubSpotID).
		Msg("booking cancelled")

	if svc.broadcast != nil {
		svc.broadcast.Broadcast(live.Event{
			Event:     live.EventEnd,
			SubSpotID: cancelled.SubSpotID,
			UserID:    cancelled.UserID,
		})
	}
	if svc.dispatcher != nil {
		svc.dispatcher.Dispatch(cancelled.SubSpotID)
	}
	return nil
}

// EditComment updates the comment on the caller's active booking.
func (svc *Service) EditComment(ctx context.Context, userID, bookingID int64, comment string) error {
	ok, err := svc.store.UpdateBookingComment(ctx, bookingID, userID, comment)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListMine returns the caller's bookings, newest-created first, history
// included.
func (svc *Service) ListMine(ctx context.Context, userID int64) ([]model.Booking, error) {
	return svc.store.ListBookingsForUser(ctx, userID)
}
