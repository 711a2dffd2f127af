package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parkspot-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering "sub-spot is free" pushes
// to viewers who watch a sub-spot. Jobs are sub-spot IDs queued when a
// booking on them ends or is cancelled.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	logger  zerolog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug().Int("worker", id).Msg("push worker started")
	for {
		select {
		case subSpotID := <-wp.jobs:
			wp.notifyWatchers(ctx, subSpotID)
		case <-ctx.Done():
			wp.logger.Debug().Int("worker", id).Msg("push worker shutting down")
			return
		}
	}
}

// Dispatch queues a sub-spot for watcher notification. Non-blocking: when
// the queue is full the job is dropped, since pushes are best-effort and
// must never slow the booking write path.
func (wp *WorkerPool) Dispatch(subSpotID int64) {
	select {
	case wp.jobs <- subSpotID:
	default:
		wp.logger.Warn().Int64("sub_spot_id", subSpotID).Msg("push queue full, dropping job")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// notifyWatchers sends a push to every subscription watching the sub-spot,
// unless it is still occupied right now (a later booking may cover the
// cancelled one's slot).
func (wp *WorkerPool) notifyWatchers(ctx context.Context, subSpotID int64) {
	now := time.Now().UTC()
	var occupied int64
	err := wp.db.WithContext(ctx).Model(&model.Booking{}).
		Where("sub_spot_id = ? AND status = ? AND start_time <= ? AND end_time > ?",
			subSpotID, model.BookingStatusActive, now, now).
		Count(&occupied).Error
	if err != nil {
		wp.logger.Error().Err(err).Int64("sub_spot_id", subSpotID).Msg("failed to check occupancy")
		return
	}
	if occupied > 0 {
		return
	}

	var watches []model.WatchSubscription
	err = wp.db.WithContext(ctx).
		Joins("JOIN watch_subspot_mapping wsm ON wsm.watch_subscription_endpoint = watch_subscriptions.endpoint").
		Where("wsm.sub_spot_id = ?", subSpotID).
		Find(&watches).Error
	if err != nil {
		wp.logger.Error().Err(err).Int64("sub_spot_id", subSpotID).Msg("failed to fetch watchers")
		return
	}
	if len(watches) == 0 {
		return
	}

	wp.logger.Info().Int("watchers", len(watches)).Int64("sub_spot_id", subSpotID).Msg("sending free-spot pushes")

	payload := []byte(fmt.Sprintf(`{"subSpotId":%d,"message":"A parking spot you watch is now free"}`, subSpotID))
	for _, w := range watches {
		wp.sendNotification(ctx, w, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, w model.WatchSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: w.Endpoint,
		Keys: webpush.Keys{
			P256dh: w.P256DH,
			Auth:   w.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Error().Err(err).Str("endpoint", w.Endpoint).Msg("push send failed")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info().Str("endpoint", w.Endpoint).Msg("watch subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Select("SubSpots").Delete(&w).Error; err != nil {
			wp.logger.Error().Err(err).Str("endpoint", w.Endpoint).Msg("failed to delete expired watch")
		}
	}
}
