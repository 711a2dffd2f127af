package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"parkspot-backend/config"
	"parkspot-backend/internal/booking"
	"parkspot-backend/internal/live"
	"parkspot-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	bookings *booking.Service
	hub      *live.Hub
	cfg      *config.Config
	webpush  *webpush.Options
	logger   zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *booking.Service, hub *live.Hub, cfg *config.Config, webpushOptions *webpush.Options, logger zerolog.Logger) *Handler {
	return &Handler{
		store:    s,
		bookings: svc,
		hub:      hub,
		cfg:      cfg,
		webpush:  webpushOptions,
		logger:   logger,
	}
}
