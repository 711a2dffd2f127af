package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkspot-backend/internal/booking"
	"parkspot-backend/internal/mw"
	"parkspot-backend/internal/store"
)

type createBookingRequest struct {
	SubSpotID   int64     `json:"subSpotId" binding:"required"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	Comment     string    `json:"comment"`
	VehicleType string    `json:"vehicleType" binding:"omitempty,oneof=car motorcycle truck"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), mw.UserID(c), req.SubSpotID,
		req.StartTime, req.EndTime, req.Comment, req.VehicleType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "end time must be after start time"})
		case errors.Is(err, store.ErrSubSpotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "sub-spot not found"})
		case errors.Is(err, store.ErrOverlap):
			c.JSON(http.StatusConflict, gin.H{"error": "slot already booked for part or all of that period"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create booking"})
		}
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetMyBookings handles GET /api/bookings: the caller's bookings, newest
// first, cancelled history included.
func (h *Handler) GetMyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListMine(c.Request.Context(), mw.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

type editBookingRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// EditBooking handles PATCH /api/bookings/{booking_id} (comment only).
func (h *Handler) EditBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "booking_id")
	if !ok {
		return
	}

	var req editBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.bookings.EditComment(c.Request.Context(), mw.UserID(c), bookingID, req.Comment)
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelBooking handles DELETE /api/bookings/{booking_id} (soft cancel).
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "booking_id")
	if !ok {
		return
	}

	err := h.bookings.Cancel(c.Request.Context(), mw.UserID(c), bookingID)
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel booking"})
		return
	}
	c.Status(http.StatusNoContent)
}
