package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkspot-backend/internal/export"
)

func parseExportRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date; expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date; expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'to' must not precede 'from'"})
		return time.Time{}, time.Time{}, false
	}
	// The range is half-open: the 'to' day itself is included.
	return from, to.AddDate(0, 0, 1), true
}

// ExportBookingsCSV handles GET /api/admin/export/bookings.csv.
func (h *Handler) ExportBookingsCSV(c *gin.Context) {
	from, to, ok := parseExportRange(c)
	if !ok {
		return
	}

	bookings, err := h.store.ListBookingsInRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName("csv", from, to)+`"`)
	if err := export.WriteBookingsCSV(c.Writer, bookings); err != nil {
		h.logger.Error().Err(err).Msg("csv export failed mid-stream")
	}
}

// ExportBookingsXLSX handles GET /api/admin/export/bookings.xlsx.
func (h *Handler) ExportBookingsXLSX(c *gin.Context) {
	from, to, ok := parseExportRange(c)
	if !ok {
		return
	}

	bookings, err := h.store.ListBookingsInRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}

	f, err := export.BookingsXLSX(bookings, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName("xlsx", from, to)+`"`)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error().Err(err).Msg("xlsx export failed mid-stream")
	}
}
