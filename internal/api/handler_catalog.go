package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parkspot-backend/internal/model"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// GetRegions handles GET /api/regions.
func (h *Handler) GetRegions(c *gin.Context) {
	regions, err := h.store.ListRegions(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve regions"})
		return
	}
	c.JSON(http.StatusOK, regions)
}

// GetAreas handles GET /api/regions/{region_id}/areas.
func (h *Handler) GetAreas(c *gin.Context) {
	regionID, ok := pathID(c, "region_id")
	if !ok {
		return
	}
	areas, err := h.store.ListAreas(c.Request.Context(), regionID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve areas"})
		return
	}
	c.JSON(http.StatusOK, areas)
}

// GetSpots handles GET /api/areas/{area_id}/spots.
func (h *Handler) GetSpots(c *gin.Context) {
	areaID, ok := pathID(c, "area_id")
	if !ok {
		return
	}
	spots, err := h.store.ListSpots(c.Request.Context(), areaID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve spots"})
		return
	}
	c.JSON(http.StatusOK, spots)
}

// subSpotStatusResponse is the flattened structure for the sub-spot listing.
type subSpotStatusResponse struct {
	model.SubSpot
	Occupied    bool       `json:"occupied"`
	OccupiedBy  *int64     `json:"occupiedBy,omitempty"`
	ActiveSince *time.Time `json:"activeSince,omitempty"`
	ActiveUntil *time.Time `json:"activeUntil,omitempty"`
}

// GetSubSpots handles GET /api/spots/{spot_id}/subspots. Each sub-spot
// carries its current free/busy state resolved from active bookings. This
// is a rendering hint only; the authoritative answer is the insert outcome.
func (h *Handler) GetSubSpots(c *gin.Context) {
	spotID, ok := pathID(c, "spot_id")
	if !ok {
		return
	}

	subSpots, err := h.store.ListSubSpots(c.Request.Context(), spotID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve sub-spots"})
		return
	}

	ids := make([]int64, len(subSpots))
	for i, ss := range subSpots {
		ids[i] = ss.ID
	}

	active, err := h.store.ActiveNowBulk(c.Request.Context(), ids, time.Now().UTC())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve occupancy"})
		return
	}

	response := make([]subSpotStatusResponse, 0, len(subSpots))
	for _, ss := range subSpots {
		item := subSpotStatusResponse{SubSpot: ss}
		if info, busy := active[ss.ID]; busy {
			item.Occupied = true
			uid := info.UserID
			since := info.StartTime
			until := info.EndTime
			item.OccupiedBy = &uid
			item.ActiveSince = &since
			item.ActiveUntil = &until
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, response)
}
