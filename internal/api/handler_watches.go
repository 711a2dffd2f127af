package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkspot-backend/internal/model"
)

type putWatchRequest struct {
	Endpoint        string  `json:"endpoint" binding:"required"`
	P256DH          string  `json:"p256dh" binding:"required"`
	Auth            string  `json:"auth" binding:"required"`
	WatchedSubSpots []int64 `json:"watched_sub_spots"`
}

// PutWatch creates or replaces a push watch: the set of sub-spots the
// browser wants a "now free" notification for.
func (h *Handler) PutWatch(c *gin.Context) {
	var req putWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	watch := model.WatchSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&watch).Error; err != nil {
			return err
		}

		var subSpots []model.SubSpot
		if len(req.WatchedSubSpots) > 0 {
			if err := tx.Find(&subSpots, req.WatchedSubSpots).Error; err != nil {
				return err
			}
		}

		return tx.Model(&watch).Association("SubSpots").Replace(&subSpots)
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteWatchRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteWatch removes a push watch.
func (h *Handler) DeleteWatch(c *gin.Context) {
	var req deleteWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.DB().Select("SubSpots").Delete(&model.WatchSubscription{Endpoint: req.Endpoint}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true // endpoint is matched verbatim, no URL decoding
		}
	}
	return "", false
}

// GetWatch returns the sub-spots a push endpoint currently watches.
func (h *Handler) GetWatch(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var watch model.WatchSubscription
	if err := h.store.DB().Preload("SubSpots").First(&watch, "endpoint = ?", raw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "watch not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ids := make([]int64, len(watch.SubSpots))
	for i, ss := range watch.SubSpots {
		ids[i] = ss.ID
	}

	c.JSON(http.StatusOK, gin.H{"watched_sub_spots": ids})
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
