package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

// LiveStream handles GET /api/live: an SSE stream of booking start/end
// events plus periodic liveness markers. There is no replay; clients render
// initial state from the sub-spot listing and apply these deltas on top.
func (h *Handler) LiveStream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(msg.Name, msg.Data)
			return true
		case <-clientGone:
			return false
		}
	})
}
