package handler

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultKeepAlive is how often an idle event stream receives a ping
const DefaultKeepAlive = 30 * time.Second

// Events handles GET /api/v1/events
// Streams job updates as server-sent events until the client goes away.
// The first event is always the connection message.
func (h *Handler) Events(c *gin.Context) {
	sub := h.events.Subscribe()
	defer sub.Close()

	h.logger.Info("Event stream opened", slog.String("ip", c.ClientIP()))

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(DefaultKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(msg.Type, msg)
			return true
		case <-ticker.C:
			c.SSEvent("ping", h.now())
			return true
		}
	})

	h.logger.Info("Event stream closed", slog.String("ip", c.ClientIP()))
}
