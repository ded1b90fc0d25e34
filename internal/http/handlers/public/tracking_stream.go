package public

import (
	"io"
	"time"

	"github.com/padala-next/internal/cache"
	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const trackingHeartbeatInterval = 15 * time.Second

// StreamOrderTracking 以 SSE 推送订单实时位置
func (h *Handler) StreamOrderTracking(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if h.TrackingStream == nil || !cache.Enabled() {
		shared.RespondError(c, response.CodeServiceUnavailable, "live tracking unavailable", nil)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.AssignmentService.TrackOrder(ctx, orderID); err != nil {
		shared.RespondServiceError(c, err)
		return
	}

	sub := h.TrackingStream.Subscribe(ctx, orderID)
	if sub == nil {
		shared.RespondError(c, response.CodeServiceUnavailable, "live tracking unavailable", nil)
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	if last, err := h.TrackingStream.LastLocation(ctx, orderID); err != nil {
		shared.RequestLog(c).Warnw("tracking_stream_snapshot_failed", "order_id", orderID, "error", err)
	} else if last != nil {
		c.SSEvent("location", last)
		c.Writer.Flush()
	}

	messages := sub.Channel()
	heartbeat := time.NewTicker(trackingHeartbeatInterval)
	defer heartbeat.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("location", msg.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
