package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"platewatch-service/internal/domain/platewatch"
)

const (
	detectionEvent = "detection"
	wsWriteTimeout = 10 * time.Second
)

// streamDetectionsSSE holds the connection open and writes one "detection"
// event per newly created record until the client goes away.
func (h *Handler) streamDetectionsSSE(c *gin.Context) {
	sub := h.broadcaster.Subscribe()
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	var keepalive <-chan time.Time
	if h.config != nil && h.config.Stream.Keepalive > 0 {
		ticker := time.NewTicker(time.Duration(h.config.Stream.Keepalive) * time.Second)
		defer ticker.Stop()
		keepalive = ticker.C
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case det, ok := <-sub.C:
			if !ok {
				return
			}
			if err := sse.Encode(c.Writer, sse.Event{Event: detectionEvent, Data: det}); err != nil {
				h.log.Debug().Err(err).Uint64("subscriber_id", sub.ID).Msg("sse write failed")
				return
			}
			c.Writer.Flush()
		case <-keepalive:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

type wsMessage struct {
	Event string               `json:"event"`
	Data  platewatch.Detection `json:"data"`
}

// streamDetectionsWS is the WebSocket variant of the live feed. Messages from
// the client are read and discarded; a read error ends the subscription.
func (h *Handler) streamDetectionsWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.broadcaster.Subscribe()
	defer sub.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case det, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(wsMessage{Event: detectionEvent, Data: det}); err != nil {
				h.log.Debug().Err(err).Uint64("subscriber_id", sub.ID).Msg("websocket write failed")
				return
			}
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.config == nil || h.config.Server.CORSOrigin == "*" {
		return true
	}
	return origin == h.config.Server.CORSOrigin
}
