package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/cache"
	"github.com/kasuganosora/goblintable/game/table"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Handler streams per-table change notifications as server-sent events.
type Handler struct {
	pubsub    cache.PubSub
	keepalive time.Duration
	logger    *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithKeepalive overrides the interval between keepalive comments.
func WithKeepalive(d time.Duration) Option {
	return func(h *Handler) { h.keepalive = d }
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{pubsub: pubsub, keepalive: defaultKeepalive, logger: logger}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ServeTable handles GET /api/tables/:id/events.
// Each committed mutation on the table arrives as one event named after its
// kind (players, messages, dice, deleted); clients refetch the matching
// query. The stream ends after a deleted event.
func (h *Handler) ServeTable(c *gin.Context) {
	tableID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || tableID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, table.Channel(tableID))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Int64("table_id", tableID), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	// Set SSE headers.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"table_id\":%d}\n\n", tableID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var ev table.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn("sse dropped malformed event", zap.String("payload", msg.Payload))
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Kind, msg.Payload)
			c.Writer.Flush()
			if ev.Kind == table.EventDeleted {
				return
			}

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
