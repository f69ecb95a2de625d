package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/goblintable/config"
	"github.com/kasuganosora/goblintable/game/relay"
	"go.uber.org/zap"
)

const (
	// maxFrameSize bounds one inbound frame; dice state is small.
	maxFrameSize      = 64 << 10
	disconnectTimeout = 5 * time.Second
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	hub      *relay.Hub
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(hub *relay.Hub, sec config.SecurityConfig, router *Router, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		router: router,
		logger: logger,
	}
	allowed := make(map[string]struct{}, len(sec.AllowedOrigins))
	for _, o := range sec.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
	return h
}

// ServeWS handles GET /ws. The relay is anonymous: a client is identified
// only by the id sent in its connected event.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrameSize)

	client := relay.NewClient(conn, h.logger)
	h.hub.Register(client)
	h.logger.Debug("relay client connected",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))

	// Blocks until the connection closes.
	h.readPump(client)
}

// readPump reads frames from the connection and dispatches them.
func (h *Handler) readPump(client *relay.Client) {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		h.hub.Disconnect(ctx, client)
	}()

	client.SetReadDeadline()
	client.Conn.SetPongHandler(func(string) error {
		client.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.String("client_id", client.ID),
					zap.Error(err))
			}
			return
		}
		// Reset read deadline on any message (heartbeat or otherwise).
		client.SetReadDeadline()
		h.router.Dispatch(context.Background(), client, raw)
	}
}
