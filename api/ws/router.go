package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/kasuganosora/goblintable/game/relay"
	mw "github.com/kasuganosora/goblintable/middleware"
	"go.uber.org/zap"
)

// HandlerFunc processes the data of one relay event.
type HandlerFunc func(ctx context.Context, c *relay.Client, data json.RawMessage) error

// Router dispatches incoming relay frames to registered handlers.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates a new Router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// On registers a HandlerFunc for the given event name.
func (r *Router) On(event string, fn HandlerFunc) {
	r.handlers[event] = fn
}

// Dispatch decodes one frame and invokes the matching handler. Malformed
// frames and unknown events are logged and dropped.
func (r *Router) Dispatch(ctx context.Context, c *relay.Client, raw []byte) {
	var env relay.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn("malformed relay frame",
			zap.String("client_id", c.ID),
			zap.Error(err))
		return
	}

	fn, ok := r.handlers[env.Event]
	if !ok {
		r.logger.Debug("unhandled relay event",
			zap.String("event", env.Event),
			zap.String("client_id", c.ID))
		return
	}

	// Assign a trace ID for this dispatch.
	traceID := uuid.NewString()
	ctx = mw.WithTraceID(ctx, traceID)

	if err := fn(ctx, c, env.Data); err != nil {
		r.logger.Warn("relay handler error",
			zap.String("event", env.Event),
			zap.String("client_id", c.ID),
			zap.String("trace_id", traceID),
			zap.Error(err))
	}
}
