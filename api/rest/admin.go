package rest

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/scheduler"
	"go.uber.org/zap"
)

// RelayStats is the slice of the relay hub the admin endpoints read.
type RelayStats interface {
	ClientCount() int
	RoomCount(ctx context.Context) (int, error)
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	svc    *table.Service
	relay  RelayStats
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler. relay may be nil when the socket
// relay is disabled.
func NewAdminHandler(
	svc *table.Service,
	relay RelayStats,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{svc: svc, relay: relay, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("admin stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	out := gin.H{
		"tables":          stats.Tables,
		"players":         stats.Players,
		"messages":        stats.Messages,
		"dice_rolls":      stats.Rolls,
		"scheduler_tasks": h.sched.ListTickers(),
	}
	if h.relay != nil {
		rooms, err := h.relay.RoomCount(c.Request.Context())
		if err != nil {
			h.logger.Warn("relay room count failed", zap.Error(err))
			rooms = -1
		}
		out["relay_clients"] = h.relay.ClientCount()
		out["relay_rooms"] = rooms
	}
	c.JSON(http.StatusOK, out)
}

// ListTables returns every table with its player count, most recently
// active first.
// GET /api/admin/tables
func (h *AdminHandler) ListTables(c *gin.Context) {
	tables, err := h.svc.ListTables(c.Request.Context())
	if err != nil {
		h.logger.Error("admin list tables failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables, "count": len(tables)})
}

// DeleteTable cascade-deletes a table regardless of who is seated.
// DELETE /api/admin/tables/:id
func (h *AdminHandler) DeleteTable(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	deleted, err := h.svc.ForceDelete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("admin delete table failed", zap.Int64("table_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	h.logger.Info("admin deleted table", zap.Int64("table_id", id))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
