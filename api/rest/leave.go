package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/api/rpc"
	"github.com/kasuganosora/goblintable/game/table"
	"go.uber.org/zap"
)

// LeaveHandler serves the exit path browsers use while a page unloads,
// when the regular mutation endpoint can no longer be awaited.
type LeaveHandler struct {
	svc    *table.Service
	logger *zap.Logger
}

// NewLeaveHandler creates a LeaveHandler.
func NewLeaveHandler(svc *table.Service, logger *zap.Logger) *LeaveHandler {
	return &LeaveHandler{svc: svc, logger: logger}
}

type leaveRequest struct {
	TableID   rpc.ID `json:"tableId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// Leave removes the caller from a table.
// POST /leave
//
// The body is read as JSON whatever the Content-Type, since sendBeacon
// posts text/plain.
func (h *LeaveHandler) Leave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableId and sessionId are required"})
		return
	}
	if _, err := h.svc.LeaveTable(c.Request.Context(), int64(req.TableID), req.SessionID); err != nil {
		if errors.Is(err, table.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("leave failed", zap.Int64("table_id", int64(req.TableID)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
