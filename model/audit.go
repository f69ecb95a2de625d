package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one remote mutation call.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:64" json:"trace_id"`
	Action     string         `gorm:"size:64;not null" json:"action"` // e.g. "players.joinTable"
	TableID    *int64         `gorm:"index:idx_audit_table" json:"table_id"`
	Request    datatypes.JSON `json:"request"` // args with sessionId redacted
	ErrorCode  string         `gorm:"size:32" json:"error_code"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
