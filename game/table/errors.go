package table

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Failure taxonomy. Every error returned by Service wraps exactly one of
// these, or is a store failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrForbidden        = errors.New("forbidden")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Error codes as exposed to clients.
const (
	CodeNotFound         = "NotFound"
	CodeAlreadyExists    = "AlreadyExists"
	CodeForbidden        = "Forbidden"
	CodeCapacityExceeded = "CapacityExceeded"
	CodeInvalidArgument  = "InvalidArgument"
	CodeInternal         = "Internal"
)

// Code classifies err into one of the client-facing error codes.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrCapacityExceeded):
		return CodeCapacityExceeded
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
