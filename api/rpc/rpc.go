// Package rpc exposes the table service as named remote functions over HTTP:
// POST /api/mutation and POST /api/query with a {path, args} body.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kasuganosora/goblintable/audit"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/middleware"
	"go.uber.org/zap"
)

// CodeUnknownFunction is returned when no function is registered under path.
const CodeUnknownFunction = "UnknownFunction"

// Func is one remote-callable function operating on raw JSON args.
type Func func(ctx context.Context, args json.RawMessage) (any, error)

// Bind adapts a typed function into a Func. Args are decoded and validated
// with gin's JSON binding; any decode or validation failure is reported as
// an invalid argument.
func Bind[A, R any](fn func(ctx context.Context, args A) (R, error)) Func {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) == 0 || string(raw) == "null" {
			raw = json.RawMessage("{}")
		}
		if err := binding.JSON.BindBody(raw, &args); err != nil {
			return nil, fmt.Errorf("%w: %v", table.ErrInvalidArgument, err)
		}
		return fn(ctx, args)
	}
}

// Registry maps function paths to implementations, split by kind.
type Registry struct {
	queries   map[string]Func
	mutations map[string]Func
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		queries:   make(map[string]Func),
		mutations: make(map[string]Func),
	}
}

// Query registers a read-only function.
func (r *Registry) Query(path string, fn Func) { r.queries[path] = fn }

// Mutation registers a state-changing function. Mutations are audited.
func (r *Registry) Mutation(path string, fn Func) { r.mutations[path] = fn }

// Paths lists every registered path, queries first, each group sorted.
func (r *Registry) Paths() []string {
	return append(sortedKeys(r.queries), sortedKeys(r.mutations)...)
}

func sortedKeys(m map[string]Func) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ID accepts a record id as a JSON number or a numeric string.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 1 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id %q is not an integer", b)
	}
	*id = ID(n)
	return nil
}

// Recorder receives one entry per mutation call.
type Recorder interface {
	Log(audit.Entry)
}

// Handler serves the registry over gin.
type Handler struct {
	reg    *Registry
	audit  Recorder
	logger *zap.Logger
}

// NewHandler creates a Handler. rec may be nil to disable auditing.
func NewHandler(reg *Registry, rec Recorder, logger *zap.Logger) *Handler {
	return &Handler{reg: reg, audit: rec, logger: logger}
}

// Register mounts the query and mutation endpoints on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/query", h.Query)
	rg.POST("/mutation", h.Mutation)
}

type request struct {
	Path string          `json:"path" binding:"required"`
	Args json.RawMessage `json:"args"`
}

// Query handles POST /api/query.
func (h *Handler) Query(c *gin.Context) {
	h.serve(c, h.reg.queries, false)
}

// Mutation handles POST /api/mutation.
func (h *Handler) Mutation(c *gin.Context) {
	h.serve(c, h.reg.mutations, true)
}

func (h *Handler) serve(c *gin.Context, fns map[string]Func, audited bool) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, table.CodeInvalidArgument, "malformed request body")
		return
	}
	fn, ok := fns[req.Path]
	if !ok {
		writeError(c, http.StatusNotFound, CodeUnknownFunction, "no function registered at "+req.Path)
		return
	}

	start := time.Now()
	value, err := fn(c.Request.Context(), req.Args)
	elapsed := time.Since(start)

	if audited && h.audit != nil {
		h.record(c, req, value, err, elapsed)
	}

	if err != nil {
		code := table.Code(err)
		status := statusFor(code)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("rpc failed",
				zap.String("path", req.Path),
				zap.String("trace_id", middleware.GetTraceID(c)),
				zap.Error(err))
			msg = "internal server error"
		} else {
			h.logger.Debug("rpc rejected",
				zap.String("path", req.Path),
				zap.String("code", code),
				zap.Error(err))
		}
		writeError(c, status, code, msg)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "value": value})
}

func (h *Handler) record(c *gin.Context, req request, value any, err error, elapsed time.Duration) {
	entry := audit.Entry{
		TraceID:    middleware.GetTraceID(c),
		Action:     req.Path,
		TableID:    auditTableID(req.Args, value),
		Args:       req.Args,
		IP:         c.ClientIP(),
		DurationMs: int(elapsed.Milliseconds()),
	}
	if err != nil {
		entry.ErrorCode = table.Code(err)
		entry.Error = err.Error()
	}
	h.audit.Log(entry)
}

// auditTableID prefers the tableId argument and falls back to the id the
// call produced.
func auditTableID(args json.RawMessage, value any) *int64 {
	var probe struct {
		TableID ID `json:"tableId"`
	}
	if json.Unmarshal(args, &probe) == nil && probe.TableID > 0 {
		id := int64(probe.TableID)
		return &id
	}
	switch v := value.(type) {
	case *table.CreateResult:
		if v != nil {
			return &v.TableID
		}
	case *table.JoinResult:
		if v != nil {
			return &v.TableID
		}
	}
	return nil
}

func statusFor(code string) int {
	switch code {
	case table.CodeNotFound:
		return http.StatusNotFound
	case table.CodeAlreadyExists, table.CodeCapacityExceeded:
		return http.StatusConflict
	case table.CodeForbidden:
		return http.StatusForbidden
	case table.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"status":       "error",
		"errorMessage": msg,
		"errorCode":    code,
	})
}

