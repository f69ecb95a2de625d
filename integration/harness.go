package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apirest "github.com/kasuganosora/goblintable/api/rest"
	"github.com/kasuganosora/goblintable/api/rpc"
	"github.com/kasuganosora/goblintable/api/sse"
	apiws "github.com/kasuganosora/goblintable/api/ws"
	"github.com/kasuganosora/goblintable/audit"
	"github.com/kasuganosora/goblintable/cache"
	"github.com/kasuganosora/goblintable/config"
	"github.com/kasuganosora/goblintable/game/relay"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/goblin"
	mw "github.com/kasuganosora/goblintable/middleware"
	"github.com/kasuganosora/goblintable/scheduler"
	"github.com/kasuganosora/goblintable/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminKey is the admin key every test server is started with.
const AdminKey = "integration-admin-key"

// Infra is the shared storage several server instances can sit on.
type Infra struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
}

// NewInfra creates an in-memory database and local cache.
func NewInfra(t *testing.T) *Infra {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	return &Infra{DB: db, Cache: c, PubSub: ps}
}

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	Infra  *Infra
	Tables *table.Service
	Hub    *relay.Hub
	Audit  *audit.Service
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	WSURL  string // ws://127.0.0.1:<port>/ws
}

// NewTestServer creates a fully wired server on fresh infrastructure.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerOn(t, NewInfra(t))
}

// NewTestServerOn creates a server instance on existing infrastructure.
// It mirrors the dependency wiring in main.go.
func NewTestServerOn(t *testing.T, infra *Infra) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	sec := config.SecurityConfig{
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}

	// ---- Services ----
	auditSvc := audit.New(infra.DB, logger)
	tableSvc := table.NewService(infra.DB, infra.PubSub, config.DefaultTableConfig(), logger)
	gen := goblin.NewGenerator(nil, goblin.WithLogger(logger))
	hub := relay.NewHub(relay.NewCacheStore(infra.Cache), infra.PubSub, logger)
	require.NoError(t, hub.Start(ctx))
	sched := scheduler.New(logger)

	// ---- Router ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	r.GET("/health", apirest.Health(infra.DB))
	r.POST("/leave", apirest.NewLeaveHandler(tableSvc, logger).Leave)

	reg := rpc.NewRegistry()
	rpc.Register(reg, tableSvc, gen)
	goblinH := apirest.NewGoblinHandler(gen)
	adminH := apirest.NewAdminHandler(tableSvc, hub, sched, logger)

	api := r.Group("/api")
	{
		rpc.NewHandler(reg, auditSvc, logger).Register(api)
		api.GET("/goblins/random", goblinH.Random)
		api.GET("/goblins/decode", goblinH.Decode)
		api.GET("/tables/:id/events", sse.NewHandler(infra.PubSub, logger).ServeTable)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(sec.AdminIPs), apirest.AdminAuth(AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/tables", adminH.ListTables)
		adminG.DELETE("/tables/:id", adminH.DeleteTable)
	}

	wsRouter := apiws.NewRouter(logger)
	apiws.RegisterRelayHandlers(wsRouter, hub)
	r.GET("/ws", apiws.NewHandler(hub, sec, wsRouter, logger).ServeWS)

	server := httptest.NewServer(r)
	ts := &TestServer{
		Infra:  infra,
		Tables: tableSvc,
		Hub:    hub,
		Audit:  auditSvc,
		Server: server,
		URL:    server.URL,
		WSURL:  "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
	}
	t.Cleanup(func() {
		server.Close()
		sched.Stop()
		cancel()
		auditSvc.Stop(context.Background())
	})
	return ts
}

// --- HTTP helpers ---

// PostJSON sends a POST request with a JSON body.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Do sends a request with an optional admin key.
func (ts *TestServer) Do(t *testing.T, method, path, adminKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// RPCResult is the envelope returned by the query and mutation endpoints.
type RPCResult struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
	ErrorCode    string          `json:"errorCode"`
}

// Mutation calls a named mutation and returns the HTTP status and envelope.
func (ts *TestServer) Mutation(t *testing.T, path string, args any) (int, RPCResult) {
	t.Helper()
	return ts.call(t, "/api/mutation", path, args)
}

// Query calls a named query.
func (ts *TestServer) Query(t *testing.T, path string, args any) (int, RPCResult) {
	t.Helper()
	return ts.call(t, "/api/query", path, args)
}

func (ts *TestServer) call(t *testing.T, endpoint, path string, args any) (int, RPCResult) {
	t.Helper()
	resp := ts.PostJSON(t, endpoint, map[string]any{"path": path, "args": args})
	var out RPCResult
	ReadJSON(t, resp, &out)
	return resp.StatusCode, out
}

// MustMutation calls a mutation, requires success and decodes the value.
func MustMutation[T any](t *testing.T, ts *TestServer, path string, args any) T {
	t.Helper()
	code, res := ts.Mutation(t, path, args)
	require.Equal(t, http.StatusOK, code, "%s: %s", path, res.ErrorMessage)
	var v T
	require.NoError(t, json.Unmarshal(res.Value, &v))
	return v
}

// MustQuery calls a query, requires success and decodes the value.
func MustQuery[T any](t *testing.T, ts *TestServer, path string, args any) T {
	t.Helper()
	code, res := ts.Query(t, path, args)
	require.Equal(t, http.StatusOK, code, "%s: %s", path, res.ErrorMessage)
	var v T
	require.NoError(t, json.Unmarshal(res.Value, &v))
	return v
}

// --- Relay helpers ---

// RelayClient is a websocket peer of the dice relay.
type RelayClient struct {
	t    *testing.T
	Conn *websocket.Conn
	ID   string
}

// DialRelay connects to the relay and consumes the connected greeting.
func (ts *TestServer) DialRelay(t *testing.T) *RelayClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.WSURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	rc := &RelayClient{t: t, Conn: conn}
	env := rc.Recv()
	require.Equal(t, relay.EventConnected, env.Event)
	require.NoError(t, json.Unmarshal(env.Data, &rc.ID))
	return rc
}

// Send writes one relay event.
func (rc *RelayClient) Send(event string, data any) {
	rc.t.Helper()
	d, err := json.Marshal(data)
	require.NoError(rc.t, err)
	require.NoError(rc.t, rc.Conn.WriteJSON(relay.Envelope{Event: event, Data: d}))
}

// Recv reads the next relay event or fails after two seconds.
func (rc *RelayClient) Recv() relay.Envelope {
	rc.t.Helper()
	require.NoError(rc.t, rc.Conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env relay.Envelope
	require.NoError(rc.t, rc.Conn.ReadJSON(&env))
	return env
}

// Expect reads events until one named event arrives.
func (rc *RelayClient) Expect(event string) relay.Envelope {
	rc.t.Helper()
	for {
		env := rc.Recv()
		if env.Event == event {
			return env
		}
	}
}
