package rpc_test

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/api/rpc"
	"github.com/kasuganosora/goblintable/audit"
	"github.com/kasuganosora/goblintable/config"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/goblin"
	"github.com/kasuganosora/goblintable/middleware"
	"github.com/kasuganosora/goblintable/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *fakeRecorder) Log(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *fakeRecorder) all() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

func newRouter(t *testing.T) (*gin.Engine, *fakeRecorder) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	svc := table.NewService(db, ps, config.DefaultTableConfig(), zap.NewNop(),
		table.WithIntN(func(n int) int { return n - 1 }))
	gen := goblin.NewGenerator(rand.NewPCG(1, 2))

	reg := rpc.NewRegistry()
	rpc.Register(reg, svc, gen)
	rec := &fakeRecorder{}

	r := gin.New()
	r.Use(middleware.TraceID())
	rpc.NewHandler(reg, rec, zap.NewNop()).Register(r.Group("/api"))
	return r, rec
}

type response struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
	ErrorCode    string          `json:"errorCode"`
}

func call(t *testing.T, r *gin.Engine, kind, path string, args any) (int, response) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"path": path, "args": args})
	require.NoError(t, err)
	return post(t, r, "/api/"+kind, string(body))
}

func post(t *testing.T, r *gin.Engine, url, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createTable(t *testing.T, r *gin.Engine, slug, session string) table.CreateResult {
	t.Helper()
	code, resp := call(t, r, "mutation", "tables.createTable", map[string]any{
		"slug": slug, "sessionId": session, "nickname": "Mestre",
	})
	require.Equal(t, http.StatusOK, code, resp.ErrorMessage)
	return decode[table.CreateResult](t, resp.Value)
}

func TestRPC_CreateAndJoin(t *testing.T) {
	r, _ := newRouter(t)
	created := createTable(t, r, "caverna", "master-session")
	assert.Positive(t, created.TableID)

	code, resp := call(t, r, "mutation", "players.joinTable", map[string]any{
		"slug": "caverna", "sessionId": "s2", "nickname": "Gob",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)
	joined := decode[table.JoinResult](t, resp.Value)
	assert.Equal(t, created.TableID, joined.TableID)
	assert.False(t, joined.IsMaster)

	code, resp = call(t, r, "query", "players.getTablePlayers", map[string]any{"tableId": created.TableID})
	require.Equal(t, http.StatusOK, code)
	players := decode[[]map[string]any](t, resp.Value)
	require.Len(t, players, 2)
	assert.NotContains(t, players[0], "sessionId")
}

func TestRPC_ErrorMapping(t *testing.T) {
	r, _ := newRouter(t)
	created := createTable(t, r, "toca", "master")
	call(t, r, "mutation", "players.joinTable", map[string]any{"slug": "toca", "sessionId": "other", "nickname": "B"})

	tests := []struct {
		name   string
		path   string
		args   map[string]any
		status int
		code   string
	}{
		{"duplicate slug", "tables.createTable",
			map[string]any{"slug": "toca", "sessionId": "x", "nickname": "X"},
			http.StatusConflict, table.CodeAlreadyExists},
		{"unknown slug", "players.joinTable",
			map[string]any{"slug": "nowhere", "sessionId": "x", "nickname": "X"},
			http.StatusNotFound, table.CodeNotFound},
		{"non-master kick", "players.kickPlayer",
			map[string]any{"tableId": created.TableID, "sessionId": "other", "playerId": created.PlayerID},
			http.StatusForbidden, table.CodeForbidden},
		{"bad dice", "diceRolls.rollDice",
			map[string]any{"tableId": created.TableID, "sessionId": "master", "dice": "d1"},
			http.StatusBadRequest, table.CodeInvalidArgument},
		{"missing field", "messages.sendMessage",
			map[string]any{"tableId": created.TableID},
			http.StatusBadRequest, table.CodeInvalidArgument},
		{"not a player", "messages.sendMessage",
			map[string]any{"tableId": created.TableID, "sessionId": "stranger", "content": "oi"},
			http.StatusNotFound, table.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := call(t, r, "mutation", tt.path, tt.args)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.code, resp.ErrorCode)
			assert.NotEmpty(t, resp.ErrorMessage)
		})
	}
}

func TestRPC_CapacityExceeded(t *testing.T) {
	r, _ := newRouter(t)
	createTable(t, r, "lotado", "m")
	for i := 1; i < 12; i++ {
		code, _ := call(t, r, "mutation", "players.joinTable", map[string]any{
			"slug": "lotado", "sessionId": "s" + string(rune('a'+i)), "nickname": "G",
		})
		require.Equal(t, http.StatusOK, code)
	}
	code, resp := call(t, r, "mutation", "players.joinTable", map[string]any{
		"slug": "lotado", "sessionId": "late", "nickname": "G",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, table.CodeCapacityExceeded, resp.ErrorCode)
}

func TestRPC_RollDiceAndHistory(t *testing.T) {
	r, _ := newRouter(t)
	created := createTable(t, r, "dados", "m")

	code, resp := call(t, r, "mutation", "diceRolls.rollDice", map[string]any{
		"tableId": created.TableID, "sessionId": "m", "dice": "d20",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20, decode[table.RollResult](t, resp.Value).Result)

	// String ids are accepted too.
	code, resp = call(t, r, "query", "diceRolls.getDiceRolls", map[string]any{
		"tableId": strconv.FormatInt(created.TableID, 10),
	})
	require.Equal(t, http.StatusOK, code)
	rolls := decode[[]map[string]any](t, resp.Value)
	require.Len(t, rolls, 1)
	assert.Equal(t, "d20", rolls[0]["dice"])

	code, resp = call(t, r, "query", "messages.getMessages", map[string]any{})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(resp.Value))
}

func TestRPC_BadTableID(t *testing.T) {
	r, _ := newRouter(t)
	code, resp := post(t, r, "/api/mutation",
		`{"path":"messages.sendMessage","args":{"tableId":"abc","sessionId":"m","content":"oi"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, table.CodeInvalidArgument, resp.ErrorCode)
}

func TestRPC_GetTableBySlugMissingIsNull(t *testing.T) {
	r, _ := newRouter(t)
	code, resp := call(t, r, "query", "tables.getTableBySlug", map[string]any{"slug": "ghost"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Value))
}

func TestRPC_DeleteTableGoneIsNull(t *testing.T) {
	r, _ := newRouter(t)
	created := createTable(t, r, "apagar", "m")
	args := map[string]any{"tableId": created.TableID, "sessionId": "m"}

	code, resp := call(t, r, "mutation", "tables.deleteTable", args)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"deleted":true}`, string(resp.Value))

	code, resp = call(t, r, "mutation", "tables.deleteTable", args)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Value))
}

func TestRPC_Goblins(t *testing.T) {
	r, _ := newRouter(t)
	code, resp := call(t, r, "query", "goblins.generate", nil)
	require.Equal(t, http.StatusOK, code)
	g := decode[goblin.Goblin](t, resp.Value)
	require.NotEmpty(t, g.Seed)
	assert.NotEqual(t, goblin.FallbackSeed, g.Seed)

	code, resp = call(t, r, "query", "goblins.decode", map[string]any{"seed": g.Seed})
	require.Equal(t, http.StatusOK, code)
	back := decode[goblin.Goblin](t, resp.Value)
	assert.Equal(t, g.Name, back.Name)
	assert.Equal(t, g.Attributes, back.Attributes)

	code, resp = call(t, r, "query", "goblins.decode", map[string]any{"seed": "not-valid-base64!!"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Value))
}

func TestRPC_UnknownPathAndKindSeparation(t *testing.T) {
	r, _ := newRouter(t)
	code, resp := call(t, r, "query", "nope.nothing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, rpc.CodeUnknownFunction, resp.ErrorCode)

	// Mutations are not reachable through the query endpoint.
	code, resp = call(t, r, "query", "tables.createTable", map[string]any{"slug": "x", "sessionId": "y", "nickname": "z"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, rpc.CodeUnknownFunction, resp.ErrorCode)
}

func TestRPC_MalformedBody(t *testing.T) {
	r, _ := newRouter(t)
	for _, body := range []string{`{`, `{"args":{}}`, `[]`} {
		code, resp := post(t, r, "/api/mutation", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, table.CodeInvalidArgument, resp.ErrorCode, body)
	}
}

func TestRPC_AuditsMutationsOnly(t *testing.T) {
	r, rec := newRouter(t)
	created := createTable(t, r, "auditada", "m-session")
	call(t, r, "query", "players.getTablePlayers", map[string]any{"tableId": created.TableID})
	call(t, r, "mutation", "players.kickPlayer", map[string]any{
		"tableId": created.TableID, "sessionId": "intruder", "playerId": created.PlayerID,
	})

	entries := rec.all()
	require.Len(t, entries, 2)

	assert.Equal(t, "tables.createTable", entries[0].Action)
	require.NotNil(t, entries[0].TableID)
	assert.Equal(t, created.TableID, *entries[0].TableID)
	assert.Empty(t, entries[0].ErrorCode)
	assert.NotEmpty(t, entries[0].TraceID)

	assert.Equal(t, "players.kickPlayer", entries[1].Action)
	assert.Equal(t, table.CodeForbidden, entries[1].ErrorCode)
}

func TestRegistry_Paths(t *testing.T) {
	reg := rpc.NewRegistry()
	rpc.Register(reg, nil, nil)
	paths := reg.Paths()
	for _, p := range []string{
		"tables.createTable", "tables.deleteTable", "tables.getTableBySlug",
		"players.joinTable", "players.leaveTable", "players.kickPlayer",
		"players.updateGoblin", "players.getTablePlayers",
		"messages.sendMessage", "messages.getMessages",
		"diceRolls.rollDice", "diceRolls.getDiceRolls",
		"goblins.generate", "goblins.decode",
	} {
		assert.Contains(t, paths, p)
	}
}
