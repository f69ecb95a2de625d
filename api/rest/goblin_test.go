package rest_test

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/api/rest"
	"github.com/kasuganosora/goblintable/goblin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoblinRouter() *gin.Engine {
	h := rest.NewGoblinHandler(goblin.NewGenerator(rand.NewPCG(7, 7)))
	r := gin.New()
	r.GET("/api/goblins/random", h.Random)
	r.GET("/api/goblins/decode", h.Decode)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGoblin_RandomThenDecode(t *testing.T) {
	r := newGoblinRouter()
	w := get(r, "/api/goblins/random")
	require.Equal(t, http.StatusOK, w.Code)

	var g goblin.Goblin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	require.NotEmpty(t, g.Seed)
	assert.Equal(t, 1, g.Level)

	w = get(r, "/api/goblins/decode?seed="+url.QueryEscape(g.Seed))
	require.Equal(t, http.StatusOK, w.Code)
	var back goblin.Goblin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &back))
	assert.Equal(t, g.Name, back.Name)
	assert.Equal(t, g.Occupation, back.Occupation)
	assert.Equal(t, g.Seed, back.Seed)
}

func TestGoblin_DecodeInvalid(t *testing.T) {
	r := newGoblinRouter()
	for _, q := range []string{"", "?seed=", "?seed=not-valid-base64!!", "?seed=e30="} {
		w := get(r, "/api/goblins/decode"+q)
		assert.Equal(t, http.StatusNotFound, w.Code, q)
	}
}
