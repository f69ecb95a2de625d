package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/goblintable/goblin"
)

// GoblinHandler exposes the goblin generator over plain GETs.
type GoblinHandler struct {
	gen *goblin.Generator
}

// NewGoblinHandler creates a GoblinHandler.
func NewGoblinHandler(gen *goblin.Generator) *GoblinHandler {
	return &GoblinHandler{gen: gen}
}

// Random rolls a new goblin.
// GET /api/goblins/random
func (h *GoblinHandler) Random(c *gin.Context) {
	c.JSON(http.StatusOK, h.gen.Generate())
}

// Decode rebuilds a goblin from its seed.
// GET /api/goblins/decode?seed=
func (h *GoblinHandler) Decode(c *gin.Context) {
	g, err := h.gen.Decode(c.Query("seed"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no goblin for that seed"})
		return
	}
	c.JSON(http.StatusOK, g)
}
