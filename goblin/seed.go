package goblin

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackSeed is stored on a goblin whose sheet could not be encoded.
const FallbackSeed = "error-generating-seed"

// ErrInvalidSeed is returned by Decode for any input that is not a valid
// encoded goblin.
var ErrInvalidSeed = errors.New("goblin: invalid seed")

// Encode serialises every field except ID and Seed into a base64 seed.
func Encode(g *Goblin) (string, error) {
	if g == nil {
		return "", errors.New("goblin: encode nil goblin")
	}
	payload := *g
	payload.ID = ""
	payload.Seed = ""
	b, err := json.Marshal(&payload)
	if err != nil {
		return "", fmt.Errorf("goblin: encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode rebuilds a goblin from a seed. The returned goblin carries seed
// verbatim. An id embedded in the payload is kept, otherwise a fresh one is
// minted.
func Decode(seed string) (*Goblin, error) {
	return defaultGenerator.Decode(seed)
}

// Decode is like the package-level Decode but mints ids from g.
func (g *Generator) Decode(seed string) (*Goblin, error) {
	raw, ok := decodeBase64(seed)
	if !ok {
		return nil, ErrInvalidSeed
	}
	var gob Goblin
	payload := seedPayload{Goblin: &gob}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if payload.Occupation == nil {
		return nil, fmt.Errorf("%w: missing occupation", ErrInvalidSeed)
	}
	if payload.Describer == nil {
		return nil, fmt.Errorf("%w: missing describer", ErrInvalidSeed)
	}
	gob.Occupation = *payload.Occupation
	gob.Describer = *payload.Describer
	if err := gob.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if gob.ID == "" {
		g.mu.Lock()
		gob.ID = g.newID()
		g.mu.Unlock()
	}
	gob.Seed = seed
	return &gob, nil
}

// seedPayload shadows Occupation and Describer so a missing key is told
// apart from the zero value.
type seedPayload struct {
	*Goblin
	Occupation *Occupation `json:"occupation"`
	Describer  *Describer  `json:"describer"`
}

// decodeBase64 accepts the standard and URL-safe alphabets with or without
// padding. Spaces are read as '+' since query strings turn one into the other.
func decodeBase64(seed string) ([]byte, bool) {
	s := strings.TrimSpace(seed)
	if s == "" {
		return nil, false
	}
	s = strings.ReplaceAll(s, " ", "+")
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

func (g *Goblin) validate() error {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return errors.New("missing name")
	case g.Level < 1:
		return fmt.Errorf("level %d", g.Level)
	}
	if g.LuckOrCurse != nil && g.LuckOrCurse.Type != Luck && g.LuckOrCurse.Type != Curse {
		return fmt.Errorf("fortune type %q", g.LuckOrCurse.Type)
	}
	return nil
}
