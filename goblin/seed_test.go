package goblin

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRoundTrip(t *testing.T) {
	g := newTestGenerator(21)
	for i := 0; i < 200; i++ {
		orig := g.Generate()

		got, err := g.Decode(orig.Seed)
		require.NoError(t, err)
		assert.Equal(t, orig.Seed, got.Seed)
		assert.NotEmpty(t, got.ID)

		want := *orig
		want.ID, want.Seed = "", ""
		cmp := *got
		cmp.ID, cmp.Seed = "", ""
		assert.Equal(t, want, cmp)
	}
}

func TestEncodeOmitsIDAndSeed(t *testing.T) {
	gob := newTestGenerator(4).Generate()
	raw, err := base64.StdEncoding.DecodeString(gob.Seed)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "seed")
	assert.Equal(t, gob.Name, m["name"])
	assert.Equal(t, gob.Occupation.String(), m["occupation"])

	attrs := m["attributes"].(map[string]any)
	assert.Contains(t, attrs, "combate")
	assert.Contains(t, attrs, "noção")
}

func TestEncodeError(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)

	_, err = Encode(&Goblin{Name: "Zug", Level: 1, Occupation: Occupation(42)})
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":     "not-valid-base64!!",
		"empty":          "",
		"not json":       base64.StdEncoding.EncodeToString([]byte("hello")),
		"json null":      base64.StdEncoding.EncodeToString([]byte("null")),
		"missing name":   encodeRaw(t, map[string]any{"level": 1, "occupation": "Bruxo", "describer": "Esquisito"}),
		"zero level":     encodeRaw(t, map[string]any{"name": "Zug", "level": 0, "occupation": "Bruxo", "describer": "Esquisito"}),
		"no occupation":  encodeRaw(t, map[string]any{"name": "Zug", "level": 1, "describer": "Esquisito"}),
		"bad occupation": encodeRaw(t, map[string]any{"name": "Zug", "level": 1, "occupation": "Padeiro", "describer": "Esquisito"}),
		"no describer":   encodeRaw(t, map[string]any{"name": "Zug", "level": 1, "occupation": "Bruxo"}),
		"bad describer":  encodeRaw(t, map[string]any{"name": "Zug", "level": 1, "occupation": "Bruxo", "describer": "Feliz"}),
		"bad fortune": encodeRaw(t, map[string]any{
			"name": "Zug", "level": 1, "occupation": "Bruxo", "describer": "Esquisito",
			"luckOrCurse": map[string]any{"type": "meh"},
		}),
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(seed)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrInvalidSeed)
		})
	}
}

func TestDecodeKeepsEmbeddedID(t *testing.T) {
	seed := encodeRaw(t, map[string]any{
		"id": "legacy123", "name": "Grik", "level": 2, "occupation": "Gatuno", "describer": "Supimpa",
	})
	gob, err := Decode(seed)
	require.NoError(t, err)
	assert.Equal(t, "legacy123", gob.ID)
	assert.Equal(t, seed, gob.Seed)
	assert.Equal(t, Gatuno, gob.Occupation)
	assert.Equal(t, 2, gob.Level)
}

func TestDecodeAcceptsURLVariants(t *testing.T) {
	gob := newTestGenerator(8).Generate()
	raw, err := base64.StdEncoding.DecodeString(gob.Seed)
	require.NoError(t, err)

	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		seed := enc.EncodeToString(raw)
		got, err := Decode(seed)
		require.NoError(t, err)
		assert.Equal(t, gob.Name, got.Name)
		assert.Equal(t, seed, got.Seed)
	}
}

func encodeRaw(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(b)
}
