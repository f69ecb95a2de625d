package goblin

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	surnameChance = 0.5
	fortuneChance = 0.3
	spellCount    = 3
	idSuffixLen   = 8
)

// Generator produces goblins from a random source. It is safe for
// concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	logger *zap.Logger
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock replaces time.Now for id minting.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger used when a seed cannot be encoded.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator builds a Generator over src. A nil src gets a randomly seeded
// PCG source.
func NewGenerator(src rand.Source, opts ...Option) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	g := &Generator{
		rng:    rand.New(src),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

var defaultGenerator = NewGenerator(nil)

// Generate makes a goblin with the package-level generator.
func Generate() *Goblin { return defaultGenerator.Generate() }

// Generate rolls a complete level-1 goblin and fills in its seed.
func (g *Generator) Generate() *Goblin {
	g.mu.Lock()
	gob := g.roll()
	g.mu.Unlock()

	seed, err := Encode(gob)
	if err != nil {
		g.logger.Warn("encode goblin seed failed", zap.String("goblin_id", gob.ID), zap.Error(err))
		seed = FallbackSeed
	}
	gob.Seed = seed
	return gob
}

func (g *Generator) roll() *Goblin {
	occ := Occupation(g.rng.IntN(int(occupationCount)))
	desc := Describer(g.rng.IntN(int(describerCount)))

	gob := &Goblin{
		ID:          g.newID(),
		Name:        g.name(),
		Level:       1,
		Occupation:  occ,
		Describer:   desc,
		Technique:   occupationTechniques[occ],
		Attributes:  g.attributes(occ, desc),
		Physical:    g.physical(),
		Personality: sample(g.rng, personalityTraits, 1+g.rng.IntN(2)),
		Equipment:   g.equipment(occ),
	}
	if occ.CastsSpells() {
		gob.Spells = sample(g.rng, spells, spellCount)
	}
	if g.rng.Float64() < fortuneChance {
		gob.LuckOrCurse = g.fortune()
	}
	return gob
}

func (g *Generator) d6() int { return g.rng.IntN(6) }

// newID is the base-36 clock in milliseconds followed by a random base-36 tail.
func (g *Generator) newID() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 36))
	for range idSuffixLen {
		b.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[g.rng.IntN(36)])
	}
	return b.String()
}

func (g *Generator) attributes(occ Occupation, desc Describer) Attributes {
	attrs := BaseAttributes
	attrs.addAll(occupationModifiers[occ])
	m := describerModifiers[desc]
	attrs.addAll(m.Attributes)
	if m.FreePoints > 0 {
		attrs.Add(Attribute(g.rng.IntN(int(attributeCount))), m.FreePoints)
	}
	return attrs
}

func (g *Generator) name() string {
	name := g.nameCell(g.d6(), g.d6())
	if g.rng.Float64() < surnameChance {
		name += " " + g.nameCell(g.d6(), g.d6())
	}
	return name
}

func (g *Generator) nameCell(row, col int) string {
	switch cell := nameGrid[row][col]; cell {
	case nameFood:
		return pick(g.rng, foodNames)
	case nameReverse:
		return reverseName(g.plainName())
	case nameTwice:
		return g.plainName() + "-" + strings.ToLower(g.plainName())
	default:
		return cell
	}
}

// plainName draws from the rows that hold only ordinary names, so special
// cells never recurse.
func (g *Generator) plainName() string {
	return nameGrid[g.rng.IntN(plainNameRows)][g.d6()]
}

func reverseName(s string) string {
	r := []rune(strings.ToLower(s))
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

func (g *Generator) physical() Physical {
	return Physical{
		Trait:     g.trait(),
		Height:    pick(g.rng, heights),
		Weight:    pick(g.rng, weights),
		SkinColor: pick(g.rng, skinColors),
		EyeColor:  pick(g.rng, eyeColors),
	}
}

func (g *Generator) trait() string {
	cell := traitGrid[g.d6()][g.d6()]
	if cell != traitTwice {
		return cell
	}
	a := g.plainTrait()
	b := g.plainTrait()
	for b == a {
		b = g.plainTrait()
	}
	return a + " e " + lowerFirst(b)
}

func (g *Generator) plainTrait() string {
	for {
		if cell := traitGrid[g.d6()][g.d6()]; cell != traitTwice {
			return cell
		}
	}
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func (g *Generator) equipment(occ Occupation) Equipment {
	var eq Equipment
	if occ.valid() {
		sets := occupationGear[occ]
		primary := sets[g.rng.IntN(len(sets))]
		if weapon, armor, ok := strings.Cut(primary, " e "); ok {
			eq.Weapon, eq.Armor = weapon, armor
		} else {
			eq.Weapon = primary
			eq.Armor = pick(g.rng, protectionNames)
		}
		eq.Items = sample(g.rng, miscEquipment, 1+g.rng.IntN(2))
	} else {
		eq.Weapon, eq.Armor = fallbackWeapon, fallbackArmor
		eq.Items = []string{fallbackItem}
	}
	if d, ok := weapons[eq.Weapon]; ok {
		eq.WeaponDetails = &d
	}
	if d, ok := protections[eq.Armor]; ok {
		eq.ArmorDetails = &d
	}
	return eq
}

func (g *Generator) fortune() *LuckOrCurse {
	if g.rng.IntN(2) == 0 {
		return &LuckOrCurse{Type: Luck, Description: pick(g.rng, lucks)}
	}
	return &LuckOrCurse{Type: Curse, Description: pick(g.rng, curses)}
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

// sample draws n distinct elements in random order.
func sample[T any](r *rand.Rand, xs []T, n int) []T {
	n = min(n, len(xs))
	out := make([]T, n)
	for i, idx := range r.Perm(len(xs))[:n] {
		out[i] = xs[idx]
	}
	return out
}
