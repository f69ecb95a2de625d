// Package goblin generates random goblin character sheets and converts them
// to and from a compact shareable seed string.
package goblin

import (
	"fmt"
)

// Attribute identifies one of the four numeric attributes.
type Attribute int

const (
	Combat Attribute = iota
	Skill
	Wits
	Vitality

	attributeCount
)

// Attributes are the four numeric stats. JSON keys match the web client.
type Attributes struct {
	Combat   int `json:"combate"`
	Skill    int `json:"habilidade"`
	Wits     int `json:"noção"`
	Vitality int `json:"vitalidade"`
}

// BaseAttributes is the starting value of every fresh goblin.
var BaseAttributes = Attributes{Combat: 2, Skill: 2, Wits: 2, Vitality: 2}

// Add shifts a single attribute by n.
func (a *Attributes) Add(attr Attribute, n int) {
	switch attr {
	case Combat:
		a.Combat += n
	case Skill:
		a.Skill += n
	case Wits:
		a.Wits += n
	case Vitality:
		a.Vitality += n
	}
}

func (a *Attributes) addAll(m Attributes) {
	a.Combat += m.Combat
	a.Skill += m.Skill
	a.Wits += m.Wits
	a.Vitality += m.Vitality
}

// Sum is the total of all four attributes.
func (a Attributes) Sum() int {
	return a.Combat + a.Skill + a.Wits + a.Vitality
}

// Occupation is the goblin's job; it drives modifiers, technique and gear.
type Occupation int

const (
	Carregador Occupation = iota
	Cacador
	Gatuno
	Lider
	Piromaniaco
	Bruxo

	occupationCount
)

var occupationNames = [occupationCount]string{
	Carregador:  "Carregador",
	Cacador:     "Caçador",
	Gatuno:      "Gatuno",
	Lider:       "Líder",
	Piromaniaco: "Piromaníaco",
	Bruxo:       "Bruxo",
}

// Occupations lists every occupation in table order.
func Occupations() []Occupation {
	out := make([]Occupation, occupationCount)
	for i := range out {
		out[i] = Occupation(i)
	}
	return out
}

func (o Occupation) valid() bool { return o >= 0 && o < occupationCount }

func (o Occupation) String() string {
	if !o.valid() {
		return fmt.Sprintf("Occupation(%d)", int(o))
	}
	return occupationNames[o]
}

// CastsSpells reports whether this occupation starts with a spell list.
func (o Occupation) CastsSpells() bool { return o == Bruxo }

func (o Occupation) MarshalText() ([]byte, error) {
	if !o.valid() {
		return nil, fmt.Errorf("goblin: invalid occupation %d", int(o))
	}
	return []byte(occupationNames[o]), nil
}

func (o *Occupation) UnmarshalText(b []byte) error {
	for i, name := range occupationNames {
		if name == string(b) {
			*o = Occupation(i)
			return nil
		}
	}
	return fmt.Errorf("goblin: unknown occupation %q", b)
}

// Describer is a personality flavour that nudges attributes.
type Describer int

const (
	Supimpa Describer = iota
	Forte
	Esperto
	Agil
	Robusto
	Esquisito

	describerCount
)

var describerNames = [describerCount]string{
	Supimpa:   "Supimpa",
	Forte:     "Forte",
	Esperto:   "Esperto",
	Agil:      "Ágil",
	Robusto:   "Robusto",
	Esquisito: "Esquisito",
}

// Describers lists every describer in table order.
func Describers() []Describer {
	out := make([]Describer, describerCount)
	for i := range out {
		out[i] = Describer(i)
	}
	return out
}

func (d Describer) valid() bool { return d >= 0 && d < describerCount }

func (d Describer) String() string {
	if !d.valid() {
		return fmt.Sprintf("Describer(%d)", int(d))
	}
	return describerNames[d]
}

func (d Describer) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, fmt.Errorf("goblin: invalid describer %d", int(d))
	}
	return []byte(describerNames[d]), nil
}

func (d *Describer) UnmarshalText(b []byte) error {
	for i, name := range describerNames {
		if name == string(b) {
			*d = Describer(i)
			return nil
		}
	}
	return fmt.Errorf("goblin: unknown describer %q", b)
}

// Technique is the occupation's signature move.
type Technique struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Physical holds the looks of a goblin.
type Physical struct {
	Trait     string `json:"trait"`
	Height    string `json:"height"`
	Weight    string `json:"weight"`
	SkinColor string `json:"skinColor"`
	EyeColor  string `json:"eyeColor"`
}

// WeaponDetails is the fixed stat block of a weapon.
type WeaponDetails struct {
	Usage   string `json:"uso"`
	Attack  string `json:"ataque"`
	Bonus   int    `json:"bônus"`
	Special string `json:"especial"`
}

// ArmorDetails is the fixed stat block of a protection.
type ArmorDetails struct {
	Usage      string `json:"uso"`
	Durability int    `json:"durabilidade"`
	Special    string `json:"especial"`
}

// Equipment is what the goblin carries. Details are nil when the name has
// no entry in the stat tables.
type Equipment struct {
	Weapon        string         `json:"weapon"`
	WeaponDetails *WeaponDetails `json:"weaponDetails,omitempty"`
	Armor         string         `json:"armor"`
	ArmorDetails  *ArmorDetails  `json:"armorDetails,omitempty"`
	Items         []string       `json:"items"`
}

// Fortune tells a luck from a curse.
type Fortune string

const (
	Luck  Fortune = "luck"
	Curse Fortune = "curse"
)

// LuckOrCurse is the optional fate modifier.
type LuckOrCurse struct {
	Type        Fortune `json:"type"`
	Description string  `json:"description"`
}

// Goblin is a complete character sheet.
type Goblin struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Level       int          `json:"level"`
	Occupation  Occupation   `json:"occupation"`
	Describer   Describer    `json:"describer"`
	Technique   Technique    `json:"technique"`
	Attributes  Attributes   `json:"attributes"`
	Physical    Physical     `json:"physicalAttributes"`
	Personality []string     `json:"personality"`
	Equipment   Equipment    `json:"equipment"`
	Spells      []string     `json:"spells,omitempty"`
	LuckOrCurse *LuckOrCurse `json:"luckOrCurse,omitempty"`
	Seed        string       `json:"seed,omitempty"`
}
