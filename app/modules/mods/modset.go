// Package mods implements the droid mod string codec: the compact textual
// encoding of active modifiers and custom speed shared by score submissions
// and stored scores.
package mods

import "strings"

// Mod is a single gameplay modifier.
type Mod byte

const (
	NoFail      Mod = 'n'
	Easy        Mod = 'e'
	Hidden      Mod = 'h'
	HardRock    Mod = 'r'
	DoubleTime  Mod = 'd'
	NightCore   Mod = 'c'
	HalfTime    Mod = 't'
	Precise     Mod = 's'
	SmallCircle Mod = 'm'
	SuddenDeath Mod = 'b'
	ReallyEasy  Mod = 'l'
	Perfect     Mod = 'f'
	FlashLight  Mod = 'u'
	ScoreV2     Mod = 'v'
	Auto        Mod = 'a'
	AutoPilot   Mod = 'p'
	Relax       Mod = 'x'
)

var modNames = map[Mod]string{
	NoFail:      "NoFail",
	Easy:        "Easy",
	Hidden:      "Hidden",
	HardRock:    "HardRock",
	DoubleTime:  "DoubleTime",
	NightCore:   "NightCore",
	HalfTime:    "HalfTime",
	Precise:     "Precise",
	SmallCircle: "SmallCircle",
	SuddenDeath: "SuddenDeath",
	ReallyEasy:  "ReallyEasy",
	Perfect:     "Perfect",
	FlashLight:  "FlashLight",
	ScoreV2:     "ScoreV2",
	Auto:        "Auto",
	AutoPilot:   "AutoPilot",
	Relax:       "Relax",
}

func (m Mod) String() string {
	if name, ok := modNames[m]; ok {
		return name
	}
	return "Unknown(" + string(byte(m)) + ")"
}

// exclusionGroups lists sets of mutually exclusive mods. A ModSet holding two
// mods from the same group is incompatible.
var exclusionGroups = [][]Mod{
	{DoubleTime, NightCore, HalfTime},
	{Easy, HardRock},
	{SuddenDeath, Perfect},
	{Auto, AutoPilot, Relax},
}

// unrankedMods never qualify for leaderboards.
var unrankedMods = map[Mod]bool{
	Auto:      true,
	AutoPilot: true,
	Relax:     true,
	ScoreV2:   true,
}

// scoreMultiplierMods carry a server-side raw score multiplier, which makes
// the replay score re-simulation check unreliable for them.
var scoreMultiplierMods = map[Mod]bool{
	ReallyEasy:  true,
	SmallCircle: true,
	Precise:     true,
}

// ModSet is an ordered, duplicate-free collection of mods.
type ModSet struct {
	mods []Mod
}

// NewModSet builds a set from the given mods, dropping duplicates while
// preserving first-seen order.
func NewModSet(mods ...Mod) ModSet {
	var s ModSet
	for _, m := range mods {
		s.Add(m)
	}
	return s
}

// Add appends a mod unless it is already present.
func (s *ModSet) Add(m Mod) {
	if !s.Has(m) {
		s.mods = append(s.mods, m)
	}
}

// Has reports whether the set contains m.
func (s ModSet) Has(m Mod) bool {
	for _, have := range s.mods {
		if have == m {
			return true
		}
	}
	return false
}

// Len returns the number of mods in the set.
func (s ModSet) Len() int { return len(s.mods) }

// Mods returns the mods in encoding order.
func (s ModSet) Mods() []Mod {
	out := make([]Mod, len(s.mods))
	copy(out, s.mods)
	return out
}

// Equal compares two sets ignoring order.
func (s ModSet) Equal(other ModSet) bool {
	if len(s.mods) != len(other.mods) {
		return false
	}
	for _, m := range s.mods {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

// Compatible reports whether no two mods share a mutual-exclusion group.
func (s ModSet) Compatible() bool {
	for _, group := range exclusionGroups {
		seen := 0
		for _, m := range group {
			if s.Has(m) {
				seen++
			}
		}
		if seen > 1 {
			return false
		}
	}
	return true
}

// Ranked reports whether every mod in the set qualifies for leaderboards.
func (s ModSet) Ranked() bool {
	for _, m := range s.mods {
		if unrankedMods[m] {
			return false
		}
	}
	return true
}

// HasScoreMultiplier reports whether any mod carries a custom score
// multiplier on the server side.
func (s ModSet) HasScoreMultiplier() bool {
	for _, m := range s.mods {
		if scoreMultiplierMods[m] {
			return true
		}
	}
	return false
}

// String renders the set for logs, e.g. "Hidden,DoubleTime".
func (s ModSet) String() string {
	if len(s.mods) == 0 {
		return "None"
	}
	names := make([]string, len(s.mods))
	for i, m := range s.mods {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}
