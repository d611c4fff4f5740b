package calc

import "errors"

// ErrUnknownPokemon and ErrUnknownMove are the calculator's two
// unrecoverable input-error kinds (spec.md §7): surfaced to the user,
// never sent over the wire.
var (
	ErrUnknownPokemon = errors.New("calc: unknown pokemon")
	ErrUnknownMove    = errors.New("calc: unknown move")
)

// MoveCategory selects which stat pair a move's damage is computed from.
type MoveCategory int

const (
	Physical MoveCategory = iota
	Special
	NonDamaging
)

// BaseStats is a Pokémon's immutable base stat line, as looked up from the
// PokemonStatsRepository. TypeMultipliers maps an attacking move's type to
// this Pokémon's defensive multiplier against it (spec.md §3).
type BaseStats struct {
	HP              int
	Attack          int
	Defense         int
	SpAttack        int
	SpDefense       int
	Types           []string           // this Pokémon's own types, for STAB
	TypeMultipliers map[string]float64 // attacker-type -> defensive multiplier
}

// TypeMultiplier returns the defensive multiplier this Pokémon has against
// an incoming move of the given type, defaulting to 1.0 when unlisted.
func (b BaseStats) TypeMultiplier(moveType string) float64 {
	if b.TypeMultipliers == nil {
		return 1.0
	}
	if m, ok := b.TypeMultipliers[moveType]; ok {
		return m
	}
	return 1.0
}

// HasType reports whether t is among this Pokémon's own types, for the STAB
// check in the damage formula.
func (b BaseStats) HasType(t string) bool {
	for _, own := range b.Types {
		if own == t {
			return true
		}
	}
	return false
}

// Move is an attack's static definition, looked up by name.
type Move struct {
	Name     string
	Power    int
	Type     string
	Category MoveCategory
}

// StatsRepository is the single external dependency the calculator and the
// session layer consume: base stats and move data. Its concrete
// implementation (loading from a spreadsheet, a YAML file, a database) is
// explicitly out of the core's scope (spec.md §1) — only this interface is.
type StatsRepository interface {
	BaseStats(pokemonName string) (BaseStats, error)
	Move(moveName string) (Move, error)
}
