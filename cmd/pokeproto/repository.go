package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
)

// pokedexFile is the top-level YAML structure a pokedex file parses into,
// grounded on the teacher's DeckFile/ParseDeckFile pattern in
// internal/game/deck.go, retargeted from card decks to Pokémon and move
// definitions.
type pokedexFile struct {
	Pokemon []pokemonEntry `yaml:"pokemon"`
	Moves   []moveEntry    `yaml:"moves"`
}

type pokemonEntry struct {
	Name            string             `yaml:"name"`
	HP              int                `yaml:"hp"`
	Attack          int                `yaml:"attack"`
	Defense         int                `yaml:"defense"`
	SpAttack        int                `yaml:"sp_attack"`
	SpDefense       int                `yaml:"sp_defense"`
	Types           []string           `yaml:"types"`
	TypeMultipliers map[string]float64 `yaml:"type_multipliers"`
}

type moveEntry struct {
	Name     string `yaml:"name"`
	Power    int    `yaml:"power"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
}

// yamlRepository implements calc.StatsRepository by parsing a pokedex YAML
// file once at load time. Grounded on ParseDeckFile's read-once-into-a-map
// shape.
type yamlRepository struct {
	stats map[string]calc.BaseStats
	moves map[string]calc.Move
}

// loadRepository reads and parses a pokedex YAML file from path.
func loadRepository(path string) (*yamlRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load pokedex %q: %w", path, err)
	}

	var pf pokedexFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pokedex YAML: %w", err)
	}

	repo := &yamlRepository{
		stats: make(map[string]calc.BaseStats, len(pf.Pokemon)),
		moves: make(map[string]calc.Move, len(pf.Moves)),
	}
	for _, p := range pf.Pokemon {
		repo.stats[p.Name] = calc.BaseStats{
			HP:              p.HP,
			Attack:          p.Attack,
			Defense:         p.Defense,
			SpAttack:        p.SpAttack,
			SpDefense:       p.SpDefense,
			Types:           p.Types,
			TypeMultipliers: p.TypeMultipliers,
		}
	}
	for _, m := range pf.Moves {
		category := calc.Physical
		switch m.Category {
		case "special":
			category = calc.Special
		case "status":
			category = calc.NonDamaging
		}
		repo.moves[m.Name] = calc.Move{
			Name:     m.Name,
			Power:    m.Power,
			Type:     m.Type,
			Category: category,
		}
	}
	return repo, nil
}

func (r *yamlRepository) BaseStats(pokemonName string) (calc.BaseStats, error) {
	s, ok := r.stats[pokemonName]
	if !ok {
		return calc.BaseStats{}, fmt.Errorf("%w: %s", calc.ErrUnknownPokemon, pokemonName)
	}
	return s, nil
}

func (r *yamlRepository) Move(moveName string) (calc.Move, error) {
	m, ok := r.moves[moveName]
	if !ok {
		return calc.Move{}, fmt.Errorf("%w: %s", calc.ErrUnknownMove, moveName)
	}
	return m, nil
}
