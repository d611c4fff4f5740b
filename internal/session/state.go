// Package session wires the codec, reliability layer, and deterministic
// calculator together into the connection and turn state machines that
// drive one PokeProtocol battle (spec.md §4.3-§4.4). A Session is the
// "glue" component of the architecture: it owns no logic a lower layer
// could already express, only the routing between them.
package session

import "github.com/pokeprotocol/pokeprotocol/internal/calc"

// Phase is the connection-level state a peer occupies (spec.md §4.3).
type Phase int

const (
	Disconnected Phase = iota
	InitSent
	SetupExchanging
	WaitingForMove
	ProcessingTurn
	GameOverPhase
	Spectating
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "DISCONNECTED"
	case InitSent:
		return "INIT_SENT"
	case SetupExchanging:
		return "SETUP_EXCHANGING"
	case WaitingForMove:
		return "WAITING_FOR_MOVE"
	case ProcessingTurn:
		return "PROCESSING_TURN"
	case GameOverPhase:
		return "GAME_OVER"
	case Spectating:
		return "SPECTATING"
	default:
		return "UNKNOWN"
	}
}

// Role is fixed for the lifetime of a session (spec.md §3): it decides who
// issues the seed and, with the current turn number, who attacks.
type Role int

const (
	RoleHost Role = iota
	RoleJoiner
	RoleSpectator
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "HOST"
	case RoleJoiner:
		return "JOINER"
	case RoleSpectator:
		return "SPECTATOR"
	default:
		return "UNKNOWN"
	}
}

// StatBoosts mirrors the wire StatBoosts: remaining consumable uses for an
// attack-stat boost and a defense-stat boost (spec.md §3, §6).
type StatBoosts struct {
	SpAttackUses  int
	SpDefenseUses int
}

// Combatant is one side of the battle, as held independently by each peer
// (spec.md §3's "Battle state"). local and opponent are each a Combatant;
// both peers maintain a full copy of both.
type Combatant struct {
	PeerID      string
	PokemonName string
	Stats       calc.BaseStats // immutable once populated
	CurrentHP   int
	Boosts      StatBoosts
}

// ConsumeAttackBoost deterministically decides whether this combatant's
// attack is boosted this turn, decrementing its remaining charge if so.
// Both peers hold an identical copy of the attacker's Boosts counter and
// apply this same greedy rule, so the decision converges without needing a
// dedicated wire field (spec.md leaves "boost consumed" derivation
// unspecified beyond the counters in BATTLE_SETUP; see DESIGN.md).
func (c *Combatant) ConsumeAttackBoost() bool {
	if c.Boosts.SpAttackUses <= 0 {
		return false
	}
	c.Boosts.SpAttackUses--
	return true
}

// TurnResult is one peer's computed outcome for a single attack, the
// "local_result" tuple of spec.md §3.
type TurnResult struct {
	DamageDealt         int
	DefenderHPRemaining int
	AttackerHPAfter     int
	StatusMessage       string
}

// PendingTurn is held while phase == ProcessingTurn (spec.md §3).
type PendingTurn struct {
	AttackerIsLocal       bool
	MoveName              string
	Local                 TurnResult
	HaveLocalResult       bool
	SentResolutionRequest bool
	LocalConfirmed        bool
	RemoteConfirmed       bool
	Final                 TurnResult
}

// done reports whether both sides have confirmed this turn's outcome
// (spec.md §4.4 step 5).
func (p *PendingTurn) done() bool {
	return p.LocalConfirmed && p.RemoteConfirmed
}
