// Package eventlog is the domain battle-event stream: the outbound Event
// channel the spec names as one of the two external interfaces the core
// talks to (the other is the inbound UserInput channel). It is adapted from
// the teacher's GameEvent/EventLogger pair, retargeted at PokeProtocol's own
// vocabulary — connection status, turn indicator, HP updates, status-message
// logs, and game-over — instead of a card duel's.
package eventlog

// EventType enumerates every observable event PokeProtocol emits on the
// Event channel.
type EventType int

const (
	EventConnectionStatus EventType = iota
	EventPhaseChange
	EventTurnIndicator
	EventHPUpdate
	EventStatusMessage
	EventChatReceived
	EventWarning
	EventGameOver
	EventSessionClosed
)

func (e EventType) String() string {
	switch e {
	case EventConnectionStatus:
		return "ConnectionStatus"
	case EventPhaseChange:
		return "PhaseChange"
	case EventTurnIndicator:
		return "TurnIndicator"
	case EventHPUpdate:
		return "HPUpdate"
	case EventStatusMessage:
		return "StatusMessage"
	case EventChatReceived:
		return "ChatReceived"
	case EventWarning:
		return "Warning"
	case EventGameOver:
		return "GameOver"
	case EventSessionClosed:
		return "SessionClosed"
	default:
		return "Unknown"
	}
}

// CloseReason classifies why a session reached a terminal, non-playable
// state outside the normal win/lose outcome EventGameOver already covers on
// its own. Modeled as a typed enum rather than a free-text reason string,
// following the teacher's own preference for a typed `Result` field over
// prose on `GameState` (internal/game/state.go).
type CloseReason int

const (
	CloseReasonNone CloseReason = iota
	// CloseReasonFatalRetry: a reliable frame exhausted MAX_RETRIES without
	// an ACK (spec.md §4.2's failure semantics).
	CloseReasonFatalRetry
	// CloseReasonExplicit: the local caller ended the session deliberately.
	CloseReasonExplicit
	// CloseReasonRemoteGameOver: the opponent's GAME_OVER was received,
	// ending this peer's session from the other side.
	CloseReasonRemoteGameOver
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonFatalRetry:
		return "FatalRetry"
	case CloseReasonExplicit:
		return "Explicit"
	case CloseReasonRemoteGameOver:
		return "RemoteGameOver"
	default:
		return "None"
	}
}

// BattleEvent is a single observable event on a session's Event channel.
type BattleEvent struct {
	Seq     int    // monotonic sequence number, assigned by the logger
	Turn    int    // battle turn this event occurred during (0 before setup)
	Phase   string // current phase name
	Type    EventType
	Details string // human-readable line

	// Optional structured payload, populated depending on Type.
	PokemonName string
	CurrentHP   int
	MaxHP       int
	IsLocalTurn bool
	Winner      string
	Loser       string
	CloseReason CloseReason
}

// NewConnectionStatusEvent reports a connection-lifecycle transition.
func NewConnectionStatusEvent(phase, details string) BattleEvent {
	return BattleEvent{Phase: phase, Type: EventConnectionStatus, Details: details}
}

// NewPhaseChangeEvent reports an internal phase transition (VERBOSE only).
func NewPhaseChangeEvent(turn int, phase string) BattleEvent {
	return BattleEvent{Turn: turn, Phase: phase, Type: EventPhaseChange, Details: "phase -> " + phase}
}

// NewTurnIndicatorEvent reports whose turn it now is.
func NewTurnIndicatorEvent(turn int, phase string, isLocalTurn bool) BattleEvent {
	details := "opponent's turn"
	if isLocalTurn {
		details = "your turn"
	}
	return BattleEvent{Turn: turn, Phase: phase, Type: EventTurnIndicator, IsLocalTurn: isLocalTurn, Details: details}
}

// NewHPUpdateEvent reports a combatant's current HP after a resolved turn.
func NewHPUpdateEvent(turn int, phase, pokemonName string, currentHP, maxHP int) BattleEvent {
	return BattleEvent{
		Turn: turn, Phase: phase, Type: EventHPUpdate,
		PokemonName: pokemonName, CurrentHP: currentHP, MaxHP: maxHP,
		Details: pokemonName + " HP",
	}
}

// NewStatusMessageEvent carries a human-readable battle log line, derived
// from a CALCULATION_REPORT's status_message.
func NewStatusMessageEvent(turn int, phase, details string) BattleEvent {
	return BattleEvent{Turn: turn, Phase: phase, Type: EventStatusMessage, Details: details}
}

// NewChatReceivedEvent surfaces an inbound CHAT_MESSAGE.
func NewChatReceivedEvent(sender, text string) BattleEvent {
	return BattleEvent{Type: EventChatReceived, Details: sender + ": " + text}
}

// NewWarningEvent reports a dropped, protocol-internal fault (malformed
// frame, out-of-phase message). Never fatal.
func NewWarningEvent(details string) BattleEvent {
	return BattleEvent{Type: EventWarning, Details: details}
}

// NewGameOverEvent reports the session's terminal outcome.
func NewGameOverEvent(turn int, winner, loser string) BattleEvent {
	details := winner + " defeated " + loser
	if winner == "" {
		details = "session ended: " + loser
	}
	return BattleEvent{Turn: turn, Type: EventGameOver, Winner: winner, Loser: loser, Details: details}
}

// NewSessionClosedEvent reports a session reaching a terminal state outside
// the normal win/lose path: a fatal retransmission failure, an explicit
// local close, or the opponent's GAME_OVER arriving first.
func NewSessionClosedEvent(turn int, reason CloseReason, details string) BattleEvent {
	return BattleEvent{Turn: turn, Type: EventSessionClosed, CloseReason: reason, Details: details}
}
