package session

import "errors"

// Sentinel errors surfaced to the caller of Session's public methods. Most
// protocol-internal faults (spec.md §7's MalformedFrame, OutOfPhase) never
// reach here — they're logged and dropped inline — these are the ones a
// caller needs to react to.
var (
	// ErrNotYourTurn is returned by SubmitMove when called out of turn.
	ErrNotYourTurn = errors.New("session: not your turn")

	// ErrWrongPhase is returned when an operation is attempted in a phase
	// that doesn't support it (e.g. SubmitMove outside WAITING_FOR_MOVE).
	ErrWrongPhase = errors.New("session: wrong phase for this operation")

	// ErrSessionClosed is returned by any operation attempted after the
	// session reached GAME_OVER or a fatal reliability failure.
	ErrSessionClosed = errors.New("session: closed")
)
