// Package plog provides the ambient diagnostic logger that the CLI builds
// and hands to the session state machines, which log protocol-internal
// faults to it (out-of-phase drops, failed ACK transmits, calculation
// mismatches).
// It is distinct from internal/eventlog, which carries the domain battle
// event stream the spec calls the Event channel.
package plog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a component-scoped logger writing to w (os.Stderr if nil).
func New(component string, peerID string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Str("peer_id", peerID).
		Logger()
}

// Nop returns a logger that discards everything, for tests that don't care
// about diagnostic output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
