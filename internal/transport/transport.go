// Package transport provides the datagram transport PokeProtocol sessions
// are wired to: a real UDP socket for production, and an in-memory lossy
// fake for deterministic tests (spec.md §5's "single queue in arrival
// order" model is enforced by the caller's event loop, not by this
// package — transport only gets bytes from A to B).
package transport

import "github.com/pokeprotocol/pokeprotocol/internal/reliability"

// Datagram is one inbound payload paired with the address it arrived from.
type Datagram struct {
	Src     string
	Payload []byte
}

// Transport is the full surface a session's event loop needs: outbound
// send (satisfying reliability.Transmitter) plus an inbound channel to
// select on alongside the reliability layer's timer-expiry channel.
type Transport interface {
	reliability.Transmitter
	Inbound() <-chan Datagram
	Close() error
}
