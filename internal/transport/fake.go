package transport

import "math/rand"

// FakeTransport is an in-memory transport for tests that want real
// asynchronous delivery semantics — unlike the session package's own
// simulatedNetwork (a lossless FIFO queue driven by an explicit drain
// step), FakeTransport puts each datagram on the recipient's buffered
// inbound channel, for the recipient to read whenever it selects on it,
// and can drop datagrams, modeling the "unreliable datagram
// transport" spec.md §1 assumes reliability.Reliability is built on top
// of. Grounded on other_examples/anon55555-mt__rudp.go's peer-to-peer
// send/receive split, generalized from its connection-oriented pairing to
// a shared switchboard addressed by peer name.
type FakeTransport struct {
	name     string
	board    *fakeSwitchboard
	inbound  chan Datagram
	dropRate float64
	rng      *rand.Rand
}

// fakeSwitchboard routes Transmit calls between named FakeTransports.
type fakeSwitchboard struct {
	peers map[string]*FakeTransport
}

// NewFakeNetwork creates a switchboard with no drop loss by default; call
// NewPeer per participant and call SetDropRate on the returned transports to
// exercise spec.md's retransmission paths deterministically.
func NewFakeNetwork() *fakeSwitchboard {
	return &fakeSwitchboard{peers: make(map[string]*FakeTransport)}
}

// NewPeer registers name on the switchboard and returns its transport.
// seed makes per-peer drop decisions reproducible across test runs.
func (b *fakeSwitchboard) NewPeer(name string, seed int64) *FakeTransport {
	t := &FakeTransport{
		name:    name,
		board:   b,
		inbound: make(chan Datagram, 256),
		rng:     rand.New(rand.NewSource(seed)),
	}
	b.peers[name] = t
	return t
}

// SetDropRate sets the fraction (0..1) of outbound datagrams this peer
// silently loses, simulating the unreliable transport reliability.Reliability
// is designed to tolerate.
func (t *FakeTransport) SetDropRate(rate float64) { t.dropRate = rate }

// Transmit implements reliability.Transmitter.
func (t *FakeTransport) Transmit(dst string, payload []byte) error {
	if t.dropRate > 0 && t.rng.Float64() < t.dropRate {
		return nil
	}
	peer, ok := t.board.peers[dst]
	if !ok {
		return nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	peer.inbound <- Datagram{Src: t.name, Payload: cp}
	return nil
}

// Inbound returns this peer's channel of delivered datagrams.
func (t *FakeTransport) Inbound() <-chan Datagram { return t.inbound }

// Close unregisters this peer from the switchboard; its inbound channel is
// left open. Other peers' sends to a closed peer are no-ops after Close.
func (t *FakeTransport) Close() error {
	delete(t.board.peers, t.name)
	return nil
}
