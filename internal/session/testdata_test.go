package session

import (
	"fmt"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
	"github.com/pokeprotocol/pokeprotocol/internal/plog"
)

// testRepo is a minimal in-memory calc.StatsRepository for session tests.
type testRepo struct {
	stats map[string]calc.BaseStats
	moves map[string]calc.Move
}

func newTestRepo() *testRepo {
	return &testRepo{
		stats: map[string]calc.BaseStats{
			"Pikachu": {
				HP: 35, Attack: 55, Defense: 40, SpAttack: 50, SpDefense: 50,
				Types: []string{"electric"},
			},
			"Bulbasaur": {
				HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65,
				Types:           []string{"grass", "poison"},
				TypeMultipliers: map[string]float64{"electric": 0.5},
			},
		},
		moves: map[string]calc.Move{
			"Thunderbolt": {Name: "Thunderbolt", Power: 90, Type: "electric", Category: calc.Special},
			"Tackle":      {Name: "Tackle", Power: 40, Type: "normal", Category: calc.Physical},
		},
	}
}

func (r *testRepo) BaseStats(name string) (calc.BaseStats, error) {
	s, ok := r.stats[name]
	if !ok {
		return calc.BaseStats{}, fmt.Errorf("%w: %s", calc.ErrUnknownPokemon, name)
	}
	return s, nil
}

func (r *testRepo) Move(name string) (calc.Move, error) {
	m, ok := r.moves[name]
	if !ok {
		return calc.Move{}, fmt.Errorf("%w: %s", calc.ErrUnknownMove, name)
	}
	return m, nil
}

// datagram is one queued, in-flight payload in a simulatedNetwork.
type datagram struct {
	dst     string
	payload []byte
}

// simulatedNetwork models an async, lossless datagram transport across a
// FIFO queue: Transmit only enqueues, it never recurses into the
// recipient's HandleDatagram. A test drives delivery explicitly via drain,
// which matches the real transport's property that handling one inbound
// datagram runs to completion, including whatever it sends, before the
// next is serviced (spec.md §5) — without the test's own call stack
// silently reordering cause and effect the way a direct recursive call
// would.
type simulatedNetwork struct {
	sessions map[string]*Session
	queue    []datagram
}

func newSimulatedNetwork() *simulatedNetwork {
	return &simulatedNetwork{sessions: make(map[string]*Session)}
}

func (n *simulatedNetwork) transport(name string) *namedTransport {
	return &namedTransport{net: n, dst: name}
}

// drain delivers every queued datagram, including ones newly enqueued by
// handling earlier ones, until the queue is empty.
func (n *simulatedNetwork) drain() error {
	for len(n.queue) > 0 {
		d := n.queue[0]
		n.queue = n.queue[1:]
		s, ok := n.sessions[d.dst]
		if !ok {
			continue
		}
		if err := s.HandleDatagram(d.payload); err != nil {
			return err
		}
	}
	return nil
}

type namedTransport struct {
	net *simulatedNetwork
	dst string // unused; kept for symmetry with a real per-peer socket
}

func (t *namedTransport) Transmit(dst string, payload []byte) error {
	t.net.queue = append(t.net.queue, datagram{dst: dst, payload: payload})
	return nil
}

// newTestPair builds a connected HOST/JOINER pair of Sessions addressed by
// name on a shared simulatedNetwork, with a fixed seed for deterministic
// assertions. The caller must call net.drain() after each action.
func newTestPair() (net *simulatedNetwork, host, joiner *Session) {
	repo := newTestRepo()
	net = newSimulatedNetwork()

	h, err := New(Config{
		PeerID:       "HostUserA",
		Role:         RoleHost,
		LocalPokemon: "Pikachu",
		OpponentAddr: "joiner",
		Repository:   repo,
		Transport:    net.transport("host"),
		Logger:       plog.Nop(),
		SeedSource:   func() (uint32, error) { return 12345, nil },
	})
	if err != nil {
		panic(err)
	}
	j, err := New(Config{
		PeerID:       "JoinerUserB",
		Role:         RoleJoiner,
		LocalPokemon: "Bulbasaur",
		OpponentAddr: "host",
		Repository:   repo,
		Transport:    net.transport("joiner"),
		Logger:       plog.Nop(),
	})
	if err != nil {
		panic(err)
	}

	net.sessions["host"] = h
	net.sessions["joiner"] = j

	return net, h, j
}

// establishBattle drives a fresh pair through the handshake and setup
// exchange (spec.md S1) so tests can start directly from WAITING_FOR_MOVE.
func establishBattle() (net *simulatedNetwork, host, joiner *Session) {
	net, host, joiner = newTestPair()
	if err := joiner.Begin(); err != nil {
		panic(err)
	}
	if err := net.drain(); err != nil {
		panic(err)
	}
	return net, host, joiner
}
