package session

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
	"github.com/pokeprotocol/pokeprotocol/internal/eventlog"
	"github.com/pokeprotocol/pokeprotocol/internal/reliability"
	"github.com/pokeprotocol/pokeprotocol/internal/wire"
)

// Config bundles everything a Session needs at construction. Role, peer
// identity, and local Pokémon choice are fixed for the session's lifetime
// (spec.md §3).
type Config struct {
	PeerID       string
	Role         Role
	LocalPokemon string
	TeamPreview  []string
	OpponentAddr string // destination for all outbound frames
	Repository   calc.StatsRepository
	Transport    reliability.Transmitter
	Clock        reliability.Clock // nil uses the real wall clock
	Logger       zerolog.Logger    // pass plog.Nop() for a no-op logger
	EventLogger  eventlog.Logger
	Verbose      bool
	SeedSource   func() (uint32, error) // HOST only; nil uses crypto/rand
}

// Session drives one PokeProtocol battle end to end: connection handshake,
// setup exchange, and the turn cycle, threading every inbound and outbound
// frame through Codec, Reliability, and the deterministic Calculator
// (spec.md §2's "Glue" component).
type Session struct {
	cfg Config

	phase Phase
	turn  int
	seed  *uint32
	prng  *calc.PRNG

	local    *Combatant
	opponent *Combatant
	pending  *PendingTurn

	closed bool

	rel    *reliability.Reliability
	repo   calc.StatsRepository
	log    zerolog.Logger
	events eventlog.Logger
}

// New constructs a Session from cfg. The local combatant's stats are looked
// up immediately (spec.md §3: "base stats on role confirmation").
func New(cfg Config) (*Session, error) {
	stats, err := cfg.Repository.BaseStats(cfg.LocalPokemon)
	if err != nil {
		return nil, fmt.Errorf("session: look up local pokemon %q: %w", cfg.LocalPokemon, err)
	}

	// Every session gets its own correlation id threaded onto the
	// diagnostic logger, so a fatal-retry or malformed-frame line in a
	// shared server log can be traced back to one battle even across
	// concurrent sessions (spec.md §3's domain stack).
	log := cfg.Logger.With().Str("correlation_id", uuid.NewString()).Logger()
	if cfg.EventLogger == nil {
		cfg.EventLogger = eventlog.NewMemoryLogger()
	}

	s := &Session{
		cfg:   cfg,
		phase: Disconnected,
		repo:  cfg.Repository,
		log:   log,
		local: &Combatant{
			PeerID:      cfg.PeerID,
			PokemonName: cfg.LocalPokemon,
			Stats:       stats,
			CurrentHP:   stats.HP,
		},
		opponent: &Combatant{},
		events:   cfg.EventLogger,
	}
	s.rel = reliability.New(cfg.Transport, cfg.Clock)

	if cfg.Role == RoleSpectator {
		s.phase = Disconnected
	}

	return s, nil
}

// Phase returns the session's current connection-level state.
func (s *Session) Phase() Phase { return s.phase }

// Turn returns the number of fully completed turns.
func (s *Session) Turn() int { return s.turn }

// Local returns the local combatant's current view.
func (s *Session) Local() Combatant { return *s.local }

// Opponent returns the opponent's current view, as mirrored locally.
func (s *Session) Opponent() Combatant { return *s.opponent }

// TimerFired exposes the reliability layer's timer-expiry channel; the
// owning event loop must select on it and call HandleTimerFired for every
// value received (spec.md §5's single suspension-point model).
func (s *Session) TimerFired() <-chan uint32 { return s.rel.TimerFired }

// Events returns every event emitted so far on this session's event logger.
func (s *Session) Events() []eventlog.BattleEvent { return s.events.Events() }

func (s *Session) emit(e eventlog.BattleEvent) {
	e.Turn = s.turn
	e.Phase = s.phase.String()
	s.events.Log(e)
}

func (s *Session) emitVerbose(e eventlog.BattleEvent) {
	if s.cfg.Verbose {
		s.emit(e)
	}
}

func (s *Session) setPhase(p Phase) {
	s.phase = p
	s.emitVerbose(eventlog.NewPhaseChangeEvent(s.turn, p.String()))
}

// Begin starts the session's role-specific opening move: the joiner sends
// HANDSHAKE_REQUEST, the host waits, a spectator sends SPECTATOR_REQUEST
// (spec.md §4.3).
func (s *Session) Begin() error {
	switch s.cfg.Role {
	case RoleJoiner:
		seq := s.rel.NextSeq()
		req := wire.HandshakeRequest{PeerID: s.cfg.PeerID, TeamPreview: s.cfg.TeamPreview}
		if err := s.sendReliable(req.Frame().WithSeq(seq)); err != nil {
			return err
		}
		s.setPhase(InitSent)
		s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "handshake request sent"))
		return nil
	case RoleHost:
		s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "waiting for a joiner"))
		return nil
	case RoleSpectator:
		seq := s.rel.NextSeq()
		req := wire.SpectatorRequest{PeerID: s.cfg.PeerID}
		if err := s.sendReliable(req.Frame().WithSeq(seq)); err != nil {
			return err
		}
		s.setPhase(Spectating)
		s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "spectating"))
		return nil
	default:
		return fmt.Errorf("session: unknown role %v", s.cfg.Role)
	}
}

// Close transitions the session to a terminal state without sending a wire
// message (DISCONNECT has no frame of its own; spec.md §4.3 models it as a
// local event).
func (s *Session) Close() {
	s.closed = true
	s.setPhase(Disconnected)
	s.emit(eventlog.NewSessionClosedEvent(s.turn, eventlog.CloseReasonExplicit, "session closed by caller"))
}

// sendReliable assigns the frame to the reliability buffer and transmits
// it once immediately (spec.md §4.2 outbound path). The sequence number
// must already be set on f via WithSeq.
func (s *Session) sendReliable(f *wire.Frame) error {
	payload := wire.Encode(f)
	return s.rel.SendReliable(s.cfg.OpponentAddr, f.Seq, payload)
}

// sendAck transmits a bare ACK for receivedSeq, bypassing the reliability
// buffer entirely (spec.md §4.2, invariant I2).
func (s *Session) sendAck(receivedSeq uint32) error {
	ack := wire.Ack{AckNumber: receivedSeq}.Frame()
	return s.cfg.Transport.Transmit(s.cfg.OpponentAddr, wire.Encode(ack))
}

// HandleTimerFired must be called by the event loop whenever a value is
// received on TimerFired(). A fatal return (ErrReliabilityExhausted) means
// the session must be considered closed by the caller.
func (s *Session) HandleTimerFired(seq uint32) error {
	if s.closed {
		return nil
	}
	err := s.rel.HandleTimerFired(seq)
	if err != nil {
		s.closed = true
		s.setPhase(Disconnected)
		s.emit(eventlog.NewSessionClosedEvent(s.turn, eventlog.CloseReasonFatalRetry, "reliability exhausted: "+err.Error()))
		return err
	}
	return nil
}

// HandleDatagram processes one inbound payload: ACK bookkeeping, mandatory
// ACK emission for reliable frames, then dispatch to the connection or turn
// state machine by message type (spec.md §2's inbound data flow). The
// opponent's address, if not yet known, is not learned this way — use
// HandleDatagramFrom when the transport can supply the sender's address.
func (s *Session) HandleDatagram(data []byte) error {
	return s.HandleDatagramFrom("", data)
}

// HandleDatagramFrom is HandleDatagram plus the sender's address, needed
// on a connectionless transport where a HOST cannot address its
// HANDSHAKE_RESPONSE until it has seen the joiner's first datagram
// (spec.md §4.3 says nothing about address discovery since it assumes an
// already-known peer address; UDP requires learning it from the first
// packet). A HOST still in DISCONNECTED adopts src as its OpponentAddr
// before dispatch; a peer that already has one ignores src.
func (s *Session) HandleDatagramFrom(src string, data []byte) error {
	if s.closed {
		return ErrSessionClosed
	}
	if src != "" && s.cfg.Role == RoleHost && s.phase == Disconnected && s.cfg.OpponentAddr == "" {
		s.cfg.OpponentAddr = src
	}

	header, err := wire.ParseHeader(data)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("dropped malformed frame"))
		return nil
	}

	if header.Type == wire.TypeAck {
		s.rel.HandleAck(header.Ack)
		return nil
	}

	if header.HasAck {
		// Piggybacked ack_number (HANDSHAKE_RESPONSE) is processed before
		// the payload itself is interpreted (spec.md §4.2, "Piggybacking").
		s.rel.HandleAck(header.Ack)
	}

	if header.HasSeq {
		if err := s.sendAck(header.Seq); err != nil {
			s.log.Warn().Err(err).Msg("ack transmit failed")
		}
	}

	frame, err := wire.Decode(data)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("dropped malformed frame"))
		return nil
	}

	return s.dispatch(frame)
}

func (s *Session) dispatch(f *wire.Frame) error {
	switch f.Type {
	case wire.TypeHandshakeRequest:
		return s.handleHandshakeRequest(f)
	case wire.TypeHandshakeResponse:
		return s.handleHandshakeResponse(f)
	case wire.TypeSpectatorRequest:
		return s.handleSpectatorRequest(f)
	case wire.TypeBattleSetup:
		return s.handleBattleSetup(f)
	case wire.TypeAttackAnnounce:
		return s.handleAttackAnnounce(f)
	case wire.TypeDefenseAnnounce:
		return s.handleDefenseAnnounce(f)
	case wire.TypeCalculationReport:
		return s.handleCalculationReport(f)
	case wire.TypeCalculationConfirm:
		return s.handleCalculationConfirm(f)
	case wire.TypeResolutionRequest:
		return s.handleResolutionRequest(f)
	case wire.TypeGameOver:
		return s.handleGameOver(f)
	case wire.TypeChatMessage:
		return s.handleChatMessage(f)
	default:
		s.emit(eventlog.NewWarningEvent("unrecognized message_type: " + string(f.Type)))
		return nil
	}
}

func (s *Session) dropOutOfPhase(msgType wire.MessageType) {
	s.log.Warn().Str("message_type", string(msgType)).Str("phase", s.phase.String()).Msg("dropped out-of-phase message")
	s.emit(eventlog.NewWarningEvent(fmt.Sprintf("dropped out-of-phase %s in %s", msgType, s.phase)))
}

// generateSeed produces the 32-bit uniformly random seed a HOST issues on
// HANDSHAKE_RESPONSE (spec.md §4.3). It is overridable via
// Config.SeedSource for deterministic tests.
func (s *Session) generateSeed() (uint32, error) {
	if s.cfg.SeedSource != nil {
		return s.cfg.SeedSource()
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("session: generate seed: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
