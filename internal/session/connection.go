package session

import (
	"fmt"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
	"github.com/pokeprotocol/pokeprotocol/internal/eventlog"
	"github.com/pokeprotocol/pokeprotocol/internal/wire"
)

// handleHandshakeRequest is the HOST side of spec.md §4.3: generate the
// session seed, reply with both the seed and a piggybacked ack_number, then
// proactively send our own BATTLE_SETUP rather than waiting for the
// joiner's — the "simultaneous transition" option the spec leaves as an
// implementation choice.
func (s *Session) handleHandshakeRequest(f *wire.Frame) error {
	if s.cfg.Role != RoleHost {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	if s.phase != Disconnected {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	req, err := wire.ParseHandshakeRequest(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed HANDSHAKE_REQUEST"))
		return nil
	}

	seed, err := s.generateSeed()
	if err != nil {
		return err
	}
	s.seed = &seed
	s.prng = calc.NewPRNG(seed)
	s.opponent.PeerID = req.PeerID

	seq := s.rel.NextSeq()
	resp := wire.HandshakeResponse{
		Seed:        seed,
		PeerID:      s.cfg.PeerID,
		TeamPreview: s.cfg.TeamPreview,
	}
	respFrame := resp.Frame().WithSeq(seq)
	if f.HasSeq {
		respFrame.WithAck(f.Seq)
	}
	if err := s.sendReliable(respFrame); err != nil {
		return err
	}

	s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "handshake received, seed issued"))
	return s.sendOwnBattleSetup()
}

// handleHandshakeResponse is the JOINER side: adopt the host's seed, then
// send our own BATTLE_SETUP (spec.md §4.3).
func (s *Session) handleHandshakeResponse(f *wire.Frame) error {
	if s.cfg.Role != RoleJoiner || s.phase != InitSent {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	resp, err := wire.ParseHandshakeResponse(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed HANDSHAKE_RESPONSE"))
		return nil
	}

	seed := resp.Seed
	s.seed = &seed
	s.prng = calc.NewPRNG(seed)
	s.opponent.PeerID = resp.PeerID

	s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "seed received"))
	return s.sendOwnBattleSetup()
}

func (s *Session) sendOwnBattleSetup() error {
	seq := s.rel.NextSeq()
	setup := wire.BattleSetup{
		CommunicationMode: wire.ModeP2P,
		PokemonName:       s.local.PokemonName,
		StatBoosts: wire.StatBoosts{
			SpAttackUses:  s.local.Boosts.SpAttackUses,
			SpDefenseUses: s.local.Boosts.SpDefenseUses,
		},
	}
	if err := s.sendReliable(setup.Frame().WithSeq(seq)); err != nil {
		return err
	}
	s.setPhase(SetupExchanging)
	return nil
}

// handleBattleSetup populates the opponent's combatant from the repository
// and, once both sides have exchanged BATTLE_SETUP, opens play (spec.md
// §4.3).
func (s *Session) handleBattleSetup(f *wire.Frame) error {
	if s.phase != SetupExchanging && s.phase != Spectating {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	setup, err := wire.ParseBattleSetup(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed BATTLE_SETUP"))
		return nil
	}

	stats, err := s.repo.BaseStats(setup.PokemonName)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("unknown opponent pokemon: " + setup.PokemonName))
		return nil
	}

	s.opponent.PokemonName = setup.PokemonName
	s.opponent.Stats = stats
	s.opponent.CurrentHP = stats.HP
	s.opponent.Boosts = StatBoosts{
		SpAttackUses:  setup.StatBoosts.SpAttackUses,
		SpDefenseUses: setup.StatBoosts.SpDefenseUses,
	}

	if s.phase == Spectating {
		return nil
	}

	s.setPhase(WaitingForMove)
	s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), "battle ready"))
	s.emit(eventlog.NewTurnIndicatorEvent(s.turn+1, s.phase.String(), s.isLocalAttacker()))
	return nil
}

// handleSpectatorRequest accepts and logs a spectator's join. BROADCAST
// fan-out is out of scope (spec.md §9, Open Question 4): this implementation
// has no spectator-address registry and no relay path, so a SPECTATOR_REQUEST
// has no effect on play beyond this connection-status event. Nothing
// forwards the combatants' own datagrams to a spectator's address, so a
// spectator's Session sits in Spectating (entered directly from Begin, not
// from any inbound BATTLE_SETUP) without ever observing the battle.
func (s *Session) handleSpectatorRequest(f *wire.Frame) error {
	req, err := wire.ParseSpectatorRequest(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed SPECTATOR_REQUEST"))
		return nil
	}
	s.emit(eventlog.NewConnectionStatusEvent(s.phase.String(), fmt.Sprintf("spectator %s joined", req.PeerID)))
	return nil
}

// isLocalAttacker reports whether the local peer attacks on the turn about
// to be played. HOST attacks on odd turn numbers, JOINER on even ones,
// starting from turn 1 (spec.md §4.3, "Role of first mover").
func (s *Session) isLocalAttacker() bool {
	next := s.turn + 1
	hostAttacks := next%2 == 1
	switch s.cfg.Role {
	case RoleHost:
		return hostAttacks
	case RoleJoiner:
		return !hostAttacks
	default:
		return false
	}
}
