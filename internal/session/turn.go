package session

import (
	"fmt"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
	"github.com/pokeprotocol/pokeprotocol/internal/eventlog"
	"github.com/pokeprotocol/pokeprotocol/internal/wire"
)

// SubmitMove is the local user's move choice for the turn about to be
// played. It only succeeds when the local peer is the designated attacker
// and the session is idle (spec.md §4.4, attacker-side step 1).
func (s *Session) SubmitMove(moveName string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != WaitingForMove {
		return ErrWrongPhase
	}
	if !s.isLocalAttacker() {
		return ErrNotYourTurn
	}
	if _, err := s.repo.Move(moveName); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.pending = &PendingTurn{AttackerIsLocal: true, MoveName: moveName}
	s.setPhase(ProcessingTurn)

	seq := s.rel.NextSeq()
	announce := wire.AttackAnnounce{MoveName: moveName}
	return s.sendReliable(announce.Frame().WithSeq(seq))
}

// handleAttackAnnounce is the defender-side entry point (spec.md §4.4,
// defender-side steps 1-3): immediately acknowledge with DEFENSE_ANNOUNCE
// and compute + report our own result without waiting for user input.
func (s *Session) handleAttackAnnounce(f *wire.Frame) error {
	if s.phase != WaitingForMove || s.isLocalAttacker() {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	ann, err := wire.ParseAttackAnnounce(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed ATTACK_ANNOUNCE"))
		return nil
	}

	s.pending = &PendingTurn{AttackerIsLocal: false, MoveName: ann.MoveName}
	s.setPhase(ProcessingTurn)
	s.emit(eventlog.NewTurnIndicatorEvent(s.turn+1, s.phase.String(), false))

	seq := s.rel.NextSeq()
	if err := s.sendReliable(wire.DefenseAnnounce{}.Frame().WithSeq(seq)); err != nil {
		return err
	}

	return s.computeAndReport()
}

// handleDefenseAnnounce is the attacker-side continuation (spec.md §4.4,
// attacker-side steps 2-3).
func (s *Session) handleDefenseAnnounce(f *wire.Frame) error {
	if s.phase != ProcessingTurn || s.pending == nil || !s.pending.AttackerIsLocal || s.pending.HaveLocalResult {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	if _, err := wire.ParseDefenseAnnounce(f); err != nil {
		s.emit(eventlog.NewWarningEvent("malformed DEFENSE_ANNOUNCE"))
		return nil
	}
	return s.computeAndReport()
}

// computeAndReport runs the deterministic calculator for the pending move
// from this peer's perspective and sends CALCULATION_REPORT (spec.md §4.5).
func (s *Session) computeAndReport() error {
	p := s.pending
	attacker, defender := s.local, s.opponent
	if !p.AttackerIsLocal {
		attacker, defender = s.opponent, s.local
	}

	move, err := s.repo.Move(p.MoveName)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("unknown move reported: " + p.MoveName))
		return nil
	}

	boosted := attacker.ConsumeAttackBoost()
	in := calc.Input{
		Attacker:      attacker.Stats,
		Defender:      defender.Stats,
		Move:          move,
		BoostConsumed: boosted,
	}
	damage := calc.ComputeDamage(in, s.prng)

	defenderHPAfter := defender.CurrentHP - damage
	if defenderHPAfter < 0 {
		defenderHPAfter = 0
	}

	eff := calc.ClassifyEffectiveness(defender.Stats.TypeMultiplier(move.Type))
	status := statusMessage(move.Name, eff, defenderHPAfter == 0)

	p.Local = TurnResult{
		DamageDealt:         damage,
		DefenderHPRemaining: defenderHPAfter,
		AttackerHPAfter:     attacker.CurrentHP,
		StatusMessage:       status,
	}
	p.HaveLocalResult = true

	seq := s.rel.NextSeq()
	report := wire.CalculationReport{
		Attacker:            attacker.PeerID,
		MoveUsed:            move.Name,
		RemainingHealth:     p.Local.AttackerHPAfter,
		DamageDealt:         p.Local.DamageDealt,
		DefenderHPRemaining: p.Local.DefenderHPRemaining,
		StatusMessage:       status,
	}
	return s.sendReliable(report.Frame().WithSeq(seq))
}

func statusMessage(moveName string, eff calc.Effectiveness, fainted bool) string {
	msg := moveName + "!"
	switch eff {
	case calc.EffectivenessImmune:
		msg += " It had no effect."
	case calc.EffectivenessSuper:
		msg += " It's super effective!"
	case calc.EffectivenessNotVery:
		msg += " It's not very effective..."
	}
	if fainted {
		msg += " The defender fainted!"
	}
	return msg
}

// handleCalculationReport cross-verifies the opponent's report against our
// own already-computed result (spec.md §4.4 step 4).
func (s *Session) handleCalculationReport(f *wire.Frame) error {
	if s.phase != ProcessingTurn || s.pending == nil || !s.pending.HaveLocalResult {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	if s.pending.LocalConfirmed {
		return nil // duplicate retransmit of an already-confirmed report
	}
	report, err := wire.ParseCalculationReport(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed CALCULATION_REPORT"))
		return nil
	}

	p := s.pending
	if report.DamageDealt == p.Local.DamageDealt && report.DefenderHPRemaining == p.Local.DefenderHPRemaining {
		p.Final = p.Local
		return s.confirmLocally()
	}

	s.log.Warn().
		Int("local_damage", p.Local.DamageDealt).
		Int("remote_damage", report.DamageDealt).
		Msg("calculation mismatch detected")
	return s.sendResolutionRequest()
}

func (s *Session) sendResolutionRequest() error {
	p := s.pending
	if p.SentResolutionRequest {
		return nil
	}
	p.SentResolutionRequest = true

	attackerName := s.local.PeerID
	if !p.AttackerIsLocal {
		attackerName = s.opponent.PeerID
	}

	seq := s.rel.NextSeq()
	req := wire.ResolutionRequest{
		Attacker:            attackerName,
		MoveUsed:            p.MoveName,
		DamageDealt:         p.Local.DamageDealt,
		DefenderHPRemaining: p.Local.DefenderHPRemaining,
	}
	return s.sendReliable(req.Frame().WithSeq(seq))
}

// handleResolutionRequest is the mismatch-resolution flow of spec.md §4.4
// and §9 (Open Question 2): the recipient adopts the sender's values and
// confirms, except when both peers detected the mismatch simultaneously —
// then the non-host peer defers to the host's proposal instead of pressing
// its own (HOST-wins tiebreaker).
func (s *Session) handleResolutionRequest(f *wire.Frame) error {
	if s.phase != ProcessingTurn || s.pending == nil {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	if s.pending.LocalConfirmed {
		return nil // duplicate retransmit after we've already confirmed
	}
	req, err := wire.ParseResolutionRequest(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed RESOLUTION_REQUEST"))
		return nil
	}

	p := s.pending
	if p.SentResolutionRequest && s.cfg.Role == RoleHost {
		// Both sides detected the mismatch and proposed independently
		// (spec.md §9, Open Question 2); HOST wins the tie. Confirm our own
		// already-sent values rather than the inbound ones, and still send
		// CALCULATION_CONFIRM so the opponent's own confirm (of our values,
		// once it adopts them) closes the loop.
		p.Final = p.Local
		return s.confirmLocally()
	}

	p.Final = TurnResult{
		DamageDealt:         req.DamageDealt,
		DefenderHPRemaining: req.DefenderHPRemaining,
		AttackerHPAfter:     p.Local.AttackerHPAfter,
		StatusMessage:       p.Local.StatusMessage,
	}
	return s.confirmLocally()
}

func (s *Session) confirmLocally() error {
	p := s.pending
	s.applyResult(p.Final)
	p.LocalConfirmed = true

	seq := s.rel.NextSeq()
	if err := s.sendReliable(wire.CalculationConfirm{}.Frame().WithSeq(seq)); err != nil {
		return err
	}
	return s.maybeAdvanceTurn()
}

// handleCalculationConfirm closes the loop once the opponent has confirmed
// too (spec.md §4.4 step 5).
func (s *Session) handleCalculationConfirm(f *wire.Frame) error {
	if s.phase != ProcessingTurn || s.pending == nil {
		s.dropOutOfPhase(f.Type)
		return nil
	}
	if _, err := wire.ParseCalculationConfirm(f); err != nil {
		s.emit(eventlog.NewWarningEvent("malformed CALCULATION_CONFIRM"))
		return nil
	}

	s.pending.RemoteConfirmed = true
	return s.maybeAdvanceTurn()
}

func (s *Session) applyResult(res TurnResult) {
	p := s.pending
	defender := s.opponent
	if !p.AttackerIsLocal {
		defender = s.local
	}
	defender.CurrentHP = res.DefenderHPRemaining

	s.emit(eventlog.NewStatusMessageEvent(s.turn+1, s.phase.String(), res.StatusMessage))
	s.emit(eventlog.NewHPUpdateEvent(s.turn+1, s.phase.String(), defender.PokemonName, defender.CurrentHP, defender.Stats.HP))
}

// maybeAdvanceTurn advances the battle once both sides have confirmed the
// pending turn's outcome, and ends the game if the defender fainted
// (spec.md §4.4 step 5, "Game end").
func (s *Session) maybeAdvanceTurn() error {
	p := s.pending
	if !p.done() {
		return nil
	}

	s.turn++
	defenderIsOpponent := p.AttackerIsLocal
	var defender *Combatant
	if defenderIsOpponent {
		defender = s.opponent
	} else {
		defender = s.local
	}
	fainted := defender.CurrentHP == 0
	s.pending = nil

	if fainted {
		if defenderIsOpponent {
			seq := s.rel.NextSeq()
			over := wire.GameOver{Winner: s.local.PeerID, Loser: s.opponent.PeerID}
			if err := s.sendReliable(over.Frame().WithSeq(seq)); err != nil {
				return err
			}
			s.setPhase(GameOverPhase)
			s.emit(eventlog.NewGameOverEvent(s.turn, s.local.PeerID, s.opponent.PeerID))
		}
		// Else: the local peer fainted. It waits in PROCESSING_TURN for the
		// opponent's own GAME_OVER rather than declaring the outcome itself.
		return nil
	}

	s.setPhase(WaitingForMove)
	s.emit(eventlog.NewTurnIndicatorEvent(s.turn+1, s.phase.String(), s.isLocalAttacker()))
	return nil
}

// handleGameOver unconditionally ends the session on receipt (spec.md
// §4.4, "Game end").
func (s *Session) handleGameOver(f *wire.Frame) error {
	over, err := wire.ParseGameOver(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed GAME_OVER"))
		return nil
	}
	s.setPhase(GameOverPhase)
	s.emit(eventlog.NewGameOverEvent(s.turn, over.Winner, over.Loser))
	s.emit(eventlog.NewSessionClosedEvent(s.turn, eventlog.CloseReasonRemoteGameOver, "opponent reported game over"))
	return nil
}

// SendChat transmits a CHAT_MESSAGE, valid in any phase and independent of
// the turn state machine (spec.md §4.4, "Chat").
func (s *Session) SendChat(text string) error {
	if s.closed {
		return ErrSessionClosed
	}
	seq := s.rel.NextSeq()
	msg := wire.ChatMessage{SenderName: s.cfg.PeerID, ContentType: wire.ContentText, MessageText: text}
	return s.sendReliable(msg.Frame().WithSeq(seq))
}

// handleChatMessage bypasses the turn state machine entirely and is valid
// in any phase (spec.md §4.4, "Chat").
func (s *Session) handleChatMessage(f *wire.Frame) error {
	msg, err := wire.ParseChatMessage(f)
	if err != nil {
		s.emit(eventlog.NewWarningEvent("malformed CHAT_MESSAGE"))
		return nil
	}
	text := msg.MessageText
	if msg.ContentType == wire.ContentSticker {
		text = "[sticker]"
	}
	s.emit(eventlog.NewChatReceivedEvent(msg.SenderName, text))
	return nil
}
