package session

import (
	"errors"
	"testing"

	"github.com/pokeprotocol/pokeprotocol/internal/wire"
)

// TestHandshakeEstablishesSharedSeed mirrors spec.md's S1 scenario: after
// the handshake and setup exchange, both peers land in WAITING_FOR_MOVE
// with identical PRNG state derived from the host-issued seed.
func TestHandshakeEstablishesSharedSeed(t *testing.T) {
	_, host, joiner := establishBattle()

	if host.Phase() != WaitingForMove {
		t.Fatalf("host phase = %v, want WAITING_FOR_MOVE", host.Phase())
	}
	if joiner.Phase() != WaitingForMove {
		t.Fatalf("joiner phase = %v, want WAITING_FOR_MOVE", joiner.Phase())
	}
	if host.seed == nil || joiner.seed == nil {
		t.Fatal("both peers should have a seed after setup")
	}
	if *host.seed != *joiner.seed {
		t.Fatalf("seed mismatch: host=%d joiner=%d", *host.seed, *joiner.seed)
	}

	if host.Opponent().PokemonName != "Bulbasaur" {
		t.Fatalf("host's view of opponent = %q, want Bulbasaur", host.Opponent().PokemonName)
	}
	if joiner.Opponent().PokemonName != "Pikachu" {
		t.Fatalf("joiner's view of opponent = %q, want Pikachu", joiner.Opponent().PokemonName)
	}
}

// TestSubmitMoveRejectsWhenNotYourTurn checks turn-alternation gating: on
// turn 1 the HOST attacks, so the JOINER's SubmitMove must be refused.
func TestSubmitMoveRejectsWhenNotYourTurn(t *testing.T) {
	_, _, joiner := establishBattle()

	err := joiner.SubmitMove("Tackle")
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

// TestFullBattleConvergesTurnByTurn drives repeated turns to game over and
// checks, after every completed turn, that both peers' (turn, local hp,
// opponent hp) tuples agree — spec.md's P1 (convergence).
func TestFullBattleConvergesTurnByTurn(t *testing.T) {
	net, host, joiner := establishBattle()

	for i := 0; i < 50; i++ {
		if host.Phase() == GameOverPhase || joiner.Phase() == GameOverPhase {
			break
		}

		var attacker *Session
		var move string
		if host.isLocalAttacker() {
			attacker, move = host, "Thunderbolt"
		} else {
			attacker, move = joiner, "Tackle"
		}

		if err := attacker.SubmitMove(move); err != nil {
			t.Fatalf("turn %d: SubmitMove: %v", i, err)
		}
		if err := net.drain(); err != nil {
			t.Fatalf("turn %d: drain: %v", i, err)
		}

		if host.Turn() != joiner.Turn() {
			t.Fatalf("turn %d: turn counters diverged: host=%d joiner=%d", i, host.Turn(), joiner.Turn())
		}
		if host.Local().CurrentHP != joiner.Opponent().CurrentHP {
			t.Fatalf("turn %d: host local hp %d != joiner's view of host %d", i, host.Local().CurrentHP, joiner.Opponent().CurrentHP)
		}
		if joiner.Local().CurrentHP != host.Opponent().CurrentHP {
			t.Fatalf("turn %d: joiner local hp %d != host's view of joiner %d", i, joiner.Local().CurrentHP, host.Opponent().CurrentHP)
		}
	}

	if host.Phase() != GameOverPhase || joiner.Phase() != GameOverPhase {
		t.Fatal("battle did not reach GAME_OVER within 50 turns")
	}
}

// TestChatMessageBypassesTurnMachine checks spec.md §4.4's "Chat" rule:
// delivered in any phase, no effect on the turn state machine.
func TestChatMessageBypassesTurnMachine(t *testing.T) {
	net, host, joiner := establishBattle()

	phaseBefore := joiner.Phase()
	seq := host.rel.NextSeq()
	chat := wire.ChatMessage{SenderName: "HostUserA", ContentType: wire.ContentText, MessageText: "gl hf"}
	if err := host.sendReliable(chat.Frame().WithSeq(seq)); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	if err := net.drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if joiner.Phase() != phaseBefore {
		t.Fatalf("chat message altered phase: %v -> %v", phaseBefore, joiner.Phase())
	}

	events := joiner.Events()
	found := false
	for _, e := range events {
		if e.Details == "HostUserA: gl hf" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a ChatReceived event on the joiner")
	}
}
