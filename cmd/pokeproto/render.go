package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pokeprotocol/pokeprotocol/internal/eventlog"
	"github.com/pokeprotocol/pokeprotocol/internal/session"
)

// renderEvent prints one battle event to the terminal, formatted the way
// the teacher's Client.renderEvent formats a notify message off
// eventlog.FormatEvent's phase-padded layout.
func renderEvent(e eventlog.BattleEvent) {
	fmt.Println(eventlog.FormatEvent(e))
}

// renderStatus prints a compact HP/turn summary, grounded on the teacher's
// Client.renderState box, simplified from a five-zone card board down to
// PokeProtocol's two-combatant battle.
func renderStatus(s *session.Session) {
	local, opp := s.Local(), s.Opponent()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Printf("║  %-12s HP %3d/%-3d   vs   %-12s HP %3d/%-3d\n",
		local.PokemonName, local.CurrentHP, local.Stats.HP,
		opp.PokemonName, opp.CurrentHP, opp.Stats.HP)
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Printf("Turn %d | %s\n", s.Turn()+1, s.Phase())
}

func newStdinReader() *bufio.Reader {
	return bufio.NewReader(os.Stdin)
}
