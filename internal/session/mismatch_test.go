package session

import (
	"testing"

	"github.com/pokeprotocol/pokeprotocol/internal/calc"
	"github.com/pokeprotocol/pokeprotocol/internal/plog"
	"github.com/pokeprotocol/pokeprotocol/internal/wire"
)

// skewedRepo wraps testRepo but reports a different Thunderbolt power,
// so a HOST and JOINER wired to two separate skewedRepo instances compute
// deliberately divergent damage for the same move (spec.md's S5 scenario).
type skewedRepo struct {
	*testRepo
	thunderboltPower int
}

func newSkewedRepo(thunderboltPower int) *skewedRepo {
	r := &skewedRepo{testRepo: newTestRepo(), thunderboltPower: thunderboltPower}
	move := r.moves["Thunderbolt"]
	move.Power = thunderboltPower
	r.moves["Thunderbolt"] = move
	return r
}

// establishMismatchedBattle is establishBattle, except HOST and JOINER each
// get their own StatsRepository instance with a different Thunderbolt power,
// guaranteeing a genuine two-sided CALCULATION_REPORT mismatch on the first
// Thunderbolt used (spec.md §9, Open Question 2; §8 S5).
func establishMismatchedBattle(hostPower, joinerPower int) (net *simulatedNetwork, host, joiner *Session) {
	net = newSimulatedNetwork()

	h, err := New(Config{
		PeerID:       "HostUserA",
		Role:         RoleHost,
		LocalPokemon: "Pikachu",
		OpponentAddr: "joiner",
		Repository:   newSkewedRepo(hostPower),
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
		Repository:   newSkewedRepo(joinerPower),
		Transport:    net.transport("joiner"),
		Logger:       plog.Nop(),
	})
	if err != nil {
		panic(err)
	}

	net.sessions["host"] = h
	net.sessions["joiner"] = j

	if err := j.Begin(); err != nil {
		panic(err)
	}
	if err := net.drain(); err != nil {
		panic(err)
	}
	return net, h, j
}

// expectedHostDamage replays the same calculator call the HOST makes for
// its own Thunderbolt, so the test can assert on the HOST's specific number
// rather than just "some agreed value".
func expectedHostDamage(hostPower int) int {
	prng := calc.NewPRNG(12345)
	in := calc.Input{
		Attacker: calc.BaseStats{SpAttack: 50, Types: []string{"electric"}},
		Defender: calc.BaseStats{
			SpDefense:       65,
			TypeMultipliers: map[string]float64{"electric": 0.5},
		},
		Move: calc.Move{Name: "Thunderbolt", Power: hostPower, Type: "electric", Category: calc.Special},
	}
	return calc.ComputeDamage(in, prng)
}

// TestSimultaneousMismatchHostWinsTiebreak drives a real two-sided
// CALCULATION_REPORT mismatch through the simulated network (spec.md §9
// Open Question 2, §8 S5): HOST and JOINER each independently detect the
// disagreement and each send their own RESOLUTION_REQUEST before either
// processes the other's, since both sides cross-check symmetrically. It
// asserts both peers converge, and on the HOST's numbers specifically.
func TestSimultaneousMismatchHostWinsTiebreak(t *testing.T) {
	const hostPower, joinerPower = 90, 150
	net, host, joiner := establishMismatchedBattle(hostPower, joinerPower)

	if err := host.SubmitMove("Thunderbolt"); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if err := net.drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if host.Turn() != 1 || joiner.Turn() != 1 {
		t.Fatalf("turn did not advance after tiebreak: host=%d joiner=%d", host.Turn(), joiner.Turn())
	}
	if host.Phase() != WaitingForMove || joiner.Phase() != WaitingForMove {
		t.Fatalf("phase after tiebreak: host=%v joiner=%v, want WAITING_FOR_MOVE", host.Phase(), joiner.Phase())
	}

	want := expectedHostDamage(hostPower)
	wantHP := 45 - want
	if wantHP < 0 {
		wantHP = 0
	}
	if host.Opponent().CurrentHP != wantHP {
		t.Fatalf("host's view of joiner hp = %d, want %d (host's own computed damage, not joiner's %d-power figure)", host.Opponent().CurrentHP, wantHP, joinerPower)
	}
	if joiner.Local().CurrentHP != wantHP {
		t.Fatalf("joiner's own hp = %d, want %d (should have adopted the HOST's proposal, not its own)", joiner.Local().CurrentHP, wantHP)
	}
}

// TestSingleSidedResolutionRequestIsAdopted exercises the plain, asymmetric
// half of spec.md §9 Open Question 2: a peer that has not itself detected a
// mismatch (has not sent its own RESOLUTION_REQUEST) simply adopts the
// sender's proposed values and confirms.
func TestSingleSidedResolutionRequestIsAdopted(t *testing.T) {
	_, host, joiner := establishBattle()

	host.pending = &PendingTurn{
		AttackerIsLocal: true,
		MoveName:        "Thunderbolt",
		Local:           TurnResult{DamageDealt: 20, DefenderHPRemaining: 25, AttackerHPAfter: 35, StatusMessage: "Thunderbolt!"},
		HaveLocalResult: true,
	}
	host.setPhase(ProcessingTurn)

	req := wire.ResolutionRequest{
		Attacker:            joiner.cfg.PeerID,
		MoveUsed:            "Thunderbolt",
		DamageDealt:         30,
		DefenderHPRemaining: 15,
	}
	if err := host.handleResolutionRequest(req.Frame().WithSeq(1)); err != nil {
		t.Fatalf("handleResolutionRequest: %v", err)
	}

	if !host.pending.LocalConfirmed {
		t.Fatal("host should have confirmed after adopting the inbound proposal")
	}
	if host.pending.Final.DamageDealt != 30 || host.pending.Final.DefenderHPRemaining != 15 {
		t.Fatalf("host adopted %+v, want the inbound proposal (30, 15)", host.pending.Final)
	}
}

// TestResolutionRequestHostWinsTiebreak is the unit-level regression test
// for the HOST-wins branch: a HOST that already sent its own
// RESOLUTION_REQUEST must confirm its OWN values on receiving the JOINER's
// competing one, not the inbound ones — and, critically, must actually mark
// itself LocalConfirmed so maybeAdvanceTurn isn't left waiting forever.
func TestResolutionRequestHostWinsTiebreak(t *testing.T) {
	_, host, joiner := establishBattle()

	host.pending = &PendingTurn{
		AttackerIsLocal:       true,
		MoveName:              "Thunderbolt",
		Local:                 TurnResult{DamageDealt: 20, DefenderHPRemaining: 25, AttackerHPAfter: 35, StatusMessage: "Thunderbolt!"},
		HaveLocalResult:       true,
		SentResolutionRequest: true,
	}
	host.setPhase(ProcessingTurn)

	req := wire.ResolutionRequest{
		Attacker:            joiner.cfg.PeerID,
		MoveUsed:            "Thunderbolt",
		DamageDealt:         30,
		DefenderHPRemaining: 15,
	}
	if err := host.handleResolutionRequest(req.Frame().WithSeq(1)); err != nil {
		t.Fatalf("handleResolutionRequest: %v", err)
	}

	if !host.pending.LocalConfirmed {
		t.Fatal("HOST must confirm its own winning proposal locally, not just wait for the opponent")
	}
	if host.pending.Final.DamageDealt != 20 || host.pending.Final.DefenderHPRemaining != 25 {
		t.Fatalf("host.pending.Final = %+v, want its own values (20, 25) to have won the tie", host.pending.Final)
	}
}

// TestResolutionRequestJoinerDefersTiebreak is the JOINER-side half of the
// same tiebreak: a JOINER that already sent its own RESOLUTION_REQUEST must
// still defer to the HOST's competing one.
func TestResolutionRequestJoinerDefersTiebreak(t *testing.T) {
	_, host, joiner := establishBattle()

	joiner.pending = &PendingTurn{
		AttackerIsLocal:       false,
		MoveName:              "Thunderbolt",
		Local:                 TurnResult{DamageDealt: 30, DefenderHPRemaining: 15, AttackerHPAfter: 35, StatusMessage: "Thunderbolt!"},
		HaveLocalResult:       true,
		SentResolutionRequest: true,
	}
	joiner.setPhase(ProcessingTurn)

	req := wire.ResolutionRequest{
		Attacker:            host.cfg.PeerID,
		MoveUsed:            "Thunderbolt",
		DamageDealt:         20,
		DefenderHPRemaining: 25,
	}
	if err := joiner.handleResolutionRequest(req.Frame().WithSeq(1)); err != nil {
		t.Fatalf("handleResolutionRequest: %v", err)
	}

	if !joiner.pending.LocalConfirmed {
		t.Fatal("joiner should have confirmed after deferring to the HOST's proposal")
	}
	if joiner.pending.Final.DamageDealt != 20 || joiner.pending.Final.DefenderHPRemaining != 25 {
		t.Fatalf("joiner.pending.Final = %+v, want the HOST's winning values (20, 25)", joiner.pending.Final)
	}
}
