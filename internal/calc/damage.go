package calc

import "math"

// level is the fixed combatant level the damage formula assumes (spec.md
// §4.5 step 4). PokeProtocol has no leveling system; every battle runs at
// this level.
const level = 50

// stabMultiplier is the Same-Type Attack Bonus applied when a move's type
// is among the attacker's own types.
const stabMultiplier = 1.5

// boostMultiplier is applied once to the attacking stat when the attacker
// has consumed a boost for this turn (spec.md §4.5 step 2).
const boostMultiplier = 1.5

// Input bundles everything ComputeDamage needs: a snapshot of both
// combatants' stats, the move being used, and whether the attacker has
// consumed a stat boost this turn. It is deliberately a snapshot, not a
// live reference, so the calculator stays a pure function of its inputs
// plus one PRNG advance.
type Input struct {
	Attacker      BaseStats
	Defender      BaseStats
	Move          Move
	BoostConsumed bool
}

// ComputeDamage evaluates the deterministic damage formula for one attack.
// It advances prng by exactly one step, unless Move.Category is
// NonDamaging, in which case it returns 0 without touching the PRNG at all
// — both peers must call this the same number of times, in the same order,
// to stay synchronized (spec.md §4.5).
func ComputeDamage(in Input, prng *PRNG) int {
	if in.Move.Category == NonDamaging {
		return 0
	}

	var attackStat, defenseStat int
	switch in.Move.Category {
	case Physical:
		attackStat, defenseStat = in.Attacker.Attack, in.Defender.Defense
	case Special:
		attackStat, defenseStat = in.Attacker.SpAttack, in.Defender.SpDefense
	}

	attackVal := float64(attackStat)
	if in.BoostConsumed {
		attackVal *= boostMultiplier
	}
	if defenseStat == 0 {
		defenseStat = 1
	}

	base := math.Floor((((2*level/5+2)*float64(in.Move.Power)*attackVal)/float64(defenseStat))/50 + 2)

	modifier := 1.0
	if in.Attacker.HasType(in.Move.Type) {
		modifier *= stabMultiplier
	}
	typeMult := in.Defender.TypeMultiplier(in.Move.Type)
	modifier *= typeMult
	modifier *= prng.NextModifier()

	if typeMult == 0 {
		return 0 // immunity
	}

	dmg := int(math.Floor(base * modifier))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// Effectiveness classifies a defender's type multiplier for status-message
// construction; it doesn't affect damage, which already applied the raw
// multiplier.
type Effectiveness int

const (
	EffectivenessNormal Effectiveness = iota
	EffectivenessSuper
	EffectivenessNotVery
	EffectivenessImmune
)

// ClassifyEffectiveness maps a defender's raw type multiplier to the
// human-readable effectiveness tier used in battle log lines.
func ClassifyEffectiveness(multiplier float64) Effectiveness {
	switch {
	case multiplier == 0:
		return EffectivenessImmune
	case multiplier > 1:
		return EffectivenessSuper
	case multiplier < 1:
		return EffectivenessNotVery
	default:
		return EffectivenessNormal
	}
}
