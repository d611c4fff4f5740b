// Package calc is the deterministic battle calculator: a Mulberry32 PRNG and
// the pure damage formula built on it. Both peers evaluate it identically
// from the same session seed, which is what makes cross-verification of a
// CALCULATION_REPORT meaningful (spec.md §4.5).
package calc

// PRNG is a Mulberry32 generator. Its 32-bit state is the entire session
// seed lineage; given the same seed, NextFloat produces a bit-identical
// sequence on any conforming peer (spec.md P5).
type PRNG struct {
	state uint32
}

// NewPRNG seeds a new generator. Seed is set exactly once per session, by
// HOST, and propagated to JOINER in HANDSHAKE_RESPONSE (spec.md I5).
func NewPRNG(seed uint32) *PRNG {
	return &PRNG{state: seed}
}

// State exposes the current internal word, mostly for tests.
func (p *PRNG) State() uint32 {
	return p.state
}

// NextFloat advances the generator by one step and returns a value in
// [0, 1). The algorithm below must be implemented bit-identically by any
// conforming peer; every multiplication is implicitly modulo 2^32 because
// Go's uint32 arithmetic wraps.
func (p *PRNG) NextFloat() float64 {
	p.state += 0x6D2B79F5
	s := p.state
	t := (s ^ (s >> 15)) * (s | 1)
	t ^= t + ((t ^ (t >> 7)) * (t | 61))
	t ^= t >> 14
	return float64(t) / 4294967296.0 // 2^32
}

// NextModifier returns the damage formula's random modifier, in [0.85, 1.00).
// This advances the PRNG by exactly one step, same as NextFloat.
func (p *PRNG) NextModifier() float64 {
	return 0.85 + p.NextFloat()*0.15
}
