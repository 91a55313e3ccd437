// Package rng implements the 32-bit Mersenne Twister (MT19937).
//
// The generator is bit-reproducible across platforms for a given seed, which
// makes Monte-Carlo cross-validation groupings repeatable between runs and
// machines.
//
//	r := rng.New(4357)
//	x := r.Float64() // uniform in [0,1]
//
// A MT19937 is not safe for concurrent use.
package rng
