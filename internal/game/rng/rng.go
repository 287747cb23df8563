// Package rng implements the deterministic random stream used by the
// state-transition engine.  Every full node seeds it from the same block
// hash and consumes it in the same order, so the sequence is part of the
// consensus protocol: same seed + same call order = same numbers, on every
// platform and word size.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// minState is the threshold below which the remaining entropy of the
// current state is considered used up and a fresh hash is drawn.  Chosen
// so that the modulo bias for any realistic argument (map sizes, player
// counts) is far below 2^-96.
var minState = new(big.Int).Lsh(big.NewInt(1), 160)

// Generator produces uniform integers from a 256-bit seed.  It is not
// safe for concurrent use; the transition pipeline is single-threaded by
// design so this never matters in practice.
type Generator struct {
	// base is the last full hash output; rehashed whenever state runs low.
	base  [sha256.Size]byte
	state *big.Int
}

// New returns a generator seeded with the given 32-byte block hash.
func New(seed [32]byte) *Generator {
	g := &Generator{base: sha256.Sum256(seed[:])}
	g.state = new(big.Int).SetBytes(g.base[:])
	return g
}

// NewSalted derives an independent stream from the same seed.  Used when a
// phase needs randomness decoupled from the main draw order, e.g. the agent
// pass keyed on the previous block hash plus the height.
func NewSalted(seed [32]byte, salt int64) *Generator {
	var buf [40]byte
	copy(buf[:32], seed[:])
	binary.BigEndian.PutUint64(buf[32:], uint64(salt))
	return New(sha256.Sum256(buf[:]))
}

// Intn returns a uniform integer in [0, n).  n must be positive; calling
// with n <= 0 is a programming error, not a runtime condition.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive bound")
	}
	if g.state.Cmp(minState) < 0 {
		g.base = sha256.Sum256(g.base[:])
		g.state.SetBytes(g.base[:])
	}
	mod := big.NewInt(int64(n))
	rem := new(big.Int)
	g.state.QuoRem(g.state, mod, rem)
	return int(rem.Int64())
}

// IntRange returns a uniform integer in [min, max] inclusive.
func (g *Generator) IntRange(min, max int) int {
	if max < min {
		panic("rng: IntRange called with max < min")
	}
	return min + g.Intn(max-min+1)
}
