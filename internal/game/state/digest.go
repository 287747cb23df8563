package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Digest is the canonical fingerprint of a state: a SHA-256 over the wire
// encoding, whose collections are sorted.  Two nodes agree on a block iff
// their digests match.
func (g *GameState) Digest() [32]byte {
	raw, err := json.Marshal(g)
	if err != nil {
		// The wire form contains no unmarshalable types; an error here is
		// a bug, and a silent zero digest would mask it.
		panic("state: digest encoding failed: " + err.Error())
	}
	return sha256.Sum256(raw)
}

// DigestHex is the digest as a lowercase hex string, for logs and the
// observer stream.
func (g *GameState) DigestHex() string {
	d := g.Digest()
	return hex.EncodeToString(d[:])
}
