package state

import (
	"testing"

	"crownhunt/internal/chain"
)

// driveChain advances a fresh world through n identical blocks and returns
// the digest after every one.
func driveChain(t *testing.T, n int64) []string {
	t.Helper()
	p := chain.Regtest()
	g := NewGame(p)
	digests := make([]string, 0, n)
	for h := int64(0); h < n; h++ {
		data := &StepData{NewHash: blockHash(h), TreasureAmount: 5 * chain.COIN}
		switch h {
		case 0:
			data.Moves = []Move{
				{Player: "alice", Spawn: &SpawnParams{Color: 0}, Address: "a1"},
				{Player: "bob", Spawn: &SpawnParams{Color: 1}, Address: "b1"},
			}
		case 3:
			data.Moves = []Move{
				{Player: "alice", Spawn: &SpawnParams{Color: 0}},
				{Player: "carol", Spawn: &SpawnParams{Color: 2}, Message: "gl hf"},
			}
		case 12:
			data.Moves = []Move{
				{Player: "bob", VersionVote: p.DAOMinVersionInit, ProtocolVersion: p.StateVersion},
			}
		}
		next, _, err := PerformStep(g, data, p)
		if err != nil {
			t.Fatalf("height %d: %v", h, err)
		}
		digests = append(digests, next.DigestHex())
		g = next
	}
	return digests
}

func TestIdenticalInputsIdenticalDigests(t *testing.T) {
	a := driveChain(t, 40)
	b := driveChain(t, 40)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest diverged at height %d:\n  %s\n  %s", i, a[i], b[i])
		}
	}
}

func TestDigestSurvivesSnapshotRoundTrip(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	for h := int64(0); h < 10; h++ {
		data := &StepData{NewHash: blockHash(h)}
		if h == 0 {
			data.Moves = []Move{{Player: "alice", Spawn: &SpawnParams{Color: 3}}}
		}
		next, _, err := PerformStep(g, data, p)
		if err != nil {
			t.Fatalf("height %d: %v", h, err)
		}
		g = next
	}

	raw, err := g.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back GameState
	if err := back.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.DigestHex() != g.DigestHex() {
		t.Fatalf("digest changed across the wire round trip")
	}
	if back.TotalMoney() != g.TotalMoney() {
		t.Fatalf("money changed across the wire round trip")
	}
}

func TestForkedHashForksDigest(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	data0 := &StepData{NewHash: blockHash(0)}
	data1 := &StepData{NewHash: blockHash(1)}
	a, _, err := PerformStep(g, data0, p)
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	b, _, err := PerformStep(g, data1, p)
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if a.DigestHex() == b.DigestHex() {
		t.Fatalf("different block hashes produced identical states")
	}
}
