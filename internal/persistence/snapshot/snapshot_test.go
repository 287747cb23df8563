package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"path/filepath"
	"testing"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/state"
)

func testState(t *testing.T, blocks int64) *state.GameState {
	t.Helper()
	p := chain.Regtest()
	g := state.NewGame(p)
	for h := int64(0); h < blocks; h++ {
		var hash [32]byte
		binary.BigEndian.PutUint64(hash[:8], uint64(h)+1)
		hash = sha256.Sum256(hash[:])
		data := &state.StepData{NewHash: hash}
		if h == 0 {
			data.Moves = []state.Move{{Player: "alice", Spawn: &state.SpawnParams{Color: 0}}}
		}
		next, _, err := state.PerformStep(g, data, p)
		if err != nil {
			t.Fatalf("height %d: %v", h, err)
		}
		g = next
	}
	return g
}

func TestWriteReadRoundTrip(t *testing.T) {
	g := testState(t, 5)
	dir := t.TempDir()
	path := Path(dir, g.Height)

	if err := Write(path, "regtest", g); err != nil {
		t.Fatalf("write: %v", err)
	}
	hdr, back, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if hdr.Network != "regtest" || hdr.Height != g.Height {
		t.Fatalf("bad header %+v", hdr)
	}
	if back.DigestHex() != g.DigestHex() {
		t.Fatalf("digest changed across snapshot round trip")
	}
}

func TestLatestAndPrune(t *testing.T) {
	g := testState(t, 1)
	dir := t.TempDir()
	for _, h := range []int64{3, 12, 7} {
		g.Height = h
		if err := Write(Path(dir, h), "regtest", g); err != nil {
			t.Fatalf("write %d: %v", h, err)
		}
	}
	path, height, err := Latest(dir)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if height != 12 || path != Path(dir, 12) {
		t.Fatalf("latest = %s at %d", path, height)
	}

	if err := Prune(dir, 1); err != nil {
		t.Fatalf("prune: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "snap_*"))
	if len(matches) != 1 || matches[0] != Path(dir, 12) {
		t.Fatalf("prune left %v", matches)
	}
}

func TestLatestEmptyDir(t *testing.T) {
	_, height, err := Latest(filepath.Join(t.TempDir(), "missing"))
	if err != nil || height != -1 {
		t.Fatalf("got height %d err %v", height, err)
	}
}
