package archive

import (
	"os"
	"path/filepath"
	"testing"

	"crownhunt/internal/chain"
	"crownhunt/internal/persistence/snapshot"
)

func TestArchiveForkSnapshot_CopiesPreForkSnapshot(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "snapshots", "snap_0000049999.json.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	p := chain.Main()
	hdr := snapshot.Header{Version: 1, Network: "main", Height: p.ForkHeightPoison - 1, Digest: "d"}

	fork, archivedPath, ok, err := ArchiveForkSnapshot(dir, src, hdr, p)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok || fork != "poison" {
		t.Fatalf("fork=%q ok=%v", fork, ok)
	}

	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", got, want)
	}

	metaPath := filepath.Join(filepath.Dir(archivedPath), "meta.json")
	if _, err := os.Stat(metaPath); err != nil {
		t.Fatalf("expected meta.json to exist: %v", err)
	}
}

func TestArchiveForkSnapshot_SkipsOrdinaryHeights(t *testing.T) {
	p := chain.Main()
	hdr := snapshot.Header{Height: 1234}
	_, _, ok, err := ArchiveForkSnapshot(t.TempDir(), "nope", hdr, p)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if ok {
		t.Fatalf("expected no archive at an ordinary height")
	}
}
