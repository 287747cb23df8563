package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"crownhunt/internal/game/state"
)

const headerVersion = 1

// Header is the uncompressed-readable first line of every snapshot
// file.  The body that follows is the canonical state JSON, so the
// digest recomputed from the body must match the header.
type Header struct {
	Version int    `json:"version"`
	Network string `json:"network"`
	Height  int64  `json:"height"`
	Digest  string `json:"digest"`
}

// Path names the snapshot file for a height inside dir.
func Path(dir string, height int64) string {
	return filepath.Join(dir, fmt.Sprintf("snap_%010d.json.zst", height))
}

// Write stores the state atomically: a temp file is renamed into place
// so a crash never leaves a truncated snapshot behind.
func Write(path, network string, g *state.GameState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	err = writeTo(f, network, g)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeTo(w io.Writer, network string, g *state.GameState) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hdr := Header{
		Version: headerVersion,
		Network: network,
		Height:  g.Height,
		Digest:  g.DigestHex(),
	}
	hb, err := json.Marshal(hdr)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	body, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// Read loads a snapshot and verifies the body against the header digest.
func Read(path string) (Header, *state.GameState, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != headerVersion {
		return hdr, nil, fmt.Errorf("snapshot version %d not supported", hdr.Version)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return hdr, nil, err
	}
	g := &state.GameState{}
	if err := g.UnmarshalJSON(body); err != nil {
		return hdr, nil, fmt.Errorf("decode state: %w", err)
	}
	if got := g.DigestHex(); got != hdr.Digest {
		return hdr, nil, fmt.Errorf("snapshot digest mismatch: header %s, body %s", hdr.Digest, got)
	}
	return hdr, g, nil
}

// Latest returns the path and height of the newest snapshot in dir, or
// height -1 when none exist.
func Latest(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", -1, nil
	}
	if err != nil {
		return "", -1, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		var h int64
		if _, err := fmt.Sscanf(name, "snap_%010d.json.zst", &h); err == nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", -1, nil
	}
	sort.Strings(names)
	last := names[len(names)-1]
	var height int64
	fmt.Sscanf(last, "snap_%010d.json.zst", &height)
	return filepath.Join(dir, last), height, nil
}

// Prune keeps the newest keep snapshots and deletes the rest.
func Prune(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		var h int64
		if _, err := fmt.Sscanf(e.Name(), "snap_%010d.json.zst", &h); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for len(names) > keep {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
