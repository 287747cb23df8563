package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"crownhunt/internal/chain"
	"crownhunt/internal/persistence/snapshot"
)

type ForkArchiveMeta struct {
	Fork      string `json:"fork"`
	Height    int64  `json:"height"`
	Network   string `json:"network"`
	Digest    string `json:"digest"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveForkSnapshot copies a snapshot taken at a fork activation height
// into `dataDir/archives/fork_<name>/`, keeping a permanent record of the
// last state under the old rules.  It returns (fork, archivedPath,
// archived=true) when the snapshot sits exactly at an activation height.
func ArchiveForkSnapshot(dataDir, snapshotPath string, hdr snapshot.Header, p chain.Params) (fork string, archivedPath string, archived bool, err error) {
	name, ok := forkAt(hdr.Height, p)
	if !ok {
		return "", "", false, nil
	}

	archiveDir := filepath.Join(dataDir, "archives", "fork_"+name)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", "", false, err
	}

	meta := ForkArchiveMeta{
		Fork:      name,
		Height:    hdr.Height,
		Network:   hdr.Network,
		Digest:    hdr.Digest,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return name, dst, true, nil
}

// forkAt matches a height against the activation schedule.  A snapshot at
// height h-1 is the last pre-fork state for a fork activating at h, so the
// comparison is against activation minus one.
func forkAt(height int64, p chain.Params) (string, bool) {
	named := []struct {
		name   string
		height int64
	}{
		{"poison", p.ForkHeightPoison},
		{"carrying_cap", p.ForkHeightCarryingCap},
		{"less_hearts", p.ForkHeightLessHearts},
		{"lifesteal", p.ForkHeightLifesteal},
		{"timesave", p.ForkHeightTimesave},
	}
	for _, f := range named {
		if f.height > 0 && height == f.height-1 {
			return f.name, true
		}
	}
	return "", false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
