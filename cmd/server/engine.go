package main

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/state"
	"crownhunt/internal/persistence/archive"
	"crownhunt/internal/persistence/indexdb"
	"crownhunt/internal/persistence/snapshot"
	"crownhunt/internal/persistence/steplog"
	"crownhunt/internal/protocol"
	"crownhunt/internal/transport/ingest"
	"crownhunt/internal/transport/observer"
)

// engine owns the tip state and applies submitted steps one at a time.
// Everything downstream of a committed block (journal, index, snapshots,
// observers) hangs off applyCommitted.
type engine struct {
	mu sync.Mutex
	g  *state.GameState

	params  chain.Params
	dataDir string
	log     *log.Logger

	journal *steplog.Log
	idx     *indexdb.SQLiteIndex
	hub     *observer.Hub
	mirror  *mirrorRuntime

	snapshotEvery int64
	snapshotKeep  int
}

func (e *engine) ApplyStep(msg protocol.StepMsg) (string, error) {
	data, err := msg.ToStepData()
	if err != nil {
		return "", &ingest.CodedError{Code: protocol.ErrBadMove, Msg: err.Error()}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if msg.Height != e.g.Height+1 {
		return "", &ingest.CodedError{
			Code: protocol.ErrBadHeight,
			Msg:  fmt.Sprintf("tip is %d, got %d", e.g.Height, msg.Height),
		}
	}

	next, res, err := state.PerformStep(e.g, data, e.params)
	if err != nil {
		return "", &ingest.CodedError{Code: protocol.ErrBadMove, Msg: err.Error()}
	}

	// Steps without a final block hash are previews for block assembly:
	// report the deterministic outcome but keep the tip unchanged.
	if !data.HashKnown() {
		return next.DigestHex(), nil
	}

	if err := e.applyCommitted(next, res, msg); err != nil {
		return "", err
	}
	return next.DigestHex(), nil
}

func (e *engine) applyCommitted(next *state.GameState, res *state.StepResult, msg protocol.StepMsg) error {
	digest := next.DigestHex()

	if err := e.journal.Append(steplog.Record{Step: msg, Digest: digest}); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	e.g = next

	if e.idx != nil {
		e.idx.WriteBlock(next, res, msg.BlockHash)
	}

	dig := protocol.DigestMsg{
		Type:            protocol.TypeDigest,
		ProtocolVersion: protocol.Version,
		Height:          next.Height,
		Digest:          digest,
		TaxCollected:    res.TaxCollected,
		CharactersDead:  len(res.KilledCharacters),
		PlayersDead:     len(res.KilledPlayers),
	}
	var stateRaw json.RawMessage
	if e.hub.Sessions() > 0 {
		if b, err := json.Marshal(next); err == nil {
			stateRaw = b
		}
	}
	e.hub.Publish(dig, stateRaw)

	if e.snapshotEvery > 0 && (next.Height+1)%e.snapshotEvery == 0 {
		e.writeSnapshot(next)
	}
	return nil
}

// writeSnapshot persists the state, indexes it, archives fork boundaries
// and hands everything to the off-site mirror.
func (e *engine) writeSnapshot(g *state.GameState) {
	dir := filepath.Join(e.dataDir, "snapshots")
	path := snapshot.Path(dir, g.Height)
	if err := snapshot.Write(path, e.params.Network, g); err != nil {
		e.log.Printf("snapshot write: %v", err)
		return
	}
	e.log.Printf("snapshot height=%d file=%s", g.Height, filepath.Base(path))

	hdr := snapshot.Header{Version: 1, Network: e.params.Network, Height: g.Height, Digest: g.DigestHex()}
	if e.idx != nil {
		e.idx.RecordSnapshot(g.Height, path, hdr.Digest)
	}
	e.mirror.Enqueue(path)

	if fork, archivedPath, ok, err := archive.ArchiveForkSnapshot(e.dataDir, path, hdr, e.params); err != nil {
		e.log.Printf("archive fork snapshot: %v", err)
	} else if ok {
		e.log.Printf("archived pre-%s snapshot at height %d", fork, g.Height)
		e.mirror.Enqueue(archivedPath)
	}

	if e.snapshotKeep > 0 {
		if err := snapshot.Prune(dir, e.snapshotKeep); err != nil {
			e.log.Printf("snapshot prune: %v", err)
		}
	}
}

// ForceSnapshot writes a snapshot of the current tip regardless of the
// schedule.
func (e *engine) ForceSnapshot() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writeSnapshot(e.g)
	return e.g.Height
}

func (e *engine) Tip() (int64, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.Height, e.g.DigestHex()
}

func (e *engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.g.Players)
}
