package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"crownhunt/internal/game/state"
)

// SQLiteIndex is a queryable secondary index over the applied chain.
// Writes go through a single writer goroutine so the game loop never
// blocks on the database; the step journal remains the source of truth
// and a dropped index write is only a missed query row.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqBlock reqKind = iota + 1
	reqSnapshot
	reqBarrier
)

type req struct {
	kind     reqKind
	block    BlockRow
	kills    []KillRow
	snapshot SnapshotRow
	done     chan struct{}
}

// BlockRow summarizes one applied block.
type BlockRow struct {
	Height       int64
	Digest       string
	BlockHash    string
	TaxCollected int64
	Bounties     int64
	GameFund     int64
	Players      int
	Characters   int
	NPCs         int
}

// KillRow is one character death in a block.
type KillRow struct {
	Height int64
	Seq    int
	Player string
	Index  int
	Reason string
}

// SnapshotRow records a snapshot file written to disk.
type SnapshotRow struct {
	Height int64
	Path   string
	Digest string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			block_hash TEXT NOT NULL,
			tax_collected INTEGER NOT NULL,
			bounties INTEGER NOT NULL,
			game_fund INTEGER NOT NULL,
			players INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			npcs INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kills (
			height INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			player TEXT NOT NULL,
			char_index INTEGER NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (height, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_player_height ON kills(player, height);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			height INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			digest TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// SetMeta stores a key/value pair synchronously.  Used once at startup
// for network and version identification.
func (s *SQLiteIndex) SetMeta(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, key, value)
	return err
}

func (s *SQLiteIndex) Meta(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// WriteBlock queues the index rows for one applied block.  The result
// is summarized here so the caller can drop it afterwards.
func (s *SQLiteIndex) WriteBlock(g *state.GameState, res *state.StepResult, blockHash string) {
	if s == nil || s.closed.Load() {
		return
	}
	row := BlockRow{
		Height:       g.Height,
		Digest:       g.DigestHex(),
		BlockHash:    blockHash,
		TaxCollected: res.TaxCollected,
		GameFund:     g.GameFund,
		Players:      len(g.Players),
		NPCs:         len(g.NPCs),
	}
	for _, b := range res.Bounties {
		row.Bounties += b.Amount
	}
	for _, p := range g.Players {
		row.Characters += len(p.Characters)
	}
	kills := make([]KillRow, 0, len(res.KilledCharacters))
	for i, id := range res.KilledCharacters {
		kills = append(kills, KillRow{
			Height: g.Height,
			Seq:    i,
			Player: string(id.Player),
			Index:  id.Index,
			Reason: string(res.KilledBy[id].Reason),
		})
	}
	select {
	case s.ch <- req{kind: reqBlock, block: row, kills: kills}:
	default:
		// Drop if the indexer falls behind; the step journal remains
		// the source of truth.
	}
}

// RecordSnapshot queues a snapshot file record.
func (s *SQLiteIndex) RecordSnapshot(height int64, path, digest string) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: SnapshotRow{Height: height, Path: path, Digest: digest}}:
	default:
	}
}

// Barrier blocks until every previously queued write has committed.
func (s *SQLiteIndex) Barrier() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqBarrier, done: done}
	<-done
}

// BlockDigest returns the state digest indexed for a height, or "" when
// the height is not indexed.
func (s *SQLiteIndex) BlockDigest(height int64) (string, error) {
	var d string
	err := s.db.QueryRow(`SELECT digest FROM blocks WHERE height=?`, height).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return d, err
}

// TipHeight returns the highest indexed height, or -1 when empty.
func (s *SQLiteIndex) TipHeight() (int64, error) {
	var h sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(height) FROM blocks`).Scan(&h); err != nil {
		return -1, err
	}
	if !h.Valid {
		return -1, nil
	}
	return h.Int64, nil
}

// KillsForPlayer lists a player's character deaths in height order.
func (s *SQLiteIndex) KillsForPlayer(player string) ([]KillRow, error) {
	rows, err := s.db.Query(
		`SELECT height, seq, char_index, reason FROM kills WHERE player=? ORDER BY height, seq`, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KillRow
	for rows.Next() {
		k := KillRow{Player: player}
		if err := rows.Scan(&k.Height, &k.Seq, &k.Index, &k.Reason); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// SnapshotAtOrBefore returns the newest snapshot row at or below the
// height, for resuming a replay.  Height -1 means none.
func (s *SQLiteIndex) SnapshotAtOrBefore(height int64) (SnapshotRow, error) {
	var row SnapshotRow
	err := s.db.QueryRow(
		`SELECT height, path, digest FROM snapshots WHERE height<=? ORDER BY height DESC LIMIT 1`, height).
		Scan(&row.Height, &row.Path, &row.Digest)
	if err == sql.ErrNoRows {
		return SnapshotRow{Height: -1}, nil
	}
	return row, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertBlock, _ := s.db.Prepare(`INSERT OR REPLACE INTO blocks(height,digest,block_hash,tax_collected,bounties,game_fund,players,characters,npcs) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertKill, _ := s.db.Prepare(`INSERT OR REPLACE INTO kills(height,seq,player,char_index,reason) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(height,path,digest) VALUES(?,?,?)`)
	defer func() {
		if insertBlock != nil {
			_ = insertBlock.Close()
		}
		if insertKill != nil {
			_ = insertKill.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqBarrier {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqBlock:
			b := r.block
			if insertBlock != nil {
				if _, err := tx.Stmt(insertBlock).Exec(
					b.Height, b.Digest, b.BlockHash,
					b.TaxCollected, b.Bounties, b.GameFund,
					b.Players, b.Characters, b.NPCs,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, k := range r.kills {
				if insertKill == nil {
					break
				}
				if _, err := tx.Stmt(insertKill).Exec(k.Height, k.Seq, k.Player, k.Index, k.Reason); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(sn.Height, sn.Path, sn.Digest); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
