// Package steplog stores the full input of every applied block as one
// JSON line per step, zstd-framed so the file stays appendable: each
// record is its own frame and concatenated frames decode as one stream.
package steplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"crownhunt/internal/protocol"
)

// Record is one applied block: the step inputs plus the digest of the
// state they produced.  A replay that does not reproduce the digest
// means the engine and the log disagree.
type Record struct {
	Step   protocol.StepMsg `json:"step"`
	Digest string           `json:"digest"`
}

// Log is an append-only step journal.  Append is safe for concurrent use.
type Log struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
}

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Log{f: f, enc: enc}, nil
}

func (l *Log) Append(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	frame := l.enc.EncodeAll(line, nil)
	if _, err := l.f.Write(frame); err != nil {
		return fmt.Errorf("append step %d: %w", rec.Step.Height, err)
	}
	return nil
}

// Sync flushes the journal to stable storage.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Sync()
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enc.Close()
	return l.f.Close()
}

// Replay streams every record to fn in file order.  fn returning an
// error stops the replay and surfaces that error.
func Replay(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1<<20), 64<<20)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("decode step record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}
