package observer

import (
	"encoding/json"
	"sync"

	"crownhunt/internal/protocol"
)

const ringSize = 1024

// Hub fans applied blocks out to connected observers.  Publish is called
// by the block loop; a slow observer's queue overflowing drops that
// message for them rather than stalling the loop.  A ring of recent
// digests serves late subscribers asking for a short backlog.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session

	network      string
	stateVersion int

	tipHeight int64
	tipDigest string

	ring [ringSize]ringEntry
}

type ringEntry struct {
	height int64
	msg    []byte
}

type session struct {
	id        string
	out       chan []byte
	wantState bool
}

func NewHub(network string, stateVersion int) *Hub {
	return &Hub{
		sessions:     make(map[string]*session),
		network:      network,
		stateVersion: stateVersion,
		tipHeight:    -1,
	}
}

// Publish broadcasts one applied block.  stateRaw is the canonical state
// JSON and may be nil when no subscriber asked for snapshots.
func (h *Hub) Publish(dig protocol.DigestMsg, stateRaw json.RawMessage) {
	db, err := json.Marshal(dig)
	if err != nil {
		return
	}
	var sb []byte
	if stateRaw != nil {
		sb, _ = json.Marshal(protocol.StateMsg{
			Type:            protocol.TypeState,
			ProtocolVersion: protocol.Version,
			Height:          dig.Height,
			Digest:          dig.Digest,
			State:           stateRaw,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.tipHeight = dig.Height
	h.tipDigest = dig.Digest
	h.ring[dig.Height%ringSize] = ringEntry{height: dig.Height, msg: db}

	for _, s := range h.sessions {
		b := db
		if s.wantState && sb != nil {
			b = sb
		}
		select {
		case s.out <- b:
		default:
		}
	}
}

// Tip returns the latest published height and digest.
func (h *Hub) Tip() (int64, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tipHeight, h.tipDigest
}

// Backlog returns the buffered digest messages from the given height to
// the tip, oldest first.  ok is false when the height has already been
// evicted from the ring.
func (h *Hub) Backlog(from int64) (msgs [][]byte, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if from < 0 || from > h.tipHeight {
		return nil, true
	}
	for height := from; height <= h.tipHeight; height++ {
		e := h.ring[height%ringSize]
		if e.height != height || e.msg == nil {
			return nil, false
		}
		msgs = append(msgs, e.msg)
	}
	return msgs, true
}

func (h *Hub) join(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Sessions reports the current subscriber count.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
