package protocol

import "encoding/json"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// FromHeight asks the server to replay digests starting at this
	// height before switching to the live feed.  -1 means live only.
	FromHeight int64 `json:"from_height"`
	// WantState subscribes to full snapshots instead of digests.
	WantState bool `json:"want_state,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Network         string `json:"network"`
	StateVersion    int    `json:"state_version"`
	TipHeight       int64  `json:"tip_height"`
	TipDigest       string `json:"tip_digest"`
}

// DIGEST (server -> client): one per applied block.
type DigestMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Height          int64  `json:"height"`
	Digest          string `json:"digest"`
	TaxCollected    int64  `json:"tax_collected,omitempty"`
	CharactersDead  int    `json:"characters_dead,omitempty"`
	PlayersDead     int    `json:"players_dead,omitempty"`
}

// STATE (server -> client): a full snapshot for subscribers that asked
// for one.  State carries the canonical JSON encoding verbatim so the
// client can recompute the digest.
type StateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Height          int64           `json:"height"`
	Digest          string          `json:"digest"`
	State           json.RawMessage `json:"state"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
