package state

import "sort"

// PlayerState is the per-account state: the team color, the live characters
// and the fields a player updates through moves.
type PlayerState struct {
	Color int `json:"color"`

	Characters map[int]*CharacterState `json:"characters"`

	// NextCharacterIndex is the index the next spawned character gets.
	// Indices are never reused, killed ones leave gaps.
	NextCharacterIndex int `json:"nextCharacterIndex"`
	LifetimeSpawns     int `json:"lifetimeSpawns"`

	// Address is the payout address bounties are sent to.
	Address string `json:"address,omitempty"`

	// Message is the last broadcast chat line and the height it was set.
	Message       string `json:"message,omitempty"`
	MessageHeight int64  `json:"messageHeight,omitempty"`

	// ProtocolVersion is the client version last announced in a move; the
	// governance pass aggregates these into the network minimum.
	ProtocolVersion int `json:"protocolVersion,omitempty"`

	// VersionVote is the minimum version this player votes for, weighted
	// by locked coins in the governance pass.  Zero means no vote.
	VersionVote int `json:"versionVote,omitempty"`
}

// SortedIndices returns the live character indices in ascending order.
func (p *PlayerState) SortedIndices() []int {
	out := make([]int, 0, len(p.Characters))
	for i := range p.Characters {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// TotalHeld is the money attached to this player's characters.
func (p *PlayerState) TotalHeld() int64 {
	var sum int64
	for _, ch := range p.Characters {
		sum += ch.TotalHeld()
	}
	return sum
}
