package protocol

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"crownhunt/internal/game/gamemap"
	"crownhunt/internal/game/state"
)

// SpawnMsg requests a new character for the sending player.
type SpawnMsg struct {
	Color int `json:"color"`
}

// AttackMsg is one ranged attack order.
type AttackMsg struct {
	Index        int    `json:"index"`
	TargetPlayer string `json:"target_player"`
	TargetIndex  int    `json:"target_index"`
}

// MoveMsg is the wire form of one player's action batch.  Character
// indices key the maps as decimal strings because JSON objects only
// take string keys.
type MoveMsg struct {
	Player string `json:"player"`

	Spawn      *SpawnMsg           `json:"spawn,omitempty"`
	Waypoints  map[string][][2]int `json:"waypoints,omitempty"`
	Destruct   []int               `json:"destruct,omitempty"`
	Attacks    []AttackMsg         `json:"attacks,omitempty"`
	LockChange map[string]int64    `json:"lock_change,omitempty"`

	Address string `json:"address,omitempty"`
	Message string `json:"message,omitempty"`

	ClientVersion int   `json:"client_version,omitempty"`
	VersionVote   int   `json:"version_vote,omitempty"`
	Fee           int64 `json:"fee,omitempty"`
}

// STEP (client -> server): everything needed to advance one block.
type StepMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Height          int64  `json:"height"`
	// BlockHash is the hex block hash, or empty when the block is not
	// yet mined and only the deterministic passes should run.
	BlockHash string    `json:"block_hash,omitempty"`
	Treasure  int64     `json:"treasure,omitempty"`
	Moves     []MoveMsg `json:"moves,omitempty"`
}

// ToMove converts the wire form into the engine's move type.
func (m *MoveMsg) ToMove() (state.Move, error) {
	out := state.Move{
		Player:          state.PlayerID(m.Player),
		Destruct:        append([]int(nil), m.Destruct...),
		Address:         m.Address,
		Message:         m.Message,
		ProtocolVersion: m.ClientVersion,
		VersionVote:     m.VersionVote,
		Fee:             m.Fee,
	}
	if m.Spawn != nil {
		out.Spawn = &state.SpawnParams{Color: m.Spawn.Color}
	}
	if len(m.Waypoints) > 0 {
		out.Waypoints = make(map[int][]gamemap.Coord, len(m.Waypoints))
		for key, path := range m.Waypoints {
			idx, err := strconv.Atoi(key)
			if err != nil {
				return state.Move{}, fmt.Errorf("%s: bad waypoint key %q", m.Player, key)
			}
			wps := make([]gamemap.Coord, len(path))
			for i, p := range path {
				wps[i] = gamemap.Coord{X: p[0], Y: p[1]}
			}
			out.Waypoints[idx] = wps
		}
	}
	if len(m.LockChange) > 0 {
		out.LockChange = make(map[int]int64, len(m.LockChange))
		for key, delta := range m.LockChange {
			idx, err := strconv.Atoi(key)
			if err != nil {
				return state.Move{}, fmt.Errorf("%s: bad lock change key %q", m.Player, key)
			}
			out.LockChange[idx] = delta
		}
	}
	for _, a := range m.Attacks {
		out.Attacks = append(out.Attacks, state.AttackCommand{
			Index: a.Index,
			Target: state.CharID{
				Player: state.PlayerID(a.TargetPlayer),
				Index:  a.TargetIndex,
			},
		})
	}
	return out, nil
}

// FromMove converts an engine move back into its wire form.
func FromMove(mv state.Move) MoveMsg {
	out := MoveMsg{
		Player:        string(mv.Player),
		Destruct:      append([]int(nil), mv.Destruct...),
		Address:       mv.Address,
		Message:       mv.Message,
		ClientVersion: mv.ProtocolVersion,
		VersionVote:   mv.VersionVote,
		Fee:           mv.Fee,
	}
	if mv.Spawn != nil {
		out.Spawn = &SpawnMsg{Color: mv.Spawn.Color}
	}
	if len(mv.Waypoints) > 0 {
		out.Waypoints = make(map[string][][2]int, len(mv.Waypoints))
		for idx, wps := range mv.Waypoints {
			path := make([][2]int, len(wps))
			for i, wp := range wps {
				path[i] = [2]int{wp.X, wp.Y}
			}
			out.Waypoints[strconv.Itoa(idx)] = path
		}
	}
	if len(mv.LockChange) > 0 {
		out.LockChange = make(map[string]int64, len(mv.LockChange))
		for idx, delta := range mv.LockChange {
			out.LockChange[strconv.Itoa(idx)] = delta
		}
	}
	for _, a := range mv.Attacks {
		out.Attacks = append(out.Attacks, AttackMsg{
			Index:        a.Index,
			TargetPlayer: string(a.Target.Player),
			TargetIndex:  a.Target.Index,
		})
	}
	return out
}

// ToStepData converts the wire step into engine input.  Moves come out
// sorted by player so the caller applies them in a stable order.
func (s *StepMsg) ToStepData() (*state.StepData, error) {
	data := &state.StepData{TreasureAmount: s.Treasure}
	if s.Treasure < 0 {
		return nil, fmt.Errorf("height %d: negative treasure", s.Height)
	}
	if s.BlockHash != "" {
		raw, err := hex.DecodeString(s.BlockHash)
		if err != nil || len(raw) != len(data.NewHash) {
			return nil, fmt.Errorf("height %d: bad block hash %q", s.Height, s.BlockHash)
		}
		copy(data.NewHash[:], raw)
	}
	seen := make(map[string]bool, len(s.Moves))
	for i := range s.Moves {
		if seen[s.Moves[i].Player] {
			return nil, fmt.Errorf("height %d: duplicate move for %s", s.Height, s.Moves[i].Player)
		}
		seen[s.Moves[i].Player] = true
		mv, err := s.Moves[i].ToMove()
		if err != nil {
			return nil, err
		}
		data.Moves = append(data.Moves, mv)
	}
	sort.Slice(data.Moves, func(i, j int) bool {
		return data.Moves[i].Player < data.Moves[j].Player
	})
	return data, nil
}

// FromStepData builds the wire step for a block at the given height.
func FromStepData(height int64, data *state.StepData) StepMsg {
	msg := StepMsg{
		Type:            TypeStep,
		ProtocolVersion: Version,
		Height:          height,
		Treasure:        data.TreasureAmount,
	}
	if data.HashKnown() {
		msg.BlockHash = hex.EncodeToString(data.NewHash[:])
	}
	for _, mv := range data.Moves {
		msg.Moves = append(msg.Moves, FromMove(mv))
	}
	return msg
}
