package state

import (
	"fmt"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
)

const (
	maxWaypointsPerMove = 100
	maxMessageLen       = 256
)

// SpawnParams requests a new character.  The color binds the player to a
// team on first spawn and must match it afterwards.
type SpawnParams struct {
	Color int `json:"color"`
}

// AttackCommand is a ranged attack by one of the mover's characters.
type AttackCommand struct {
	Index  int    `json:"index"`
	Target CharID `json:"target"`
}

// Move is one player's action batch for one block.
type Move struct {
	Player PlayerID `json:"player"`

	Spawn *SpawnParams `json:"spawn,omitempty"`

	// Waypoints replaces the named characters' travel plans.
	Waypoints map[int][]Coord `json:"waypoints,omitempty"`
	// Destruct lists characters blowing themselves up (classic rules) or
	// opening melee on their surroundings (life-steal rules).
	Destruct []int           `json:"destruct,omitempty"`
	Attacks  []AttackCommand `json:"attacks,omitempty"`

	// LockChange adjusts a character's locked coins: positive amounts are
	// paid in with the move, negative amounts are released to the payout
	// address in the refund sweep.
	LockChange map[int]int64 `json:"lockChange,omitempty"`

	Address string `json:"address,omitempty"`
	Message string `json:"message,omitempty"`

	// ProtocolVersion announces the sender's client version; VersionVote
	// is an optional governance vote for the network minimum.
	ProtocolVersion int `json:"protocolVersion,omitempty"`
	VersionVote     int `json:"versionVote,omitempty"`

	// Fee is burned into the game fund.
	Fee int64 `json:"fee,omitempty"`
}

// CheckValid verifies the move against the state it will be applied to.
// Invalid moves reject the whole block; they must be filtered out before
// block assembly.
func (m *Move) CheckValid(g *GameState, p chain.Params) error {
	if m.Player == "" {
		return fmt.Errorf("move without player")
	}
	if m.Fee < 0 {
		return fmt.Errorf("%s: negative fee", m.Player)
	}
	if len(m.Message) > maxMessageLen {
		return fmt.Errorf("%s: message too long", m.Player)
	}
	pl, registered := g.Players[m.Player]
	if !registered && m.Spawn == nil {
		return fmt.Errorf("%s: unknown player", m.Player)
	}
	if m.Spawn != nil {
		if m.Spawn.Color < 0 || m.Spawn.Color >= gamemap.NumColors {
			return fmt.Errorf("%s: bad color %d", m.Player, m.Spawn.Color)
		}
		if registered {
			if pl.Color != m.Spawn.Color {
				return fmt.Errorf("%s: color change", m.Player)
			}
			if len(pl.Characters) >= p.MaxCharactersPerPlayer {
				return fmt.Errorf("%s: character limit reached", m.Player)
			}
			if pl.LifetimeSpawns >= p.MaxCharactersLifetime {
				return fmt.Errorf("%s: lifetime spawn limit reached", m.Player)
			}
		}
	}
	for idx, wps := range m.Waypoints {
		if !registered || pl.Characters[idx] == nil {
			return fmt.Errorf("%s: waypoints for missing character %d", m.Player, idx)
		}
		if len(wps) == 0 || len(wps) > maxWaypointsPerMove {
			return fmt.Errorf("%s: bad waypoint count %d", m.Player, len(wps))
		}
		for _, wp := range wps {
			if !gamemap.IsWalkable(wp) {
				return fmt.Errorf("%s: waypoint %v not walkable", m.Player, wp)
			}
		}
	}
	for _, idx := range m.Destruct {
		if !registered || pl.Characters[idx] == nil {
			return fmt.Errorf("%s: destruct of missing character %d", m.Player, idx)
		}
	}
	for idx, delta := range m.LockChange {
		if !registered || pl.Characters[idx] == nil {
			return fmt.Errorf("%s: lock change for missing character %d", m.Player, idx)
		}
		if delta == 0 {
			return fmt.Errorf("%s: zero lock change", m.Player)
		}
		if delta < 0 && pl.Address == "" && m.Address == "" {
			return fmt.Errorf("%s: lock release without payout address", m.Player)
		}
	}
	for _, a := range m.Attacks {
		if !registered || pl.Characters[a.Index] == nil {
			return fmt.Errorf("%s: attack from missing character %d", m.Player, a.Index)
		}
		if a.Target.Player == "" {
			return fmt.Errorf("%s: attack without target", m.Player)
		}
	}
	if m.VersionVote != 0 && m.VersionVote < p.DAOMinVersionInit {
		return fmt.Errorf("%s: version vote below floor", m.Player)
	}
	return nil
}
