package state

import (
	"crownhunt/internal/game/gamemap"
)

// Coord aliases the map coordinate type so state code and callers share one
// ordering and one JSON shape.
type Coord = gamemap.Coord

// PlayerID is the registered hunter-account name.
type PlayerID string

// CharID addresses one character of one player.  Index is stable for the
// character's lifetime and never reused within the player.
type CharID struct {
	Player PlayerID `json:"player"`
	Index  int      `json:"index"`
}

func (a CharID) Less(b CharID) bool {
	if a.Player != b.Player {
		return a.Player < b.Player
	}
	return a.Index < b.Index
}

// Character roles.  Hunters belong to players; merchants and monsters are
// map-owned characters recycled from destructed generals.
const (
	RoleHunter   = ""
	RoleMerchant = "merchant"
	RoleMonster  = "monster"
)

// Weapon and armor tiers, in strictly increasing strength.  The zero value
// is bare-handed / unarmored.
const (
	WeaponNone = iota
	WeaponStaffFire
	WeaponStaffPoison
	WeaponStaffDeath
	WeaponStaffLightning
)

const (
	ArmorNone = iota
	ArmorBuffcoat
	ArmorLinen
	ArmorScale
	ArmorSplint
	ArmorPlate
)

// CharacterState is everything consensus remembers about one character.
type CharacterState struct {
	Pos  Coord `json:"pos"`
	From Coord `json:"from"` // previous tile, gives the facing direction

	// Waypoints in travel order; the front one is the current target.
	Waypoints []Coord `json:"waypoints,omitempty"`

	// LockedCoins is the spawn bounty attached to this character.  It is
	// paid out or dropped when the character dies.
	LockedCoins int64    `json:"lockedCoins"`
	Loot        LootInfo `json:"loot"`

	// StayInSpawnArea counts consecutive blocks spent on a spawn strip.
	StayInSpawnArea int64 `json:"stayInSpawnArea,omitempty"`

	// PoisonCount is the number of blocks left until a poisoned character
	// dies; zero means healthy.
	PoisonCount int64 `json:"poisonCount,omitempty"`

	// RangedKillFlag marks a character struck by a lethal ranged hit; it
	// dies at the start of the next block.
	RangedKillFlag bool `json:"rangedKillFlag,omitempty"`

	Role       string `json:"role,omitempty"`
	MerchantID int    `json:"merchantId,omitempty"`

	Weapon  int   `json:"weapon,omitempty"`
	Armor   int   `json:"armor,omitempty"`
	Rations int64 `json:"rations,omitempty"`

	// AIPOI is the current long-range destination of the autonomous
	// controller, -1 when idle.
	AIPOI int `json:"aiPoi"`

	// SpawnProtection is the number of blocks the character is still
	// immune after a scattered spawn.
	SpawnProtection int64 `json:"spawnProtection,omitempty"`
	Spectator       bool  `json:"spectator,omitempty"`
}

// IsGeneral reports whether this is the player's first character.
func IsGeneral(index int) bool { return index == 0 }

// TotalHeld is the money attached to this character.
func (ch *CharacterState) TotalHeld() int64 { return ch.LockedCoins + ch.Loot.Amount }

// MoveTowardsWaypoint advances one tile towards the current waypoint.  It
// prefers the straight step and slides along the two adjacent directions
// when that tile is blocked; a fully blocked character drops its plan.
func (ch *CharacterState) MoveTowardsWaypoint() {
	for len(ch.Waypoints) > 0 && ch.Waypoints[0] == ch.Pos {
		ch.Waypoints = ch.Waypoints[1:]
	}
	if len(ch.Waypoints) == 0 {
		return
	}
	target := ch.Waypoints[0]
	dx := clampStep(target.X - ch.Pos.X)
	dy := clampStep(target.Y - ch.Pos.Y)
	cands := [3]Coord{
		{X: ch.Pos.X + dx, Y: ch.Pos.Y + dy},
		{X: ch.Pos.X + dx, Y: ch.Pos.Y},
		{X: ch.Pos.X, Y: ch.Pos.Y + dy},
	}
	for _, n := range cands {
		if n == ch.Pos || !gamemap.IsWalkable(n) {
			continue
		}
		ch.StepTo(n)
		if ch.Pos == target {
			ch.Waypoints = ch.Waypoints[1:]
		}
		return
	}
	ch.Waypoints = nil
}

// StepTo moves the character one tile, updating the facing.
func (ch *CharacterState) StepTo(n Coord) {
	ch.From = ch.Pos
	ch.Pos = n
}

func clampStep(d int) int {
	if d < -1 {
		return -1
	}
	if d > 1 {
		return 1
	}
	return d
}
