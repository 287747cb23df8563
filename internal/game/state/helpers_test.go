package state

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
)

// combatParams puts every fork except time-save into effect, so combat
// follows life-steal rules but generals are not recycled on destruct.
func combatParams() chain.Params {
	p := chain.Regtest()
	p.ForkHeightTimesave = 1 << 40
	return p
}

// openFieldTile finds a walkable tile outside any safezone and spawn strip
// whose whole 8-neighborhood is walkable, far enough from the plaza that no
// merchant logic interferes.
func openFieldTile(t *testing.T) Coord {
	t.Helper()
	for _, c := range gamemap.WalkableTiles() {
		if gamemap.IsInsideSafezone(c) || gamemap.IsInSpawnArea(c) {
			continue
		}
		if gamemap.DistLInf(c, Coord{X: 128, Y: 128}) < 40 {
			continue
		}
		clear := true
		for dy := -1; dy <= 1 && clear; dy++ {
			for dx := -1; dx <= 1; dx++ {
				n := Coord{X: c.X + dx, Y: c.Y + dy}
				if !gamemap.IsWalkable(n) || gamemap.IsInsideSafezone(n) ||
					gamemap.IsInSpawnArea(n) || gamemap.TeleporterAt(n) >= 0 {
					clear = false
					break
				}
			}
		}
		if clear {
			return c
		}
	}
	t.Fatalf("no open field tile on the map")
	return Coord{}
}

// addCharacter wires a character into the state by hand, registering the
// player on first use.
func addCharacter(g *GameState, pid PlayerID, idx, color int, pos Coord, locked int64) *CharacterState {
	p := g.Players[pid]
	if p == nil {
		p = &PlayerState{Color: color, Characters: make(map[int]*CharacterState)}
		g.Players[pid] = p
	}
	ch := &CharacterState{Pos: pos, From: pos, LockedCoins: locked, AIPOI: -1}
	p.Characters[idx] = ch
	if idx >= p.NextCharacterIndex {
		p.NextCharacterIndex = idx + 1
	}
	p.LifetimeSpawns++
	return ch
}

// pickSpawnStripTile returns a spawn-strip tile of the given color.
func pickSpawnStripTile(t *testing.T, color int) Coord {
	t.Helper()
	tiles := gamemap.SpawnStripTiles(color)
	if len(tiles) == 0 {
		t.Fatalf("no spawn strip tiles for color %d", color)
	}
	return tiles[0]
}

// blockHash derives a distinct nonzero hash per height for test chains.
func blockHash(height int64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(height)+1)
	return sha256.Sum256(buf[:])
}
