package state

import (
	"sort"

	"crownhunt/internal/game/gamemap"
)

// Everything in this file runs only once the block hash is known and tc.gen
// is seeded from it.  The order of RNG draws is consensus.

// rollDisaster decides whether a pandemic sweeps the map this block.  One
// is guaranteed after DisasterMaxGap blocks, possible after DisasterMinGap.
func (tc *transitionContext) rollDisaster() {
	since := tc.g.Height
	if tc.g.DisasterHeight >= 0 {
		since = tc.g.Height - tc.g.DisasterHeight
	}
	if since < tc.params.DisasterMinGap {
		return
	}
	if since < tc.params.DisasterMaxGap && tc.gen.Intn(int(tc.params.DisasterChance)) != 0 {
		return
	}
	tc.g.DisasterHeight = tc.g.Height
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if !gamemap.IsInsideSafezone(ch.Pos) {
			tc.markDead(id, KilledByInfo{Reason: KillDisaster})
		}
	})
	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		if npc.Role == RoleMonster && !gamemap.IsInsideSafezone(npc.Pos) {
			tc.killNPC(nid, KilledByInfo{Reason: KillDisaster})
		}
	}
	tc.finaliseKills()
}

const (
	spawnProtectionBlocks = 10
	spawnRations          = 25
)

// processSpawns registers new players and places their characters.  The
// scattered-spawn era picks a random eligible tile anywhere; earlier eras
// drop the hunter onto its team's border strip.  The voted population
// limit caps the live character count.
func (tc *transitionContext) processSpawns(moves []Move) {
	live := 0
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		live++
	})
	for i := range moves {
		m := &moves[i]
		if m.Spawn == nil {
			continue
		}
		if limit := tc.g.DAOPopulationLimit; limit > 0 && live >= limit {
			continue
		}
		p, ok := tc.g.Players[m.Player]
		if !ok {
			p = &PlayerState{
				Color:      m.Spawn.Color,
				Characters: make(map[int]*CharacterState),
			}
			tc.g.Players[m.Player] = p
		}
		if len(p.Characters) >= tc.params.MaxCharactersPerPlayer ||
			p.LifetimeSpawns >= tc.params.MaxCharactersLifetime {
			continue
		}

		var pos Coord
		if tc.rules.Timesave {
			tiles := gamemap.PlayerSpawnTiles()
			pos = tiles[tc.gen.Intn(len(tiles))]
		} else {
			tiles := gamemap.SpawnStripTiles(p.Color)
			pos = tiles[tc.gen.Intn(len(tiles))]
		}

		locked := tc.params.LockedCoinAmount(tc.g.Height)
		ch := &CharacterState{
			Pos:         pos,
			From:        pos,
			LockedCoins: locked,
			AIPOI:       -1,
		}
		if tc.rules.Timesave {
			ch.SpawnProtection = spawnProtectionBlocks
			ch.Rations = spawnRations
		}
		idx := p.NextCharacterIndex
		p.NextCharacterIndex++
		p.LifetimeSpawns++
		p.Characters[idx] = ch
		tc.feesIn += locked
		live++
	}
}

// processAddressesAndMessages applies the block's payout-address and chat
// updates.  Eliminated players keep their record, so a final message from
// beyond the grave still lands.
func (tc *transitionContext) processAddressesAndMessages(moves []Move) {
	for i := range moves {
		m := &moves[i]
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		if m.Address != "" {
			p.Address = m.Address
		}
		if m.Message != "" {
			p.Message = m.Message
			p.MessageHeight = tc.g.Height
		}
	}
}

// dropTreasure injects the block's treasure: each harvest area receives its
// portion on a random tile of the patch, the crown holder takes the crown
// bonus, and integer dust falls into the game fund.
func (tc *transitionContext) dropTreasure(amount int64) {
	if amount <= 0 {
		return
	}
	tc.treasureIn += amount
	distributed := int64(0)
	for _, area := range gamemap.HarvestAreas() {
		share := amount * int64(area.Portion) / gamemap.TotalHarvest
		if share <= 0 || len(area.Tiles) == 0 {
			continue
		}
		tile := area.Tiles[tc.gen.Intn(len(area.Tiles))]
		tc.g.AddLoot(tile, share, tc.g.Height)
		distributed += share
	}
	bonus := amount * gamemap.CrownBonusPortion / gamemap.TotalHarvest
	if holder := tc.g.Crown.Holder; holder != nil && bonus > 0 {
		ch := tc.g.Character(*holder)
		got := ch.Loot.Collect(bonus, tc.g.Height, tc.capacityOf(*holder))
		tc.g.GameFund += bonus - got
		distributed += bonus
	} else if bonus > 0 {
		tc.g.GameFund += bonus
		distributed += bonus
	}
	tc.g.GameFund += amount - distributed
}

// collector is one character competing for loot or pickups on a tile.
type collector struct {
	id CharID
	ch *CharacterState
}

// occupants indexes collect-capable characters by tile, each tile's list in
// (PlayerID, index) order.
func (tc *transitionContext) occupants() map[Coord][]collector {
	out := make(map[Coord][]collector)
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.Spectator || ch.SpawnProtection > 0 {
			return
		}
		out[ch.Pos] = append(out[ch.Pos], collector{id, ch})
	})
	return out
}

// divideLootAmongPlayers splits every loot pile among the characters
// standing on it.  Recipients are served in ascending remaining capacity,
// ties by (PlayerID, index); each gets an even share of what is left when
// its turn comes, so the order decides who eats the indivisible remainder.
func (tc *transitionContext) divideLootAmongPlayers(occ map[Coord][]collector) {
	if tc.rules.GhostedLoot(tc.g.Height) {
		return
	}
	tiles := make([]Coord, 0, len(tc.g.Loot))
	for c := range tc.g.Loot {
		tiles = append(tiles, c)
	}
	gamemap.SortCoords(tiles)
	for _, tile := range tiles {
		group := occ[tile]
		if len(group) == 0 {
			continue
		}
		sorted := make([]collector, len(group))
		copy(sorted, group)
		sort.SliceStable(sorted, func(i, j int) bool {
			ri := tc.remainingCapacity(sorted[i])
			rj := tc.remainingCapacity(sorted[j])
			if ri != rj {
				return ri < rj
			}
			return sorted[i].id.Less(sorted[j].id)
		})

		remaining := tc.g.Loot[tile].Amount
		for i, c := range sorted {
			share := remaining / int64(len(sorted)-i)
			remaining -= c.ch.Loot.Collect(share, tc.g.Height, tc.capacityOf(c.id))
		}
		if remaining == 0 {
			delete(tc.g.Loot, tile)
		} else {
			l := tc.g.Loot[tile]
			l.Amount = remaining
			tc.g.Loot[tile] = l
		}
	}
}

// remainingCapacity orders collectors; unlimited carriers sort last.
func (tc *transitionContext) remainingCapacity(c collector) int64 {
	limit := tc.capacityOf(c.id)
	if limit < 0 {
		return int64(1) << 62
	}
	room := limit - c.ch.Loot.Amount
	if room < 0 {
		room = 0
	}
	return room
}

// Dynamic walk-in banks: a fixed population wanders the map, each bank
// evaporating after its lifetime and reappearing elsewhere.
const (
	numBanks    = 75
	bankMinLife = 25
	bankMaxLife = 100
)

// updateBanks ages every bank and replaces the expired ones.  Expiry walks
// the sorted tile list so removal order is consensus.
func (tc *transitionContext) updateBanks() {
	tiles := make([]Coord, 0, len(tc.g.Banks))
	for c := range tc.g.Banks {
		tiles = append(tiles, c)
	}
	gamemap.SortCoords(tiles)
	for _, c := range tiles {
		life := tc.g.Banks[c] - 1
		if life <= 0 {
			delete(tc.g.Banks, c)
		} else {
			tc.g.Banks[c] = life
		}
	}

	candidates := gamemap.BankSpawnTiles()
	for len(tc.g.Banks) < numBanks {
		pos := candidates[tc.gen.Intn(len(candidates))]
		if _, taken := tc.g.Banks[pos]; taken {
			continue
		}
		tc.g.Banks[pos] = int64(tc.gen.IntRange(bankMinLife, bankMaxLife))
	}
}

const heartRationBonus = 50

// spawnAndCollectHearts rolls for a new heart and lets hunters pick up the
// ones they stand on.  A contested heart goes to an RNG-picked occupant.
func (tc *transitionContext) spawnAndCollectHearts(occ map[Coord][]collector) {
	if tc.rules.HeartChance > 0 && tc.gen.Intn(int(tc.rules.HeartChance)) == 0 {
		tiles := gamemap.PlayerSpawnTiles()
		pos := tiles[tc.gen.Intn(len(tiles))]
		if !tc.g.Hearts[pos] {
			tc.g.Hearts[pos] = true
		}
	}

	tiles := make([]Coord, 0, len(tc.g.Hearts))
	for c := range tc.g.Hearts {
		tiles = append(tiles, c)
	}
	gamemap.SortCoords(tiles)
	for _, c := range tiles {
		group := occ[c]
		if len(group) == 0 {
			continue
		}
		winner := group[0]
		if len(group) > 1 {
			winner = group[tc.gen.Intn(len(group))]
		}
		winner.ch.PoisonCount = 0
		winner.ch.Rations += heartRationBonus
		delete(tc.g.Hearts, c)
	}
}

// collectCrown hands a loose crown to whoever stands on it, RNG-picked when
// contested, and relocates a crown dropped by a dead holder to a random
// crown spawn point.
func (tc *transitionContext) collectCrown(occ map[Coord][]collector) {
	if tc.crownDropped {
		points := gamemap.CrownSpawnPoints()
		tc.g.Crown.Pos = points[tc.gen.Intn(len(points))]
		tc.crownDropped = false
	}
	if tc.g.Crown.Holder != nil {
		return
	}
	group := occ[tc.g.Crown.Pos]
	if len(group) == 0 {
		return
	}
	winner := group[0]
	if len(group) > 1 {
		winner = group[tc.gen.Intn(len(group))]
	}
	id := winner.id
	tc.g.Crown.Holder = &id
}
