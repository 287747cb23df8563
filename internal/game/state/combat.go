package state

import (
	"sort"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/rng"
)

// Life-steal combat: an attack does not kill, it drains locked coins from
// the victim for redistribution among its attackers.
const (
	// drainPerAttacker is drained per attacker per block.
	drainPerAttacker = 1 * chain.COIN
	// minLockedToLive is the floor below which a drained character dies
	// and forfeits the rest.
	minLockedToLive = 1 * chain.COIN
)

// attackableCharacter is one combat participant: identity, team, and the
// attackers recorded against it this block.
type attackableCharacter struct {
	id    CharID
	color int
	ch    *CharacterState

	// gone marks a participant that left play mid-resolution (e.g. a
	// general recycled into a map character); it can no longer be drained.
	gone bool

	attackers []CharID
	// drawnLife is what this block's attacks drained from the character,
	// waiting for redistribution once the RNG is seeded.
	drawnLife int64
}

// charactersOnTiles indexes the block's combat participants by tile.  It is
// built fresh each transition and discarded with it.
type charactersOnTiles struct {
	lifesteal bool

	tiles map[Coord][]*attackableCharacter
	byID  map[CharID]*attackableCharacter
	// victims in consensus order, filled as attacks are recorded.
	victims []*attackableCharacter
}

func newCharactersOnTiles(lifesteal bool) *charactersOnTiles {
	return &charactersOnTiles{
		lifesteal: lifesteal,
		tiles:     make(map[Coord][]*attackableCharacter),
		byID:      make(map[CharID]*attackableCharacter),
	}
}

// build registers every attackable player character.  Spectators and
// spawn-protected characters cannot be fought.
func (cot *charactersOnTiles) build(g *GameState) {
	g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.Spectator || ch.SpawnProtection > 0 {
			return
		}
		ac := &attackableCharacter{id: id, color: p.Color, ch: ch}
		cot.tiles[ch.Pos] = append(cot.tiles[ch.Pos], ac)
		cot.byID[id] = ac
	})
}

// AttackBy records attacker against the victim, unless they share a team.
// A self-destruct is recorded as a self-attack under classic rules; under
// life-steal it is ignored for damage purposes.
func (cot *charactersOnTiles) AttackBy(attacker CharID, attackerColor int, victim CharID) {
	ac, ok := cot.byID[victim]
	if !ok {
		return
	}
	if attacker == victim {
		if cot.lifesteal {
			return
		}
	} else if ac.color == attackerColor {
		return
	}
	for _, a := range ac.attackers {
		if a == attacker {
			return
		}
	}
	if len(ac.attackers) == 0 {
		cot.victims = append(cot.victims, ac)
	}
	ac.attackers = append(ac.attackers, attacker)
}

// DefendMutualAttacks cancels every reciprocated attack pair: if A attacks
// B and B attacks A, neither drains the other this block.  The full attack
// graph is snapshotted before any list is filtered, so cancellation stays
// symmetric regardless of resolution order.
func (cot *charactersOnTiles) DefendMutualAttacks() {
	attacks := make(map[[2]CharID]bool)
	for _, victim := range cot.victims {
		for _, attacker := range victim.attackers {
			attacks[[2]CharID{attacker, victim.id}] = true
		}
	}
	for _, victim := range cot.victims {
		kept := victim.attackers[:0]
		for _, attacker := range victim.attackers {
			if attacker != victim.id && attacks[[2]CharID{victim.id, attacker}] {
				continue
			}
			kept = append(kept, attacker)
		}
		victim.attackers = kept
	}
}

// DrawLife settles the surviving attacks.  Under classic rules every
// attacked character simply dies.  Under life-steal, each victim is drained
// by drainPerAttacker per surviving attacker, capped at its locked coins; a
// victim left below the per-hit minimum forfeits everything and dies.
func (cot *charactersOnTiles) DrawLife() (dead []CharID) {
	for _, victim := range cot.victims {
		n := int64(len(victim.attackers))
		if n == 0 || victim.gone {
			continue
		}
		if !cot.lifesteal {
			dead = append(dead, victim.id)
			continue
		}
		drain := drainPerAttacker * n
		if drain > victim.ch.LockedCoins {
			drain = victim.ch.LockedCoins
		}
		victim.ch.LockedCoins -= drain
		victim.drawnLife += drain
		if victim.ch.LockedCoins < minLockedToLive {
			victim.drawnLife += victim.ch.LockedCoins
			victim.ch.LockedCoins = 0
			dead = append(dead, victim.id)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].Less(dead[j]) })
	return dead
}

// DistributeDrawnLife hands the drained coins out in whole-coin units to
// randomly picked attackers.  Picks are without replacement and each
// attacker is paid at most once; erasure keeps list order (a swap-with-last
// would change the RNG stream).  Sub-unit remainders and units no attacker
// is left to carry go to the game fund.
func (cot *charactersOnTiles) DistributeDrawnLife(g *GameState, gen *rng.Generator, capacityOf func(CharID) int64) {
	for _, victim := range cot.victims {
		if victim.drawnLife == 0 {
			continue
		}
		units := victim.drawnLife / chain.COIN
		g.GameFund += victim.drawnLife % chain.COIN
		victim.drawnLife = 0

		pool := append([]CharID(nil), victim.attackers...)
		for ; units > 0; units-- {
			if len(pool) == 0 {
				g.GameFund += units * chain.COIN
				break
			}
			i := gen.Intn(len(pool))
			winner := pool[i]
			pool = append(pool[:i], pool[i+1:]...)

			ch := g.Character(winner)
			if ch == nil {
				g.GameFund += chain.COIN
				continue
			}
			got := ch.Loot.Collect(chain.COIN, g.Height, capacityOf(winner))
			g.GameFund += chain.COIN - got
		}
	}
}
