package state

import (
	"crownhunt/internal/game/gamemap"
	"crownhunt/internal/game/rng"
)

// The autonomous controller drives every character that has no manual
// travel plan, and all map-owned characters.  It draws randomness from a
// generator seeded by the previous block hash, which is already final when
// this pass runs, so tie-breaks stay deterministic without waiting for the
// new hash.

// aiSighting is one character as seen by another's neighborhood scan.
type aiSighting struct {
	id     CharID
	npcID  int // -1 for player characters
	color  int // -1 for monsters
	pos    Coord
	weapon int
	ch     *CharacterState
}

// aiWorld is the scratch view the controller scans against, rebuilt every
// block in consensus order.
type aiWorld struct {
	sightings []aiSighting
	gen       *rng.Generator
}

func (tc *transitionContext) buildAIWorld() *aiWorld {
	w := &aiWorld{gen: rng.NewSalted(tc.g.Hash, tc.g.Height)}
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.Spectator {
			return
		}
		w.sightings = append(w.sightings, aiSighting{
			id: id, npcID: -1, color: p.Color, pos: ch.Pos, weapon: ch.Weapon, ch: ch,
		})
	})
	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		if npc.Role != RoleMonster {
			continue
		}
		w.sightings = append(w.sightings, aiSighting{
			npcID: nid, color: -1, pos: npc.Pos, weapon: npc.Weapon, ch: npc,
		})
	}
	return w
}

// runAgents is the per-character pathfinding/AI pass.
func (tc *transitionContext) runAgents() {
	w := tc.buildAIWorld()
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		tc.runAgent(w, id, p.Color, ch)
	})
	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		switch npc.Role {
		case RoleMonster:
			tc.runMonster(w, nid, npc)
		case RoleMerchant:
			// Merchants keep their stall; nothing to decide.
		}
	}
}

// runAgent executes the decision ladder for one hunter.  The priority order
// is fixed: shopping, escape, manual path, full AI, dispersal.
func (tc *transitionContext) runAgent(w *aiWorld, id CharID, color int, ch *CharacterState) {
	if ch.Spectator || ch.RangedKillFlag {
		return
	}

	if tc.rules.Timesave && tc.consumeRations(id, ch) {
		return
	}

	if tc.tryShopping(id, ch) {
		return
	}

	if tc.tryEscape(w, id, color, ch) {
		return
	}

	if len(ch.Waypoints) > 0 {
		if !manualPathAllowed(color, ch) {
			ch.Waypoints = nil
		}
		return
	}

	if ch.SpawnProtection > 0 {
		return
	}

	panicking := tc.updatePanic(w, id, color, ch)

	if ch.Weapon != WeaponNone {
		tc.autoFire(w, id, color, ch)
	}

	if !panicking && tc.stepToLocalTarget(w, id, ch) {
		return
	}

	if tc.stepLongRange(w, id, color, ch) {
		return
	}

	tc.disperse(w, id, ch)
}

// consumeRations handles upkeep: one ration per upkeep interval, crown
// holder exempt.  A starved hunter drops into stasis until it banks again.
func (tc *transitionContext) consumeRations(id CharID, ch *CharacterState) bool {
	if tc.g.Crown.Holder != nil && *tc.g.Crown.Holder == id {
		return false
	}
	if u := int64(tc.g.DAOUpkeepBlocks); u > 1 && tc.g.Height%u != 0 {
		return false
	}
	if ch.Rations > 0 {
		ch.Rations--
		return false
	}
	ch.Spectator = true
	ch.Waypoints = nil
	return true
}

// tryEscape covers the forced-move cases: a poisoned hunter abandons its
// plan and runs for its base, hoping to cross a heart on the way.
func (tc *transitionContext) tryEscape(w *aiWorld, id CharID, color int, ch *CharacterState) bool {
	if ch.PoisonCount == 0 {
		return false
	}
	if gamemap.IsInsideSafezone(ch.Pos) {
		return true
	}
	base := gamemap.POIFirstBase + color
	ch.Waypoints = nil
	ch.AIPOI = base
	tc.stepTowardsPOI(w, id, ch, base)
	return true
}

// manualPathAllowed rejects plans that would walk into an enemy base.
func manualPathAllowed(color int, ch *CharacterState) bool {
	for _, wp := range ch.Waypoints {
		for enemy := 0; enemy < gamemap.NumColors; enemy++ {
			if enemy == color {
				continue
			}
			if gamemap.IsOnBasePerimeter(enemy, wp) {
				return false
			}
		}
	}
	return true
}

// updatePanic scores nearby hostiles against the hunter's own strength and,
// when outclassed or outnumbered, re-targets the retreat point with the
// best distance margin over the closest foe.  Returns whether the hunter is
// panicking this block.
func (tc *transitionContext) updatePanic(w *aiWorld, id CharID, color int, ch *CharacterState) bool {
	var threat, support int
	nearestFoe := Coord{X: -1, Y: -1}
	nearestDist := gamemap.LocalRadius + 1
	for i := range w.sightings {
		s := &w.sightings[i]
		d := gamemap.DistLInf(ch.Pos, s.pos)
		if d == 0 && s.id == id {
			continue
		}
		if d > gamemap.LocalRadius {
			continue
		}
		if s.color == color {
			support += s.weapon + 1
			continue
		}
		threat += s.weapon + 1
		if d < nearestDist {
			nearestDist = d
			nearestFoe = s.pos
		}
	}
	own := ch.Weapon + 1 + support
	if threat <= own*2 || nearestFoe.X < 0 {
		return false
	}

	// Retreat to the point we can reach with the biggest head start.
	candidates := []int{gamemap.POIFirstBase + color, gamemap.POICenterIndex}
	best, bestMargin := -1, -(1 << 30)
	for _, poi := range candidates {
		mine := gamemap.POIDistance(poi, ch.Pos)
		theirs := gamemap.POIDistance(poi, nearestFoe)
		if mine < 0 {
			continue
		}
		margin := theirs - mine
		if theirs < 0 {
			margin = 1 << 20
		}
		if margin > bestMargin {
			best, bestMargin = poi, margin
		}
	}
	if best < 0 {
		return false
	}
	ch.AIPOI = best
	tc.stepTowardsPOI(w, id, ch, best)
	return true
}

// autoFire picks the nearest enemy in staff range, ties broken by identity
// order, and shoots.
func (tc *transitionContext) autoFire(w *aiWorld, id CharID, color int, ch *CharacterState) {
	if gamemap.IsInsideSafezone(ch.Pos) {
		return
	}
	rangeLimit := weaponRange(ch.Weapon)
	best := -1
	bestDist := rangeLimit + 1
	for i := range w.sightings {
		s := &w.sightings[i]
		if s.color == color || (s.npcID < 0 && s.id == id) {
			continue
		}
		if s.ch.RangedKillFlag || gamemap.IsInsideSafezone(s.pos) {
			continue
		}
		d := gamemap.DistLInf(ch.Pos, s.pos)
		if d == 0 || d > rangeLimit {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return
	}
	s := &w.sightings[best]
	if s.npcID >= 0 {
		tc.hitMonster(id, ch, s.ch)
		return
	}
	tc.resolveRangedHit(id, ch, s.id)
}

// hitMonster applies a staff shot to a map-owned monster.  Monsters wear no
// armor, so every staff drains; death and poison staves flag or infect.
func (tc *transitionContext) hitMonster(attackerID CharID, attacker, monster *CharacterState) {
	switch attacker.Weapon {
	case WeaponStaffFire:
		tc.drainTo(attackerID, attacker, monster, 2*drainPerAttacker)
	case WeaponStaffPoison:
		if tc.rules.Poison && monster.PoisonCount == 0 {
			monster.PoisonCount = poisonIncubation
		}
	case WeaponStaffDeath:
		monster.RangedKillFlag = true
	case WeaponStaffLightning:
		tc.drainTo(attackerID, attacker, monster, 3*drainPerAttacker)
	}
}

// stepToLocalTarget walks one tile towards the most attractive goal in the
// short-range window: a walk-in bank when carrying, otherwise the fattest
// loot pile with room to collect it.
func (tc *transitionContext) stepToLocalTarget(w *aiWorld, id CharID, ch *CharacterState) bool {
	target := Coord{X: -1, Y: -1}

	if ch.Loot.Amount > 0 {
		bankTiles := make([]Coord, 0, 4)
		for c := range tc.g.Banks {
			if gamemap.DistLInf(ch.Pos, c) <= gamemap.LocalRadius {
				bankTiles = append(bankTiles, c)
			}
		}
		gamemap.SortCoords(bankTiles)
		bestDist := gamemap.LocalRadius + 1
		for _, c := range bankTiles {
			if d := gamemap.LocalDistance(ch.Pos, c); d >= 0 && d < bestDist {
				bestDist = d
				target = c
			}
		}
	}

	if target.X < 0 && !tc.rules.GhostedLoot(tc.g.Height) {
		capacity := tc.capacityOf(id)
		if capacity < 0 || ch.Loot.Amount < capacity {
			lootTiles := make([]Coord, 0, 8)
			for c, l := range tc.g.Loot {
				if l.Amount > 0 && gamemap.DistLInf(ch.Pos, c) <= gamemap.LocalRadius {
					lootTiles = append(lootTiles, c)
				}
			}
			gamemap.SortCoords(lootTiles)
			var bestAmount int64
			for _, c := range lootTiles {
				if gamemap.LocalDistance(ch.Pos, c) < 0 {
					continue
				}
				if a := tc.g.Loot[c].Amount; a > bestAmount {
					bestAmount = a
					target = c
				}
			}
		}
	}

	if target.X < 0 {
		return false
	}
	if target == ch.Pos {
		return true
	}
	return tc.greedyStep(w, id, ch, target)
}

// greedyStep moves one tile so the windowed distance to target shrinks,
// RNG-picking among equally good neighbors.
func (tc *transitionContext) greedyStep(w *aiWorld, id CharID, ch *CharacterState, target Coord) bool {
	here := gamemap.LocalDistance(ch.Pos, target)
	if here <= 0 {
		return false
	}
	var best []Coord
	bestDist := here
	for _, n := range neighborsOf(ch.Pos) {
		d := gamemap.LocalDistance(n, target)
		if d < 0 {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = best[:0]
		}
		if d == bestDist {
			best = append(best, n)
		}
	}
	if len(best) == 0 {
		return false
	}
	next := best[0]
	if len(best) > 1 {
		next = best[w.gen.Intn(len(best))]
	}
	ch.StepTo(next)
	tc.afterStep(id, ch)
	return true
}

// stepLongRange advances towards the current point-of-interest, selecting a
// fresh destination when there is none or it has been reached.  Harvest
// grounds dominate the draw; the center and the home teleporter spice it.
func (tc *transitionContext) stepLongRange(w *aiWorld, id CharID, color int, ch *CharacterState) bool {
	if ch.AIPOI < 0 || gamemap.POIDistance(ch.AIPOI, ch.Pos) == 0 {
		switch w.gen.Intn(10) {
		case 0:
			ch.AIPOI = gamemap.POICenterIndex
		case 1:
			ch.AIPOI = gamemap.POIFirstTeleporter + 2*color
		default:
			ch.AIPOI = gamemap.POIFirstHarvest +
				w.gen.Intn(gamemap.POILastHarvest-gamemap.POIFirstHarvest+1)
		}
	}
	return tc.stepTowardsPOI(w, id, ch, ch.AIPOI)
}

// stepTowardsPOI takes one step down the POI distance gradient, breaking
// ties with the RNG when one is available.
func (tc *transitionContext) stepTowardsPOI(w *aiWorld, id CharID, ch *CharacterState, poi int) bool {
	cands := gamemap.StepCandidates(poi, ch.Pos)
	if len(cands) == 0 {
		ch.AIPOI = -1
		return false
	}
	next := cands[0]
	if w != nil && len(cands) > 1 {
		next = cands[w.gen.Intn(len(cands))]
	}
	ch.StepTo(next)
	tc.afterStep(id, ch)
	return true
}

// disperse takes one random legal step when the tile is crowded, so idle
// hunters do not stack forever.
func (tc *transitionContext) disperse(w *aiWorld, id CharID, ch *CharacterState) {
	crowded := 0
	for i := range w.sightings {
		if w.sightings[i].pos == ch.Pos {
			crowded++
		}
	}
	if crowded < 2 {
		return
	}
	open := make([]Coord, 0, 8)
	for _, n := range neighborsOf(ch.Pos) {
		open = append(open, n)
	}
	if len(open) == 0 {
		return
	}
	next := open[w.gen.Intn(len(open))]
	ch.StepTo(next)
	tc.afterStep(id, ch)
}

// runMonster chases the nearest hunter in sight, otherwise wanders.
func (tc *transitionContext) runMonster(w *aiWorld, nid int, npc *CharacterState) {
	if npc.RangedKillFlag {
		return
	}
	best := -1
	bestDist := gamemap.LocalRadius + 1
	for i := range w.sightings {
		s := &w.sightings[i]
		if s.npcID >= 0 || gamemap.IsInsideSafezone(s.pos) {
			continue
		}
		d := gamemap.DistLInf(npc.Pos, s.pos)
		if d > 0 && d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best >= 0 {
		tc.greedyStep(w, CharID{}, npc, w.sightings[best].pos)
		return
	}
	open := neighborsOf(npc.Pos)
	if len(open) > 0 {
		n := open[w.gen.Intn(len(open))]
		if !gamemap.IsInsideSafezone(n) {
			npc.StepTo(n)
		}
	}
}

// neighborsOf lists the walkable neighbors of a tile in fixed scan order.
func neighborsOf(c Coord) []Coord {
	out := make([]Coord, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Coord{X: c.X + dx, Y: c.Y + dy}
			if gamemap.IsWalkable(n) {
				out = append(out, n)
			}
		}
	}
	return out
}
