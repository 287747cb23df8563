package state

import "crownhunt/internal/game/gamemap"

// killSpawnCampers culls characters that loitered too long on a spawn
// strip.  Only the time-save era has a limit.
func (tc *transitionContext) killSpawnCampers() {
	limit := tc.rules.MaxStayInSpawnArea
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if gamemap.IsInSpawnArea(ch.Pos) {
			ch.StayInSpawnArea++
		} else {
			ch.StayInSpawnArea = 0
		}
		if limit >= 0 && ch.StayInSpawnArea > limit {
			tc.markDead(id, KilledByInfo{Reason: KillSpawnTimeout})
		}
	})
}

// decrementPoison ticks every poisoned character one block closer to death.
func (tc *transitionContext) decrementPoison() {
	if !tc.rules.Poison {
		return
	}
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.PoisonCount == 0 {
			return
		}
		ch.PoisonCount--
		if ch.PoisonCount == 0 {
			tc.markDead(id, KilledByInfo{Reason: KillPoison})
		}
	})
	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		if npc.PoisonCount == 0 {
			continue
		}
		npc.PoisonCount--
		if npc.PoisonCount == 0 {
			tc.killNPC(nid, KilledByInfo{Reason: KillPoison})
		}
	}
}

// resolveDestructs records the block's self-destruct commands as attacks on
// everything within the destruct radius, the destructing character included
// (CharactersOnTiles drops the self-attack under life-steal rules).  In the
// time-save era a destructing general is recycled as a map-owned character
// instead of fighting, but only while the recycling policy wants more NPCs.
func (tc *transitionContext) resolveDestructs(moves []Move) {
	for _, m := range moves {
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		for _, idx := range m.Destruct {
			ch := p.Characters[idx]
			if ch == nil {
				continue
			}
			self := CharID{m.Player, idx}
			if tc.rules.Lifesteal && tc.rules.Timesave && IsGeneral(idx) &&
				tc.wantsRecycledNPC(p.Color) {
				tc.recycleAsNPC(self)
				continue
			}
			radius := tc.rules.DestructRadius
			if IsGeneral(idx) {
				radius = tc.rules.DestructRadiusGeneral
			}
			tc.meleeFrom(self, p.Color, ch, radius)
		}
	}
}

// meleeFrom records attacks against everyone within radius of the attacker,
// the attacker's own tile included.
func (tc *transitionContext) meleeFrom(attacker CharID, color int, ch *CharacterState, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			pos := Coord{X: ch.Pos.X + dx, Y: ch.Pos.Y + dy}
			for _, ac := range tc.cot.tiles[pos] {
				if gamemap.IsInsideSafezone(ac.ch.Pos) && ac.id != attacker {
					continue
				}
				tc.cot.AttackBy(attacker, color, ac.id)
			}
		}
	}
}

// applyCombatDeaths queues the casualties of the attack resolution.  Under
// classic rules a fallen general takes the whole player down with it.
func (tc *transitionContext) applyCombatDeaths(dead []CharID) {
	for _, id := range dead {
		tc.markDead(id, KilledByInfo{Reason: KillCombat})
		if tc.rules.Lifesteal || !IsGeneral(id.Index) {
			continue
		}
		p := tc.g.Players[id.Player]
		if p == nil {
			continue
		}
		for _, idx := range p.SortedIndices() {
			if idx != id.Index {
				tc.markDead(CharID{id.Player, idx}, KilledByInfo{Reason: KillCombat})
			}
		}
	}
}

// wantsRecycledNPC reads the pass-0 census: a destructing general joins the
// map characters whenever monsters are badly outnumbered, and otherwise
// only when its team is not the strongest one, so recycling leans against
// the winning side.
func (tc *transitionContext) wantsRecycledNPC(color int) bool {
	needBadly := tc.monsterCount*2 < tc.totalHunters
	monstersWeak := tc.monsterCount < tc.totalHunters
	return needBadly ||
		(color != tc.strongestTeam && monstersWeak) ||
		color == tc.weakestTeam
}

// recycleAsNPC converts a player's general into a map-owned monster (or a
// merchant if a stall is vacant).  The character keeps its coins, so the
// conversion is conservation-neutral.
func (tc *transitionContext) recycleAsNPC(id CharID) {
	p := tc.g.Players[id.Player]
	ch := p.Characters[id.Index]
	if ch == nil {
		return
	}
	delete(p.Characters, id.Index)
	if ac := tc.cot.byID[id]; ac != nil {
		ac.gone = true
	}
	if tc.g.Crown.Holder != nil && *tc.g.Crown.Holder == id {
		tc.g.Crown.Holder = nil
		tc.g.Crown.Pos = ch.Pos
		tc.crownDropped = true
	}
	tc.noteIfEliminated(id.Player)

	npc := *ch
	npc.Waypoints = nil
	npc.Role = RoleMonster
	npc.MerchantID = -1
	if stall := tc.vacantStall(); stall >= 0 {
		npc.Role = RoleMerchant
		npc.MerchantID = stall
		npc.From = npc.Pos
		npc.Pos = gamemap.MerchantPos(stall)
	}
	tc.g.NextNPCID++
	tc.g.NPCs[tc.g.NextNPCID] = &npc
}

// vacantStall returns the lowest merchant stall without a keeper, or -1.
func (tc *transitionContext) vacantStall() int {
	taken := make(map[int]bool, len(tc.g.NPCs))
	for _, npc := range tc.g.NPCs {
		if npc.Role == RoleMerchant {
			taken[npc.MerchantID] = true
		}
	}
	for i := 0; i < gamemap.NumMerchants; i++ {
		if !taken[i] {
			return i
		}
	}
	return -1
}

// killNPC removes a map-owned character, dropping its coins like any other
// death.
func (tc *transitionContext) killNPC(nid int, info KilledByInfo) {
	npc, ok := tc.g.NPCs[nid]
	if !ok {
		return
	}
	delete(tc.g.NPCs, nid)
	tc.dropHoldings(npc.Pos, npc.LockedCoins+npc.Loot.Amount)
}

// dropHoldings puts a dead character's coins on the ground, minus the drop
// tax which stays in the game fund.
func (tc *transitionContext) dropHoldings(pos Coord, amount int64) {
	if amount <= 0 {
		return
	}
	tax := tc.rules.DropTax(amount)
	tc.g.GameFund += tax
	tc.g.AddLoot(pos, amount-tax, tc.g.Height)
}

// FinaliseKills settles every queued death in consensus order: payout or
// drop of the held coins per cause, removal of the character, crown release
// and player elimination bookkeeping.
func (tc *transitionContext) finaliseKills() {
	for _, id := range tc.sortedPendingDead() {
		info := tc.pendingDead[id]
		p := tc.g.Players[id.Player]
		ch := p.Characters[id.Index]
		if ch == nil {
			continue
		}

		if tc.g.Crown.Holder != nil && *tc.g.Crown.Holder == id {
			tc.g.Crown.Holder = nil
			tc.g.Crown.Pos = ch.Pos
			tc.crownDropped = true
		}

		refunded := false
		if info.Reason == KillSpawnTimeout && tc.rules.SpawnRefund && p.Address != "" {
			tc.res.payBounty(p.Address, ch.LockedCoins)
			refunded = true
		}
		if refunded {
			tc.dropHoldings(ch.Pos, ch.Loot.Amount)
		} else {
			tc.dropHoldings(ch.Pos, ch.LockedCoins+ch.Loot.Amount)
		}

		delete(p.Characters, id.Index)
		if ac := tc.cot.byID[id]; ac != nil {
			ac.gone = true
		}
		tc.res.KilledCharacters = append(tc.res.KilledCharacters, id)
		tc.res.KilledBy[id] = info
		tc.noteIfEliminated(id.Player)
	}
	tc.pendingDead = make(map[CharID]KilledByInfo)
}

func (tc *transitionContext) noteIfEliminated(pid PlayerID) {
	p := tc.g.Players[pid]
	if p == nil || len(p.Characters) > 0 {
		return
	}
	for _, seen := range tc.res.KilledPlayers {
		if seen == pid {
			return
		}
	}
	tc.res.KilledPlayers = append(tc.res.KilledPlayers, pid)
}

// cullUnderfundedOnForkBoundary is the one-time sweep at the life-steal
// activation block: every character whose locked coins are below the new
// survival floor dies, coins dropping as usual.
func (tc *transitionContext) cullUnderfundedOnForkBoundary() {
	if tc.g.Height != tc.params.ForkHeightLifesteal {
		return
	}
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.LockedCoins < minLockedToLive {
			tc.markDead(id, KilledByInfo{Reason: KillCombat})
		}
	})
	tc.finaliseKills()
}
