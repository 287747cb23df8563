package state

import (
	"fmt"
	"sort"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
)

// pass0Cache rebuilds the per-block scratch structures.  Nothing cached
// here survives the transition.
func (tc *transitionContext) pass0Cache() {
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.SpawnProtection > 0 {
			ch.SpawnProtection--
		}
		tc.popByColor[p.Color]++
	})
	tc.censusTeams()
	tc.cot.build(tc.g)
}

// censusTeams summarizes the population census: total hunters, live
// monsters, and the strongest/weakest team by head count.  Ties go to the
// highest color, matching the ascending overwrite scan.
func (tc *transitionContext) censusTeams() {
	tc.totalHunters = 0
	for _, n := range tc.popByColor {
		tc.totalHunters += n
	}
	tc.monsterCount = 0
	for _, npc := range tc.g.NPCs {
		if npc.Role == RoleMonster {
			tc.monsterCount++
		}
	}
	tc.strongestTeam, tc.weakestTeam = -1, -1
	for c := 0; c < gamemap.NumColors; c++ {
		strongest, weakest := true, true
		for c2 := 0; c2 < gamemap.NumColors; c2++ {
			if c2 == c {
				continue
			}
			if tc.popByColor[c2] > tc.popByColor[c] {
				strongest = false
			}
			if tc.popByColor[c2] < tc.popByColor[c] {
				weakest = false
			}
		}
		if strongest {
			tc.strongestTeam = c
		}
		if weakest {
			tc.weakestTeam = c
		}
	}
}

// Governance proposals ride on the chat message of a fee-paying move.  The
// highest fee seen during a cycle wins; at the cycle boundary the winning
// comment adjusts its parameter and the proposer collects a bounty from the
// game fund.
const (
	governanceCycleBlocks  = 2000
	governanceBountyFactor = 10
	popLimitStep           = 1000
	minVersionStep         = 100
)

const (
	proposalUpkeepHigher = "Upkeep shall be higher!"
	proposalUpkeepLower  = "Upkeep shall be lower!"
	proposalMorePop      = "Increase the population limit!"
	proposalLessPop      = "Reduce the population limit!"
	proposalUpgrade      = "All nodes must upgrade!"
)

func isGovernanceComment(s string) bool {
	switch s {
	case proposalUpkeepHigher, proposalUpkeepLower,
		proposalMorePop, proposalLessPop, proposalUpgrade:
		return true
	}
	return false
}

// pass1Governance settles a finished voting cycle, folds the block's
// version announcements, votes and proposals into the state, then
// recomputes the voted network minimum: the highest version backed by a
// strict majority of all locked coins.
func (tc *transitionContext) pass1Governance(moves []Move) {
	if tc.g.Height%governanceCycleBlocks == 0 {
		tc.settleGovernance()
	}
	for i := range moves {
		m := &moves[i]
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		if m.ProtocolVersion > 0 {
			p.ProtocolVersion = m.ProtocolVersion
		}
		if m.VersionVote > 0 {
			p.VersionVote = m.VersionVote
		}
		if m.Fee > 0 && isGovernanceComment(m.Message) {
			if tc.g.DAOProposal == nil || m.Fee > tc.g.DAOProposal.Fee {
				addr := m.Address
				if addr == "" {
					addr = p.Address
				}
				tc.g.DAOProposal = &GovProposal{
					Player:  m.Player,
					Address: addr,
					Fee:     m.Fee,
					Comment: m.Message,
				}
			}
		}
	}

	var totalLocked int64
	weights := make(map[int]int64)
	for _, pid := range tc.g.SortedPlayerIDs() {
		p := tc.g.Players[pid]
		var locked int64
		for _, ch := range p.Characters {
			locked += ch.LockedCoins
		}
		totalLocked += locked
		if p.VersionVote > 0 {
			weights[p.VersionVote] += locked
		}
	}
	if totalLocked == 0 {
		return
	}
	versions := make([]int, 0, len(weights))
	for v := range weights {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	// Walking down from the highest vote, accumulate the coins voting for
	// at least that version.
	var backing int64
	voted := tc.params.DAOMinVersionInit
	for _, v := range versions {
		backing += weights[v]
		if backing*2 > totalLocked {
			voted = v
			break
		}
	}
	if voted > tc.g.DAOMinVersion {
		tc.g.DAOMinVersion = voted
	}
}

// settleGovernance closes the voting cycle: the winning comment adjusts
// its parameter and the proposer is paid out of the game fund.
func (tc *transitionContext) settleGovernance() {
	prop := tc.g.DAOProposal
	if prop == nil {
		return
	}
	tc.g.DAOProposal = nil
	switch prop.Comment {
	case proposalUpkeepHigher:
		if tc.g.DAOUpkeepBlocks > 1 {
			tc.g.DAOUpkeepBlocks--
		}
	case proposalUpkeepLower:
		tc.g.DAOUpkeepBlocks++
	case proposalMorePop:
		tc.g.DAOPopulationLimit += popLimitStep
	case proposalLessPop:
		if tc.g.DAOPopulationLimit > popLimitStep {
			tc.g.DAOPopulationLimit -= popLimitStep
		}
	case proposalUpgrade:
		tc.g.DAOMinVersion += minVersionStep
	}
	bounty := prop.Fee * governanceBountyFactor
	if bounty > tc.g.GameFund {
		bounty = tc.g.GameFund
	}
	if prop.Address != "" && bounty > 0 {
		tc.g.GameFund -= bounty
		tc.res.payBounty(prop.Address, bounty)
	}
}

// versionGate rejects the block when the voted minimum outruns this node.
func (tc *transitionContext) versionGate() error {
	if tc.g.DAOMinVersion > tc.params.StateVersion {
		return fmt.Errorf("network requires protocol %d, this node speaks %d",
			tc.g.DAOMinVersion, tc.params.StateVersion)
	}
	return nil
}

// bookFeesAndLocks burns move fees into the game fund and applies the
// positive lock top-ups; both count as fees into the economy.
func (tc *transitionContext) bookFeesAndLocks(moves []Move) {
	for i := range moves {
		m := &moves[i]
		if m.Fee > 0 {
			tc.g.GameFund += m.Fee
			tc.feesIn += m.Fee
		}
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		for _, idx := range sortedKeys(m.LockChange) {
			delta := m.LockChange[idx]
			ch := p.Characters[idx]
			if ch == nil || delta <= 0 {
				continue
			}
			ch.LockedCoins += delta
			tc.feesIn += delta
		}
	}
}

// killRangedFlagged finishes off everyone struck by a lethal ranged hit in
// the previous block.
func (tc *transitionContext) killRangedFlagged() {
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.RangedKillFlag {
			tc.markDead(id, KilledByInfo{Reason: KillCombat})
		}
	})
	for _, nid := range tc.g.SortedNPCIDs() {
		if tc.g.NPCs[nid].RangedKillFlag {
			tc.killNPC(nid, KilledByInfo{Reason: KillCombat})
		}
	}
}

// applyWaypointUpdates replaces travel plans from the block's moves.
func (tc *transitionContext) applyWaypointUpdates(moves []Move) {
	for i := range moves {
		m := &moves[i]
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		for _, idx := range sortedKeys(m.Waypoints) {
			if ch := p.Characters[idx]; ch != nil {
				ch.Waypoints = append([]Coord(nil), m.Waypoints[idx]...)
			}
		}
	}
}

// pass2Melee executes waypoint movement and lets map-owned monsters maul
// whoever walks into reach.
func (tc *transitionContext) pass2Melee() {
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.Spectator || len(ch.Waypoints) == 0 {
			return
		}
		ch.MoveTowardsWaypoint()
		tc.afterStep(id, ch)
	})

	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		if npc.Role != RoleMonster {
			continue
		}
		tc.monsterBite(npc)
	}
}

// monsterBite drains one coin from every adjacent hunter, judged by where
// they stand after this block's movement; a victim left below the survival
// floor is flagged for death next block.
func (tc *transitionContext) monsterBite(npc *CharacterState) {
	ids := make([]CharID, 0, len(tc.cot.byID))
	for id := range tc.cot.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	for _, id := range ids {
		ac := tc.cot.byID[id]
		if ac.gone || ac.ch.RangedKillFlag {
			continue
		}
		if gamemap.DistLInf(npc.Pos, ac.ch.Pos) > 1 || gamemap.IsInsideSafezone(ac.ch.Pos) {
			continue
		}
		bite := 1 * chain.COIN
		if bite > ac.ch.LockedCoins {
			bite = ac.ch.LockedCoins
		}
		ac.ch.LockedCoins -= bite
		npc.Loot.merge(bite, tc.g.Height)
		if ac.ch.LockedCoins < minLockedToLive {
			npc.Loot.merge(ac.ch.LockedCoins, tc.g.Height)
			ac.ch.LockedCoins = 0
			ac.ch.RangedKillFlag = true
		}
	}
}

// afterStep applies tile-entry effects of a completed step: teleporter
// jumps (the crown holder is too burdened to ride them).
func (tc *transitionContext) afterStep(id CharID, ch *CharacterState) {
	tp := gamemap.TeleporterAt(ch.Pos)
	if tp < 0 {
		return
	}
	if tc.g.Crown.Holder != nil && *tc.g.Crown.Holder == id {
		return
	}
	ch.From = ch.Pos
	ch.Pos = gamemap.POIs()[tp].Exit
	ch.Waypoints = nil
}

// purchase is a shop order queued by the agent controller, settled in the
// payment pass so pricing is a pure function of pre-pass state.
type purchase struct {
	buyer    CharID
	merchant int
	weapon   int // 0 = not a weapon sale
	armor    int // 0 = not an armor sale
	price    int64
}

// pass3Payments settles queued merchant purchases and resolves the block's
// ranged attacks.
func (tc *transitionContext) pass3Payments(moves []Move) {
	for _, pu := range tc.pendingPurchases {
		ch := tc.g.Character(pu.buyer)
		if ch == nil || ch.Loot.Amount < pu.price {
			continue
		}
		ch.Loot.Amount -= pu.price
		tc.g.GameFund += pu.price
		if pu.weapon > 0 {
			ch.Weapon = pu.weapon
		}
		if pu.armor > 0 {
			ch.Armor = pu.armor
		}
		tc.g.MerchantLastSale[pu.merchant] = tc.g.Height
	}
	tc.pendingPurchases = nil

	for i := range moves {
		m := &moves[i]
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		for _, a := range m.Attacks {
			attacker := p.Characters[a.Index]
			if attacker == nil || attacker.Spectator || attacker.Weapon == WeaponNone {
				continue
			}
			tc.resolveRangedHit(CharID{m.Player, a.Index}, attacker, a.Target)
		}
	}
}

func weaponRange(w int) int {
	switch w {
	case WeaponStaffFire:
		return 4
	case WeaponStaffPoison:
		return 6
	case WeaponStaffDeath:
		return 8
	case WeaponStaffLightning:
		return 10
	}
	return 0
}

// resolveRangedHit applies one staff shot.  Each staff has its own range
// and its own armor interaction; drains flow to the attacker, lethal hits
// set the kill flag for the next block.
func (tc *transitionContext) resolveRangedHit(attackerID CharID, attacker *CharacterState, target CharID) {
	ac, ok := tc.cot.byID[target]
	if !ok || ac.gone || ac.ch.RangedKillFlag {
		return
	}
	if tc.g.Players[target.Player] != nil && tc.g.Players[attackerID.Player] != nil &&
		tc.g.Players[target.Player].Color == tc.g.Players[attackerID.Player].Color {
		return
	}
	if gamemap.IsInsideSafezone(ac.ch.Pos) || gamemap.IsInsideSafezone(attacker.Pos) {
		return
	}
	if gamemap.DistLInf(attacker.Pos, ac.ch.Pos) > weaponRange(attacker.Weapon) {
		return
	}
	victim := ac.ch
	switch attacker.Weapon {
	case WeaponStaffFire:
		if victim.Armor >= ArmorScale {
			return
		}
		tc.drainTo(attackerID, attacker, victim, 2*chain.COIN)
	case WeaponStaffPoison:
		if !tc.rules.Poison || victim.Armor >= ArmorPlate {
			return
		}
		if victim.PoisonCount == 0 {
			victim.PoisonCount = poisonIncubation
		}
	case WeaponStaffDeath:
		if victim.Armor >= ArmorSplint {
			return
		}
		victim.RangedKillFlag = true
	case WeaponStaffLightning:
		tc.drainTo(attackerID, attacker, victim, 3*chain.COIN)
	}
}

// poisonIncubation is how many blocks a poisoned character has left.
const poisonIncubation = 30

// drainTo moves locked coins from victim to the attacker's carried loot,
// overflow to the game fund; a victim below the floor is flagged lethal.
func (tc *transitionContext) drainTo(attackerID CharID, attacker, victim *CharacterState, amount int64) {
	if amount > victim.LockedCoins {
		amount = victim.LockedCoins
	}
	victim.LockedCoins -= amount
	if victim.LockedCoins < minLockedToLive {
		amount += victim.LockedCoins
		victim.LockedCoins = 0
		victim.RangedKillFlag = true
	}
	got := attacker.Loot.Collect(amount, tc.g.Height, tc.capacityOf(attackerID))
	tc.g.GameFund += amount - got
}

// pass4RefundSweep pays out the block's negative lock changes, always
// leaving the survival floor in place.
func (tc *transitionContext) pass4RefundSweep(moves []Move) {
	for i := range moves {
		m := &moves[i]
		p, ok := tc.g.Players[m.Player]
		if !ok {
			continue
		}
		addr := m.Address
		if addr == "" {
			addr = p.Address
		}
		if addr == "" {
			continue
		}
		for _, idx := range sortedKeys(m.LockChange) {
			delta := m.LockChange[idx]
			ch := p.Characters[idx]
			if ch == nil || delta >= 0 {
				continue
			}
			release := -delta
			avail := ch.LockedCoins - minLockedToLive
			if avail <= 0 {
				continue
			}
			if release > avail {
				release = avail
			}
			ch.LockedCoins -= release
			tc.res.payBounty(addr, release)
		}
	}
}

// updateCrownHolder keeps the crown riding on its holder.
func (tc *transitionContext) updateCrownHolder() {
	if h := tc.g.CrownHolder(); h != nil {
		tc.g.Crown.Pos = h.Pos
	}
}

// runBanking converts carried loot to locked coins for every hunter
// standing in a walk-in bank, minus the banking tax.  The tax is the
// block's coinbase contribution; governance can abolish it.
func (tc *transitionContext) runBanking() {
	taxPct := tc.rules.BankTaxPercent
	if tc.g.DAOMinVersion >= tc.params.NoBankTaxVersion {
		taxPct = 0
	}
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if ch.Spectator || ch.Loot.Amount <= 0 {
			return
		}
		if _, isBank := tc.g.Banks[ch.Pos]; !isBank {
			return
		}
		amount := ch.Loot.Amount
		tax := amount * taxPct / 100
		tc.res.TaxCollected += tax
		ch.LockedCoins += amount - tax
		ch.Loot = LootInfo{}
		if tc.rules.Timesave {
			ch.Rations += bankingRationBonus
		}
	})
}

const bankingRationBonus = 25

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
