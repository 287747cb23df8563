package state

import (
	"fmt"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/rng"
)

// PerformStep advances the world by one block.  It never mutates prev; the
// caller either adopts the returned state or discards it whole.  The pass
// order below is consensus: reordering anything changes the RNG draw
// sequence and forks the network.
//
// While data.NewHash is the all-zero placeholder the function returns early
// after the banking pass: the tax is final at that point, which is all a
// block assembler needs, and everything downstream of the hash stays
// pending.
func PerformStep(prev *GameState, data *StepData, p chain.Params) (*GameState, *StepResult, error) {
	for i := range data.Moves {
		if err := data.Moves[i].CheckValid(prev, p); err != nil {
			return nil, nil, fmt.Errorf("invalid move: %w", err)
		}
	}

	g := prev.Clone()
	g.Height = prev.Height + 1
	moneyBefore := g.TotalMoney()

	tc := newTransitionContext(p, g)

	tc.pass0Cache()
	tc.pass1Governance(data.Moves)
	if err := tc.versionGate(); err != nil {
		return nil, nil, err
	}
	tc.bookFeesAndLocks(data.Moves)

	tc.resolveDestructs(data.Moves)
	tc.cot.DefendMutualAttacks()
	tc.applyCombatDeaths(tc.cot.DrawLife())

	tc.killSpawnCampers()
	tc.killRangedFlagged()
	tc.decrementPoison()
	tc.finaliseKills()
	tc.cullUnderfundedOnForkBoundary()

	tc.applyWaypointUpdates(data.Moves)
	tc.pass2Melee()
	tc.runAgents()
	tc.pass3Payments(data.Moves)
	tc.pass4RefundSweep(data.Moves)

	tc.updateCrownHolder()
	tc.runBanking()

	if !data.HashKnown() {
		return g, tc.res, nil
	}

	g.Hash = data.NewHash
	tc.gen = rng.New(data.NewHash)

	tc.rollDisaster()
	tc.cot.DistributeDrawnLife(g, tc.gen, tc.capacityOf)
	tc.processSpawns(data.Moves)
	tc.processAddressesAndMessages(data.Moves)
	tc.rationRewards()
	tc.dropTreasure(data.TreasureAmount)

	occ := tc.occupants()
	tc.divideLootAmongPlayers(occ)
	tc.updateBanks()
	tc.spawnAndCollectHearts(occ)
	tc.collectCrown(occ)

	if err := tc.checkConservation(moneyBefore); err != nil {
		return nil, nil, err
	}
	return g, tc.res, nil
}

// checkConservation is the master invariant: every coin that entered this
// block is either still in the world or left through tax and bounties.
func (tc *transitionContext) checkConservation(moneyBefore int64) error {
	var bountiesOut int64
	for _, b := range tc.res.Bounties {
		bountiesOut += b.Amount
	}
	in := moneyBefore + tc.treasureIn + tc.feesIn
	out := tc.g.TotalMoney() + tc.res.TaxCollected + bountiesOut
	if in != out {
		return fmt.Errorf("money not conserved at height %d: %d in, %d out",
			tc.g.Height, in, out)
	}
	return nil
}

// rationRewards tops up voting players' hunters once per reward cycle and
// wakes any that starved into stasis.
func (tc *transitionContext) rationRewards() {
	if !tc.rules.Timesave || tc.g.Height%rationRewardCycle != 0 {
		return
	}
	tc.g.ForEachCharacter(func(id CharID, p *PlayerState, ch *CharacterState) {
		if p.VersionVote == 0 {
			return
		}
		ch.Rations += rationRewardAmount
		if ch.Spectator && ch.Rations > 0 {
			ch.Spectator = false
		}
	})
}

const (
	rationRewardCycle  = 100
	rationRewardAmount = 5
)
