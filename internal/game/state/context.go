package state

import (
	"sort"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
	"crownhunt/internal/game/rng"
	"crownhunt/internal/game/rules"
)

// KillReason tags why a character died; the refund/tax/drop policy keys off
// it.
type KillReason string

const (
	KillSpawnTimeout KillReason = "spawn-timeout"
	KillPoison       KillReason = "poison"
	KillDestruct     KillReason = "destruct"
	KillCombat       KillReason = "combat"
	KillDisaster     KillReason = "disaster"
	KillStarvation   KillReason = "starvation"
)

// KilledByInfo is the cause of one death; Killer is set for combat kills.
type KilledByInfo struct {
	Reason KillReason `json:"reason"`
	Killer *CharID    `json:"killer,omitempty"`
}

// Bounty is a payout the caller must embed into chain-level outputs.
type Bounty struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// StepData is the input of one transition: the block's moves in block
// order, its hash (all-zero while still being assembled) and the treasure
// the block injects into the world.
type StepData struct {
	Moves          []Move   `json:"moves"`
	NewHash        [32]byte `json:"newHash"`
	TreasureAmount int64    `json:"treasureAmount"`
}

// HashKnown reports whether the block hash is final.  While it is the
// all-zero placeholder the transition must not touch anything randomized.
func (d *StepData) HashKnown() bool { return d.NewHash != [32]byte{} }

// StepResult is the transient outcome of one transition, consumed by the
// chain layer and never persisted.
type StepResult struct {
	KilledCharacters []CharID                `json:"killedCharacters"`
	KilledBy         map[CharID]KilledByInfo `json:"killedBy"`
	// KilledPlayers lists players whose last character died this block.
	KilledPlayers []PlayerID `json:"killedPlayers"`
	// TaxCollected goes to the coinbase; Bounties leave the game economy.
	TaxCollected int64    `json:"taxCollected"`
	Bounties     []Bounty `json:"bounties"`
}

func (r *StepResult) payBounty(addr string, amount int64) {
	if amount <= 0 {
		return
	}
	r.Bounties = append(r.Bounties, Bounty{Address: addr, Amount: amount})
}

// transitionContext carries everything one PerformStep invocation needs.
// Nothing in here outlives the transition; there is no global state.
type transitionContext struct {
	params chain.Params
	rules  rules.Set

	g   *GameState // the state under construction
	res *StepResult

	cot *charactersOnTiles

	// gen stays nil until the block hash is known.
	gen *rng.Generator

	feesIn     int64
	treasureIn int64

	// popByColor is pass-0 scratch, recomputed every transition.  The
	// team-balance summary below is derived from it once per block and
	// read by the destruct-recycling policy.
	popByColor    [gamemap.NumColors]int
	totalHunters  int
	monsterCount  int
	strongestTeam int
	weakestTeam   int

	pendingPurchases []purchase

	pendingDead map[CharID]KilledByInfo

	// crownDropped means the holder died this block; the crown relocates
	// to a random spawn point once the RNG is available.
	crownDropped bool
}

func newTransitionContext(p chain.Params, g *GameState) *transitionContext {
	return &transitionContext{
		params:      p,
		rules:       rules.ForEpoch(p, g.Height),
		g:           g,
		res:         &StepResult{KilledBy: make(map[CharID]KilledByInfo)},
		cot:         newCharactersOnTiles(rules.ForEpoch(p, g.Height).Lifesteal),
		pendingDead: make(map[CharID]KilledByInfo),
	}
}

// markDead queues a character for FinaliseKills.  The first recorded cause
// wins; later ones for the same character are ignored.
func (tc *transitionContext) markDead(id CharID, info KilledByInfo) {
	if _, dup := tc.pendingDead[id]; dup {
		return
	}
	if tc.g.Character(id) == nil {
		return
	}
	tc.pendingDead[id] = info
}

func (tc *transitionContext) sortedPendingDead() []CharID {
	out := make([]CharID, 0, len(tc.pendingDead))
	for id := range tc.pendingDead {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// capacityOf is the carrying capacity for one character under the current
// rule epoch, honoring the crown holder exemption.
func (tc *transitionContext) capacityOf(id CharID) int64 {
	isCrown := tc.g.Crown.Holder != nil && *tc.g.Crown.Holder == id
	return tc.rules.CarryingCapacity(isCrown)
}
