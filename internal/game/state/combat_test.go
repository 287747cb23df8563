package state

import (
	"testing"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/rng"
)

func TestDrawLifeDrainsPerAttacker(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	victim := addCharacter(g, "victim", 0, 1, base, 10*chain.COIN)
	addCharacter(g, "attacker1", 0, 0, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)
	addCharacter(g, "attacker2", 0, 2, Coord{X: base.X - 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	moves := []Move{
		{Player: "attacker1", Destruct: []int{0}},
		{Player: "attacker2", Destruct: []int{0}},
	}
	tc.resolveDestructs(moves)
	tc.cot.DefendMutualAttacks()
	dead := tc.cot.DrawLife()

	if len(dead) != 0 {
		t.Fatalf("victim died at 10 coins: %v", dead)
	}
	if victim.LockedCoins != 8*chain.COIN {
		t.Fatalf("victim locked = %d, want %d", victim.LockedCoins, 8*chain.COIN)
	}
}

func TestDrawLifeKillsBelowFloor(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	victim := addCharacter(g, "victim", 0, 1, base, 1*chain.COIN)
	addCharacter(g, "attacker", 0, 0, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	tc.resolveDestructs([]Move{{Player: "attacker", Destruct: []int{0}}})
	tc.cot.DefendMutualAttacks()
	dead := tc.cot.DrawLife()

	if len(dead) != 1 || dead[0] != (CharID{"victim", 0}) {
		t.Fatalf("dead = %v, want the drained victim", dead)
	}
	if victim.LockedCoins != 0 {
		t.Fatalf("dead victim keeps %d locked", victim.LockedCoins)
	}
}

func TestMutualAttacksCancel(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	a := addCharacter(g, "alice", 0, 0, base, 10*chain.COIN)
	b := addCharacter(g, "bob", 0, 1, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	moves := []Move{
		{Player: "alice", Destruct: []int{0}},
		{Player: "bob", Destruct: []int{0}},
	}
	tc.resolveDestructs(moves)
	tc.cot.DefendMutualAttacks()
	if dead := tc.cot.DrawLife(); len(dead) != 0 {
		t.Fatalf("mutual attackers died: %v", dead)
	}
	if a.LockedCoins != 10*chain.COIN || b.LockedCoins != 10*chain.COIN {
		t.Fatalf("mutual attack drained coins: %d / %d", a.LockedCoins, b.LockedCoins)
	}
}

func TestMutualCancelIsOrderIndependent(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	a := addCharacter(g, "alice", 0, 0, base, 10*chain.COIN)
	b := addCharacter(g, "bob", 0, 1, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)
	c := addCharacter(g, "carol", 0, 2, Coord{X: base.X - 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	// Bob becomes a victim before alice, so his attacker list is filtered
	// first; the alice<->bob pair must still cancel symmetrically even
	// though carol's one-sided attack keeps alice a victim.
	tc.cot.AttackBy(CharID{"alice", 0}, 0, CharID{"bob", 0})
	tc.cot.AttackBy(CharID{"bob", 0}, 1, CharID{"alice", 0})
	tc.cot.AttackBy(CharID{"carol", 0}, 2, CharID{"alice", 0})
	tc.cot.DefendMutualAttacks()
	if dead := tc.cot.DrawLife(); len(dead) != 0 {
		t.Fatalf("unexpected deaths: %v", dead)
	}

	if a.LockedCoins != 9*chain.COIN {
		t.Fatalf("alice locked = %d, want %d (carol's attack only)", a.LockedCoins, 9*chain.COIN)
	}
	if b.LockedCoins != 10*chain.COIN || c.LockedCoins != 10*chain.COIN {
		t.Fatalf("bob/carol drained: %d / %d", b.LockedCoins, c.LockedCoins)
	}
}

func TestSameTeamCannotAttack(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	mate := addCharacter(g, "mate", 0, 0, base, 10*chain.COIN)
	addCharacter(g, "aggressor", 0, 0, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	tc.resolveDestructs([]Move{{Player: "aggressor", Destruct: []int{0}}})
	tc.cot.DefendMutualAttacks()
	tc.cot.DrawLife()
	if mate.LockedCoins != 10*chain.COIN {
		t.Fatalf("teammate drained to %d", mate.LockedCoins)
	}
}

func TestClassicDestructKillsOutright(t *testing.T) {
	p := combatParams()
	p.ForkHeightLifesteal = 1 << 40
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	addCharacter(g, "bomber", 0, 0, base, 10*chain.COIN)
	addCharacter(g, "victim", 0, 1, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	tc.resolveDestructs([]Move{{Player: "bomber", Destruct: []int{0}}})
	tc.cot.DefendMutualAttacks()
	dead := tc.cot.DrawLife()

	// Classic rules: the self-attack kills the bomber, the blast kills the
	// victim; no coins are drained beforehand.
	want := map[CharID]bool{
		{"bomber", 0}: true,
		{"victim", 0}: true,
	}
	if len(dead) != 2 || !want[dead[0]] || !want[dead[1]] {
		t.Fatalf("dead = %v, want bomber and victim", dead)
	}
}

func TestDistributeDrawnLifeConserves(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	victim := addCharacter(g, "victim", 0, 1, base, 10*chain.COIN)
	a1 := addCharacter(g, "attacker1", 0, 0, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)
	a2 := addCharacter(g, "attacker2", 0, 2, Coord{X: base.X - 1, Y: base.Y}, 10*chain.COIN)

	before := g.TotalMoney()
	tc := newTransitionContext(p, g)
	tc.pass0Cache()
	moves := []Move{
		{Player: "attacker1", Destruct: []int{0}},
		{Player: "attacker2", Destruct: []int{0}},
	}
	tc.resolveDestructs(moves)
	tc.cot.DefendMutualAttacks()
	tc.cot.DrawLife()
	tc.cot.DistributeDrawnLife(g, rng.New(blockHash(1)), tc.capacityOf)

	if g.TotalMoney() != before {
		t.Fatalf("distribution changed total money: %d -> %d", before, g.TotalMoney())
	}
	gained := a1.Loot.Amount + a2.Loot.Amount
	if gained+victim.LockedCoins+g.GameFund != before-a1.LockedCoins-a2.LockedCoins {
		t.Fatalf("drained coins not fully redistributed")
	}
	if gained != 2*chain.COIN {
		t.Fatalf("attackers gained %d, want %d", gained, 2*chain.COIN)
	}
}

func TestDistributeDrawnLifePaysEachAttackerOnce(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	g.Height = 10
	base := openFieldTile(t)

	addCharacter(g, "victim", 0, 1, base, 0)
	a1 := addCharacter(g, "a1", 0, 0, Coord{X: base.X + 1, Y: base.Y}, 10*chain.COIN)
	a2 := addCharacter(g, "a2", 0, 2, Coord{X: base.X - 1, Y: base.Y}, 10*chain.COIN)

	tc := newTransitionContext(p, g)
	tc.pass0Cache()

	// Three whole coins drained but only two attackers: each may carry one
	// unit, the third has no taker and falls into the game fund.
	ac := tc.cot.byID[CharID{"victim", 0}]
	ac.attackers = []CharID{{"a1", 0}, {"a2", 0}}
	ac.drawnLife = 3 * chain.COIN
	tc.cot.victims = append(tc.cot.victims, ac)

	fundBefore := g.GameFund
	tc.cot.DistributeDrawnLife(g, rng.New(blockHash(1)), tc.capacityOf)

	if a1.Loot.Amount != chain.COIN || a2.Loot.Amount != chain.COIN {
		t.Fatalf("attacker loot = %d / %d, want one coin each", a1.Loot.Amount, a2.Loot.Amount)
	}
	if g.GameFund != fundBefore+chain.COIN {
		t.Fatalf("game fund grew by %d, want %d", g.GameFund-fundBefore, chain.COIN)
	}
}
