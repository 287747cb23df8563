package state

import (
	"testing"

	"crownhunt/internal/chain"
)

func TestSpawnRegistersPlayer(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	data := &StepData{
		Moves:   []Move{{Player: "alice", Spawn: &SpawnParams{Color: 2}}},
		NewHash: blockHash(0),
	}
	next, res, err := PerformStep(g, data, p)
	if err != nil {
		t.Fatalf("PerformStep: %v", err)
	}
	pl := next.Players["alice"]
	if pl == nil || pl.Color != 2 {
		t.Fatalf("alice not registered with color 2: %+v", pl)
	}
	ch := pl.Characters[0]
	if ch == nil {
		t.Fatalf("no character spawned")
	}
	if want := p.LockedCoinAmount(0); ch.LockedCoins != want {
		t.Fatalf("locked = %d, want %d", ch.LockedCoins, want)
	}
	if ch.SpawnProtection == 0 {
		t.Fatalf("scattered spawn without protection")
	}
	if res.TaxCollected != 0 || len(res.KilledCharacters) != 0 {
		t.Fatalf("unexpected result for a lone spawn: %+v", res)
	}
	if g.Players["alice"] != nil {
		t.Fatalf("PerformStep mutated its input")
	}
}

func TestNullHashSkipsRandomizedEffects(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	data := &StepData{
		Moves:          []Move{{Player: "alice", Spawn: &SpawnParams{Color: 0}}},
		TreasureAmount: 50 * chain.COIN,
		// NewHash left as the all-zero placeholder.
	}
	next, res, err := PerformStep(g, data, p)
	if err != nil {
		t.Fatalf("PerformStep: %v", err)
	}
	if res == nil {
		t.Fatalf("no result on the placeholder path")
	}
	if next.Players["alice"] != nil {
		t.Fatalf("spawn applied without a block hash")
	}
	if len(next.Loot) != 0 {
		t.Fatalf("treasure dropped without a block hash")
	}
	if len(next.Banks) != 0 {
		t.Fatalf("banks rotated without a block hash")
	}
	if len(next.Hearts) != 0 {
		t.Fatalf("heart spawned without a block hash")
	}
}

func TestConservationAcrossBlocks(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)

	var feesIn, treasureIn, taxOut, bountiesOut int64
	for h := int64(0); h < 30; h++ {
		data := &StepData{NewHash: blockHash(h), TreasureAmount: 10 * chain.COIN}
		if h < 4 {
			pid := PlayerID([]string{"alice", "bob", "carol", "dave"}[h])
			data.Moves = append(data.Moves, Move{
				Player:  pid,
				Spawn:   &SpawnParams{Color: int(h)},
				Address: "addr-" + string(pid),
			})
			feesIn += p.LockedCoinAmount(h)
		}
		next, res, err := PerformStep(g, data, p)
		if err != nil {
			t.Fatalf("height %d: %v", h, err)
		}
		treasureIn += data.TreasureAmount
		taxOut += res.TaxCollected
		for _, b := range res.Bounties {
			bountiesOut += b.Amount
		}
		g = next
	}
	if got := g.TotalMoney(); got != feesIn+treasureIn-taxOut-bountiesOut {
		t.Fatalf("economy drifted: have %d, want %d", got, feesIn+treasureIn-taxOut-bountiesOut)
	}
	if len(g.Banks) != numBanks {
		t.Fatalf("bank population = %d, want %d", len(g.Banks), numBanks)
	}
}

func TestVersionGateRejectsOldNode(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	g.DAOMinVersion = p.StateVersion + 1
	_, _, err := PerformStep(g, &StepData{NewHash: blockHash(0)}, p)
	if err == nil {
		t.Fatalf("step accepted past the version gate")
	}
}

func TestInvalidMoveRejectsBlock(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	data := &StepData{
		Moves:   []Move{{Player: "alice", Spawn: &SpawnParams{Color: 99}}},
		NewHash: blockHash(0),
	}
	if _, _, err := PerformStep(g, data, p); err == nil {
		t.Fatalf("bad color accepted")
	}
}

func TestSpawnCamperCulledWithRefund(t *testing.T) {
	p := chain.Regtest()
	g := NewGame(p)
	g.Height = 100

	// Plant a camper directly on a spawn strip, one block past the limit.
	pos := pickSpawnStripTile(t, 1)
	ch := addCharacter(g, "camper", 0, 1, pos, 50*chain.COIN)
	ch.StayInSpawnArea = 30
	g.Players["camper"].Address = "camper-payout"

	next, res, err := PerformStep(g, &StepData{NewHash: blockHash(101)}, p)
	if err != nil {
		t.Fatalf("PerformStep: %v", err)
	}
	if next.Players["camper"] == nil {
		t.Fatalf("player record dropped with its last character")
	}
	if len(next.Players["camper"].Characters) != 0 {
		t.Fatalf("camper survived past the spawn-area limit")
	}
	if len(res.Bounties) != 1 || res.Bounties[0].Amount != 50*chain.COIN {
		t.Fatalf("refund bounty = %+v, want the full locked amount", res.Bounties)
	}
	if res.KilledBy[CharID{"camper", 0}].Reason != KillSpawnTimeout {
		t.Fatalf("wrong kill reason: %+v", res.KilledBy)
	}
}
