package rules

import (
	"testing"

	"crownhunt/internal/chain"
)

func TestEpochProgression(t *testing.T) {
	p := chain.Main()
	cases := []struct {
		height int64
		name   string
	}{
		{0, "classic"},
		{p.ForkHeightPoison, "poison"},
		{p.ForkHeightCarryingCap, "capped"},
		{p.ForkHeightLessHearts, "scarce-hearts"},
		{p.ForkHeightLifesteal, "lifesteal"},
		{p.ForkHeightTimesave, "timesave"},
	}
	for _, tc := range cases {
		if got := ForEpoch(p, tc.height).Name; got != tc.name {
			t.Fatalf("epoch at %d = %q, want %q", tc.height, got, tc.name)
		}
	}
}

func TestEpochsAccumulate(t *testing.T) {
	p := chain.Main()
	s := ForEpoch(p, p.ForkHeightTimesave)
	if !s.Poison || !s.Lifesteal || !s.Timesave {
		t.Fatalf("timesave epoch lost earlier flags: %+v", s)
	}
	if s.CarryingCapCoins != 100 {
		t.Fatalf("carrying cap = %d, want 100", s.CarryingCapCoins)
	}
	if s.HeartChance != 50 {
		t.Fatalf("heart chance = %d, want 50", s.HeartChance)
	}
}

func TestCarryingCapacity(t *testing.T) {
	p := chain.Main()
	classic := ForEpoch(p, 0)
	if classic.CarryingCapacity(false) != -1 {
		t.Fatalf("classic capacity should be unlimited")
	}
	capped := ForEpoch(p, p.ForkHeightCarryingCap)
	if got := capped.CarryingCapacity(false); got != 100*chain.COIN {
		t.Fatalf("capped capacity = %d", got)
	}
	if capped.CarryingCapacity(true) != -1 {
		t.Fatalf("crown holder should be exempt")
	}
}

func TestGhostedLoot(t *testing.T) {
	p := chain.Main()
	ts := ForEpoch(p, p.ForkHeightTimesave)
	if ts.GhostedLoot(p.ForkHeightTimesave + 100) {
		t.Fatalf("loot ghosted in the open window")
	}
	h := p.ForkHeightTimesave/500*500 + 450
	if !ts.GhostedLoot(h) {
		t.Fatalf("loot not ghosted at %d", h)
	}
	pre := ForEpoch(p, 0)
	if pre.GhostedLoot(450) {
		t.Fatalf("loot ghosted before the time-save era")
	}
}
