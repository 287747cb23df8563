package state

import (
	"testing"

	"crownhunt/internal/chain"
)

func TestStallPriceDecaysWithoutSales(t *testing.T) {
	p := combatParams()
	g := NewGame(p)
	tc := newTransitionContext(p, g)

	// Stall 0 sells the tier-1 weapon at 20 coins full price.
	base := 20 * chain.COIN
	if got := tc.stallPrice(0); got != base {
		t.Fatalf("never-sold stall charges %d, want full price %d", got, base)
	}

	cases := []struct {
		sinceSale int64
		want      int64
	}{
		{50, base},
		{150, base * 90 / 100},
		{250, base * 80 / 100},
		{600, base * 70 / 100},
		{1500, base * 60 / 100},
		{2500, base * 50 / 100},
		{6000, base * 30 / 100},
		{20000, base * 10 / 100},
	}
	for _, c := range cases {
		g.Height = 30000
		g.MerchantLastSale[0] = g.Height - c.sinceSale
		if got := tc.stallPrice(0); got != c.want {
			t.Fatalf("price after %d dry blocks = %d, want %d", c.sinceSale, got, c.want)
		}
	}
}
