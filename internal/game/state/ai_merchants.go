package state

import (
	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
)

// Merchant stalls alternate weapon and armor offers around the plaza ring.
// Prices decay the longer a stall goes without a sale, so unpopular gear
// eventually finds a buyer.

// stallOffer returns what stall i sells: exactly one of weapon or armor is
// nonzero, plus the undiscounted price.
func stallOffer(i int) (weapon, armor int, basePrice int64) {
	if i%2 == 0 {
		weapon = (i/2)%4 + 1
		return weapon, 0, int64(weapon) * 20 * chain.COIN
	}
	armor = (i/2)%5 + 1
	return 0, armor, int64(armor) * 15 * chain.COIN
}

// demand-decay discount schedule: percent off by blocks since the stall's
// last sale, longest droughts first.
var discountSchedule = []struct {
	sinceSale int64
	percent   int64
}{
	{10000, 90},
	{5000, 70},
	{2000, 50},
	{1000, 40},
	{500, 30},
	{200, 20},
	{100, 10},
}

// stallPrice is the discounted price of stall i at the current height.  A
// stall that has never sold charges full price.
func (tc *transitionContext) stallPrice(i int) int64 {
	_, _, base := stallOffer(i)
	last, sold := tc.g.MerchantLastSale[i]
	if !sold {
		return base
	}
	since := tc.g.Height - last
	for _, tier := range discountSchedule {
		if since > tier.sinceSale {
			return base * (100 - tier.percent) / 100
		}
	}
	return base
}

// stallKeeper returns whether some merchant currently mans stall i.
func (tc *transitionContext) stallKeeper(i int) bool {
	for _, nid := range tc.g.SortedNPCIDs() {
		npc := tc.g.NPCs[nid]
		if npc.Role == RoleMerchant && npc.MerchantID == i {
			return true
		}
	}
	return false
}

// tryShopping queues a purchase when the hunter stands at a manned stall
// offering an upgrade it can afford.  Settlement happens in the payment
// pass; the block it engages a merchant the hunter does nothing else.
func (tc *transitionContext) tryShopping(id CharID, ch *CharacterState) bool {
	if ch.Loot.Amount <= 0 {
		return false
	}
	for i := 0; i < gamemap.NumMerchants; i++ {
		if gamemap.DistLInf(ch.Pos, gamemap.MerchantPos(i)) > 1 {
			continue
		}
		if !tc.stallKeeper(i) {
			continue
		}
		weapon, armor, _ := stallOffer(i)
		if weapon > 0 && weapon <= ch.Weapon {
			continue
		}
		if armor > 0 && armor <= ch.Armor {
			continue
		}
		price := tc.stallPrice(i)
		if ch.Loot.Amount < price {
			continue
		}
		tc.pendingPurchases = append(tc.pendingPurchases, purchase{
			buyer:    id,
			merchant: i,
			weapon:   weapon,
			armor:    armor,
			price:    price,
		})
		return true
	}
	return false
}
