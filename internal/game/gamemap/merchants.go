package gamemap

// Merchant stalls line the central plaza.  Only the positions live here;
// prices and stock are game state.
var merchantStalls = []Coord{
	{117, 117}, {122, 115}, {127, 114}, {132, 115}, {137, 117},
	{139, 122}, {140, 127}, {139, 132},
	{137, 137}, {132, 139}, {127, 140}, {122, 139},
	{117, 137}, {115, 132}, {114, 127}, {115, 122},
}

const NumMerchants = 16

// MerchantPos returns the stall tile for merchant number i.
func MerchantPos(i int) Coord { return merchantStalls[i] }
