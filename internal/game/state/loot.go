package state

// LootInfo is an amount of coins together with the height range over which
// it accumulated.  The same shape serves ground loot (keyed by tile) and
// loot carried by a hunter.
type LootInfo struct {
	Amount      int64 `json:"amount"`
	FirstHeight int64 `json:"firstHeight"`
	LastHeight  int64 `json:"lastHeight"`
}

func (l LootInfo) Empty() bool { return l.Amount == 0 }

// merge folds an addition into the accumulator, widening the height range.
func (l *LootInfo) merge(amount int64, height int64) {
	if l.Amount == 0 {
		l.FirstHeight = height
	}
	l.Amount += amount
	l.LastHeight = height
}

// Collect moves coins from avail into the carried accumulator, honoring the
// carrying capacity (capacity < 0 means unlimited).  It returns the amount
// actually collected; the caller keeps avail minus that on the tile.  The
// invariant collected + returned == avail holds by construction.
func (l *LootInfo) Collect(avail int64, height int64, capacity int64) int64 {
	if avail <= 0 {
		return 0
	}
	take := avail
	if capacity >= 0 {
		room := capacity - l.Amount
		if room <= 0 {
			return 0
		}
		if take > room {
			take = room
		}
	}
	l.merge(take, height)
	return take
}
