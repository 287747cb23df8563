package gamemap

import "sort"

// Coord is an integer tile position.  The lexicographic ordering defined by
// Less is load-bearing: every container keyed by Coord is iterated in this
// order, and that order is observable through the consensus protocol.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// DistLInf is the Chebyshev distance, the number of blocks a character
// needs to walk between the two tiles on an open field.
func DistLInf(a, b Coord) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Direction returns the numpad-style facing (1..9, 5 = no movement) that
// points from a towards b.
func Direction(a, b Coord) int {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx < -1 {
		dx = -1
	} else if dx > 1 {
		dx = 1
	}
	if dy < -1 {
		dy = -1
	} else if dy > 1 {
		dy = 1
	}
	return (1-dy)*3 + dx + 2
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SortCoords sorts in the consensus Coord order.
func SortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
