package gamemap

import "sync"

// Movement is 8-connected.  The neighbor order below is fixed because RNG
// tie-breaks index into it.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

const unreachable = int32(-1)

var (
	poiDistOnce [NumPOIs]sync.Once
	poiDist     [NumPOIs][]int32
)

// POIDistance returns the walking distance from c to POI number poi, or -1
// if no path exists.  Distance fields are flood-filled once per POI and
// depend only on the static map, so they are safe to share.
func POIDistance(poi int, c Coord) int {
	if poi < 0 || poi >= NumPOIs || !IsInside(c) {
		return -1
	}
	poiDistOnce[poi].Do(func() {
		poiDist[poi] = floodFill(pois[poi].Pos)
	})
	return int(poiDist[poi][c.Y*Width+c.X])
}

func floodFill(from Coord) []int32 {
	dist := make([]int32, Width*Height)
	for i := range dist {
		dist[i] = unreachable
	}
	if !IsWalkable(from) {
		return dist
	}
	dist[from.Y*Width+from.X] = 0
	queue := []Coord{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur.Y*Width+cur.X] + 1
		for _, off := range neighborOffsets {
			n := Coord{cur.X + off[0], cur.Y + off[1]}
			if !IsWalkable(n) {
				continue
			}
			if idx := n.Y*Width + n.X; dist[idx] == unreachable {
				dist[idx] = d
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// LocalRadius bounds short-range path queries.  Beyond it the AI falls back
// to the long-range POI planner.
const LocalRadius = 12

// LocalDistance returns the walking distance from a to b through the window
// of side 2*LocalRadius+1 centered on a, or -1 if b is outside the window or
// not reachable within it.  Paths that would need to leave the window are
// not found; that is deliberate, short-range moves should stay local.
func LocalDistance(a, b Coord) int {
	if DistLInf(a, b) > LocalRadius {
		return -1
	}
	if !IsWalkable(a) || !IsWalkable(b) {
		return -1
	}
	if a == b {
		return 0
	}
	const side = 2*LocalRadius + 1
	var dist [side * side]int16
	for i := range dist {
		dist[i] = -1
	}
	idx := func(c Coord) int {
		return (c.Y-a.Y+LocalRadius)*side + (c.X - a.X + LocalRadius)
	}
	inWindow := func(c Coord) bool {
		return absInt(c.X-a.X) <= LocalRadius && absInt(c.Y-a.Y) <= LocalRadius
	}
	dist[idx(a)] = 0
	queue := make([]Coord, 0, 64)
	queue = append(queue, a)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[idx(cur)] + 1
		for _, off := range neighborOffsets {
			n := Coord{cur.X + off[0], cur.Y + off[1]}
			if !inWindow(n) || !IsWalkable(n) {
				continue
			}
			if dist[idx(n)] != -1 {
				continue
			}
			if n == b {
				return int(d)
			}
			dist[idx(n)] = d
			queue = append(queue, n)
		}
	}
	return -1
}

// StepCandidates collects the walkable neighbors of from that strictly
// reduce the distance to POI number poi, in fixed neighbor order.  The
// caller RNG-picks among them.
func StepCandidates(poi int, from Coord) []Coord {
	here := POIDistance(poi, from)
	if here <= 0 {
		return nil
	}
	var out []Coord
	for _, off := range neighborOffsets {
		n := Coord{from.X + off[0], from.Y + off[1]}
		if !IsWalkable(n) {
			continue
		}
		if d := POIDistance(poi, n); d >= 0 && d < here {
			out = append(out, n)
		}
	}
	return out
}
