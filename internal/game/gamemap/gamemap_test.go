package gamemap

import "testing"

func TestTileListsSortedAndConsistent(t *testing.T) {
	walk := WalkableTiles()
	if len(walk) == 0 {
		t.Fatalf("no walkable tiles")
	}
	for i := 1; i < len(walk); i++ {
		if !walk[i-1].Less(walk[i]) {
			t.Fatalf("walkable tiles out of order at %d: %v >= %v", i, walk[i-1], walk[i])
		}
	}
	for _, c := range PlayerSpawnTiles() {
		if !IsWalkable(c) || IsInsideSafezone(c) {
			t.Fatalf("bad player spawn tile %v", c)
		}
	}
	for _, c := range BankSpawnTiles() {
		if !BankEligible(c) {
			t.Fatalf("bank tile %v not eligible", c)
		}
	}
	if len(PlayerSpawnTiles()) < 100 {
		t.Fatalf("too few player spawn tiles: %d", len(PlayerSpawnTiles()))
	}
	if len(BankSpawnTiles()) < 200 {
		t.Fatalf("too few bank tiles: %d", len(BankSpawnTiles()))
	}
}

func TestPOIsWalkableAndReachable(t *testing.T) {
	ps := POIs()
	if len(ps) != NumPOIs {
		t.Fatalf("POI count = %d, want %d", len(ps), NumPOIs)
	}
	for i, p := range ps {
		if !IsWalkable(p.Pos) {
			t.Fatalf("POI %d entrance %v not walkable", i, p.Pos)
		}
		if p.Type == POITeleporter && !IsWalkable(p.Exit) {
			t.Fatalf("teleporter %d exit %v not walkable", i, p.Exit)
		}
	}
	for color := 0; color < NumColors; color++ {
		base := ps[POIFirstBase+color].Pos
		for i := range ps {
			if POIDistance(i, base) < 0 {
				t.Fatalf("POI %d unreachable from base %d at %v", i, color, base)
			}
		}
	}
}

func TestPOIDistanceGradient(t *testing.T) {
	from := POIs()[POIFirstBase].Pos
	steps := StepCandidates(POICenterIndex, from)
	if len(steps) == 0 {
		t.Fatalf("no improving step from base towards center")
	}
	here := POIDistance(POICenterIndex, from)
	for _, s := range steps {
		if d := POIDistance(POICenterIndex, s); d >= here {
			t.Fatalf("candidate %v does not improve: %d >= %d", s, d, here)
		}
	}
}

func TestLocalDistance(t *testing.T) {
	a := Coord{127, 127}
	if d := LocalDistance(a, a); d != 0 {
		t.Fatalf("self distance = %d", d)
	}
	b := Coord{130, 124}
	if d := LocalDistance(a, b); d != DistLInf(a, b) {
		t.Fatalf("open plaza distance = %d, want %d", d, DistLInf(a, b))
	}
	if d := LocalDistance(a, Coord{127 + LocalRadius + 1, 127}); d != -1 {
		t.Fatalf("out-of-window distance = %d, want -1", d)
	}
}

func TestSafezonesAndPerimeters(t *testing.T) {
	cases := []struct {
		c     Coord
		color int
	}{
		{Coord{0, 0}, 0},
		{Coord{Width - 1, 0}, 1},
		{Coord{Width - 1, Height - 1}, 2},
		{Coord{0, Height - 1}, 3},
	}
	for _, tc := range cases {
		if !IsInsideSafezone(tc.c) {
			t.Fatalf("corner %v not a safezone", tc.c)
		}
		if baseColorAt(tc.c) != tc.color {
			t.Fatalf("corner %v color = %d, want %d", tc.c, baseColorAt(tc.c), tc.color)
		}
	}
	if !IsInsideSafezone(Coord{127, 127}) {
		t.Fatalf("center plaza not a safezone")
	}
	if IsInsideSafezone(Coord{64, 64}) {
		t.Fatalf("open field marked safezone")
	}
	if !IsOnBasePerimeter(0, Coord{10, 11}) {
		t.Fatalf("(10,11) should be on yellow perimeter")
	}
	if IsOnBasePerimeter(0, Coord{5, 5}) {
		t.Fatalf("(5,5) is deep inside the base, not on the perimeter")
	}
}

func TestSpawnAreaStrips(t *testing.T) {
	if !IsInSpawnArea(Coord{0, 7}) || !IsInSpawnArea(Coord{7, 0}) {
		t.Fatalf("corner strips missing")
	}
	if IsInSpawnArea(Coord{0, SpawnAreaLength}) {
		t.Fatalf("strip too long")
	}
	if got := SpawnAreaColor(Coord{Width - 1, 3}); got != 1 {
		t.Fatalf("spawn color = %d, want 1", got)
	}
	if got := SpawnAreaColor(Coord{50, 50}); got != -1 {
		t.Fatalf("interior tile has spawn color %d", got)
	}
}

func TestDirection(t *testing.T) {
	a := Coord{10, 10}
	cases := []struct {
		b    Coord
		want int
	}{
		{Coord{10, 10}, 5},
		{Coord{10, 5}, 8},
		{Coord{10, 15}, 2},
		{Coord{5, 10}, 4},
		{Coord{15, 10}, 6},
		{Coord{15, 5}, 9},
		{Coord{5, 15}, 1},
	}
	for _, tc := range cases {
		if got := Direction(a, tc.b); got != tc.want {
			t.Fatalf("Direction(%v,%v) = %d, want %d", a, tc.b, got, tc.want)
		}
	}
}
