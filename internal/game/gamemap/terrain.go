package gamemap

// Map geometry.  The map is a fixed square grid; everything below is a pure
// function of the tile coordinates and TerrainSeed, so every node derives an
// identical map without shipping tile data around.
const (
	Width  = 256
	Height = 256

	// TerrainSeed fixes the obstacle layout.  Changing it is a hard fork.
	TerrainSeed int64 = 0x43524f574e // "CROWN"

	// SpawnAreaLength is the length of the border strip at each corner
	// where freshly spawned hunters appear.
	SpawnAreaLength = 15

	safezoneDiagonal = 21
	centerBoxMin     = 112
	centerBoxMax     = 143
)

// NumColors is the number of player teams; each owns one corner base.
const NumColors = 4

func IsInside(c Coord) bool {
	return c.X >= 0 && c.X < Width && c.Y >= 0 && c.Y < Height
}

// IsWalkable reports whether a hunter can stand on the tile.  Obstacles are
// laid down as deterministic hash-noise clusters, with carve-outs that keep
// bases, spawn strips, points of interest and harvest grounds open.
func IsWalkable(c Coord) bool {
	if !IsInside(c) {
		return false
	}
	if isCarvedOpen(c) {
		return true
	}
	switch {
	case inCluster(TerrainSeed+101, c.X, c.Y, 48, 4, 520): // rock fields
		return false
	case inCluster(TerrainSeed+102, c.X, c.Y, 32, 3, 430): // thickets
		return false
	case inCluster(TerrainSeed+103, c.X, c.Y, 96, 6, 240): // lakes
		return false
	}
	return hash2(TerrainSeed+999, c.X, c.Y)%1000 >= 35 // scattered boulders
}

// isCarvedOpen marks the tiles that must stay walkable no matter what the
// noise says.
func isCarvedOpen(c Coord) bool {
	if IsInsideSafezone(c) {
		return true
	}
	if IsInSpawnArea(c) {
		return true
	}
	for color := 0; color < NumColors; color++ {
		if IsOnBasePerimeter(color, c) {
			return true
		}
	}
	for i := range pois {
		if DistLInf(c, pois[i].Pos) <= 2 {
			return true
		}
		if pois[i].Type == POITeleporter && DistLInf(c, pois[i].Exit) <= 2 {
			return true
		}
	}
	for i := range crownSpawnPoints {
		if DistLInf(c, crownSpawnPoints[i]) <= 1 {
			return true
		}
	}
	// Keep the diagonals from each base towards the center clear so no team
	// can be walled in by an unlucky noise roll.
	if onBaseLane(c) {
		return true
	}
	return false
}

// onBaseLane carves a 3 tile wide corridor along each corner-to-center
// diagonal.
func onBaseLane(c Coord) bool {
	if absInt(c.X-c.Y) <= 1 {
		return true
	}
	return absInt(c.X+c.Y-(Height-1)) <= 1
}

// IsInsideSafezone reports whether the tile is inside one of the four corner
// bases or the central crown plaza.  No combat happens here.
func IsInsideSafezone(c Coord) bool {
	if !IsInside(c) {
		return false
	}
	if baseColorAt(c) >= 0 {
		return true
	}
	return c.X >= centerBoxMin && c.X <= centerBoxMax && c.Y >= centerBoxMin && c.Y <= centerBoxMax
}

// baseColorAt returns the owning color of a base safezone tile, or -1.
func baseColorAt(c Coord) int {
	switch {
	case c.X+c.Y <= safezoneDiagonal:
		return 0
	case (Width-1-c.X)+c.Y <= safezoneDiagonal:
		return 1
	case (Width-1-c.X)+(Height-1-c.Y) <= safezoneDiagonal:
		return 2
	case c.X+(Height-1-c.Y) <= safezoneDiagonal:
		return 3
	}
	return -1
}

// IsOnBasePerimeter reports whether the tile lies on the outer edge of the
// given color's base.  Manual waypoints may start only from here.
func IsOnBasePerimeter(color int, c Coord) bool {
	if !IsInside(c) {
		return false
	}
	d := 0
	switch color {
	case 0:
		d = c.X + c.Y
	case 1:
		d = (Width - 1 - c.X) + c.Y
	case 2:
		d = (Width - 1 - c.X) + (Height - 1 - c.Y)
	case 3:
		d = c.X + (Height - 1 - c.Y)
	default:
		return false
	}
	return d == safezoneDiagonal || d == safezoneDiagonal+1
}

// IsInSpawnArea reports whether the tile lies on one of the border strips
// where new hunters materialise.
func IsInSpawnArea(c Coord) bool {
	if !IsInside(c) {
		return false
	}
	nearEdgeX := c.X < SpawnAreaLength || c.X >= Width-SpawnAreaLength
	nearEdgeY := c.Y < SpawnAreaLength || c.Y >= Height-SpawnAreaLength
	if c.X == 0 || c.X == Width-1 {
		return nearEdgeY
	}
	if c.Y == 0 || c.Y == Height-1 {
		return nearEdgeX
	}
	return false
}

// SpawnAreaColor returns the color owning a spawn strip tile, or -1.
func SpawnAreaColor(c Coord) int {
	if !IsInSpawnArea(c) {
		return -1
	}
	left := c.X < Width/2
	top := c.Y < Height/2
	switch {
	case left && top:
		return 0
	case !left && top:
		return 1
	case !left && !top:
		return 2
	default:
		return 3
	}
}

func floorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9))
}

func inCluster(seed int64, x, y, grid, radius int, probPermille uint64) bool {
	gx := floorDiv(x, grid)
	gy := floorDiv(y, grid)
	r2 := radius * radius

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cgx := gx + dx
			cgy := gy + dy
			h := hash2(seed, cgx, cgy)
			if h%1000 >= probPermille {
				continue
			}
			cx := cgx*grid + int((h>>10)%uint64(grid))
			cy := cgy*grid + int((h>>20)%uint64(grid))
			ddx := x - cx
			ddy := y - cy
			if ddx*ddx+ddy*ddy <= r2 {
				return true
			}
		}
	}
	return false
}
