package gamemap

import "sync"

// POIType classifies a point of interest.
type POIType int

const (
	POITeleporter POIType = iota
	POICenter
	POIHarvest
	POIBase
)

// POI is a fixed landmark on the map.  Teleporters have an Exit tile;
// stepping on Pos moves the hunter to Exit instantly.
type POI struct {
	Type  POIType
	Color int // owning color for teleporters and bases, -1 otherwise
	Pos   Coord
	Exit  Coord
}

// Index layout of the pois table.  The AI long-range planner addresses
// destinations by these indices, so the layout is part of consensus.
const (
	POIFirstTeleporter = 0
	POILastTeleporter  = 7
	POICenterIndex     = 8
	POIFirstHarvest    = 9
	POILastHarvest     = 32
	POIFirstBase       = 33
	POILastBase        = 36
	NumPOIs            = 37
)

// mirror maps a coordinate given relative to the top-left corner into the
// quadrant owned by color.
func mirror(color int, x, y int) Coord {
	switch color {
	case 1:
		return Coord{Width - 1 - x, y}
	case 2:
		return Coord{Width - 1 - x, Height - 1 - y}
	case 3:
		return Coord{x, Height - 1 - y}
	}
	return Coord{x, y}
}

var pois = buildPOIs()

func buildPOIs() []POI {
	ps := make([]POI, 0, NumPOIs)
	// Teleporter pairs, two per color: base plaza to the center and back.
	for color := 0; color < NumColors; color++ {
		ps = append(ps,
			POI{Type: POITeleporter, Color: color, Pos: mirror(color, 4, 3), Exit: mirror(color, 120, 119)},
			POI{Type: POITeleporter, Color: color, Pos: mirror(color, 118, 117), Exit: mirror(color, 6, 5)},
		)
	}
	ps = append(ps, POI{Type: POICenter, Color: -1, Pos: Coord{127, 127}})

	// Inner harvest ring, radius 40 around the center plaza.
	inner := [][2]int{{0, -40}, {28, -28}, {40, 0}, {28, 28}, {0, 40}, {-28, 28}, {-40, 0}, {-28, -28}}
	for _, d := range inner {
		ps = append(ps, POI{Type: POIHarvest, Color: -1, Pos: Coord{128 + d[0], 128 + d[1]}})
	}
	// Outer harvest ring, radius 96.
	outer := [][2]int{
		{0, -96}, {37, -89}, {68, -68}, {89, -37}, {96, 0}, {89, 37}, {68, 68}, {37, 89},
		{0, 96}, {-37, 89}, {-68, 68}, {-89, 37}, {-96, 0}, {-89, -37}, {-68, -68}, {-37, -89},
	}
	for _, d := range outer {
		ps = append(ps, POI{Type: POIHarvest, Color: -1, Pos: Coord{128 + d[0], 128 + d[1]}})
	}
	for color := 0; color < NumColors; color++ {
		ps = append(ps, POI{Type: POIBase, Color: color, Pos: mirror(color, 10, 9)})
	}
	return ps
}

// POIs returns the landmark table.  Callers must not mutate it.
func POIs() []POI { return pois }

// TeleporterAt returns the teleporter whose entrance is at c, or -1.
func TeleporterAt(c Coord) int {
	for i := POIFirstTeleporter; i <= POILastTeleporter; i++ {
		if pois[i].Pos == c {
			return i
		}
	}
	return -1
}

// Harvest economics: the inner ring pays better than the outer one, and the
// crown holder takes a fixed cut of every drop.
const (
	innerHarvestPortion = 5
	outerHarvestPortion = 3
	CrownBonusPortion   = 12
	TotalHarvest        = 8*innerHarvestPortion + 16*outerHarvestPortion + CrownBonusPortion
)

// HarvestArea is the patch of tiles around a harvest POI where loot drops
// land, plus its share of each drop in portions out of TotalHarvest.
type HarvestArea struct {
	POI     int
	Portion int
	Tiles   []Coord
}

var (
	harvestOnce  sync.Once
	harvestAreas []HarvestArea
)

// HarvestAreas returns the 24 harvest patches with their tile lists sorted
// in consensus Coord order.
func HarvestAreas() []HarvestArea {
	harvestOnce.Do(func() {
		for i := POIFirstHarvest; i <= POILastHarvest; i++ {
			portion := innerHarvestPortion
			if i >= POIFirstHarvest+8 {
				portion = outerHarvestPortion
			}
			a := HarvestArea{POI: i, Portion: portion}
			p := pois[i].Pos
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					t := Coord{p.X + dx, p.Y + dy}
					if IsWalkable(t) {
						a.Tiles = append(a.Tiles, t)
					}
				}
			}
			SortCoords(a.Tiles)
			harvestAreas = append(harvestAreas, a)
		}
	})
	return harvestAreas
}

var crownSpawnPoints = []Coord{
	{64, 64}, {191, 64}, {191, 191}, {64, 191},
	{128, 40}, {215, 128}, {128, 215}, {40, 128},
}

// CrownSpawnPoints lists where the crown reappears after its holder dies
// outside a safezone.
func CrownSpawnPoints() []Coord { return crownSpawnPoints }

// CrownStartPos is where the crown lies at genesis.
var CrownStartPos = Coord{127, 125}

// PlayerSpawnEligible reports whether a hunter may materialise on the tile
// under the scattered-spawn rules.
func PlayerSpawnEligible(c Coord) bool {
	if !IsWalkable(c) || IsInsideSafezone(c) || IsInSpawnArea(c) {
		return false
	}
	return hash2(TerrainSeed+777, c.X, c.Y)%1000 < 150
}

// BankEligible reports whether a walk-in bank may appear on the tile.
func BankEligible(c Coord) bool {
	if !IsWalkable(c) || IsInsideSafezone(c) || IsInSpawnArea(c) {
		return false
	}
	for i := POIFirstTeleporter; i <= POILastTeleporter; i++ {
		if DistLInf(c, pois[i].Pos) <= 1 || DistLInf(c, pois[i].Exit) <= 1 {
			return false
		}
	}
	return true
}

var (
	tileListsOnce    sync.Once
	walkableTiles    []Coord
	playerSpawnTiles []Coord
	bankSpawnTiles   []Coord
	spawnStripTiles  [NumColors][]Coord
)

func buildTileLists() {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := Coord{x, y}
			if !IsWalkable(c) {
				continue
			}
			walkableTiles = append(walkableTiles, c)
			if PlayerSpawnEligible(c) {
				playerSpawnTiles = append(playerSpawnTiles, c)
			}
			if BankEligible(c) {
				bankSpawnTiles = append(bankSpawnTiles, c)
			}
			if color := SpawnAreaColor(c); color >= 0 {
				spawnStripTiles[color] = append(spawnStripTiles[color], c)
			}
		}
	}
	SortCoords(walkableTiles)
	SortCoords(playerSpawnTiles)
	SortCoords(bankSpawnTiles)
	for color := range spawnStripTiles {
		SortCoords(spawnStripTiles[color])
	}
}

// WalkableTiles returns every walkable tile in consensus order.
func WalkableTiles() []Coord {
	tileListsOnce.Do(buildTileLists)
	return walkableTiles
}

// PlayerSpawnTiles returns the scattered-spawn candidates in consensus order.
func PlayerSpawnTiles() []Coord {
	tileListsOnce.Do(buildTileLists)
	return playerSpawnTiles
}

// BankSpawnTiles returns the walk-in bank candidates in consensus order.
func BankSpawnTiles() []Coord {
	tileListsOnce.Do(buildTileLists)
	return bankSpawnTiles
}

// SpawnStripTiles returns the border-strip spawn tiles of one color in
// consensus order.
func SpawnStripTiles(color int) []Coord {
	tileListsOnce.Do(buildTileLists)
	return spawnStripTiles[color]
}
