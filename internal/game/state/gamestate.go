package state

import (
	"encoding/json"
	"sort"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/gamemap"
)

// Crown is the single artifact everyone fights over.  While held it rides
// on a character; while loose it lies on Pos.
type Crown struct {
	Pos    Coord   `json:"pos"`
	Holder *CharID `json:"holder,omitempty"`
}

// GameState is the world snapshot at one block height.  It is the sole unit
// of consensus state: height N is produced exactly once from height N-1
// plus that block's moves.
type GameState struct {
	Height         int64    `json:"height"`
	Hash           [32]byte `json:"-"`
	DisasterHeight int64    `json:"disasterHeight"`

	Players map[PlayerID]*PlayerState `json:"-"`

	// NPCs are map-owned characters: merchants and monsters recycled from
	// destructed generals.  Keyed by a never-reused id.
	NPCs      map[int]*CharacterState `json:"-"`
	NextNPCID int                     `json:"nextNpcId"`

	Loot   map[Coord]LootInfo `json:"-"`
	Hearts map[Coord]bool     `json:"-"`
	// Banks maps a tile to the number of blocks the walk-in bank stays.
	Banks map[Coord]int64 `json:"-"`

	Crown    Crown `json:"crown"`
	GameFund int64 `json:"gameFund"`

	// MerchantLastSale remembers, per merchant stall, the height of the
	// last completed sale.  The discount schedule keys off it.
	MerchantLastSale map[int]int64 `json:"-"`

	// DAOMinVersion is the governance-voted minimum protocol version.
	DAOMinVersion int `json:"daoMinVersion"`
	// DAOUpkeepBlocks is the voted upkeep pace: hunters consume one ration
	// every this many blocks.
	DAOUpkeepBlocks int `json:"daoUpkeepBlocks"`
	// DAOPopulationLimit caps the live character count; zero means no cap.
	DAOPopulationLimit int `json:"daoPopulationLimit"`
	// DAOProposal is the best-funded governance proposal of the running
	// voting cycle, settled at the next cycle boundary.
	DAOProposal *GovProposal `json:"daoProposal,omitempty"`
}

// GovProposal is one pending governance proposal: a chat comment backed by
// a move fee.  A higher fee displaces it before the cycle closes.
type GovProposal struct {
	Player  PlayerID `json:"player"`
	Address string   `json:"address,omitempty"`
	Fee     int64    `json:"fee"`
	Comment string   `json:"comment"`
}

// NewGame returns the genesis state for the given parameters.
func NewGame(p chain.Params) *GameState {
	g := &GameState{
		Height:           -1,
		DisasterHeight:   -1,
		Players:          make(map[PlayerID]*PlayerState),
		NPCs:             make(map[int]*CharacterState),
		Loot:             make(map[Coord]LootInfo),
		Hearts:           make(map[Coord]bool),
		Banks:            make(map[Coord]int64),
		MerchantLastSale: make(map[int]int64),
		DAOMinVersion:    p.DAOMinVersionInit,
		DAOUpkeepBlocks:  1,
		Crown:            Crown{Pos: gamemap.CrownStartPos},
	}
	return g
}

// Clone deep-copies the state.  Transitions never mutate their input.
func (g *GameState) Clone() *GameState {
	out := *g
	out.Players = make(map[PlayerID]*PlayerState, len(g.Players))
	for id, p := range g.Players {
		np := *p
		np.Characters = make(map[int]*CharacterState, len(p.Characters))
		for i, ch := range p.Characters {
			nch := *ch
			nch.Waypoints = append([]Coord(nil), ch.Waypoints...)
			np.Characters[i] = &nch
		}
		out.Players[id] = &np
	}
	out.NPCs = make(map[int]*CharacterState, len(g.NPCs))
	for id, ch := range g.NPCs {
		nch := *ch
		nch.Waypoints = append([]Coord(nil), ch.Waypoints...)
		out.NPCs[id] = &nch
	}
	out.Loot = make(map[Coord]LootInfo, len(g.Loot))
	for c, l := range g.Loot {
		out.Loot[c] = l
	}
	out.Hearts = make(map[Coord]bool, len(g.Hearts))
	for c := range g.Hearts {
		out.Hearts[c] = true
	}
	out.Banks = make(map[Coord]int64, len(g.Banks))
	for c, v := range g.Banks {
		out.Banks[c] = v
	}
	out.MerchantLastSale = make(map[int]int64, len(g.MerchantLastSale))
	for m, h := range g.MerchantLastSale {
		out.MerchantLastSale[m] = h
	}
	if g.Crown.Holder != nil {
		h := *g.Crown.Holder
		out.Crown.Holder = &h
	}
	if g.DAOProposal != nil {
		pr := *g.DAOProposal
		out.DAOProposal = &pr
	}
	return &out
}

// SortedPlayerIDs returns the player ids in consensus order.
func (g *GameState) SortedPlayerIDs() []PlayerID {
	out := make([]PlayerID, 0, len(g.Players))
	for id := range g.Players {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ForEachCharacter visits every player character in (PlayerID, index) order.
// The visitor may mutate the character but not add or remove characters.
func (g *GameState) ForEachCharacter(fn func(id CharID, p *PlayerState, ch *CharacterState)) {
	for _, pid := range g.SortedPlayerIDs() {
		p := g.Players[pid]
		for _, idx := range p.SortedIndices() {
			fn(CharID{pid, idx}, p, p.Characters[idx])
		}
	}
}

// SortedNPCIDs returns the NPC ids in ascending order.
func (g *GameState) SortedNPCIDs() []int {
	out := make([]int, 0, len(g.NPCs))
	for id := range g.NPCs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Character resolves a CharID, also accepting NPC references (negative
// player id form is not used; NPCs are addressed separately).
func (g *GameState) Character(id CharID) *CharacterState {
	p, ok := g.Players[id.Player]
	if !ok {
		return nil
	}
	return p.Characters[id.Index]
}

// CrownHolder returns the holder's character, or nil if the crown is loose.
func (g *GameState) CrownHolder() *CharacterState {
	if g.Crown.Holder == nil {
		return nil
	}
	return g.Character(*g.Crown.Holder)
}

// TotalMoney sums every coin the state accounts for: carried and locked by
// characters and NPCs, lying on tiles, and in the game fund.  Conservation
// of this sum across a transition is the master invariant.
func (g *GameState) TotalMoney() int64 {
	var sum int64
	for _, p := range g.Players {
		sum += p.TotalHeld()
	}
	for _, ch := range g.NPCs {
		sum += ch.TotalHeld()
	}
	for _, l := range g.Loot {
		sum += l.Amount
	}
	return sum + g.GameFund
}

// Wire form: map-keyed collections become sorted slices so that encoding is
// canonical.  Digest, snapshots and the observer stream all rely on this.

type lootEntry struct {
	Pos  Coord    `json:"pos"`
	Loot LootInfo `json:"loot"`
}

type bankEntry struct {
	Pos  Coord `json:"pos"`
	Life int64 `json:"life"`
}

type playerEntry struct {
	ID     PlayerID     `json:"id"`
	Player *PlayerState `json:"player"`
}

type npcEntry struct {
	ID  int             `json:"id"`
	NPC *CharacterState `json:"npc"`
}

type saleEntry struct {
	Merchant int   `json:"merchant"`
	Height   int64 `json:"height"`
}

type gameStateWire struct {
	Height         int64         `json:"height"`
	Hash           []byte        `json:"hash"`
	DisasterHeight int64         `json:"disasterHeight"`
	Players        []playerEntry `json:"players"`
	NPCs           []npcEntry    `json:"npcs"`
	NextNPCID      int           `json:"nextNpcId"`
	Loot           []lootEntry   `json:"loot"`
	Hearts         []Coord       `json:"hearts"`
	Banks          []bankEntry   `json:"banks"`
	Crown          Crown         `json:"crown"`
	GameFund       int64         `json:"gameFund"`
	MerchantSales  []saleEntry   `json:"merchantSales"`
	DAOMinVersion  int           `json:"daoMinVersion"`
	DAOUpkeep      int           `json:"daoUpkeepBlocks"`
	DAOPopLimit    int           `json:"daoPopulationLimit"`
	DAOProposal    *GovProposal  `json:"daoProposal,omitempty"`
}

func (g *GameState) MarshalJSON() ([]byte, error) {
	w := gameStateWire{
		Height:         g.Height,
		Hash:           g.Hash[:],
		DisasterHeight: g.DisasterHeight,
		NextNPCID:      g.NextNPCID,
		Crown:          g.Crown,
		GameFund:       g.GameFund,
		DAOMinVersion:  g.DAOMinVersion,
		DAOUpkeep:      g.DAOUpkeepBlocks,
		DAOPopLimit:    g.DAOPopulationLimit,
		DAOProposal:    g.DAOProposal,
	}
	for _, id := range g.SortedPlayerIDs() {
		w.Players = append(w.Players, playerEntry{id, g.Players[id]})
	}
	for _, id := range g.SortedNPCIDs() {
		w.NPCs = append(w.NPCs, npcEntry{id, g.NPCs[id]})
	}
	for c, l := range g.Loot {
		w.Loot = append(w.Loot, lootEntry{c, l})
	}
	sort.Slice(w.Loot, func(i, j int) bool { return w.Loot[i].Pos.Less(w.Loot[j].Pos) })
	for c := range g.Hearts {
		w.Hearts = append(w.Hearts, c)
	}
	gamemap.SortCoords(w.Hearts)
	for c, v := range g.Banks {
		w.Banks = append(w.Banks, bankEntry{c, v})
	}
	sort.Slice(w.Banks, func(i, j int) bool { return w.Banks[i].Pos.Less(w.Banks[j].Pos) })
	for m, h := range g.MerchantLastSale {
		w.MerchantSales = append(w.MerchantSales, saleEntry{m, h})
	}
	sort.Slice(w.MerchantSales, func(i, j int) bool { return w.MerchantSales[i].Merchant < w.MerchantSales[j].Merchant })
	return json.Marshal(w)
}

func (g *GameState) UnmarshalJSON(raw []byte) error {
	var w gameStateWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	g.Height = w.Height
	copy(g.Hash[:], w.Hash)
	g.DisasterHeight = w.DisasterHeight
	g.NextNPCID = w.NextNPCID
	g.Crown = w.Crown
	g.GameFund = w.GameFund
	g.DAOMinVersion = w.DAOMinVersion
	g.DAOUpkeepBlocks = w.DAOUpkeep
	g.DAOPopulationLimit = w.DAOPopLimit
	g.DAOProposal = w.DAOProposal
	g.Players = make(map[PlayerID]*PlayerState, len(w.Players))
	for _, e := range w.Players {
		g.Players[e.ID] = e.Player
	}
	g.NPCs = make(map[int]*CharacterState, len(w.NPCs))
	for _, e := range w.NPCs {
		g.NPCs[e.ID] = e.NPC
	}
	g.Loot = make(map[Coord]LootInfo, len(w.Loot))
	for _, e := range w.Loot {
		g.Loot[e.Pos] = e.Loot
	}
	g.Hearts = make(map[Coord]bool, len(w.Hearts))
	for _, c := range w.Hearts {
		g.Hearts[c] = true
	}
	g.Banks = make(map[Coord]int64, len(w.Banks))
	for _, e := range w.Banks {
		g.Banks[e.Pos] = e.Life
	}
	g.MerchantLastSale = make(map[int]int64, len(w.MerchantSales))
	for _, e := range w.MerchantSales {
		g.MerchantLastSale[e.Merchant] = e.Height
	}
	return nil
}

// AddLoot drops coins onto a tile, merging with whatever lies there.
func (g *GameState) AddLoot(pos Coord, amount int64, height int64) {
	if amount <= 0 {
		return
	}
	l := g.Loot[pos]
	l.merge(amount, height)
	g.Loot[pos] = l
}
