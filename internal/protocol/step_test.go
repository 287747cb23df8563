package protocol

import (
	"encoding/hex"
	"reflect"
	"testing"

	"crownhunt/internal/game/gamemap"
	"crownhunt/internal/game/state"
)

func TestMoveMsgRoundTrip(t *testing.T) {
	mv := state.Move{
		Player: "alice",
		Spawn:  &state.SpawnParams{Color: 1},
		Waypoints: map[int][]gamemap.Coord{
			2: {{X: 10, Y: 20}, {X: 11, Y: 20}},
		},
		Destruct: []int{3},
		Attacks: []state.AttackCommand{
			{Index: 0, Target: state.CharID{Player: "bob", Index: 1}},
		},
		LockChange:      map[int]int64{2: -5},
		Address:         "payout",
		Message:         "hi",
		ProtocolVersion: 2020600,
		VersionVote:     2020500,
		Fee:             7,
	}
	wire := FromMove(mv)
	back, err := wire.ToMove()
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !reflect.DeepEqual(mv, back) {
		t.Fatalf("move changed across the wire:\n  in  %+v\n  out %+v", mv, back)
	}
}

func TestToStepDataParsesHash(t *testing.T) {
	var want [32]byte
	for i := range want {
		want[i] = byte(i)
	}
	msg := StepMsg{
		Type:            TypeStep,
		ProtocolVersion: Version,
		Height:          9,
		BlockHash:       hex.EncodeToString(want[:]),
	}
	data, err := msg.ToStepData()
	if err != nil {
		t.Fatalf("to step data: %v", err)
	}
	if data.NewHash != want {
		t.Fatalf("hash mismatch")
	}
	if !data.HashKnown() {
		t.Fatalf("expected known hash")
	}
}

func TestToStepDataNullHash(t *testing.T) {
	msg := StepMsg{Type: TypeStep, ProtocolVersion: Version, Height: 9}
	data, err := msg.ToStepData()
	if err != nil {
		t.Fatalf("to step data: %v", err)
	}
	if data.HashKnown() {
		t.Fatalf("expected placeholder hash")
	}
}

func TestToStepDataRejectsGarbage(t *testing.T) {
	cases := []StepMsg{
		{Height: 1, BlockHash: "zz"},
		{Height: 1, BlockHash: "abcd"},
		{Height: 1, Treasure: -1},
		{Height: 1, Moves: []MoveMsg{{Player: "a"}, {Player: "a"}}},
		{Height: 1, Moves: []MoveMsg{{Player: "a", Waypoints: map[string][][2]int{"x": {{1, 2}}}}}},
	}
	for i, msg := range cases {
		if _, err := msg.ToStepData(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestToStepDataSortsMoves(t *testing.T) {
	msg := StepMsg{
		Height: 1,
		Moves:  []MoveMsg{{Player: "carol"}, {Player: "alice"}, {Player: "bob"}},
	}
	data, err := msg.ToStepData()
	if err != nil {
		t.Fatalf("to step data: %v", err)
	}
	got := make([]string, len(data.Moves))
	for i, mv := range data.Moves {
		got[i] = string(mv.Player)
	}
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order %v, want %v", got, want)
	}
}
