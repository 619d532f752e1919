package blueprint

import "testing"

func TestCheckPlaced(t *testing.T) {
	index := map[string]uint16{
		"PLANK": 1,
		"STONE": 2,
	}
	blocks := []PlacementBlock{
		{Pos: [3]int{0, 0, 0}, Block: "PLANK"},
		{Pos: [3]int{1, 0, 0}, Block: "STONE"},
	}
	grid := map[[3]int]uint16{
		{10, 0, 10}: 1,
		{11, 0, 10}: 2,
	}
	get := func(x, y, z int) uint16 { return grid[[3]int{x, y, z}] }
	if !CheckPlaced(get, index, blocks, [3]int{10, 0, 10}, 2, 1, 0) {
		t.Fatalf("expected placed blueprint to validate")
	}
	if CheckPlaced(get, index, blocks, [3]int{10, 0, 10}, 2, 1, 90) {
		t.Fatalf("rotated check should not match unrotated placement")
	}
}

func TestCheckPlaced_Rotated(t *testing.T) {
	index := map[string]uint16{"PLANK": 1, "STONE": 2}
	blocks := []PlacementBlock{
		{Pos: [3]int{0, 0, 0}, Block: "PLANK"},
		{Pos: [3]int{1, 0, 0}, Block: "STONE"},
	}
	// 2x1 footprint rotated 90: x'=sz-1-z=0, z'=x.
	grid := map[[3]int]uint16{
		{0, 0, 0}: 1,
		{0, 0, 1}: 2,
	}
	get := func(x, y, z int) uint16 { return grid[[3]int{x, y, z}] }
	if !CheckPlaced(get, index, blocks, [3]int{0, 0, 0}, 2, 1, 90) {
		t.Fatalf("expected rotated placement to validate")
	}
}

func TestCheckPlaced_UnknownBlockFails(t *testing.T) {
	blocks := []PlacementBlock{{Pos: [3]int{0, 0, 0}, Block: "MISSING"}}
	if CheckPlaced(func(x, y, z int) uint16 { return 0 }, map[string]uint16{}, blocks, [3]int{}, 1, 1, 0) {
		t.Fatalf("unknown block must fail")
	}
}
