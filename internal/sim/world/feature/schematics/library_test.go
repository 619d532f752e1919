package schematics

import (
	"errors"
	"testing"

	"wastelands.ai/internal/sim/catalogs"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

type mapTerrain struct {
	blocks map[[3]int]uint16
	minY   int
	maxY   int
}

func (m *mapTerrain) GetBlock(x, y, z int) uint16 {
	if y < m.minY || y >= m.maxY {
		return 0
	}
	return m.blocks[[3]int{x, y, z}]
}

func (m *mapTerrain) SetBlock(x, y, z int, b uint16) {
	if y < m.minY || y >= m.maxY {
		return
	}
	m.blocks[[3]int{x, y, z}] = b
}

func (m *mapTerrain) MinY() int { return m.minY }
func (m *mapTerrain) MaxY() int { return m.maxY }

func testLibrary(t *testing.T) (*Library, *catalogs.Catalogs) {
	t.Helper()
	cats, err := catalogs.Load("../../../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return NewLibrary(&cats.Blocks, &cats.Blueprints), cats
}

func TestFootprint_MissingCategory(t *testing.T) {
	l, _ := testLibrary(t)
	if _, ok := l.Footprint(modelpkg.Category("castle")); ok {
		t.Fatalf("unknown category has a footprint")
	}
	fp, ok := l.Footprint(modelpkg.CategoryResidential)
	if !ok || fp.SX != 11 || fp.SZ != 7 {
		t.Fatalf("residential footprint: %+v", fp)
	}
}

func TestStamp_NoBlueprint(t *testing.T) {
	l, _ := testLibrary(t)
	l.Attach("w", &mapTerrain{blocks: map[[3]int]uint16{}, maxY: 128})
	_, err := l.Stamp(modelpkg.Category("castle"), "w", 0, 64, 0, 0)
	if !errors.Is(err, ErrNoBlueprint) {
		t.Fatalf("expected ErrNoBlueprint, got %v", err)
	}
	_, err = l.Stamp(modelpkg.CategoryIndustrial, "nowhere", 0, 64, 0, 0)
	if !errors.Is(err, ErrUnknownWorld) {
		t.Fatalf("expected ErrUnknownWorld, got %v", err)
	}
}

func TestStamp_RotatedStaysInsideSwappedBounds(t *testing.T) {
	l, cats := testLibrary(t)
	for _, rot := range []int{0, 90, 180, 270} {
		m := &mapTerrain{blocks: map[[3]int]uint16{}, maxY: 128}
		l.Attach("w", m)
		st, err := l.Stamp(modelpkg.CategoryIndustrial, "w", 100, 64, -50, rot)
		if err != nil {
			t.Fatalf("rot %d: %v", rot, err)
		}
		s := modelpkg.Structure{Origin: modelpkg.Vec3i{X: 100, Y: 64, Z: -50}, Footprint: st.Footprint, Rotation: rot}
		air := cats.Blocks.Index["AIR"]
		placed := 0
		for k, b := range m.blocks {
			if b == air {
				continue
			}
			placed++
			if !s.Contains(modelpkg.Vec3i{X: k[0], Y: k[1], Z: k[2]}) {
				t.Fatalf("rot %d: block at %v outside structure bounds", rot, k)
			}
		}
		if placed != st.Blocks {
			t.Fatalf("rot %d: placed %d blocks want %d", rot, placed, st.Blocks)
		}
	}
}

func TestStamp_OutOfWorldLeavesTerrainUntouched(t *testing.T) {
	l, cats := testLibrary(t)
	stone := cats.Blocks.Index["STONE"]
	for _, y := range []int{64, -1} {
		m := &mapTerrain{blocks: map[[3]int]uint16{}, maxY: 66}
		for x := 0; x < 16; x++ {
			for z := 0; z < 16; z++ {
				m.blocks[[3]int{x, 64, z}] = stone
				m.blocks[[3]int{x, 0, z}] = stone
			}
		}
		before := len(m.blocks)
		l.Attach("w", m)
		_, err := l.Stamp(modelpkg.CategoryTraderOutpost, "w", 0, y, 0, 90)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("y=%d: expected ErrOutOfBounds, got %v", y, err)
		}
		if len(m.blocks) != before {
			t.Fatalf("y=%d: failed stamp wrote %d new blocks", y, len(m.blocks)-before)
		}
		for k, b := range m.blocks {
			if b != stone {
				t.Fatalf("y=%d: block %v changed to %d", y, k, b)
			}
		}
	}
}

type lyingTerrain struct{ mapTerrain }

func (l *lyingTerrain) SetBlock(x, y, z int, b uint16) {}

func TestStamp_VerificationCatchesDroppedWrites(t *testing.T) {
	l, _ := testLibrary(t)
	l.Attach("w", &lyingTerrain{mapTerrain{blocks: map[[3]int]uint16{}, maxY: 128}})
	_, err := l.Stamp(modelpkg.CategoryTraderOutpost, "w", 0, 64, 0, 0)
	if !errors.Is(err, ErrStampMismatch) {
		t.Fatalf("expected ErrStampMismatch, got %v", err)
	}
}
