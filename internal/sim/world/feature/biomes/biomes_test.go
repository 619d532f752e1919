package biomes

import (
	"testing"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
)

type fakeTerrain struct {
	blocks map[[3]int]uint16
	biome  func(x, z int) string
	maxY   int
}

func (f *fakeTerrain) GetBlock(x, y, z int) uint16 { return f.blocks[[3]int{x, y, z}] }

func (f *fakeTerrain) SetBlock(x, y, z int, b uint16) {
	if b == 0 {
		delete(f.blocks, [3]int{x, y, z})
		return
	}
	f.blocks[[3]int{x, y, z}] = b
}

func (f *fakeTerrain) TopAt(x, z int) (int, bool) {
	for y := f.maxY; y >= 0; y-- {
		if f.blocks[[3]int{x, y, z}] != 0 {
			return y, true
		}
	}
	return 0, false
}

func (f *fakeTerrain) BiomeAt(x, z int) string { return f.biome(x, z) }

func (f *fakeTerrain) clone() map[[3]int]uint16 {
	out := make(map[[3]int]uint16, len(f.blocks))
	for k, v := range f.blocks {
		out[k] = v
	}
	return out
}

func loadBlocks(t *testing.T) *catalogs.BlockCatalog {
	t.Helper()
	c, err := catalogs.Load("../../../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return &c.Blocks
}

// naturalTile builds a 16x16 tile of stone/dirt/grass columns with the
// given raw biome per column.
func naturalTile(t *testing.T, blocks *catalogs.BlockCatalog, biome func(x, z int) string) *fakeTerrain {
	t.Helper()
	id := func(n string) uint16 {
		v, ok := blocks.Lookup(n)
		if !ok {
			t.Fatalf("missing block %s", n)
		}
		return v
	}
	f := &fakeTerrain{blocks: map[[3]int]uint16{}, biome: biome, maxY: 80}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			h := 40 + (x+z)%4
			for y := 30; y <= h; y++ {
				b := id("STONE")
				switch {
				case y == h:
					b = id("GRASS_BLOCK")
				case y >= h-2:
					b = id("DIRT")
				}
				f.blocks[[3]int{x, y, z}] = b
			}
		}
	}
	// Road blocks are not natural and must survive repaint.
	f.blocks[[3]int{3, 41, 3}] = id("BLACK_CONCRETE")
	return f
}

func TestZoneFor_DefaultsToGrassland(t *testing.T) {
	cases := map[string]Zone{
		"FOREST":        Forest,
		"dark_forest":   Forest,
		"DESERT":        Desert,
		"SNOWY_TAIGA":   Snow,
		"BADLANDS":      Wasteland,
		"PLAINS":        Grassland,
		"OCEAN":         Grassland,
		"":              Grassland,
		"MUSHROOM_ISLE": Grassland,
	}
	for raw, want := range cases {
		if got := ZoneFor(raw); got != want {
			t.Fatalf("ZoneFor(%q)=%s want %s", raw, got, want)
		}
	}
}

func TestPaletteFor_EveryZone(t *testing.T) {
	for _, z := range Zones {
		p := PaletteFor(z)
		if p.Ground == "" || p.Surface == "" || p.Subsurface == "" || p.Foliage == "" || p.Trunk == "" {
			t.Fatalf("incomplete palette for %s: %+v", z, p)
		}
	}
	if GrassColor(Desert) != 0xC2B280 || FoliageColor(Snow) != 0xA0FFFF {
		t.Fatalf("unexpected tint colours")
	}
	if err := ValidatePalettes(); err != nil {
		t.Fatalf("ValidatePalettes: %v", err)
	}
}

func TestApplyToTile_IdempotentForEveryZone(t *testing.T) {
	blocks := loadBlocks(t)
	p, err := NewPainter(blocks, tuning.Defaults().Biomes)
	if err != nil {
		t.Fatalf("NewPainter: %v", err)
	}
	for _, raw := range []string{"PLAINS", "FOREST", "DESERT", "SNOWY_PLAINS", "BADLANDS"} {
		raw := raw
		f := naturalTile(t, blocks, func(x, z int) string { return raw })
		first := p.ApplyToTile(f, 0, 0, 16)
		if first.Columns != 256 {
			t.Fatalf("%s: columns=%d want 256", raw, first.Columns)
		}
		after := f.clone()
		second := p.ApplyToTile(f, 0, 0, 16)
		if second.Replaced != 0 {
			t.Fatalf("%s: second pass replaced %d blocks", raw, second.Replaced)
		}
		for k, v := range after {
			if f.blocks[k] != v {
				t.Fatalf("%s: block %v changed on second pass", raw, k)
			}
		}
		if len(f.blocks) != len(after) {
			t.Fatalf("%s: block count changed on second pass", raw)
		}
	}
}

func TestApplyToTile_MixedZonesIdempotent(t *testing.T) {
	blocks := loadBlocks(t)
	p, err := NewPainter(blocks, tuning.Defaults().Biomes)
	if err != nil {
		t.Fatalf("NewPainter: %v", err)
	}
	raws := []string{"DESERT", "BADLANDS", "SNOWY_SLOPES", "FOREST"}
	f := naturalTile(t, blocks, func(x, z int) string { return raws[(x/4+z/4)%len(raws)] })
	p.ApplyToTile(f, 0, 0, 16)
	if st := p.ApplyToTile(f, 0, 0, 16); st.Replaced != 0 {
		t.Fatalf("second pass replaced %d blocks", st.Replaced)
	}
}

func TestApplyColumn_DesertRepaintsShallowOnly(t *testing.T) {
	blocks := loadBlocks(t)
	cfg := tuning.Defaults().Biomes
	p, err := NewPainter(blocks, cfg)
	if err != nil {
		t.Fatalf("NewPainter: %v", err)
	}
	f := naturalTile(t, blocks, func(x, z int) string { return "DESERT" })
	// Column (0,0): grass at 40, dirt 38..39, stone 30..37.
	p.ApplyColumn(f, 0, 0)

	want := map[int]string{
		40: "SAND",
		39: "SANDSTONE",
		38: "SANDSTONE",
		37: "STONE", // at or below the subsurface floor
		36: "STONE",
	}
	for y, name := range want {
		if got := blocks.Palette[f.GetBlock(0, y, 0)]; got != name {
			t.Fatalf("y=%d: got %s want %s", y, got, name)
		}
	}

	// Road block untouched.
	if got := blocks.Palette[f.GetBlock(3, 41, 3)]; got != "BLACK_CONCRETE" {
		t.Fatalf("road block repainted to %s", got)
	}
}
