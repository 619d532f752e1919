package store

import (
	"fmt"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	genpkg "wastelands.ai/internal/sim/world/terrain/gen"
)

// PropsFromCatalog builds the solidity table for every palette id.
func PropsFromCatalog(blocks *catalogs.BlockCatalog) BlockProps {
	n := len(blocks.Palette)
	p := BlockProps{
		Solid:   make([]bool, n),
		Liquid:  make([]bool, n),
		Foliage: make([]bool, n),
	}
	for i, id := range blocks.Palette {
		d := blocks.Defs[id]
		p.Solid[i] = d.Solid
		p.Liquid[i] = d.Liquid
		p.Foliage[i] = d.Foliage
	}
	return p
}

// NewWorldGen resolves the generator's materials against the block catalog.
func NewWorldGen(cfg tuning.WorldGen, seed int64, blocks *catalogs.BlockCatalog) (WorldGen, error) {
	var wg WorldGen
	lookup := func(name string, dst *uint16) error {
		id, ok := blocks.Lookup(name)
		if !ok {
			return fmt.Errorf("terrain: block %s not in catalog", name)
		}
		*dst = id
		return nil
	}
	m := &wg.Mat
	for _, r := range []struct {
		name string
		dst  *uint16
	}{
		{"AIR", &m.Air},
		{"BEDROCK", &m.Bedrock},
		{"STONE", &m.Stone},
		{"DIRT", &m.Dirt},
		{"GRASS_BLOCK", &m.Grass},
		{"SAND", &m.Sand},
		{"WATER", &m.Water},
		{"TALL_GRASS", &m.TallGrass},
	} {
		if err := lookup(r.name, r.dst); err != nil {
			return wg, err
		}
	}
	wg.MinY = cfg.MinY
	wg.MaxY = cfg.MaxY
	wg.SprinklePermille = 60
	wg.Props = PropsFromCatalog(blocks)
	wg.Gen = genpkg.New(seed, cfg)
	return wg, nil
}
