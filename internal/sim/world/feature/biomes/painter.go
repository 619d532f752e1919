package biomes

import (
	"fmt"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
)

type Terrain interface {
	GetBlock(x, y, z int) uint16
	SetBlock(x, y, z int, b uint16)
	TopAt(x, z int) (int, bool)
	BiomeAt(x, z int) string
}

type Stats struct {
	Columns  int
	Replaced int
}

// Painter repaints natural surface blocks with zone palettes. Palette names
// are resolved against the block catalog once at construction.
type Painter struct {
	cfg tuning.Biomes

	natural map[uint16]Role
	stone   uint16
	ids     [len(palettes)][3]uint16 // zone -> ground, surface, subsurface
}

func NewPainter(blocks *catalogs.BlockCatalog, cfg tuning.Biomes) (*Painter, error) {
	if err := ValidatePalettes(); err != nil {
		return nil, err
	}
	p := &Painter{cfg: cfg, natural: map[uint16]Role{}}
	for name, role := range naturalRoles {
		id, ok := blocks.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("biomes: natural block %s not in catalog", name)
		}
		p.natural[id] = role
		if role == RoleSubsurface {
			p.stone = id
		}
	}
	for _, z := range Zones {
		pal := PaletteFor(z)
		for i, role := range []Role{RoleGround, RoleSurface, RoleSubsurface} {
			name := pal.Block(role)
			id, ok := blocks.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("biomes: %s palette block %s not in catalog", z, name)
			}
			p.ids[z][i] = id
		}
	}
	return p, nil
}

// ApplyColumn repaints the top Depth blocks of one column and returns the
// number of blocks changed.
func (p *Painter) ApplyColumn(t Terrain, x, z int) int {
	top, ok := t.TopAt(x, z)
	if !ok {
		return 0
	}
	zone := ZoneFor(t.BiomeAt(x, z))
	n := 0
	for y := top; y > top-p.cfg.Depth; y-- {
		b := t.GetBlock(x, y, z)
		role, ok := p.natural[b]
		if !ok {
			continue
		}
		// Deep stone stays.
		if b == p.stone && y <= p.cfg.SubsurfaceFloor {
			continue
		}
		want := p.ids[zone][role]
		if want == b {
			continue
		}
		t.SetBlock(x, y, z, want)
		n++
	}
	return n
}

// ApplyToTile repaints every column of the size x size tile whose minimum
// corner is (x0, z0). Reapplying it to a painted tile changes nothing.
func (p *Painter) ApplyToTile(t Terrain, x0, z0, size int) Stats {
	var st Stats
	for dz := 0; dz < size; dz++ {
		for dx := 0; dx < size; dx++ {
			st.Columns++
			st.Replaced += p.ApplyColumn(t, x0+dx, z0+dz)
		}
	}
	return st
}
