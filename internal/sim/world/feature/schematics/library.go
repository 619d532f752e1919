// Package schematics stamps catalog blueprints into terrain.
package schematics

import (
	"errors"
	"fmt"

	"wastelands.ai/internal/sim/catalogs"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/blueprint"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

var (
	ErrNoBlueprint   = errors.New("no blueprint for category")
	ErrUnknownWorld  = errors.New("no terrain attached for world")
	ErrStampMismatch = errors.New("stamped blocks do not match blueprint")
	ErrOutOfBounds   = errors.New("stamp volume outside world height")
)

// Terrain is the block store a stamp writes to. Y is valid in [MinY, MaxY).
type Terrain interface {
	GetBlock(x, y, z int) uint16
	SetBlock(x, y, z int, b uint16)
	MinY() int
	MaxY() int
}

// Stamp describes a completed placement.
type Stamp struct {
	BlueprintID string
	Footprint   modelpkg.Footprint
	Blocks      int
}

// Provider is the placement engine's view of blueprints.
type Provider interface {
	Footprint(c modelpkg.Category) (modelpkg.Footprint, bool)
	Stamp(c modelpkg.Category, world string, x, y, z, rotation int) (Stamp, error)
}

type prepared struct {
	def    catalogs.BlueprintDef
	fp     modelpkg.Footprint
	blocks []blueprint.PlacementBlock
}

// Library is a Provider backed by the blueprint catalog.
type Library struct {
	blocks     *catalogs.BlockCatalog
	byCategory map[modelpkg.Category][]prepared
	terrains   map[string]Terrain
}

func NewLibrary(blocks *catalogs.BlockCatalog, bps *catalogs.BlueprintCatalog) *Library {
	l := &Library{
		blocks:     blocks,
		byCategory: map[modelpkg.Category][]prepared{},
		terrains:   map[string]Terrain{},
	}
	for cat, ids := range bps.ByCategory {
		c, ok := modelpkg.ParseCategory(cat)
		if !ok {
			continue
		}
		for _, id := range ids {
			def := bps.ByID[id]
			p := prepared{
				def: def,
				fp:  modelpkg.Footprint{SX: def.Size[0], SY: def.Size[1], SZ: def.Size[2]},
			}
			for _, b := range def.Blocks {
				p.blocks = append(p.blocks, blueprint.PlacementBlock{Pos: b.Pos, Block: b.Block})
			}
			l.byCategory[c] = append(l.byCategory[c], p)
		}
	}
	return l
}

// Attach registers the terrain a world's stamps are written to.
func (l *Library) Attach(world string, t Terrain) { l.terrains[world] = t }

// Footprint returns the largest footprint among a category's blueprints.
func (l *Library) Footprint(c modelpkg.Category) (modelpkg.Footprint, bool) {
	ps := l.byCategory[c]
	if len(ps) == 0 {
		return modelpkg.Footprint{}, false
	}
	var fp modelpkg.Footprint
	for _, p := range ps {
		fp.SX = max(fp.SX, p.fp.SX)
		fp.SY = max(fp.SY, p.fp.SY)
		fp.SZ = max(fp.SZ, p.fp.SZ)
	}
	return fp, true
}

// choose picks a blueprint from position so repeated stamps agree.
func (l *Library) choose(c modelpkg.Category, x, z int) (prepared, bool) {
	ps := l.byCategory[c]
	if len(ps) == 0 {
		return prepared{}, false
	}
	return ps[mathx.Hash2(int64(len(ps)), x, z)%uint64(len(ps))], true
}

// Stamp clears the rotated footprint volume at origin (x,y,z), writes the
// blueprint and verifies the result. A volume outside the world height or
// a blueprint naming an unknown block fails before any block is written.
func (l *Library) Stamp(c modelpkg.Category, world string, x, y, z, rotation int) (Stamp, error) {
	p, ok := l.choose(c, x, z)
	if !ok {
		return Stamp{}, fmt.Errorf("%s: %w", c, ErrNoBlueprint)
	}
	t := l.terrains[world]
	if t == nil {
		return Stamp{}, fmt.Errorf("%s: %w", world, ErrUnknownWorld)
	}
	if y < t.MinY() || y+p.fp.SY > t.MaxY() {
		return Stamp{}, fmt.Errorf("blueprint %s y [%d,%d) in [%d,%d): %w", p.def.ID, y, y+p.fp.SY, t.MinY(), t.MaxY(), ErrOutOfBounds)
	}
	blockIDs := make([]uint16, len(p.blocks))
	for i, b := range p.blocks {
		id, ok := l.blocks.Index[b.Block]
		if !ok {
			return Stamp{}, fmt.Errorf("blueprint %s: unknown block %s", p.def.ID, b.Block)
		}
		blockIDs[i] = id
	}

	rot := blueprint.NormalizeRotation(rotation)
	ex, ez := blueprint.RotatedExtents(p.fp.SX, p.fp.SZ, rot)
	air := l.blocks.Index["AIR"]
	for dy := 0; dy < p.fp.SY; dy++ {
		for dx := 0; dx < ex; dx++ {
			for dz := 0; dz < ez; dz++ {
				t.SetBlock(x+dx, y+dy, z+dz, air)
			}
		}
	}
	for i, b := range p.blocks {
		off := blueprint.RotateInFootprint(b.Pos, p.fp.SX, p.fp.SZ, rot)
		t.SetBlock(x+off[0], y+off[1], z+off[2], blockIDs[i])
	}
	if !blueprint.CheckPlaced(t.GetBlock, l.blocks.Index, p.blocks, [3]int{x, y, z}, p.fp.SX, p.fp.SZ, rot) {
		return Stamp{}, fmt.Errorf("blueprint %s at (%d,%d,%d): %w", p.def.ID, x, y, z, ErrStampMismatch)
	}
	return Stamp{BlueprintID: p.def.ID, Footprint: p.fp, Blocks: len(p.blocks)}, nil
}
