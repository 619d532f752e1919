package roads

import (
	"fmt"
	"io"
	"log/slog"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

type Terrain interface {
	GetBlock(x, y, z int) uint16
	SetBlock(x, y, z int, b uint16)
	HeightAt(x, z int) (int, bool)
}

// NodeListener is told about every newly created main-tier node.
type NodeListener interface {
	OnMainNode(world string, n *modelpkg.RoadNode)
}

type Result struct {
	Segment Segment
	Height  int
	Node    *modelpkg.RoadNode
	Created bool
	Stamped int
}

type Builder struct {
	cfg      tuning.Roads
	tileSize int
	seaLevel int

	graph    *Graph
	listener NodeListener
	log      *slog.Logger

	air, road, curb, support uint16

	solid []bool
}

func NewBuilder(cfg tuning.Roads, wg tuning.WorldGen, blocks *catalogs.BlockCatalog, graph *Graph, log *slog.Logger) (*Builder, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Builder{
		cfg:      cfg,
		tileSize: wg.TileSize,
		seaLevel: wg.SeaLevel,
		graph:    graph,
		log:      log,
	}
	for _, r := range []struct {
		name string
		dst  *uint16
	}{
		{"AIR", &b.air},
		{cfg.RoadBlock, &b.road},
		{cfg.CurbBlock, &b.curb},
		{cfg.SupportBlock, &b.support},
	} {
		id, ok := blocks.Lookup(r.name)
		if !ok {
			return nil, fmt.Errorf("roads: block %s not in catalog", r.name)
		}
		*r.dst = id
	}
	b.solid = make([]bool, len(blocks.Palette))
	for i, name := range blocks.Palette {
		d := blocks.Defs[name]
		b.solid[i] = d.Solid && !d.Liquid && !d.Foliage
	}
	return b, nil
}

func (b *Builder) SetListener(l NodeListener) { b.listener = l }

func (b *Builder) Graph() *Graph { return b.graph }

// BuildTile classifies the tile with minimum corner (x0, z0), stamps its
// road band and, at intersections, ensures the road node at the tile
// centre. Calling it again for the same tile creates no second node.
func (b *Builder) BuildTile(world string, t Terrain, x0, z0 int) Result {
	res := Result{Segment: Classify(x0, z0, b.cfg)}
	if !res.Segment.Any() {
		return res
	}
	res.Height = b.SampleHeight(t, x0, z0)
	res.Stamped = b.stamp(t, x0, z0, res.Height, res.Segment)

	if !res.Segment.Intersection() {
		return res
	}
	tier := modelpkg.TierSecondary
	if res.Segment.MainTier() {
		tier = modelpkg.TierMain
	}
	half := b.tileSize / 2
	res.Node, res.Created = b.graph.Ensure(world, x0+half, res.Height, z0+half, tier)
	if res.Created {
		b.log.Debug("road node created", "world", world, "x", res.Node.X, "z", res.Node.Z, "tier", tier.String(), "links", len(res.Node.Links))
		if tier == modelpkg.TierMain && b.listener != nil {
			b.listener.OnMainNode(world, res.Node)
		}
	}
	return res
}

// SampleHeight averages ground heights sampled on a SampleStep grid across the tile.
// Columns with no solid ground count as sea level.
func (b *Builder) SampleHeight(t Terrain, x0, z0 int) int {
	total, n := 0, 0
	for dx := 0; dx < b.tileSize; dx += b.cfg.SampleStep {
		for dz := 0; dz < b.tileSize; dz += b.cfg.SampleStep {
			h, ok := t.HeightAt(x0+dx, z0+dz)
			if !ok {
				h = b.seaLevel
			}
			total += h
			n++
		}
	}
	if n == 0 {
		return b.seaLevel
	}
	return total / n
}

func (b *Builder) isSolid(id uint16) bool {
	return int(id) < len(b.solid) && b.solid[id]
}

// stamp lays road and curb across the road bands of a tile. An X band
// spans the tile along Z; a Z band spans it along X. Road wins over curb
// where bands cross.
func (b *Builder) stamp(t Terrain, x0, z0, y int, seg Segment) int {
	cells := map[[2]int]uint16{}
	put := func(x, z int, mat uint16) {
		if cur, ok := cells[[2]int{x, z}]; ok && cur == b.road {
			return
		}
		cells[[2]int{x, z}] = mat
	}
	half := b.tileSize / 2
	if seg.RoadX() {
		w := b.cfg.SecondaryWidth
		if seg.MainX {
			w = b.cfg.MainWidth
		}
		lo, hi := x0+half-w/2, x0+half+w/2
		for x := lo; x <= hi; x++ {
			mat := b.road
			if x == lo || x == hi {
				mat = b.curb
			}
			for z := z0; z < z0+b.tileSize; z++ {
				put(x, z, mat)
			}
		}
	}
	if seg.RoadZ() {
		w := b.cfg.SecondaryWidth
		if seg.MainZ {
			w = b.cfg.MainWidth
		}
		lo, hi := z0+half-w/2, z0+half+w/2
		for z := lo; z <= hi; z++ {
			mat := b.road
			if z == lo || z == hi {
				mat = b.curb
			}
			for x := x0; x < x0+b.tileSize; x++ {
				put(x, z, mat)
			}
		}
	}
	for c, mat := range cells {
		b.stampColumn(t, c[0], y, c[1], mat)
	}
	return len(cells)
}

func (b *Builder) stampColumn(t Terrain, x, y, z int, mat uint16) {
	t.SetBlock(x, y, z, mat)
	for dy := 1; dy <= b.cfg.Clearance; dy++ {
		t.SetBlock(x, y+dy, z, b.air)
	}
	for dy := 1; dy <= b.cfg.Backfill; dy++ {
		if b.isSolid(t.GetBlock(x, y-dy, z)) {
			break
		}
		t.SetBlock(x, y-dy, z, b.support)
	}
}
