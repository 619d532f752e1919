package placement

import (
	"math"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/blueprint"
	"wastelands.ai/internal/sim/world/logic/ids"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

// Cardinal offsets from a node: east, south, west, north.
var directions = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// CategoryNoise is (sin(f*x) + cos(f*z))/4 + 0.5, a smooth field in [0,1].
func CategoryNoise(x, z int, freq float64) float64 {
	return (math.Sin(float64(x)*freq)+math.Cos(float64(z)*freq))/4 + 0.5
}

// CategoryAt picks the building category for a node position.
func (e *Engine) CategoryAt(x, z int) modelpkg.Category {
	n := CategoryNoise(x, z, e.cfgS.CategoryFreq)
	switch {
	case n < 1.0/3:
		return modelpkg.CategoryResidential
	case n < 2.0/3:
		return modelpkg.CategoryCommercial
	default:
		return modelpkg.CategoryIndustrial
	}
}

// Site is a candidate building position around a node. X and Z are the
// minimum corner of the rotated footprint.
type Site struct {
	X, Z     int
	Distance int
	Rotation int
}

// SiteFor returns the candidate site in direction dir (0..3) of a node for
// a footprint fp. Distance is the gap from the node to the nearest face of
// the building, drawn from a stream keyed by node and direction. Laterally
// the footprint starts just past the road band on the positive side, so it
// never overlaps either road through the node.
func (e *Engine) SiteFor(nodeX, nodeZ, dir int, fp modelpkg.Footprint) Site {
	d := directions[dir&3]
	r := mathx.NewRand(mathx.Hash3(e.seed, nodeX, dir, nodeZ))
	dist := r.IntRange(e.cfgS.MinOffset, e.cfgS.MaxOffset)
	rot := blueprint.FacingRotation(d[0], d[1])
	ex, ez := blueprint.RotatedExtents(fp.SX, fp.SZ, rot)
	side := e.roadHalf + 1

	site := Site{Distance: dist, Rotation: rot}
	switch {
	case d[0] > 0:
		site.X, site.Z = nodeX+dist, nodeZ+side
	case d[0] < 0:
		site.X, site.Z = nodeX-dist-ex+1, nodeZ+side
	case d[1] > 0:
		site.X, site.Z = nodeX+side, nodeZ+dist
	default:
		site.X, site.Z = nodeX+side, nodeZ-dist-ez+1
	}
	return site
}

// PlaceAroundNode places up to four buildings around a road node, one per
// cardinal direction, each facing back toward the node. Sites already
// registered are skipped.
func (e *Engine) PlaceAroundNode(t Terrain, node *modelpkg.RoadNode) []modelpkg.Structure {
	if node == nil {
		return nil
	}
	cat := e.CategoryAt(node.X, node.Z)
	fp, ok := e.provider.Footprint(cat)
	if !ok {
		e.log.Debug("no footprint for category, skipping node", "category", string(cat), "x", node.X, "z", node.Z)
		return nil
	}
	var out []modelpkg.Structure
	for dir := range directions {
		site := e.SiteFor(node.X, node.Z, dir, fp)
		id := ids.StructureID(e.world, string(cat), site.X, site.Z, site.Rotation)
		if _, exists := e.index.ByID(id); exists {
			continue
		}
		s := modelpkg.Structure{
			ID:       id,
			World:    e.world,
			Category: cat,
			Origin:   modelpkg.Vec3i{X: site.X, Y: e.groundY(t, site.X, site.Z), Z: site.Z},
			Rotation: site.Rotation,
		}
		if placed, ok := e.place(cat, s); ok {
			out = append(out, placed)
		}
	}
	return out
}

// ResetStructure stamps a registered structure again at its recorded
// origin and rotation.
func (e *Engine) ResetStructure(id string) error {
	s, ok := e.index.ByID(id)
	if !ok {
		return ErrUnknownStructure
	}
	_, err := e.provider.Stamp(s.Category, s.World, s.Origin.X, s.Origin.Y, s.Origin.Z, s.Rotation)
	return err
}
