package placement

import (
	"errors"
	"math"
	"sort"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/blueprint"
	"wastelands.ai/internal/sim/world/logic/ids"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

var ErrUnknownStructure = errors.New("unknown structure")

// Outcome of an outpost request.
type Outcome uint8

const (
	OutcomeNotChosen Outcome = iota
	OutcomePlaced
	OutcomeRejected
	OutcomeDuplicate
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaced:
		return "placed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	default:
		return "not_chosen"
	}
}

// Decision is the seeded outcome for one trader grid cell.
type Decision struct {
	Accept   bool
	Distance int
	Angle    float64
	Rotation int
}

// TraderCell returns the grid cell holding block column (x, z).
func (e *Engine) TraderCell(x, z int) (int, int) {
	return mathx.FloorDiv(x, e.cfgT.Spacing), mathx.FloorDiv(z, e.cfgT.Spacing)
}

// TraderDecision is a pure function of world seed and cell coordinates.
func (e *Engine) TraderDecision(gx, gz int) Decision {
	r := mathx.NewRand(mathx.CellHash(e.seed, gx, gz, e.cfgT.PrimeX, e.cfgT.PrimeZ))
	d := Decision{Accept: r.Float64() < e.cfgT.Chance}
	d.Distance = r.IntRange(e.cfgT.MinOffset, e.cfgT.MaxOffset)
	d.Angle = r.Angle()
	d.Rotation = r.Intn(4) * 90
	return d
}

// Offset is the outpost displacement from its anchor for a decision.
func (d Decision) Offset() (int, int) {
	return int(math.Cos(d.Angle) * float64(d.Distance)), int(math.Sin(d.Angle) * float64(d.Distance))
}

// PlaceTrader considers an outpost for the cell of a road node.
func (e *Engine) PlaceTrader(t Terrain, node *modelpkg.RoadNode) (modelpkg.Structure, Outcome) {
	if node == nil {
		return modelpkg.Structure{}, OutcomeNotChosen
	}
	return e.RequestOutpost(t, node.X, node.Z)
}

// RequestOutpost decides and, when accepted, places an outpost requested
// from anchor (x, z). An outpost is rejected when an existing one in the
// world sits within spacing of its site, or was requested from within
// spacing of its anchor. Rejected cells stay rejected for the session.
func (e *Engine) RequestOutpost(t Terrain, x, z int) (modelpkg.Structure, Outcome) {
	gx, gz := e.TraderCell(x, z)
	cell := [2]int{gx, gz}
	if e.rejected[cell] {
		return modelpkg.Structure{}, OutcomeRejected
	}
	d := e.TraderDecision(gx, gz)
	if !d.Accept {
		return modelpkg.Structure{}, OutcomeNotChosen
	}
	ox, oz := d.Offset()
	fp, _ := e.provider.Footprint(modelpkg.CategoryTraderOutpost)
	ex, ez := blueprint.RotatedExtents(fp.SX, fp.SZ, d.Rotation)
	sx, sz := e.besideRoad(x, x+ox, ex), e.besideRoad(z, z+oz, ez)
	id := ids.StructureID(e.world, string(modelpkg.CategoryTraderOutpost), sx, sz, d.Rotation)
	if existing, ok := e.index.ByID(id); ok {
		return existing, OutcomeDuplicate
	}
	anchor := modelpkg.Vec3i{X: x, Z: z}
	site := modelpkg.Vec3i{X: sx, Z: sz}
	if blocker, ok := e.tooClose(anchor, site); ok {
		e.rejected[cell] = true
		e.log.Debug("trader cell rejected", "gx", gx, "gz", gz, "blocker", blocker.ID)
		return modelpkg.Structure{}, OutcomeRejected
	}

	site.Y = e.groundY(t, sx, sz)
	s := modelpkg.Structure{
		ID:       id,
		World:    e.world,
		Category: modelpkg.CategoryTraderOutpost,
		Origin:   site,
		Rotation: d.Rotation,
		Anchor:   anchor,
	}
	placed, ok := e.place(modelpkg.CategoryTraderOutpost, s)
	if !ok {
		return modelpkg.Structure{}, OutcomeFailed
	}
	return placed, OutcomePlaced
}

// besideRoad moves the span [lo, lo+ext) off the road band centred on
// axis, keeping it on the side its centre falls on.
func (e *Engine) besideRoad(axis, lo, ext int) int {
	if lo > axis+e.roadHalf || lo+ext <= axis-e.roadHalf {
		return lo
	}
	if 2*lo+ext >= 2*axis {
		return axis + e.roadHalf + 1
	}
	return axis - e.roadHalf - ext
}

func (e *Engine) tooClose(anchor, site modelpkg.Vec3i) (modelpkg.Structure, bool) {
	sp := int64(e.cfgT.Spacing)
	limit := sp * sp
	// Anchors sit at most MaxOffset from their site.
	for _, o := range e.index.OutpostsNear(e.world, site.X, site.Z, e.cfgT.Spacing+2*e.cfgT.MaxOffset) {
		if modelpkg.DistSqXZ(o.Origin, site) < limit || modelpkg.DistSqXZ(o.Anchor, anchor) < limit {
			return o, true
		}
	}
	return modelpkg.Structure{}, false
}

// Violation is a pair of outposts registered closer than the spacing.
type Violation struct {
	A, B string
	Dist float64
}

// CheckOutpostSpacing scans a world's outposts for spacing violations and
// logs each one. It is meant for restored state, where the placement-time
// check did not run.
func (e *Engine) CheckOutpostSpacing() []Violation {
	var out []Violation
	limit := int64(e.cfgT.Spacing) * int64(e.cfgT.Spacing)
	for _, a := range e.index.ByWorld(e.world) {
		for _, b := range e.index.OutpostsNear(e.world, a.Origin.X, a.Origin.Z, e.cfgT.Spacing) {
			if b.ID <= a.ID {
				continue
			}
			d2 := modelpkg.DistSqXZ(a.Origin, b.Origin)
			if d2 >= limit {
				continue
			}
			v := Violation{A: a.ID, B: b.ID, Dist: math.Sqrt(float64(d2))}
			e.log.Error("trader outposts closer than spacing", "a", v.A, "b", v.B, "dist", v.Dist)
			out = append(out, v)
		}
	}
	return out
}

// RejectedCells lists the trader cells rejected this session.
func (e *Engine) RejectedCells() [][2]int {
	out := make([][2]int, 0, len(e.rejected))
	for c := range e.rejected {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// RestoreRejected marks cells rejected, as recorded in a snapshot.
func (e *Engine) RestoreRejected(cells [][2]int) {
	for _, c := range cells {
		e.rejected[c] = true
	}
}
