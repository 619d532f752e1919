package placement

import (
	"errors"
	"testing"

	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/feature/schematics"
	"wastelands.ai/internal/sim/world/feature/spatial"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

type flatGround struct{ y int }

func (f flatGround) HeightAt(x, z int) (int, bool) { return f.y, true }

type noGround struct{}

func (noGround) HeightAt(x, z int) (int, bool) { return 0, false }

type stampCall struct {
	cat      modelpkg.Category
	x, y, z  int
	rotation int
}

type fakeProvider struct {
	missing map[modelpkg.Category]bool
	failRot map[int]bool
	calls   []stampCall
}

func (p *fakeProvider) Footprint(c modelpkg.Category) (modelpkg.Footprint, bool) {
	if p.missing[c] {
		return modelpkg.Footprint{}, false
	}
	return modelpkg.Footprint{SX: 7, SY: 5, SZ: 9}, true
}

func (p *fakeProvider) Stamp(c modelpkg.Category, world string, x, y, z, rotation int) (schematics.Stamp, error) {
	p.calls = append(p.calls, stampCall{cat: c, x: x, y: y, z: z, rotation: rotation})
	if p.missing[c] {
		return schematics.Stamp{}, schematics.ErrNoBlueprint
	}
	if p.failRot[rotation] {
		return schematics.Stamp{}, errors.New("paste failed")
	}
	return schematics.Stamp{BlueprintID: "bp_" + string(c), Footprint: modelpkg.Footprint{SX: 7, SY: 5, SZ: 9}, Blocks: 10}, nil
}

type recordingSink struct{ placed []modelpkg.Structure }

func (r *recordingSink) StructurePlaced(s modelpkg.Structure) { r.placed = append(r.placed, s) }

func newEngine(t *testing.T, mutate func(*tuning.Tuning)) (*Engine, *spatial.Index, *fakeProvider, *recordingSink) {
	t.Helper()
	tu := tuning.Defaults()
	if mutate != nil {
		mutate(&tu)
	}
	ix := spatial.New(tu.Traders.BucketChunks)
	p := &fakeProvider{missing: map[modelpkg.Category]bool{}, failRot: map[int]bool{}}
	e := New("overworld", 1337, tu, ix, p, nil)
	sink := &recordingSink{}
	e.SetSink(sink)
	return e, ix, p, sink
}

func TestCategoryAt_Thresholds(t *testing.T) {
	e, _, _, _ := newEngine(t, nil)
	cases := []struct {
		x, z int
		want modelpkg.Category
	}{
		{x: 0, z: 0, want: modelpkg.CategoryIndustrial},
		{x: 0, z: 157, want: modelpkg.CategoryCommercial},
		{x: -157, z: 314, want: modelpkg.CategoryResidential},
	}
	for _, c := range cases {
		if got := e.CategoryAt(c.x, c.z); got != c.want {
			t.Fatalf("CategoryAt(%d,%d)=%s want %s (noise %.3f)", c.x, c.z, got, c.want, CategoryNoise(c.x, c.z, 0.01))
		}
	}
	for x := -2000; x <= 2000; x += 37 {
		n := CategoryNoise(x, -x*3, 0.01)
		if n < 0 || n > 1 {
			t.Fatalf("noise %.3f outside [0,1]", n)
		}
	}
}

func TestPlaceAroundNode_FourFacingSites(t *testing.T) {
	e, ix, _, sink := newEngine(t, nil)
	node := &modelpkg.RoadNode{World: "overworld", X: 520, Y: 64, Z: 1032, Tier: modelpkg.TierMain}

	got := e.PlaceAroundNode(flatGround{y: 70}, node)
	if len(got) != 4 {
		t.Fatalf("placed %d structures want 4", len(got))
	}
	dirOf := map[int][2]int{90: {1, 0}, 180: {0, 1}, 270: {-1, 0}, 0: {0, -1}}
	seen := map[[2]int]bool{}
	for _, s := range got {
		if overlapsRoads(s, node.X, node.Z) {
			t.Fatalf("site %+v rot %d covers a road through the node", s.Origin, s.Rotation)
		}
		min, max := s.Bounds()
		dir, ok := dirOf[s.Rotation]
		if !ok {
			t.Fatalf("rotation %d", s.Rotation)
		}
		var gap, side int
		switch dir {
		case [2]int{1, 0}:
			gap, side = min.X-node.X, min.Z-node.Z
		case [2]int{-1, 0}:
			gap, side = node.X-(max.X-1), min.Z-node.Z
		case [2]int{0, 1}:
			gap, side = min.Z-node.Z, min.X-node.X
		default:
			gap, side = node.Z-(max.Z-1), min.X-node.X
		}
		seen[dir] = true
		if gap < 20 || gap > 40 {
			t.Fatalf("direction %v: gap %d outside 20..40", dir, gap)
		}
		if side != 3 {
			t.Fatalf("direction %v: lateral offset %d want 3 (past the road band)", dir, side)
		}
		if s.Origin.Y != 70 {
			t.Fatalf("y=%d want ground 70", s.Origin.Y)
		}
		if s.Category != e.CategoryAt(node.X, node.Z) || s.BlueprintID == "" {
			t.Fatalf("unexpected record %+v", s)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("directions covered %v", seen)
	}
	if ix.Len() != 4 || len(sink.placed) != 4 {
		t.Fatalf("index=%d sink=%d want 4/4", ix.Len(), len(sink.placed))
	}

	// Re-entrant delivery of the same node adds nothing.
	if again := e.PlaceAroundNode(flatGround{y: 70}, node); len(again) != 0 {
		t.Fatalf("second pass placed %d structures", len(again))
	}
	if ix.Len() != 4 {
		t.Fatalf("index grew to %d", ix.Len())
	}
}

func TestPlaceAroundNode_SameSeedSameSites(t *testing.T) {
	a, _, _, _ := newEngine(t, nil)
	b, _, _, _ := newEngine(t, nil)
	fp := modelpkg.Footprint{SX: 7, SY: 5, SZ: 9}
	for dir := 0; dir < 4; dir++ {
		if a.SiteFor(8, 8, dir, fp) != b.SiteFor(8, 8, dir, fp) {
			t.Fatalf("direction %d: sites differ", dir)
		}
	}
}

func TestPlaceAroundNode_FailuresSkipOnlyThatSite(t *testing.T) {
	e, ix, p, _ := newEngine(t, nil)
	p.failRot[180] = true
	node := &modelpkg.RoadNode{World: "overworld", X: 8, Z: 8, Tier: modelpkg.TierMain}
	got := e.PlaceAroundNode(noGround{}, node)
	if len(got) != 3 || ix.Len() != 3 {
		t.Fatalf("placed %d (index %d) want 3", len(got), ix.Len())
	}
	for _, s := range got {
		if s.Rotation == 180 {
			t.Fatalf("failed site registered")
		}
		if s.Origin.Y != 64 {
			t.Fatalf("missing ground must fall back to sea level, got %d", s.Origin.Y)
		}
	}
}

func TestPlaceAroundNode_NoBlueprintIsSilent(t *testing.T) {
	e, ix, p, _ := newEngine(t, nil)
	node := &modelpkg.RoadNode{World: "overworld", X: 8, Z: 8}
	p.missing[e.CategoryAt(node.X, node.Z)] = true
	if got := e.PlaceAroundNode(flatGround{y: 64}, node); len(got) != 0 {
		t.Fatalf("placed %d structures without a blueprint", len(got))
	}
	if ix.Len() != 0 || len(p.calls) != 0 {
		t.Fatalf("no stamp expected, got %d calls", len(p.calls))
	}
	if got := e.PlaceAroundNode(flatGround{y: 64}, nil); got != nil {
		t.Fatalf("nil node must be a no-op")
	}
}

func TestTraderDecision_OrderIndependent(t *testing.T) {
	e, _, _, _ := newEngine(t, nil)
	var cells [][2]int
	for gx := -20; gx <= 20; gx++ {
		for gz := -20; gz <= 20; gz++ {
			cells = append(cells, [2]int{gx, gz})
		}
	}
	first := map[[2]int]Decision{}
	for _, c := range cells {
		first[c] = e.TraderDecision(c[0], c[1])
	}
	accepted := 0
	for i := len(cells) - 1; i >= 0; i-- {
		c := cells[i]
		d := e.TraderDecision(c[0], c[1])
		if d != first[c] {
			t.Fatalf("cell %v: decision changed between passes", c)
		}
		if d.Distance < 50 || d.Distance > 70 {
			t.Fatalf("cell %v: distance %d outside 50..70", c, d.Distance)
		}
		if d.Rotation%90 != 0 || d.Rotation < 0 || d.Rotation > 270 {
			t.Fatalf("cell %v: rotation %d", c, d.Rotation)
		}
		if d.Accept {
			accepted++
		}
	}
	rate := float64(accepted) / float64(len(cells))
	if rate < 0.06 || rate > 0.14 {
		t.Fatalf("acceptance rate %.3f far from 0.10", rate)
	}

	other, _, _, _ := newEngine(t, nil)
	for _, c := range cells[:50] {
		if other.TraderDecision(c[0], c[1]) != first[c] {
			t.Fatalf("cell %v: fresh engine disagrees", c)
		}
	}
}

func alwaysTrader(tu *tuning.Tuning) { tu.Traders.Chance = 1 }

func TestRequestOutpost_SecondWithinSpacingRejected(t *testing.T) {
	// Different cells, 20 blocks apart.
	anchors := [][2]int{{290, 150}, {310, 150}}
	for _, order := range [][2]int{{0, 1}, {1, 0}} {
		e, ix, _, _ := newEngine(t, alwaysTrader)
		a := anchors[order[0]]
		b := anchors[order[1]]
		s, out := e.RequestOutpost(flatGround{y: 64}, a[0], a[1])
		if out != OutcomePlaced {
			t.Fatalf("order %v: first request %s", order, out)
		}
		if !s.IsOutpost() || s.Anchor.X != a[0] || s.Anchor.Z != a[1] {
			t.Fatalf("order %v: unexpected outpost %+v", order, s)
		}
		if _, out := e.RequestOutpost(flatGround{y: 64}, b[0], b[1]); out != OutcomeRejected {
			t.Fatalf("order %v: second request %s want rejected", order, out)
		}
		if n := len(ix.ByWorld("overworld")); n != 1 {
			t.Fatalf("order %v: %d outposts registered", order, n)
		}
		// Rejection is permanent for the session.
		if _, out := e.RequestOutpost(flatGround{y: 64}, b[0], b[1]); out != OutcomeRejected {
			t.Fatalf("order %v: retried cell %s", order, out)
		}
		if len(e.RejectedCells()) != 1 {
			t.Fatalf("order %v: rejected cells %v", order, e.RejectedCells())
		}
	}
}

func TestRequestOutpost_ReentrantIsDuplicate(t *testing.T) {
	e, ix, _, sink := newEngine(t, alwaysTrader)
	first, out := e.RequestOutpost(flatGround{y: 64}, 8, 8)
	if out != OutcomePlaced {
		t.Fatalf("first request %s", out)
	}
	again, out := e.RequestOutpost(flatGround{y: 64}, 8, 8)
	if out != OutcomeDuplicate || again.ID != first.ID {
		t.Fatalf("second request %s id %s", out, again.ID)
	}
	if ix.Len() != 1 || len(sink.placed) != 1 {
		t.Fatalf("duplicate registered: index=%d sink=%d", ix.Len(), len(sink.placed))
	}
	dx := first.Origin.X - 8
	dz := first.Origin.Z - 8
	// Moving the outpost off a road may stretch the offset slightly.
	if d2 := dx*dx + dz*dz; d2 > 80*80 || d2 < 49*49 {
		t.Fatalf("outpost offset %d,%d outside 50..80", dx, dz)
	}
}

func TestRequestOutpost_FarApartBothPlaced(t *testing.T) {
	e, ix, _, _ := newEngine(t, alwaysTrader)
	if _, out := e.RequestOutpost(flatGround{y: 64}, 8, 8); out != OutcomePlaced {
		t.Fatalf("first: %s", out)
	}
	if _, out := e.RequestOutpost(flatGround{y: 64}, 1032, 8); out != OutcomePlaced {
		t.Fatalf("second: %s", out)
	}
	if len(ix.ByWorld("overworld")) != 2 {
		t.Fatalf("expected two outposts")
	}
	if v := e.CheckOutpostSpacing(); len(v) != 0 {
		t.Fatalf("unexpected violations %+v", v)
	}
}

// overlapsRoads reports whether s covers a column of either main road band
// (half width 2) through node (nx, nz).
func overlapsRoads(s modelpkg.Structure, nx, nz int) bool {
	min, max := s.Bounds()
	onZRoad := min.X <= nx+2 && max.X > nx-2
	onXRoad := min.Z <= nz+2 && max.Z > nz-2
	return onZRoad || onXRoad
}

func TestPlacement_StaysOffRoads(t *testing.T) {
	e, _, _, _ := newEngine(t, alwaysTrader)
	for _, n := range [][2]int{{8, 8}, {520, 8}, {-504, 1032}, {1544, -1016}} {
		node := &modelpkg.RoadNode{World: "overworld", X: n[0], Y: 64, Z: n[1], Tier: modelpkg.TierMain}
		for _, s := range e.PlaceAroundNode(flatGround{y: 64}, node) {
			if overlapsRoads(s, n[0], n[1]) {
				t.Fatalf("node %v: building %+v rot %d covers a road", n, s.Origin, s.Rotation)
			}
		}
	}
	// Outposts anchored on many intersections, each in its own trader cell.
	for gx := -6; gx <= 6; gx++ {
		for gz := -6; gz <= 6; gz++ {
			x, z := gx*300+150, gz*300+150
			s, out := e.RequestOutpost(flatGround{y: 64}, x, z)
			if out != OutcomePlaced {
				continue
			}
			if overlapsRoads(s, x, z) {
				t.Fatalf("anchor %d,%d: outpost %+v rot %d covers a road", x, z, s.Origin, s.Rotation)
			}
		}
	}
}

func TestBesideRoad(t *testing.T) {
	e, _, _, _ := newEngine(t, nil)
	cases := []struct {
		axis, lo, ext, want int
	}{
		{axis: 8, lo: 30, ext: 9, want: 30},
		{axis: 8, lo: -3, ext: 9, want: -3},
		{axis: 8, lo: -4, ext: 9, want: -4},
		{axis: 8, lo: 8, ext: 9, want: 11},
		{axis: 8, lo: 0, ext: 9, want: -3},
		{axis: 8, lo: -1, ext: 9, want: -3},
		{axis: 8, lo: 10, ext: 1, want: 11},
	}
	for _, c := range cases {
		if got := e.besideRoad(c.axis, c.lo, c.ext); got != c.want {
			t.Fatalf("besideRoad(%d,%d,%d)=%d want %d", c.axis, c.lo, c.ext, got, c.want)
		}
	}
}

func TestRequestOutpost_NotChosenAndFailed(t *testing.T) {
	e, _, _, _ := newEngine(t, func(tu *tuning.Tuning) { tu.Traders.Chance = 0 })
	if _, out := e.RequestOutpost(flatGround{y: 64}, 8, 8); out != OutcomeNotChosen {
		t.Fatalf("chance 0: %s", out)
	}
	e, ix, p, _ := newEngine(t, alwaysTrader)
	p.missing[modelpkg.CategoryTraderOutpost] = true
	if _, out := e.RequestOutpost(flatGround{y: 64}, 8, 8); out != OutcomeFailed {
		t.Fatalf("missing blueprint: %s", out)
	}
	if ix.Len() != 0 {
		t.Fatalf("failed outpost registered")
	}
}

func TestCheckOutpostSpacing_ReportsRestoredViolations(t *testing.T) {
	e, ix, _, _ := newEngine(t, nil)
	ix.Insert(modelpkg.Structure{ID: "a", World: "overworld", Category: modelpkg.CategoryTraderOutpost, Origin: modelpkg.Vec3i{X: 0, Z: 0}})
	ix.Insert(modelpkg.Structure{ID: "b", World: "overworld", Category: modelpkg.CategoryTraderOutpost, Origin: modelpkg.Vec3i{X: 100, Z: 0}})
	ix.Insert(modelpkg.Structure{ID: "c", World: "overworld", Category: modelpkg.CategoryTraderOutpost, Origin: modelpkg.Vec3i{X: 1000, Z: 0}})
	v := e.CheckOutpostSpacing()
	if len(v) != 1 || v[0].A != "a" || v[0].B != "b" {
		t.Fatalf("violations: %+v", v)
	}
}

func TestResetStructure(t *testing.T) {
	e, _, p, _ := newEngine(t, alwaysTrader)
	s, _ := e.RequestOutpost(flatGround{y: 64}, 8, 8)
	n := len(p.calls)
	if err := e.ResetStructure(s.ID); err != nil {
		t.Fatalf("ResetStructure: %v", err)
	}
	if len(p.calls) != n+1 || p.calls[n].x != s.Origin.X || p.calls[n].rotation != s.Rotation {
		t.Fatalf("reset did not re-stamp at the recorded origin: %+v", p.calls)
	}
	if err := e.ResetStructure("nope"); !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("expected ErrUnknownStructure, got %v", err)
	}
}
