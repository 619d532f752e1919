package traders

import (
	"math"
	"testing"

	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/feature/spatial"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

func outpost(id string, x, z int) modelpkg.Structure {
	return modelpkg.Structure{
		ID:        id,
		World:     "overworld",
		Category:  modelpkg.CategoryTraderOutpost,
		Origin:    modelpkg.Vec3i{X: x, Y: 64, Z: z},
		Footprint: modelpkg.Footprint{SX: 9, SY: 5, SZ: 9},
	}
}

func TestIsNight(t *testing.T) {
	cfg := tuning.Defaults().Traders
	cases := []struct {
		tod  uint64
		want bool
	}{
		{0, false},
		{12999, false},
		{13000, true},
		{23999, true},
		{24000, false},
		{24000 + 13500, true},
	}
	for _, c := range cases {
		if got := IsNight(c.tod, cfg); got != c.want {
			t.Fatalf("IsNight(%d)=%v want %v", c.tod, got, c.want)
		}
	}
	if IsNight(20000, tuning.Traders{}) {
		t.Fatalf("zero day length must never be night")
	}
}

func TestSweep_OpensAndClosesOnce(t *testing.T) {
	cfg := tuning.Defaults().Traders
	ix := spatial.New(cfg.BucketChunks)
	ix.Insert(outpost("a", 0, 0))
	ix.Insert(outpost("b", 600, 0))
	ix.Insert(modelpkg.Structure{ID: "house", World: "overworld", Category: modelpkg.CategoryResidential, Footprint: modelpkg.Footprint{SX: 5, SY: 5, SZ: 5}})

	tr := Sweep(ix, "overworld", 1000, 1, cfg)
	if len(tr) != 2 || !tr[0].Open || !tr[1].Open {
		t.Fatalf("morning sweep: %+v", tr)
	}
	if again := Sweep(ix, "overworld", 2000, 1, cfg); len(again) != 0 {
		t.Fatalf("second day sweep changed %d outposts", len(again))
	}

	tr = Sweep(ix, "overworld", 14000, 1, cfg)
	if len(tr) != 2 || tr[0].Open || tr[0].ID != "a" {
		t.Fatalf("evening sweep: %+v", tr)
	}
	s, _ := ix.ByID("a")
	if s.Open {
		t.Fatalf("outpost a still open at night")
	}
	if tr[0].Ejection == (modelpkg.Vec3i{}) {
		t.Fatalf("closing transition without ejection site")
	}
	if got := Sweep(ix, "frontier", 1000, 1, cfg); got != nil {
		t.Fatalf("unknown world swept: %+v", got)
	}
}

func TestEjectionSite_Deterministic(t *testing.T) {
	cfg := tuning.Defaults().Traders
	s := outpost("a", 100, -40)
	c := s.Center()
	first := EjectionSite(s, 42, cfg)
	if EjectionSite(s, 42, cfg) != first {
		t.Fatalf("ejection site changed between calls")
	}
	d := math.Hypot(float64(first.X-c.X), float64(first.Z-c.Z))
	if d < float64(cfg.EjectMin)-1 || d > float64(cfg.EjectMax)+1 {
		t.Fatalf("ejection distance %.2f outside %d..%d", d, cfg.EjectMin, cfg.EjectMax)
	}
	if s.Contains(first) {
		t.Fatalf("ejection site %+v inside the outpost", first)
	}
}

func TestInside(t *testing.T) {
	s := outpost("a", 0, 0)
	got := Inside(s, map[string]modelpkg.Vec3i{
		"zed":   {X: 8, Y: 64, Z: 8},
		"amy":   {X: 0, Y: 66, Z: 0},
		"out":   {X: 9, Y: 64, Z: 0},
		"above": {X: 1, Y: 69, Z: 1},
	})
	if len(got) != 2 || got[0] != "amy" || got[1] != "zed" {
		t.Fatalf("Inside=%v want [amy zed]", got)
	}
}
