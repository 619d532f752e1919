// Package traders runs the day/night cycle of trader outposts.
package traders

import (
	"math"
	"sort"

	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/feature/spatial"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

// IsNight reports whether timeOfDay falls in the closed part of the day.
func IsNight(timeOfDay uint64, cfg tuning.Traders) bool {
	day := uint64(cfg.DayTicks)
	if day == 0 {
		return false
	}
	return timeOfDay%day >= uint64(cfg.NightStart)
}

type Transition struct {
	ID   string
	Open bool
	// Ejection is where occupants go when the outpost closes.
	Ejection modelpkg.Vec3i
}

// Sweep opens or closes every outpost of a world to match timeOfDay and
// returns the outposts whose state changed, in registration order.
func Sweep(ix *spatial.Index, world string, timeOfDay uint64, seed int64, cfg tuning.Traders) []Transition {
	want := !IsNight(timeOfDay, cfg)
	var out []Transition
	for _, o := range ix.ByWorld(world) {
		if o.Open == want {
			continue
		}
		if !ix.SetOutpostOpen(o.ID, want) {
			continue
		}
		tr := Transition{ID: o.ID, Open: want}
		if !want {
			tr.Ejection = EjectionSite(o, seed, cfg)
		}
		out = append(out, tr)
	}
	return out
}

// EjectionSite is a point EjectMin..EjectMax blocks from the footprint
// centre, fixed for a given structure and seed.
func EjectionSite(s modelpkg.Structure, seed int64, cfg tuning.Traders) modelpkg.Vec3i {
	c := s.Center()
	r := mathx.NewRand(mathx.Hash3(seed, c.X, c.Y, c.Z))
	angle := r.Angle()
	dist := float64(cfg.EjectMin) + r.Float64()*float64(cfg.EjectMax-cfg.EjectMin)
	return modelpkg.Vec3i{
		X: c.X + int(math.Round(math.Cos(angle)*dist)),
		Y: s.Origin.Y,
		Z: c.Z + int(math.Round(math.Sin(angle)*dist)),
	}
}

// Inside returns the sorted ids of occupants standing in the structure.
func Inside(s modelpkg.Structure, occupants map[string]modelpkg.Vec3i) []string {
	var out []string
	for id, p := range occupants {
		if s.Contains(p) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
