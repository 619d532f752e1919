package roads

import (
	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

// NearRoad reports whether coord lies within threshold of the centre of
// its spacing period: |mod(coord, spacing) - spacing/2| < threshold.
// It is periodic in spacing for every integer coord.
func NearRoad(coord, spacing, threshold int) bool {
	if spacing <= 0 {
		return false
	}
	return mathx.AbsInt(mathx.Mod(coord, spacing)-spacing/2) < threshold
}

// OnAxis shifts NearRoad by half a period so road lines sit on multiples
// of spacing (x=0, x=512, ...).
func OnAxis(coord, spacing, threshold int) bool {
	return NearRoad(coord+spacing/2, spacing, threshold)
}

// Segment is the road decision for one tile. Axis X means the tile's X
// coordinate is on a road line; that road runs along Z.
type Segment struct {
	MainX      bool
	MainZ      bool
	SecondaryX bool
	SecondaryZ bool
}

func (s Segment) RoadX() bool        { return s.MainX || s.SecondaryX }
func (s Segment) RoadZ() bool        { return s.MainZ || s.SecondaryZ }
func (s Segment) Any() bool          { return s.RoadX() || s.RoadZ() }
func (s Segment) Intersection() bool { return s.RoadX() && s.RoadZ() }
func (s Segment) MainTier() bool     { return s.MainX && s.MainZ }

// Classify decides road membership of the tile whose minimum corner is
// (x0, z0) from position alone.
func Classify(x0, z0 int, cfg tuning.Roads) Segment {
	return Segment{
		MainX:      OnAxis(x0, cfg.MainSpacing, cfg.AxisThreshold),
		MainZ:      OnAxis(z0, cfg.MainSpacing, cfg.AxisThreshold),
		SecondaryX: OnAxis(x0, cfg.SecondarySpacing, cfg.AxisThreshold),
		SecondaryZ: OnAxis(z0, cfg.SecondarySpacing, cfg.AxisThreshold),
	}
}
