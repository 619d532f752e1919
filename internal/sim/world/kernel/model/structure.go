package model

import "wastelands.ai/internal/sim/world/logic/blueprint"

type Category string

const (
	CategoryResidential   Category = "residential"
	CategoryCommercial    Category = "commercial"
	CategoryIndustrial    Category = "industrial"
	CategoryTraderOutpost Category = "trader_outpost"
)

// Categories lists every known category in a stable order.
var Categories = []Category{
	CategoryResidential,
	CategoryCommercial,
	CategoryIndustrial,
	CategoryTraderOutpost,
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Footprint is a blueprint's unrotated size in blocks.
type Footprint struct {
	SX int
	SY int
	SZ int
}

func (f Footprint) Valid() bool { return f.SX > 0 && f.SY > 0 && f.SZ > 0 }

type Structure struct {
	ID        string
	World     string
	Category  Category
	Origin    Vec3i
	Footprint Footprint
	Rotation  int // degrees: 0, 90, 180, 270

	BlueprintID string
	QuestID     string

	// Outposts only: open flag and the road position the placement was
	// requested from.
	Open   bool
	Anchor Vec3i

	CreatedTick uint64
}

func (s *Structure) IsOutpost() bool { return s.Category == CategoryTraderOutpost }

// Extents returns the world-aligned X and Z size of the structure.
func (s *Structure) Extents() (int, int) {
	return blueprint.RotatedExtents(s.Footprint.SX, s.Footprint.SZ, s.Rotation)
}

// Bounds returns the half-open box [Min, Max) the structure occupies.
func (s *Structure) Bounds() (min, max Vec3i) {
	ex, ez := s.Extents()
	min = s.Origin
	max = Vec3i{X: s.Origin.X + ex, Y: s.Origin.Y + s.Footprint.SY, Z: s.Origin.Z + ez}
	return min, max
}

func (s *Structure) Contains(p Vec3i) bool {
	min, max := s.Bounds()
	return p.X >= min.X && p.X < max.X &&
		p.Y >= min.Y && p.Y < max.Y &&
		p.Z >= min.Z && p.Z < max.Z
}

// Center is the horizontal centre of the occupied box at origin height.
func (s *Structure) Center() Vec3i {
	ex, ez := s.Extents()
	return Vec3i{X: s.Origin.X + ex/2, Y: s.Origin.Y, Z: s.Origin.Z + ez/2}
}
