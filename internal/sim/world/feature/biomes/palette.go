package biomes

import "fmt"

type Role uint8

const (
	RoleGround Role = iota
	RoleSurface
	RoleSubsurface
	RoleFoliage
	RoleTrunk
)

type Palette struct {
	Ground     string
	Surface    string
	Subsurface string
	Foliage    string
	Trunk      string

	GrassColor   uint32
	FoliageColor uint32
}

func (p Palette) Block(r Role) string {
	switch r {
	case RoleGround:
		return p.Ground
	case RoleSurface:
		return p.Surface
	case RoleSubsurface:
		return p.Subsurface
	case RoleFoliage:
		return p.Foliage
	default:
		return p.Trunk
	}
}

var palettes = [...]Palette{
	Grassland: {
		Ground: "GRASS_BLOCK", Surface: "DIRT", Subsurface: "STONE",
		Foliage: "FERN", Trunk: "BIRCH_LOG",
		GrassColor: 0x80B497, FoliageColor: 0x79C05A,
	},
	Forest: {
		Ground: "GRASS_BLOCK", Surface: "DIRT", Subsurface: "STONE",
		Foliage: "OAK_LEAVES", Trunk: "OAK_LOG",
		GrassColor: 0x5EB424, FoliageColor: 0x59AE30,
	},
	Desert: {
		Ground: "SAND", Surface: "SANDSTONE", Subsurface: "SMOOTH_SANDSTONE",
		Foliage: "DEAD_BUSH", Trunk: "STRIPPED_ACACIA_LOG",
		GrassColor: 0xC2B280, FoliageColor: 0xB1A442,
	},
	Snow: {
		Ground: "SNOW_BLOCK", Surface: "SNOW", Subsurface: "PACKED_ICE",
		Foliage: "SPRUCE_LEAVES", Trunk: "SPRUCE_LOG",
		GrassColor: 0xFFFFFF, FoliageColor: 0xA0FFFF,
	},
	Wasteland: {
		Ground: "COARSE_DIRT", Surface: "DIRT", Subsurface: "TERRACOTTA",
		Foliage: "DEAD_BUSH", Trunk: "STRIPPED_OAK_LOG",
		GrassColor: 0x8B4513, FoliageColor: 0x6B4423,
	},
}

func PaletteFor(z Zone) Palette {
	if int(z) >= len(palettes) {
		return palettes[Grassland]
	}
	return palettes[z]
}

func GrassColor(z Zone) uint32   { return PaletteFor(z).GrassColor }
func FoliageColor(z Zone) uint32 { return PaletteFor(z).FoliageColor }

// naturalRoles are the generated blocks the painter replaces, keyed to the
// palette role that replaces them.
var naturalRoles = map[string]Role{
	"GRASS_BLOCK": RoleGround,
	"DIRT":        RoleSurface,
	"STONE":       RoleSubsurface,
}

// ValidatePalettes checks that repainting is a fixed point: a palette block
// that is itself a natural input must map back to itself.
func ValidatePalettes() error {
	for _, z := range Zones {
		p := PaletteFor(z)
		for _, role := range []Role{RoleGround, RoleSurface, RoleSubsurface} {
			target := p.Block(role)
			natural, ok := naturalRoles[target]
			if !ok {
				continue
			}
			if back := p.Block(natural); back != target {
				return fmt.Errorf("biomes: %s palette writes %s but repaints it to %s", z, target, back)
			}
		}
	}
	return nil
}
