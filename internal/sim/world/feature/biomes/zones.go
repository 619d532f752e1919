// Package biomes maps raw terrain biomes to settlement climate zones and
// repaints tile surfaces with each zone's block palette.
package biomes

import "strings"

type Zone uint8

const (
	Grassland Zone = iota
	Forest
	Desert
	Snow
	Wasteland
)

// Zones lists every zone in declaration order.
var Zones = []Zone{Grassland, Forest, Desert, Snow, Wasteland}

func (z Zone) String() string {
	switch z {
	case Forest:
		return "forest"
	case Desert:
		return "desert"
	case Snow:
		return "snow"
	case Wasteland:
		return "wasteland"
	default:
		return "grassland"
	}
}

var zoneByRaw = map[string]Zone{
	"FOREST":                  Forest,
	"BIRCH_FOREST":            Forest,
	"DARK_FOREST":             Forest,
	"OLD_GROWTH_BIRCH_FOREST": Forest,
	"JUNGLE":                  Forest,

	"PLAINS":           Grassland,
	"SUNFLOWER_PLAINS": Grassland,
	"SAVANNA":          Grassland,
	"SAVANNA_PLATEAU":  Grassland,

	"DESERT":          Desert,
	"WINDSWEPT_HILLS": Desert,

	"SNOWY_PLAINS": Snow,
	"SNOWY_SLOPES": Snow,
	"SNOWY_TAIGA":  Snow,
	"GROVE":        Snow,
	"ICE_SPIKES":   Snow,

	"BADLANDS":         Wasteland,
	"WOODED_BADLANDS":  Wasteland,
	"ERODED_BADLANDS":  Wasteland,
	"NETHER_WASTES":    Wasteland,
	"SOUL_SAND_VALLEY": Wasteland,
}

// ZoneFor maps a raw biome name to its zone. Unknown names are Grassland.
func ZoneFor(raw string) Zone {
	if z, ok := zoneByRaw[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return z
	}
	return Grassland
}
