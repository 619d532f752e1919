package gen

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

// Raw biome names produced by the climate model. They follow the
// host-world naming so biome mapping tables can be shared.
const (
	BiomePlains      = "PLAINS"
	BiomeForest      = "FOREST"
	BiomeBirchForest = "BIRCH_FOREST"
	BiomeDarkForest  = "DARK_FOREST"
	BiomeSavanna     = "SAVANNA"
	BiomeDesert      = "DESERT"
	BiomeBadlands    = "BADLANDS"
	BiomeSnowyPlains = "SNOWY_PLAINS"
	BiomeSnowySlopes = "SNOWY_SLOPES"
	BiomeSnowyTaiga  = "SNOWY_TAIGA"
	BiomeOcean       = "OCEAN"
)

// Generator derives base terrain purely from world coordinates.
type Generator struct {
	cfg  tuning.WorldGen
	seed int64

	elev opensimplex.Noise
	temp *perlin.Perlin
	rain *perlin.Perlin
}

func New(seed int64, cfg tuning.WorldGen) *Generator {
	return &Generator{
		cfg:  cfg,
		seed: seed,
		elev: opensimplex.NewNormalized(seed),
		temp: perlin.NewPerlin(2, 2, 3, seed+101),
		rain: perlin.NewPerlin(2, 2, 3, seed+202),
	}
}

func (g *Generator) Seed() int64 { return g.seed }

// Height returns the surface height of the column at (x,z).
func (g *Generator) Height(x, z int) int {
	f := g.cfg.ElevationFreq
	n := g.elev.Eval2(float64(x)*f, float64(z)*f) // [0,1]
	h := g.cfg.BaseLevel + int(math.Round((n-0.5)*float64(g.cfg.Relief)))
	if h <= g.cfg.MinY {
		h = g.cfg.MinY + 1
	}
	if h >= g.cfg.MaxY {
		h = g.cfg.MaxY - 1
	}
	return h
}

// WaterLevel is the y up to which basins are flooded.
func (g *Generator) WaterLevel() int {
	return g.cfg.BaseLevel - g.cfg.Relief/4
}

func (g *Generator) climate(x, z int) (temp, rain float64) {
	f := g.cfg.ClimateFreq
	return g.temp.Noise2D(float64(x)*f, float64(z)*f), g.rain.Noise2D(float64(x)*f, float64(z)*f)
}

// Biome returns the raw biome name for a column.
func (g *Generator) Biome(x, z int) string {
	h := g.Height(x, z)
	if h < g.WaterLevel() {
		return BiomeOcean
	}
	t, r := g.climate(x, z)
	switch {
	case t < -0.25:
		switch {
		case h > g.cfg.BaseLevel+g.cfg.Relief/4:
			return BiomeSnowySlopes
		case r > 0.1:
			return BiomeSnowyTaiga
		default:
			return BiomeSnowyPlains
		}
	case t > 0.3:
		switch {
		case r < -0.1:
			return BiomeDesert
		case r < 0.1:
			return BiomeBadlands
		default:
			return BiomeSavanna
		}
	default:
		switch {
		case r > 0.25:
			return BiomeDarkForest
		case r > 0.1:
			return BiomeForest
		case r > 0:
			return BiomeBirchForest
		default:
			return BiomePlains
		}
	}
}

// Sprinkle reports whether a column carries surface vegetation.
func (g *Generator) Sprinkle(x, z int, permille uint64) bool {
	return mathx.Hash2(g.seed+999, x, z)%1000 < permille
}
