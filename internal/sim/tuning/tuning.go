package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	WorldGen   WorldGen   `yaml:"worldgen"`
	Roads      Roads      `yaml:"roads"`
	Structures Structures `yaml:"structures"`
	Traders    Traders    `yaml:"traders"`
	Biomes     Biomes     `yaml:"biomes"`
	Pipeline   Pipeline   `yaml:"pipeline"`
}

type WorldGen struct {
	Seed      int64 `yaml:"seed"`
	TileSize  int   `yaml:"tile_size"`
	MinY      int   `yaml:"min_y"`
	MaxY      int   `yaml:"max_y"`
	SeaLevel  int   `yaml:"sea_level"`
	BaseLevel int   `yaml:"base_level"`

	// Peak-to-trough amplitude of the elevation noise, in blocks.
	Relief        int     `yaml:"relief"`
	ElevationFreq float64 `yaml:"elevation_freq"`
	ClimateFreq   float64 `yaml:"climate_freq"`
}

type Roads struct {
	MainSpacing      int     `yaml:"main_spacing"`
	SecondarySpacing int     `yaml:"secondary_spacing"`
	MainWidth        int     `yaml:"main_width"`
	SecondaryWidth   int     `yaml:"secondary_width"`
	AxisThreshold    int     `yaml:"axis_threshold"`
	ConnectFactor    float64 `yaml:"connect_factor"`
	SampleStep       int     `yaml:"sample_step"`
	Clearance        int     `yaml:"clearance"`
	Backfill         int     `yaml:"backfill"`

	RoadBlock    string `yaml:"road_block"`
	CurbBlock    string `yaml:"curb_block"`
	SupportBlock string `yaml:"support_block"`
}

type Structures struct {
	MinOffset int `yaml:"min_offset"`
	MaxOffset int `yaml:"max_offset"`

	// Noise frequency for the category field.
	CategoryFreq float64 `yaml:"category_freq"`
}

type Traders struct {
	Spacing   int     `yaml:"spacing"`
	Chance    float64 `yaml:"chance"`
	MinOffset int     `yaml:"min_offset"`
	MaxOffset int     `yaml:"max_offset"`
	PrimeX    int64   `yaml:"prime_x"`
	PrimeZ    int64   `yaml:"prime_z"`

	BucketChunks int `yaml:"bucket_chunks"`

	DayTicks      int `yaml:"day_ticks"`
	NightStart    int `yaml:"night_start"`
	EjectMin      int `yaml:"eject_min"`
	EjectMax      int `yaml:"eject_max"`
	SweepInterval int `yaml:"sweep_interval"`
}

type Biomes struct {
	Depth           int `yaml:"depth"`
	SubsurfaceFloor int `yaml:"subsurface_floor"`
}

type Pipeline struct {
	RoadDelay       int `yaml:"road_delay"`
	BiomeDelay      int `yaml:"biome_delay"`
	StructureDelay  int `yaml:"structure_delay"`
	MaxTasksPerTick int `yaml:"max_tasks_per_tick"`
}

func Defaults() Tuning {
	return Tuning{
		WorldGen: WorldGen{
			Seed:          1337,
			TileSize:      16,
			MinY:          0,
			MaxY:          128,
			SeaLevel:      64,
			BaseLevel:     62,
			Relief:        24,
			ElevationFreq: 1.0 / 256,
			ClimateFreq:   1.0 / 512,
		},
		Roads: Roads{
			MainSpacing:      512,
			SecondarySpacing: 128,
			MainWidth:        5,
			SecondaryWidth:   3,
			AxisThreshold:    8,
			ConnectFactor:    1.5,
			SampleStep:       4,
			Clearance:        3,
			Backfill:         6,
			RoadBlock:        "BLACK_CONCRETE",
			CurbBlock:        "GRAY_CONCRETE",
			SupportBlock:     "STONE",
		},
		Structures: Structures{
			MinOffset:    20,
			MaxOffset:    40,
			CategoryFreq: 0.01,
		},
		Traders: Traders{
			Spacing:       300,
			Chance:        0.10,
			MinOffset:     50,
			MaxOffset:     70,
			PrimeX:        73856093,
			PrimeZ:        19349663,
			BucketChunks:  16,
			DayTicks:      24000,
			NightStart:    13000,
			EjectMin:      10,
			EjectMax:      15,
			SweepInterval: 100,
		},
		Biomes: Biomes{
			Depth:           5,
			SubsurfaceFloor: 40,
		},
		Pipeline: Pipeline{
			RoadDelay:       0,
			BiomeDelay:      2,
			StructureDelay:  20,
			MaxTasksPerTick: 64,
		},
	}
}

// Load reads a tuning file on top of Defaults and normalizes the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	return t, nil
}

// Normalize repairs out-of-range values with their defaults.
func (t *Tuning) Normalize() {
	d := Defaults()

	posInt(&t.WorldGen.TileSize, d.WorldGen.TileSize)
	if t.WorldGen.MaxY <= t.WorldGen.MinY {
		t.WorldGen.MinY, t.WorldGen.MaxY = d.WorldGen.MinY, d.WorldGen.MaxY
	}
	if t.WorldGen.SeaLevel < t.WorldGen.MinY || t.WorldGen.SeaLevel >= t.WorldGen.MaxY {
		t.WorldGen.SeaLevel = d.WorldGen.SeaLevel
	}
	if t.WorldGen.BaseLevel < t.WorldGen.MinY || t.WorldGen.BaseLevel >= t.WorldGen.MaxY {
		t.WorldGen.BaseLevel = d.WorldGen.BaseLevel
	}
	if t.WorldGen.Relief < 0 {
		t.WorldGen.Relief = d.WorldGen.Relief
	}
	posFloat(&t.WorldGen.ElevationFreq, d.WorldGen.ElevationFreq)
	posFloat(&t.WorldGen.ClimateFreq, d.WorldGen.ClimateFreq)

	r := &t.Roads
	posInt(&r.MainSpacing, d.Roads.MainSpacing)
	posInt(&r.SecondarySpacing, d.Roads.SecondarySpacing)
	posInt(&r.MainWidth, d.Roads.MainWidth)
	posInt(&r.SecondaryWidth, d.Roads.SecondaryWidth)
	posInt(&r.AxisThreshold, d.Roads.AxisThreshold)
	posFloat(&r.ConnectFactor, d.Roads.ConnectFactor)
	posInt(&r.SampleStep, d.Roads.SampleStep)
	if r.Clearance < 0 {
		r.Clearance = d.Roads.Clearance
	}
	if r.Backfill < 0 {
		r.Backfill = d.Roads.Backfill
	}
	nonEmpty(&r.RoadBlock, d.Roads.RoadBlock)
	nonEmpty(&r.CurbBlock, d.Roads.CurbBlock)
	nonEmpty(&r.SupportBlock, d.Roads.SupportBlock)

	s := &t.Structures
	if s.MinOffset <= 0 || s.MaxOffset < s.MinOffset {
		s.MinOffset, s.MaxOffset = d.Structures.MinOffset, d.Structures.MaxOffset
	}
	posFloat(&s.CategoryFreq, d.Structures.CategoryFreq)

	tr := &t.Traders
	posInt(&tr.Spacing, d.Traders.Spacing)
	if tr.Chance < 0 || tr.Chance > 1 {
		tr.Chance = d.Traders.Chance
	}
	if tr.MinOffset <= 0 || tr.MaxOffset < tr.MinOffset {
		tr.MinOffset, tr.MaxOffset = d.Traders.MinOffset, d.Traders.MaxOffset
	}
	if tr.PrimeX == 0 || tr.PrimeZ == 0 {
		tr.PrimeX, tr.PrimeZ = d.Traders.PrimeX, d.Traders.PrimeZ
	}
	posInt(&tr.BucketChunks, d.Traders.BucketChunks)
	posInt(&tr.DayTicks, d.Traders.DayTicks)
	if tr.NightStart <= 0 || tr.NightStart >= tr.DayTicks {
		tr.NightStart = tr.DayTicks * d.Traders.NightStart / d.Traders.DayTicks
	}
	if tr.EjectMin <= 0 || tr.EjectMax < tr.EjectMin {
		tr.EjectMin, tr.EjectMax = d.Traders.EjectMin, d.Traders.EjectMax
	}
	posInt(&tr.SweepInterval, d.Traders.SweepInterval)

	posInt(&t.Biomes.Depth, d.Biomes.Depth)

	p := &t.Pipeline
	if p.RoadDelay < 0 {
		p.RoadDelay = 0
	}
	// Repaint must run after road stamping.
	if p.BiomeDelay <= p.RoadDelay {
		p.BiomeDelay = p.RoadDelay + d.Pipeline.BiomeDelay
	}
	if p.StructureDelay < 0 {
		p.StructureDelay = d.Pipeline.StructureDelay
	}
	posInt(&p.MaxTasksPerTick, d.Pipeline.MaxTasksPerTick)
}

func posInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func posFloat(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

func nonEmpty(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
