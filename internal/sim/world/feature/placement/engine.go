// Package placement sites buildings around road nodes and trader outposts
// on a seeded grid. Every decision is a pure function of world seed and
// position, so tiles may be delivered in any order and more than once.
package placement

import (
	"errors"
	"io"
	"log/slog"

	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/feature/schematics"
	"wastelands.ai/internal/sim/world/feature/spatial"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

type Terrain interface {
	HeightAt(x, z int) (int, bool)
}

// Sink receives every structure the engine registers.
type Sink interface {
	StructurePlaced(s modelpkg.Structure)
}

type Engine struct {
	world    string
	seed     int64
	seaLevel int
	// Half width of a main road band, curb included.
	roadHalf int

	cfgS tuning.Structures
	cfgT tuning.Traders

	index    *spatial.Index
	provider schematics.Provider
	sink     Sink
	log      *slog.Logger
	clock    func() uint64

	// Trader cells rejected for spacing this session.
	rejected map[[2]int]bool
}

func New(world string, seed int64, tu tuning.Tuning, index *spatial.Index, provider schematics.Provider, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		world:    world,
		seed:     seed,
		seaLevel: tu.WorldGen.SeaLevel,
		roadHalf: tu.Roads.MainWidth / 2,
		cfgS:     tu.Structures,
		cfgT:     tu.Traders,
		index:    index,
		provider: provider,
		log:      log.With("world", world),
		clock:    func() uint64 { return 0 },
		rejected: map[[2]int]bool{},
	}
}

func (e *Engine) SetSink(s Sink)             { e.sink = s }
func (e *Engine) SetClock(now func() uint64) { e.clock = now }

func (e *Engine) groundY(t Terrain, x, z int) int {
	if y, ok := t.HeightAt(x, z); ok {
		return y
	}
	e.log.Debug("no ground found, using sea level", "x", x, "z", z)
	return e.seaLevel
}

// place stamps and registers one structure. It returns false when the
// placement was skipped or failed; failures never propagate.
func (e *Engine) place(c modelpkg.Category, s modelpkg.Structure) (modelpkg.Structure, bool) {
	st, err := e.provider.Stamp(c, e.world, s.Origin.X, s.Origin.Y, s.Origin.Z, s.Rotation)
	if err != nil {
		if errors.Is(err, schematics.ErrNoBlueprint) {
			e.log.Debug("no blueprint for category", "category", string(c))
		} else {
			e.log.Warn("stamp failed", "category", string(c), "x", s.Origin.X, "y", s.Origin.Y, "z", s.Origin.Z, "err", err)
		}
		return s, false
	}
	s.Footprint = st.Footprint
	s.BlueprintID = st.BlueprintID
	s.CreatedTick = e.clock()
	if !e.index.Insert(s) {
		e.log.Error("structure id already registered after stamp", "id", s.ID)
		return s, false
	}
	if e.sink != nil {
		e.sink.StructurePlaced(s)
	}
	return s, true
}
