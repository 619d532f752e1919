package world

import (
	"fmt"
	"io"
	"log/slog"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world/feature/biomes"
	"wastelands.ai/internal/sim/world/feature/placement"
	"wastelands.ai/internal/sim/world/feature/roads"
	"wastelands.ai/internal/sim/world/feature/schematics"
	"wastelands.ai/internal/sim/world/feature/spatial"
	"wastelands.ai/internal/sim/world/feature/traders"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/mathx"
	"wastelands.ai/internal/sim/world/terrain/store"
)

type WorldConfig struct {
	ID   string
	Seed int64
}

// TileEvent reports a terrain tile the host has just produced.
type TileEvent struct {
	WorldID          string
	TileX, TileZ     int
	IsNewlyGenerated bool
}

// Shared holds the state every world of a session writes into.
type Shared struct {
	Index *spatial.Index
	Graph *roads.Graph
}

// World runs the layout pipeline for one world. It is single-threaded:
// all methods must be called from the same goroutine.
type World struct {
	cfg WorldConfig
	tu  tuning.Tuning

	catalogs *catalogs.Catalogs
	chunks   *store.ChunkStore

	index   *spatial.Index
	graph   *roads.Graph
	library *schematics.Library
	roads   *roads.Builder
	painter *biomes.Painter
	engine  *placement.Engine

	tick      uint64
	tasks     scheduler
	announced map[store.ChunkKey]bool

	notifier Notifier
	saver    Saver
	log      *slog.Logger

	stats Stats
}

func New(cfg WorldConfig, tu tuning.Tuning, cats *catalogs.Catalogs, shared Shared, log *slog.Logger) (*World, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("world id must not be empty")
	}
	if shared.Index == nil || shared.Graph == nil {
		return nil, fmt.Errorf("world %s: shared index and graph are required", cfg.ID)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("world", cfg.ID)

	gen, err := store.NewWorldGen(tu.WorldGen, cfg.Seed, &cats.Blocks)
	if err != nil {
		return nil, err
	}
	builder, err := roads.NewBuilder(tu.Roads, tu.WorldGen, &cats.Blocks, shared.Graph, log)
	if err != nil {
		return nil, err
	}
	painter, err := biomes.NewPainter(&cats.Blocks, tu.Biomes)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:       cfg,
		tu:        tu,
		catalogs:  cats,
		chunks:    store.NewChunkStore(gen),
		index:     shared.Index,
		graph:     shared.Graph,
		library:   schematics.NewLibrary(&cats.Blocks, &cats.Blueprints),
		roads:     builder,
		painter:   painter,
		announced: map[store.ChunkKey]bool{},
		log:       log,
	}
	w.library.Attach(cfg.ID, w.chunks)
	w.engine = placement.New(cfg.ID, cfg.Seed, tu, shared.Index, w.library, log)
	w.engine.SetSink(structureSink{w})
	w.engine.SetClock(func() uint64 { return w.tick })
	builder.SetListener(nodeHook{w})
	return w, nil
}

func (w *World) SetNotifier(n Notifier) { w.notifier = n }
func (w *World) SetSaver(s Saver)       { w.saver = s }

func (w *World) ID() string                { return w.cfg.ID }
func (w *World) Seed() int64               { return w.cfg.Seed }
func (w *World) CurrentTick() uint64       { return w.tick }
func (w *World) Chunks() *store.ChunkStore { return w.chunks }
func (w *World) Engine() *placement.Engine { return w.engine }
func (w *World) Stats() Stats              { return w.stats }
func (w *World) PendingTasks() int         { return w.tasks.pending() }

// Structures lists the world's registered structures sorted by id.
func (w *World) Structures() []modelpkg.Structure {
	return w.index.Structures(w.cfg.ID)
}

// GenerateTile produces the terrain of tile (tx, tz) the way a host would
// and returns the event announcing it. Only the first announcement of a
// tile is flagged as newly generated.
func (w *World) GenerateTile(tx, tz int) TileEvent {
	k := store.ChunkKey{CX: tx, CZ: tz}
	w.chunks.GetOrGenChunk(tx, tz)
	ev := TileEvent{WorldID: w.cfg.ID, TileX: tx, TileZ: tz, IsNewlyGenerated: !w.announced[k]}
	w.announced[k] = true
	return ev
}

// HandleTileEvent schedules road and biome work for a newly generated
// tile. With no road delay the roads are built at once, on the tick the
// event arrives. Events for other worlds and repeat announcements are
// ignored.
func (w *World) HandleTileEvent(ev TileEvent) {
	if ev.WorldID != w.cfg.ID || !ev.IsNewlyGenerated {
		w.stats.TilesIgnored++
		return
	}
	w.stats.TilesHandled++
	size := w.tu.WorldGen.TileSize
	x0, z0 := ev.TileX*size, ev.TileZ*size
	roadsTask := &task{due: w.tick + uint64(w.tu.Pipeline.RoadDelay), kind: taskRoads, x0: x0, z0: z0}
	if roadsTask.due == w.tick {
		w.run(roadsTask)
		w.stats.TasksRun++
	} else {
		w.tasks.schedule(roadsTask)
	}
	w.tasks.schedule(&task{due: w.tick + uint64(w.tu.Pipeline.BiomeDelay), kind: taskBiome, x0: x0, z0: z0})
}

// Tick advances the world clock by one and runs the tasks now due, in
// scheduling order, up to MaxTasksPerTick. It returns the number run.
func (w *World) Tick() int {
	w.tick++
	n := 0
	for n < w.tu.Pipeline.MaxTasksPerTick {
		t, ok := w.tasks.popDue(w.tick)
		if !ok {
			break
		}
		w.run(t)
		n++
	}
	w.stats.TasksRun += uint64(n)
	if iv := w.tu.Traders.SweepInterval; iv > 0 && w.tick%uint64(iv) == 0 {
		w.sweepOutposts()
	}
	return n
}

// Drain ticks until no tasks remain or maxTicks have elapsed, and returns
// the number of ticks taken.
func (w *World) Drain(maxTicks int) int {
	ticks := 0
	for w.tasks.pending() > 0 && ticks < maxTicks {
		w.Tick()
		ticks++
	}
	return ticks
}

func (w *World) run(t *task) {
	switch t.kind {
	case taskRoads:
		res := w.roads.BuildTile(w.cfg.ID, w.chunks, t.x0, t.z0)
		if res.Segment.Any() {
			w.stats.RoadTiles++
		}
		if res.Created {
			w.stats.NodesCreated++
			w.nodeCreated(res.Node)
		}
	case taskBiome:
		st := w.painter.ApplyToTile(w.chunks, t.x0, t.z0, w.tu.WorldGen.TileSize)
		w.stats.BlocksRepainted += uint64(st.Replaced)
	case taskStructures:
		placed := w.engine.PlaceAroundNode(w.chunks, t.node)
		w.log.Debug("buildings placed", "x", t.node.X, "z", t.node.Z, "count", len(placed))
		_, out := w.engine.PlaceTrader(w.chunks, t.node)
		if out == placement.OutcomeRejected {
			w.stats.OutpostsRejected++
		}
	default:
		w.log.Error("unknown task kind", "kind", t.kind.String())
	}
}

func (w *World) nodeCreated(n *modelpkg.RoadNode) {
	if w.saver != nil {
		w.saver.SaveNode(*n)
	}
	if w.notifier != nil {
		if err := w.notifier.NodeCreated(nodeEvent(w.tick, n)); err != nil {
			w.log.Warn("node notification failed", "x", n.X, "z", n.Z, "err", err)
		}
	}
}

func (w *World) sweepOutposts() {
	tod := w.tick % uint64(max(w.tu.Traders.DayTicks, 1))
	for _, tr := range traders.Sweep(w.index, w.cfg.ID, tod, w.cfg.Seed, w.tu.Traders) {
		w.log.Debug("outpost state changed", "id", tr.ID, "open", tr.Open)
		if w.saver != nil {
			w.saver.SaveOutpostState(tr.ID, tr.Open)
		}
	}
}

// TraderCell exposes the trader grid cell of a block column.
func (w *World) TraderCell(x, z int) (int, int) { return w.engine.TraderCell(x, z) }

// TileOf returns the tile holding block column (x, z).
func (w *World) TileOf(x, z int) (int, int) {
	size := w.tu.WorldGen.TileSize
	return mathx.FloorDiv(x, size), mathx.FloorDiv(z, size)
}

type nodeHook struct{ w *World }

// OnMainNode defers building placement for a new main intersection.
func (h nodeHook) OnMainNode(world string, n *modelpkg.RoadNode) {
	if world != h.w.cfg.ID {
		return
	}
	h.w.tasks.schedule(&task{
		due:  h.w.tick + uint64(h.w.tu.Pipeline.StructureDelay),
		kind: taskStructures,
		node: n,
	})
}

type structureSink struct{ w *World }

func (s structureSink) StructurePlaced(st modelpkg.Structure) {
	w := s.w
	w.stats.StructuresPlaced++
	if w.saver != nil {
		w.saver.SaveStructure(st)
	}
	if w.notifier != nil {
		if err := w.notifier.StructurePlaced(structureEvent(w.tick, st)); err != nil {
			w.log.Warn("structure notification failed", "id", st.ID, "err", err)
		}
	}
}

// Stats counts pipeline work since the world was created.
type Stats struct {
	TilesHandled     uint64
	TilesIgnored     uint64
	TasksRun         uint64
	RoadTiles        uint64
	NodesCreated     uint64
	BlocksRepainted  uint64
	StructuresPlaced uint64
	OutpostsRejected uint64
}
