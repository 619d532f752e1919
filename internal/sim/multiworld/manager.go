package multiworld

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world"
	"wastelands.ai/internal/sim/world/feature/roads"
	"wastelands.ai/internal/sim/world/feature/spatial"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

// Loader reads the layout persisted by earlier sessions.
type Loader interface {
	LoadStructures(ctx context.Context) ([]modelpkg.Structure, error)
	LoadNodes(ctx context.Context) ([]modelpkg.RoadNode, error)
}

// Manager owns every enabled world of a session together with the spatial
// index and road graph they share. mu serializes all pipeline work, so
// events may be delivered from the Run loop or directly.
type Manager struct {
	mu sync.Mutex

	worlds    map[string]*world.World
	specs     map[string]WorldSpec
	defaultID string
	shared    world.Shared
	log       *slog.Logger

	inbox     chan world.TileEvent
	stop      chan struct{}
	closeOnce sync.Once
}

func NewManager(cfg Config, tu tuning.Tuning, cats *catalogs.Catalogs, log *slog.Logger) (*Manager, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		worlds:    map[string]*world.World{},
		specs:     map[string]WorldSpec{},
		defaultID: cfg.DefaultWorldID,
		shared: world.Shared{
			Index: spatial.New(tu.Traders.BucketChunks),
			Graph: roads.NewGraph(tu.Roads.MainSpacing, tu.Roads.ConnectFactor),
		},
		log:   log,
		inbox: make(chan world.TileEvent, 1024),
		stop:  make(chan struct{}),
	}
	for _, spec := range cfg.EnabledWorlds() {
		w, err := world.New(world.WorldConfig{ID: spec.ID, Seed: tu.WorldGen.Seed + spec.SeedOffset}, tu, cats, m.shared, log)
		if err != nil {
			return nil, fmt.Errorf("world %s: %w", spec.ID, err)
		}
		m.worlds[spec.ID] = w
		m.specs[spec.ID] = spec
	}
	return m, nil
}

func (m *Manager) DefaultWorldID() string { return m.defaultID }
func (m *Manager) Index() *spatial.Index  { return m.shared.Index }
func (m *Manager) Graph() *roads.Graph    { return m.shared.Graph }

func (m *Manager) WorldIDs() []string {
	out := make([]string, 0, len(m.worlds))
	for id := range m.worlds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) World(id string) (*world.World, bool) {
	w, ok := m.worlds[id]
	return w, ok
}

func (m *Manager) SetNotifier(n world.Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.worlds {
		w.SetNotifier(n)
	}
}

func (m *Manager) SetSaver(s world.Saver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.worlds {
		w.SetSaver(s)
	}
}

// HandleTileEvent routes an event to its world. Events for unknown or
// disabled worlds are dropped.
func (m *Manager) HandleTileEvent(ev world.TileEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[ev.WorldID]
	if !ok {
		m.log.Debug("tile event for unknown world", "world", ev.WorldID, "tx", ev.TileX, "tz", ev.TileZ)
		return false
	}
	w.HandleTileEvent(ev)
	return true
}

// GenerateTile produces a tile in world id and delivers its event.
func (m *Manager) GenerateTile(id string, tx, tz int) bool {
	m.mu.Lock()
	w, ok := m.worlds[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	ev := w.GenerateTile(tx, tz)
	m.mu.Unlock()
	return m.HandleTileEvent(ev)
}

// Tick advances every world by one tick in id order and returns the number
// of tasks run.
func (m *Manager) Tick() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.WorldIDs() {
		n += m.worlds[id].Tick()
	}
	return n
}

func (m *Manager) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.worlds {
		n += w.PendingTasks()
	}
	return n
}

// Drain ticks until every world's queue is empty or maxTicks have elapsed.
func (m *Manager) Drain(maxTicks int) int {
	ticks := 0
	for m.pending() > 0 && ticks < maxTicks {
		m.Tick()
		ticks++
	}
	return ticks
}

type RestoreStats struct {
	Nodes      int
	Structures int
	Skipped    int
}

// Restore loads the persisted layout into the shared graph and index. It
// runs once at session start, before any tile event.
func (m *Manager) Restore(ctx context.Context, l Loader) (RestoreStats, error) {
	var st RestoreStats
	nodes, err := l.LoadNodes(ctx)
	if err != nil {
		return st, fmt.Errorf("load nodes: %w", err)
	}
	structures, err := l.LoadStructures(ctx)
	if err != nil {
		return st, fmt.Errorf("load structures: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var known []modelpkg.RoadNode
	for _, n := range nodes {
		if _, ok := m.worlds[n.World]; !ok {
			st.Skipped++
			continue
		}
		known = append(known, n)
	}
	st.Nodes = m.shared.Graph.Restore(known)

	byWorld := map[string][]modelpkg.Structure{}
	for _, s := range structures {
		if _, ok := m.worlds[s.World]; !ok {
			st.Skipped++
			continue
		}
		byWorld[s.World] = append(byWorld[s.World], s)
	}
	for _, id := range m.WorldIDs() {
		st.Structures += m.worlds[id].Restore(byWorld[id])
	}
	m.log.Info("layout restored", "nodes", st.Nodes, "structures", st.Structures, "skipped", st.Skipped)
	return st, nil
}

// Submit queues a tile event for the Run loop.
func (m *Manager) Submit(ctx context.Context, ev world.TileEvent) error {
	select {
	case m.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers submitted events and ticks all worlds every interval until
// ctx is done or Close is called.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case ev := <-m.inbox:
			m.HandleTileEvent(ev)
		case <-ticker.C:
			m.Tick()
		}
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
}
