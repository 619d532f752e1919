package multiworld

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "worlds.yaml"))
	if err != nil {
		t.Fatalf("worlds: %v", err)
	}
	m, err := NewManager(cfg, tuning.Defaults(), cats, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestManager_WorldsShareIndexButNotLayout(t *testing.T) {
	m := newTestManager(t)
	if got := m.WorldIDs(); len(got) != 2 || got[0] != "frontier" || got[1] != "overworld" {
		t.Fatalf("world ids %v", got)
	}
	if _, ok := m.World("archive"); ok {
		t.Fatalf("disabled world was created")
	}
	if m.GenerateTile("archive", 0, 0) {
		t.Fatalf("tile for disabled world accepted")
	}

	if !m.GenerateTile("overworld", 0, 0) || !m.GenerateTile("frontier", 0, 0) {
		t.Fatalf("tile events rejected")
	}
	m.Drain(100)

	ow, _ := m.World("overworld")
	fr, _ := m.World("frontier")
	if len(ow.Structures()) == 0 || len(fr.Structures()) == 0 {
		t.Fatalf("structures: overworld=%d frontier=%d", len(ow.Structures()), len(fr.Structures()))
	}
	if m.Index().Len() != len(ow.Structures())+len(fr.Structures()) {
		t.Fatalf("shared index holds %d", m.Index().Len())
	}
	if m.Graph().Len("overworld") != 1 || m.Graph().Len("frontier") != 1 {
		t.Fatalf("graph nodes overworld=%d frontier=%d", m.Graph().Len("overworld"), m.Graph().Len("frontier"))
	}
	if ow.Seed() == fr.Seed() {
		t.Fatalf("worlds share a seed")
	}
}

type fakeLoader struct {
	structures []modelpkg.Structure
	nodes      []modelpkg.RoadNode
	err        error
}

func (f fakeLoader) LoadStructures(ctx context.Context) ([]modelpkg.Structure, error) {
	return f.structures, f.err
}

func (f fakeLoader) LoadNodes(ctx context.Context) ([]modelpkg.RoadNode, error) {
	return f.nodes, nil
}

func TestManager_Restore(t *testing.T) {
	m := newTestManager(t)
	fp := modelpkg.Footprint{SX: 7, SY: 5, SZ: 7}
	l := fakeLoader{
		structures: []modelpkg.Structure{
			{ID: "s1", World: "overworld", Category: modelpkg.CategoryResidential, Footprint: fp},
			{ID: "s2", World: "frontier", Category: modelpkg.CategoryTraderOutpost, Footprint: fp},
			{ID: "s3", World: "archive", Category: modelpkg.CategoryIndustrial, Footprint: fp},
			{ID: "s1", World: "overworld", Category: modelpkg.CategoryResidential, Footprint: fp},
		},
		nodes: []modelpkg.RoadNode{
			{World: "overworld", X: 8, Y: 64, Z: 8, Tier: modelpkg.TierMain},
			{World: "overworld", X: 520, Y: 64, Z: 8, Tier: modelpkg.TierMain, Links: []string{"overworld@8,8"}},
			{World: "archive", X: 8, Z: 8},
		},
	}
	st, err := m.Restore(context.Background(), l)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if st.Nodes != 2 || st.Structures != 2 || st.Skipped != 2 {
		t.Fatalf("stats %+v", st)
	}
	n, ok := m.Graph().Node("overworld", 8, 8)
	if !ok || len(n.Links) != 1 {
		t.Fatalf("restored links not symmetric: %+v", n)
	}
	if len(m.Index().ByWorld("frontier")) != 1 {
		t.Fatalf("outpost not restored")
	}

	if _, err := m.Restore(context.Background(), fakeLoader{err: errors.New("boom")}); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestManager_RunDeliversSubmittedEvents(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()

	if err := m.Submit(ctx, world.TileEvent{WorldID: "overworld", TileX: 8, TileZ: 3, IsNewlyGenerated: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ow, _ := m.World("overworld")
	for {
		m.mu.Lock()
		handled := ow.Stats().TilesHandled
		pending := ow.PendingTasks()
		m.mu.Unlock()
		if handled == 1 && pending == 0 {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("event not processed before timeout")
		case <-time.After(time.Millisecond):
		}
	}
	m.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
