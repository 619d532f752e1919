package world

import (
	"fmt"
	"slices"

	"wastelands.ai/internal/persistence/snapshot"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/terrain/store"
)

// ExportSnapshot dumps the world's generated layout.
func (w *World) ExportSnapshot() snapshot.LayoutV1 {
	snap := snapshot.LayoutV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    w.tick,
		},
		Seed:          w.cfg.Seed,
		MinY:          w.chunks.MinY(),
		MaxY:          w.chunks.MaxY(),
		Palette:       append([]string(nil), w.catalogs.Blocks.Palette...),
		Chunks:        store.ExportLoadedChunks(w.chunks.Chunks, w.chunks.LoadedChunkKeys()),
		RejectedCells: w.engine.RejectedCells(),
	}
	for _, n := range w.graph.Nodes(w.cfg.ID) {
		snap.Nodes = append(snap.Nodes, snapshot.NodeV1{
			X:     n.X,
			Y:     n.Y,
			Z:     n.Z,
			Tier:  n.Tier.String(),
			Links: append([]string(nil), n.Links...),
		})
	}
	for _, s := range w.index.Structures(w.cfg.ID) {
		snap.Structures = append(snap.Structures, snapshot.StructureV1{
			ID:          s.ID,
			Category:    string(s.Category),
			Pos:         s.Origin.ToArray(),
			Size:        [3]int{s.Footprint.SX, s.Footprint.SY, s.Footprint.SZ},
			Rotation:    s.Rotation,
			BlueprintID: s.BlueprintID,
			QuestID:     s.QuestID,
			Open:        s.Open,
			Anchor:      s.Anchor.ToArray(),
			CreatedTick: s.CreatedTick,
		})
	}
	return snap
}

// ImportSnapshot replaces the world's terrain with the snapshot's and
// registers its nodes and structures. Records already present in the
// shared index or graph are kept.
func (w *World) ImportSnapshot(snap snapshot.LayoutV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", snap.Header.Version)
	}
	if snap.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world %q does not match %q", snap.Header.WorldID, w.cfg.ID)
	}
	if snap.Seed != w.cfg.Seed {
		return fmt.Errorf("snapshot seed %d does not match %d", snap.Seed, w.cfg.Seed)
	}
	if !slices.Equal(snap.Palette, w.catalogs.Blocks.Palette) {
		return fmt.Errorf("snapshot palette does not match block catalog")
	}
	if snap.MinY != w.chunks.MinY() || snap.MaxY != w.chunks.MaxY() {
		return fmt.Errorf("snapshot height range [%d,%d) does not match [%d,%d)", snap.MinY, snap.MaxY, w.chunks.MinY(), w.chunks.MaxY())
	}
	chunks, err := store.ImportChunks(w.chunks.Gen, snap.Chunks)
	if err != nil {
		return err
	}

	nodes := make([]modelpkg.RoadNode, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, modelpkg.RoadNode{
			World: w.cfg.ID,
			X:     n.X,
			Y:     n.Y,
			Z:     n.Z,
			Tier:  modelpkg.ParseTier(n.Tier),
			Links: n.Links,
		})
	}
	structures := make([]modelpkg.Structure, 0, len(snap.Structures))
	for _, s := range snap.Structures {
		c, ok := modelpkg.ParseCategory(s.Category)
		if !ok {
			return fmt.Errorf("snapshot structure %s: unknown category %q", s.ID, s.Category)
		}
		structures = append(structures, modelpkg.Structure{
			ID:          s.ID,
			World:       w.cfg.ID,
			Category:    c,
			Origin:      modelpkg.Vec3i{X: s.Pos[0], Y: s.Pos[1], Z: s.Pos[2]},
			Footprint:   modelpkg.Footprint{SX: s.Size[0], SY: s.Size[1], SZ: s.Size[2]},
			Rotation:    s.Rotation,
			BlueprintID: s.BlueprintID,
			QuestID:     s.QuestID,
			Open:        s.Open,
			Anchor:      modelpkg.Vec3i{X: s.Anchor[0], Y: s.Anchor[1], Z: s.Anchor[2]},
			CreatedTick: s.CreatedTick,
		})
	}

	w.chunks = chunks
	w.library.Attach(w.cfg.ID, chunks)
	for k := range chunks.Chunks {
		w.announced[k] = true
	}
	w.tick = snap.Header.Tick
	w.graph.Restore(nodes)
	w.Restore(structures)
	w.engine.RestoreRejected(snap.RejectedCells)
	return nil
}

// Restore registers structures loaded at session start and reports how
// many were new. Trader spacing is checked afterwards.
func (w *World) Restore(structures []modelpkg.Structure) int {
	n := 0
	for _, s := range structures {
		if s.World != w.cfg.ID {
			continue
		}
		if w.index.Insert(s) {
			n++
		}
	}
	w.engine.CheckOutpostSpacing()
	return n
}
