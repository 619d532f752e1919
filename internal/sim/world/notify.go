package world

import (
	"errors"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

// NodeEvent announces a newly created road node.
type NodeEvent struct {
	Tick    uint64   `json:"tick"`
	WorldID string   `json:"world_id"`
	Pos     [3]int   `json:"pos"`
	Tier    string   `json:"tier"`
	Links   []string `json:"links,omitempty"`
}

// StructureEvent announces a newly registered structure.
type StructureEvent struct {
	Tick        uint64 `json:"tick"`
	WorldID     string `json:"world_id"`
	ID          string `json:"id"`
	Category    string `json:"category"`
	Pos         [3]int `json:"pos"`
	Size        [3]int `json:"size"`
	Rotation    int    `json:"rotation"`
	BlueprintID string `json:"blueprint_id,omitempty"`
}

// Notifier receives layout events. Implemented in internal/persistence/log.
type Notifier interface {
	NodeCreated(e NodeEvent) error
	StructurePlaced(e StructureEvent) error
}

// Saver persists layout records. Implemented in internal/persistence/indexdb.
// Calls must not block the world loop.
type Saver interface {
	SaveStructure(s modelpkg.Structure)
	SaveNode(n modelpkg.RoadNode)
	SaveOutpostState(id string, open bool)
}

// MultiNotifier fans events out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) NodeCreated(e NodeEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NodeCreated(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) StructurePlaced(e StructureEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.StructurePlaced(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func nodeEvent(tick uint64, n *modelpkg.RoadNode) NodeEvent {
	links := make([]string, len(n.Links))
	copy(links, n.Links)
	return NodeEvent{
		Tick:    tick,
		WorldID: n.World,
		Pos:     [3]int{n.X, n.Y, n.Z},
		Tier:    n.Tier.String(),
		Links:   links,
	}
}

func structureEvent(tick uint64, s modelpkg.Structure) StructureEvent {
	return StructureEvent{
		Tick:        tick,
		WorldID:     s.World,
		ID:          s.ID,
		Category:    string(s.Category),
		Pos:         s.Origin.ToArray(),
		Size:        [3]int{s.Footprint.SX, s.Footprint.SY, s.Footprint.SZ},
		Rotation:    s.Rotation,
		BlueprintID: s.BlueprintID,
	}
}
