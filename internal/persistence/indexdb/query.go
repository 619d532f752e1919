package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

const structureColumns = `s.id,s.world_id,s.category,s.x,s.y,s.z,s.sx,s.sy,s.sz,s.rotation,
	COALESCE(s.blueprint_id,''),COALESCE(s.quest_id,''),s.anchor_x,s.anchor_z,s.created_tick,COALESCE(o.open,0)`

const structureFrom = ` FROM structures s LEFT JOIN outposts o ON o.structure_id = s.id`

func scanStructures(rows *sql.Rows) ([]modelpkg.Structure, error) {
	defer rows.Close()
	var out []modelpkg.Structure
	for rows.Next() {
		var (
			st          modelpkg.Structure
			cat         string
			createdTick int64
			open        int
		)
		if err := rows.Scan(
			&st.ID, &st.World, &cat,
			&st.Origin.X, &st.Origin.Y, &st.Origin.Z,
			&st.Footprint.SX, &st.Footprint.SY, &st.Footprint.SZ,
			&st.Rotation, &st.BlueprintID, &st.QuestID,
			&st.Anchor.X, &st.Anchor.Z, &createdTick, &open,
		); err != nil {
			return nil, err
		}
		c, ok := modelpkg.ParseCategory(cat)
		if !ok {
			return nil, fmt.Errorf("structure %s: unknown category %q", st.ID, cat)
		}
		st.Category = c
		st.CreatedTick = uint64(createdTick)
		st.Open = open != 0
		out = append(out, st)
	}
	return out, rows.Err()
}

// LoadStructures returns every persisted structure ordered by id.
func (s *SQLiteIndex) LoadStructures(ctx context.Context) ([]modelpkg.Structure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+structureColumns+structureFrom+` ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	return scanStructures(rows)
}

// LoadNodes returns every persisted road node ordered by world and position.
func (s *SQLiteIndex) LoadNodes(ctx context.Context) ([]modelpkg.RoadNode, error) {
	return s.queryNodes(ctx, "")
}

func (s *SQLiteIndex) QueryNodes(ctx context.Context, world string) ([]modelpkg.RoadNode, error) {
	if world == "" {
		return nil, fmt.Errorf("world is required")
	}
	return s.queryNodes(ctx, world)
}

func (s *SQLiteIndex) queryNodes(ctx context.Context, world string) ([]modelpkg.RoadNode, error) {
	q := `SELECT world_id,x,y,z,tier,links_json FROM road_nodes`
	var args []any
	if world != "" {
		q += ` WHERE world_id = ?`
		args = append(args, world)
	}
	q += ` ORDER BY world_id, x, z`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []modelpkg.RoadNode
	for rows.Next() {
		var (
			n     modelpkg.RoadNode
			tier  string
			links string
		)
		if err := rows.Scan(&n.World, &n.X, &n.Y, &n.Z, &tier, &links); err != nil {
			return nil, err
		}
		n.Tier = modelpkg.ParseTier(tier)
		if err := json.Unmarshal([]byte(links), &n.Links); err != nil {
			return nil, fmt.Errorf("node %s@%d,%d links: %w", n.World, n.X, n.Z, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type StructureFilter struct {
	World    string
	Category string
	Limit    int
}

// QueryStructures lists structures matching the filter ordered by id.
func (s *SQLiteIndex) QueryStructures(ctx context.Context, f StructureFilter) ([]modelpkg.Structure, error) {
	var (
		where []string
		args  []any
	)
	if f.World != "" {
		where = append(where, "s.world_id = ?")
		args = append(args, f.World)
	}
	if f.Category != "" {
		if _, ok := modelpkg.ParseCategory(f.Category); !ok {
			return nil, fmt.Errorf("unknown category %q", f.Category)
		}
		where = append(where, "s.category = ?")
		args = append(args, f.Category)
	}
	q := `SELECT ` + structureColumns + structureFrom
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY s.id`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanStructures(rows)
}

// QueryStructuresNear lists a world's structures whose origin lies within
// radius of (x, z) horizontally, nearest first.
func (s *SQLiteIndex) QueryStructuresNear(ctx context.Context, world string, x, z, radius int) ([]modelpkg.Structure, error) {
	if world == "" {
		return nil, fmt.Errorf("world is required")
	}
	if radius < 0 {
		return nil, fmt.Errorf("radius must be >= 0")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+structureColumns+structureFrom+
		` WHERE s.world_id = ? AND s.x BETWEEN ? AND ? AND s.z BETWEEN ? AND ?`,
		world, x-radius, x+radius, z-radius, z+radius)
	if err != nil {
		return nil, err
	}
	all, err := scanStructures(rows)
	if err != nil {
		return nil, err
	}
	p := modelpkg.Vec3i{X: x, Z: z}
	r2 := int64(radius) * int64(radius)
	out := all[:0]
	for _, st := range all {
		if modelpkg.DistSqXZ(st.Origin, p) <= r2 {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := modelpkg.DistSqXZ(out[i].Origin, p), modelpkg.DistSqXZ(out[j].Origin, p)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
