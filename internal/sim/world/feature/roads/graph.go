package roads

import (
	"sort"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/ids"
)

type worldNodes struct {
	byKey map[string]*modelpkg.RoadNode
	// Axis indexes for the collinear connection rule.
	col map[int][]string // x -> keys
	row map[int][]string // z -> keys
}

// Graph holds road nodes of every world. Nodes are never removed.
type Graph struct {
	maxLinkSq float64
	worlds    map[string]*worldNodes
}

// NewGraph links nodes sharing an axis when closer than
// connectFactor*mainSpacing.
func NewGraph(mainSpacing int, connectFactor float64) *Graph {
	d := connectFactor * float64(mainSpacing)
	return &Graph{
		maxLinkSq: d * d,
		worlds:    map[string]*worldNodes{},
	}
}

func (g *Graph) world(id string) *worldNodes {
	w := g.worlds[id]
	if w == nil {
		w = &worldNodes{
			byKey: map[string]*modelpkg.RoadNode{},
			col:   map[int][]string{},
			row:   map[int][]string{},
		}
		g.worlds[id] = w
	}
	return w
}

// Node looks up a node by world and position.
func (g *Graph) Node(world string, x, z int) (*modelpkg.RoadNode, bool) {
	w := g.worlds[world]
	if w == nil {
		return nil, false
	}
	n, ok := w.byKey[ids.NodeKey(world, x, z)]
	return n, ok
}

// Ensure returns the node at (x,z), creating and linking it on first call.
// The bool is true only for the call that created the node.
func (g *Graph) Ensure(world string, x, y, z int, tier modelpkg.Tier) (*modelpkg.RoadNode, bool) {
	w := g.world(world)
	key := ids.NodeKey(world, x, z)
	if n, ok := w.byKey[key]; ok {
		return n, false
	}
	n := &modelpkg.RoadNode{World: world, X: x, Y: y, Z: z, Tier: tier}
	w.byKey[key] = n

	for _, cand := range append(append([]string(nil), w.col[x]...), w.row[z]...) {
		other := w.byKey[cand]
		if other == nil || !g.linkable(n, other) {
			continue
		}
		link(n, key, other, cand)
	}
	w.col[x] = append(w.col[x], key)
	w.row[z] = append(w.row[z], key)
	return n, true
}

func (g *Graph) linkable(a, b *modelpkg.RoadNode) bool {
	if a.X != b.X && a.Z != b.Z {
		return false
	}
	dx := float64(a.X - b.X)
	dz := float64(a.Z - b.Z)
	return dx*dx+dz*dz < g.maxLinkSq
}

func link(a *modelpkg.RoadNode, aKey string, b *modelpkg.RoadNode, bKey string) {
	a.Links = addKey(a.Links, bKey)
	b.Links = addKey(b.Links, aKey)
}

func addKey(keys []string, k string) []string {
	i := sort.SearchStrings(keys, k)
	if i < len(keys) && keys[i] == k {
		return keys
	}
	keys = append(keys, "")
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	return keys
}

// Linked returns the nodes linked to n.
func (g *Graph) Linked(n *modelpkg.RoadNode) []*modelpkg.RoadNode {
	w := g.worlds[n.World]
	if w == nil {
		return nil
	}
	out := make([]*modelpkg.RoadNode, 0, len(n.Links))
	for _, k := range n.Links {
		if o := w.byKey[k]; o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Nodes returns a world's nodes ordered by (x, z).
func (g *Graph) Nodes(world string) []*modelpkg.RoadNode {
	w := g.worlds[world]
	if w == nil {
		return nil
	}
	out := make([]*modelpkg.RoadNode, 0, len(w.byKey))
	for _, n := range w.byKey {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Nearest returns the node closest to (x,z) horizontally.
func (g *Graph) Nearest(world string, x, z int) (*modelpkg.RoadNode, bool) {
	var best *modelpkg.RoadNode
	var bestD int64
	p := modelpkg.Vec3i{X: x, Z: z}
	for _, n := range g.Nodes(world) {
		d := modelpkg.DistSqXZ(p, modelpkg.Vec3i{X: n.X, Z: n.Z})
		if best == nil || d < bestD {
			best, bestD = n, d
		}
	}
	return best, best != nil
}

func (g *Graph) Len(world string) int {
	if w := g.worlds[world]; w != nil {
		return len(w.byKey)
	}
	return 0
}

// Restore loads persisted nodes. Stored links are made symmetric; links
// that do not parse, point at another world or at the node itself are
// dropped. Nodes already present are left untouched.
func (g *Graph) Restore(nodes []modelpkg.RoadNode) int {
	added := 0
	for i := range nodes {
		src := nodes[i]
		w := g.world(src.World)
		key := ids.NodeKey(src.World, src.X, src.Z)
		if _, ok := w.byKey[key]; ok {
			continue
		}
		n := src
		n.Links = nil
		for _, k := range src.Links {
			lw, lx, lz, ok := ids.ParseNodeKey(k)
			if !ok || lw != src.World || (lx == src.X && lz == src.Z) {
				continue
			}
			n.Links = addKey(n.Links, k)
		}
		w.byKey[key] = &n
		w.col[n.X] = append(w.col[n.X], key)
		w.row[n.Z] = append(w.row[n.Z], key)
		added++
	}
	for _, w := range g.worlds {
		for key, n := range w.byKey {
			for _, k := range n.Links {
				if o := w.byKey[k]; o != nil {
					o.Links = addKey(o.Links, key)
				}
			}
		}
	}
	return added
}
