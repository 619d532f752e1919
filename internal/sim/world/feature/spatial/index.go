// Package spatial indexes placed structures by id, category, world and
// chunk bucket. The id map is canonical; every other view is derived from
// it on insert.
package spatial

import (
	"sort"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
	"wastelands.ai/internal/sim/world/logic/mathx"
)

const chunkSize = 16

type BucketKey struct {
	BX int
	BZ int
}

type worldView struct {
	all      map[BucketKey][]string
	outposts map[BucketKey][]string
	outList  []string

	// Largest X/Z extent seen, bounds the Containing search.
	maxExtent int
}

type Index struct {
	bucketChunks int

	byID   map[string]*modelpkg.Structure
	byType map[modelpkg.Category][]string
	worlds map[string]*worldView
}

// New builds an index whose buckets are bucketChunks x bucketChunks chunks.
func New(bucketChunks int) *Index {
	if bucketChunks <= 0 {
		bucketChunks = 1
	}
	return &Index{
		bucketChunks: bucketChunks,
		byID:         map[string]*modelpkg.Structure{},
		byType:       map[modelpkg.Category][]string{},
		worlds:       map[string]*worldView{},
	}
}

func (ix *Index) BucketSize() int { return ix.bucketChunks * chunkSize }

// BucketOf returns the bucket holding block column (x, z).
func (ix *Index) BucketOf(x, z int) BucketKey {
	return BucketKey{
		BX: mathx.FloorDiv(mathx.FloorDiv(x, chunkSize), ix.bucketChunks),
		BZ: mathx.FloorDiv(mathx.FloorDiv(z, chunkSize), ix.bucketChunks),
	}
}

func (ix *Index) view(world string) *worldView {
	v := ix.worlds[world]
	if v == nil {
		v = &worldView{
			all:      map[BucketKey][]string{},
			outposts: map[BucketKey][]string{},
		}
		ix.worlds[world] = v
	}
	return v
}

// Insert adds a structure. It returns false for an empty or already
// registered id; existing records are never overwritten.
func (ix *Index) Insert(s modelpkg.Structure) bool {
	if s.ID == "" {
		return false
	}
	if _, ok := ix.byID[s.ID]; ok {
		return false
	}
	rec := s
	ix.byID[s.ID] = &rec
	ix.byType[s.Category] = append(ix.byType[s.Category], s.ID)

	v := ix.view(s.World)
	b := ix.BucketOf(s.Origin.X, s.Origin.Z)
	v.all[b] = append(v.all[b], s.ID)
	ex, ez := rec.Extents()
	if ex > v.maxExtent {
		v.maxExtent = ex
	}
	if ez > v.maxExtent {
		v.maxExtent = ez
	}
	if rec.IsOutpost() {
		v.outposts[b] = append(v.outposts[b], s.ID)
		v.outList = append(v.outList, s.ID)
	}
	return true
}

func (ix *Index) Len() int { return len(ix.byID) }

func (ix *Index) ByID(id string) (modelpkg.Structure, bool) {
	s, ok := ix.byID[id]
	if !ok {
		return modelpkg.Structure{}, false
	}
	return *s, true
}

func (ix *Index) collect(ids []string) []modelpkg.Structure {
	out := make([]modelpkg.Structure, 0, len(ids))
	for _, id := range ids {
		if s := ix.byID[id]; s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// ByType returns structures of a category in insertion order.
func (ix *Index) ByType(c modelpkg.Category) []modelpkg.Structure {
	return ix.collect(ix.byType[c])
}

// ByWorld returns a world's trader outposts in insertion order.
func (ix *Index) ByWorld(world string) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil {
		return nil
	}
	return ix.collect(v.outList)
}

// ByChunkBucket returns the trader outposts registered in one bucket.
func (ix *Index) ByChunkBucket(world string, b BucketKey) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil {
		return nil
	}
	return ix.collect(v.outposts[b])
}

// Structures returns every structure of a world ordered by id.
func (ix *Index) Structures(world string) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil {
		return nil
	}
	var ids []string
	for _, b := range v.all {
		ids = append(ids, b...)
	}
	sort.Strings(ids)
	return ix.collect(ids)
}

func (ix *Index) Worlds() []string {
	out := make([]string, 0, len(ix.worlds))
	for w := range ix.worlds {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// scan visits ids in buckets overlapping [minX,maxX]x[minZ,maxZ].
func (ix *Index) scan(buckets map[BucketKey][]string, minX, minZ, maxX, maxZ int, fn func(s *modelpkg.Structure)) {
	lo := ix.BucketOf(minX, minZ)
	hi := ix.BucketOf(maxX, maxZ)
	for bx := lo.BX; bx <= hi.BX; bx++ {
		for bz := lo.BZ; bz <= hi.BZ; bz++ {
			for _, id := range buckets[BucketKey{BX: bx, BZ: bz}] {
				if s := ix.byID[id]; s != nil {
					fn(s)
				}
			}
		}
	}
}

func sortByDistance(out []modelpkg.Structure, p modelpkg.Vec3i) {
	sort.Slice(out, func(i, j int) bool {
		di := modelpkg.DistSqXZ(out[i].Origin, p)
		dj := modelpkg.DistSqXZ(out[j].Origin, p)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
}

// Near returns structures whose origin lies within radius (horizontal) of
// p, nearest first.
func (ix *Index) Near(world string, p modelpkg.Vec3i, radius int) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil || radius < 0 {
		return nil
	}
	r2 := int64(radius) * int64(radius)
	var out []modelpkg.Structure
	ix.scan(v.all, p.X-radius, p.Z-radius, p.X+radius, p.Z+radius, func(s *modelpkg.Structure) {
		if modelpkg.DistSqXZ(s.Origin, p) <= r2 {
			out = append(out, *s)
		}
	})
	sortByDistance(out, p)
	return out
}

// OutpostsNear is Near restricted to trader outposts.
func (ix *Index) OutpostsNear(world string, x, z, radius int) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil || radius < 0 {
		return nil
	}
	p := modelpkg.Vec3i{X: x, Z: z}
	r2 := int64(radius) * int64(radius)
	var out []modelpkg.Structure
	ix.scan(v.outposts, x-radius, z-radius, x+radius, z+radius, func(s *modelpkg.Structure) {
		if modelpkg.DistSqXZ(s.Origin, p) <= r2 {
			out = append(out, *s)
		}
	})
	sortByDistance(out, p)
	return out
}

// Containing returns structures whose rotated bounds contain p.
func (ix *Index) Containing(world string, p modelpkg.Vec3i) []modelpkg.Structure {
	v := ix.worlds[world]
	if v == nil {
		return nil
	}
	var out []modelpkg.Structure
	ix.scan(v.all, p.X-v.maxExtent, p.Z-v.maxExtent, p.X, p.Z, func(s *modelpkg.Structure) {
		if s.Contains(p) {
			out = append(out, *s)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinkQuest attaches a quest id to a structure.
func (ix *Index) LinkQuest(id, questID string) bool {
	s := ix.byID[id]
	if s == nil {
		return false
	}
	s.QuestID = questID
	return true
}

// SetOutpostOpen updates an outpost's open flag and reports whether it
// changed.
func (ix *Index) SetOutpostOpen(id string, open bool) bool {
	s := ix.byID[id]
	if s == nil || !s.IsOutpost() || s.Open == open {
		return false
	}
	s.Open = open
	return true
}
