package world

import (
	"container/heap"

	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

type taskKind uint8

const (
	taskRoads taskKind = iota
	taskBiome
	taskStructures
)

func (k taskKind) String() string {
	switch k {
	case taskRoads:
		return "roads"
	case taskBiome:
		return "biome"
	default:
		return "structures"
	}
}

type task struct {
	due  uint64
	seq  uint64
	kind taskKind

	// Tile origin for roads and biome tasks.
	x0, z0 int

	node *modelpkg.RoadNode
}

// taskQueue is a min-heap on (due, seq).
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x any)   { *q = append(*q, x.(*task)) }
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

type scheduler struct {
	q   taskQueue
	seq uint64
}

func (s *scheduler) schedule(t *task) {
	s.seq++
	t.seq = s.seq
	heap.Push(&s.q, t)
}

// popDue removes and returns the next task due at or before now.
func (s *scheduler) popDue(now uint64) (*task, bool) {
	if len(s.q) == 0 || s.q[0].due > now {
		return nil, false
	}
	return heap.Pop(&s.q).(*task), true
}

func (s *scheduler) pending() int { return len(s.q) }
