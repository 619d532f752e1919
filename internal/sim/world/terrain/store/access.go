package store

import (
	"sort"

	"wastelands.ai/internal/sim/world/logic/mathx"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	return y >= s.Gen.MinY && y < s.Gen.MaxY
}

func (s *ChunkStore) MinY() int { return s.Gen.MinY }
func (s *ChunkStore) MaxY() int { return s.Gen.MaxY }

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	if !s.InBounds(x, y, z) {
		return s.Gen.Mat.Air
	}
	cx := mathx.FloorDiv(x, ChunkSize)
	cz := mathx.FloorDiv(z, ChunkSize)
	ch, _ := s.GetOrGenChunk(cx, cz)
	return ch.Get(mathx.Mod(x, ChunkSize), y-s.Gen.MinY, mathx.Mod(z, ChunkSize))
}

func (s *ChunkStore) SetBlock(x, y, z int, b uint16) {
	if !s.InBounds(x, y, z) {
		return
	}
	cx := mathx.FloorDiv(x, ChunkSize)
	cz := mathx.FloorDiv(z, ChunkSize)
	ch, _ := s.GetOrGenChunk(cx, cz)
	ch.Set(mathx.Mod(x, ChunkSize), y-s.Gen.MinY, mathx.Mod(z, ChunkSize), b)
}

// GetOrGenChunk returns the chunk at (cx,cz), generating it on first access.
// The bool reports whether the chunk was generated by this call.
func (s *ChunkStore) GetOrGenChunk(cx, cz int) (*Chunk, bool) {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch, false
	}
	h := s.height()
	ch := &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: h,
		Blocks: make([]uint16, ChunkSize*ChunkSize*h),
	}
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch, true
}

func (s *ChunkStore) prop(table []bool, b uint16) bool {
	return int(b) < len(table) && table[b]
}

func (s *ChunkStore) IsSolid(b uint16) bool   { return s.prop(s.Gen.Props.Solid, b) }
func (s *ChunkStore) IsLiquid(b uint16) bool  { return s.prop(s.Gen.Props.Liquid, b) }
func (s *ChunkStore) IsFoliage(b uint16) bool { return s.prop(s.Gen.Props.Foliage, b) }

// HeightAt finds the highest solid block of a column. Foliage, liquids
// and other non-solid blocks are skipped.
func (s *ChunkStore) HeightAt(x, z int) (int, bool) {
	for y := s.Gen.MaxY - 1; y >= s.Gen.MinY; y-- {
		b := s.GetBlock(x, y, z)
		if s.IsSolid(b) && !s.IsFoliage(b) {
			return y, true
		}
	}
	return 0, false
}

// TopAt returns the highest non-air block of a column.
func (s *ChunkStore) TopAt(x, z int) (int, bool) {
	for y := s.Gen.MaxY - 1; y >= s.Gen.MinY; y-- {
		if s.GetBlock(x, y, z) != s.Gen.Mat.Air {
			return y, true
		}
	}
	return 0, false
}

func (s *ChunkStore) BiomeAt(x, z int) string {
	if s.Gen.Gen == nil {
		return ""
	}
	return s.Gen.Gen.Biome(x, z)
}
