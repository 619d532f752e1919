package store

import genpkg "wastelands.ai/internal/sim/world/terrain/gen"

// GenerateChunk fills a fresh chunk from the base generator. Without a
// generator the chunk stays empty (all air).
func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	g := s.Gen.Gen
	if g == nil {
		return
	}
	m := s.Gen.Mat
	water := g.WaterLevel()
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			h := g.Height(wx, wz)
			biome := g.Biome(wx, wz)

			top, fill := m.Grass, m.Dirt
			if biome == genpkg.BiomeDesert {
				top, fill = m.Sand, m.Sand
			}
			if h < water {
				top = fill
			}
			for y := s.Gen.MinY; y < s.Gen.MaxY; y++ {
				b := m.Air
				switch {
				case y == s.Gen.MinY:
					b = m.Bedrock
				case y < h-3:
					b = m.Stone
				case y < h:
					b = fill
				case y == h:
					b = top
				case y <= water:
					b = m.Water
				case y == h+1 && top == m.Grass && g.Sprinkle(wx, wz, s.Gen.SprinklePermille):
					b = m.TallGrass
				}
				if b != m.Air {
					ch.Blocks[ch.index(x, y-s.Gen.MinY, z)] = b
				}
			}
		}
	}
}
