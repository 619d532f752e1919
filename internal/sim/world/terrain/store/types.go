package store

import (
	"crypto/sha256"
	"encoding/binary"

	genpkg "wastelands.ai/internal/sim/world/terrain/gen"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CZ int
}

type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16 // len = 16*16*Height, y-major

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return (y*ChunkSize+z)*ChunkSize + x
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// Materials are palette ids the generator writes.
type Materials struct {
	Air       uint16
	Bedrock   uint16
	Stone     uint16
	Dirt      uint16
	Grass     uint16
	Sand      uint16
	Water     uint16
	TallGrass uint16
}

// BlockProps is a palette-indexed solidity table.
type BlockProps struct {
	Solid   []bool
	Liquid  []bool
	Foliage []bool
}

type WorldGen struct {
	MinY int
	MaxY int

	// Column vegetation density.
	SprinklePermille uint64

	Mat   Materials
	Props BlockProps
	Gen   *genpkg.Generator
}

type ChunkStore struct {
	Gen    WorldGen
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	return &ChunkStore{
		Gen:    gen,
		Chunks: map[ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) height() int { return s.Gen.MaxY - s.Gen.MinY }
