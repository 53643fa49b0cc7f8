package indexset

import "github.com/space-wizards/space-station-14-sub095/tile"

// chunk holds one bit per tile of a 32×32 block
// Word x%32 holds column x, bit y%32 holds row y within it
type chunk [tile.ChunkSize]uint32

// Set is a membership set for tile indices on an unbounded plane
// Chunks are allocated on first Add; absent chunks read as empty
type Set struct {
	chunks map[tile.ChunkIndex]*chunk
	count  int
}

// New creates an empty Set
func New() *Set {
	return &Set{
		chunks: make(map[tile.ChunkIndex]*chunk),
	}
}

// ToChunkIndex returns the chunk owning index
func (s *Set) ToChunkIndex(index tile.Index) tile.ChunkIndex {
	return tile.ToChunkIndex(index)
}

// Add inserts index, returns true only on first insertion
func (s *Set) Add(index tile.Index) bool {
	ci := tile.ToChunkIndex(index)
	c, ok := s.chunks[ci]
	if !ok {
		c = new(chunk)
		s.chunks[ci] = c
	}

	x := tile.EuclidMod(index.X, tile.ChunkSize)
	bit := uint32(1) << uint32(tile.EuclidMod(index.Y, tile.ChunkSize))

	if c[x]&bit != 0 {
		return false
	}
	c[x] |= bit
	s.count++
	return true
}

// Contains reports membership without allocating
func (s *Set) Contains(index tile.Index) bool {
	c, ok := s.chunks[tile.ToChunkIndex(index)]
	if !ok {
		return false
	}

	x := tile.EuclidMod(index.X, tile.ChunkSize)
	bit := uint32(1) << uint32(tile.EuclidMod(index.Y, tile.ChunkSize))
	return c[x]&bit != 0
}

// Len returns the number of members
func (s *Set) Len() int {
	return s.count
}

// Chunks returns the number of allocated chunks
func (s *Set) Chunks() int {
	return len(s.chunks)
}
