package tile

import (
	"cmp"
	"fmt"
)

// ChunkSize is the edge length of one membership chunk
const ChunkSize = 32

// Index addresses a tile on an unbounded plane
type Index struct {
	X, Y int32
}

// ChunkIndex addresses a ChunkSize×ChunkSize block of tiles
type ChunkIndex struct {
	X, Y int32
}

// Add returns the component-wise sum
func (i Index) Add(o Index) Index {
	return Index{X: i.X + o.X, Y: i.Y + o.Y}
}

// Sub returns the component-wise difference
func (i Index) Sub(o Index) Index {
	return Index{X: i.X - o.X, Y: i.Y - o.Y}
}

// Offset steps one tile in d; diagonals step on both axes
func (i Index) Offset(d Direction) Index {
	return i.Add(d.Vector())
}

// Chebyshev returns max(|dx|, |dy|) between i and o
func (i Index) Chebyshev(o Index) int32 {
	dx := i.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := i.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

func (i Index) String() string {
	return fmt.Sprintf("(%d,%d)", i.X, i.Y)
}

// ToChunkIndex maps a tile to its owning chunk using floor division
// (-1 lands in chunk -1, not 0)
func ToChunkIndex(i Index) ChunkIndex {
	return ChunkIndex{X: FloorDiv(i.X, ChunkSize), Y: FloorDiv(i.Y, ChunkSize)}
}

// FloorDiv divides rounding toward negative infinity
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EuclidMod returns a mod b in [0, |b|)
func EuclidMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		if b < 0 {
			m -= b
		} else {
			m += b
		}
	}
	return m
}

// Compare orders indices row-major, bottom row first
func Compare(a, b Index) int {
	if a.Y != b.Y {
		return cmp.Compare(a.Y, b.Y)
	}
	return cmp.Compare(a.X, b.X)
}
