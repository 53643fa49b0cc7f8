package flood

import (
	"slices"

	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Options sets how many iterations one orthogonal and one diagonal step cost
// 1/1 makes iteration k the Chebyshev ring k; 2/3 approximates Euclidean distance in half steps
type Options struct {
	AdjacentDelay int
	DiagonalDelay int
}

// DefaultOptions expands one ring per iteration
func DefaultOptions() Options {
	return Options{AdjacentDelay: 1, DiagonalDelay: 1}
}

// HalfStepOptions charges 2 iterations per orthogonal step and 3 per diagonal step
func HalfStepOptions() Options {
	return Options{AdjacentDelay: 2, DiagonalDelay: 3}
}

// normalized clamps delays to at least one iteration
func (o Options) normalized() Options {
	if o.AdjacentDelay < 1 {
		o.AdjacentDelay = 1
	}
	if o.DiagonalDelay < 1 {
		o.DiagonalDelay = 1
	}
	return o
}

// MaxDelay returns the larger of the two delays
func (o Options) MaxDelay() int {
	o = o.normalized()
	return max(o.AdjacentDelay, o.DiagonalDelay)
}

// GridID identifies one grid among those a flood can touch
type GridID uint32

// Jump carries tiles handed from one domain to another with the sides they enter through
type Jump map[tile.Index]tile.Direction

// Put records t, merging entry sides when t is already present
func (j Jump) Put(t tile.Index, entry tile.Direction) {
	j[t] |= entry
}

// Sorted returns the jump tiles in a stable order
func (j Jump) Sorted() []tile.Index {
	if len(j) == 0 {
		return nil
	}
	out := make([]tile.Index, 0, len(j))
	for t := range j {
		out = append(out, t)
	}
	slices.SortFunc(out, tile.Compare)
	return out
}
