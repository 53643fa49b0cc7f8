package floodfill

import (
	"slices"
	"time"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Result is a finished flood
type Result struct {
	// Tiles covered across every domain
	Area int

	// Intensity per tile of each iteration
	IterationIntensity []float32

	// Nil when the flood never reached space
	Space *flood.SpaceFlood

	Grids map[flood.GridID]*flood.GridFlood

	Epicenter tile.Index

	// "grid" or "space": where the epicenter tile was
	Origin string

	Elapsed time.Duration
}

// Ring is one iteration of a flood flattened into space coordinates
type Ring struct {
	Iteration int
	Intensity float32
	Tiles     []tile.Index
}

// Iterations returns the number of iterations with an intensity
func (r *Result) Iterations() int {
	return len(r.IterationIntensity)
}

// IntensityAt returns the per-tile intensity of iteration, 0 when out of range
func (r *Result) IntensityAt(iteration int) float32 {
	if iteration < 0 || iteration >= len(r.IterationIntensity) {
		return 0
	}
	return r.IterationIntensity[iteration]
}

// Tiles returns every tile of iteration in space coordinates, in row-major order
func (r *Result) Tiles(iteration int) []tile.Index {
	return collect(iteration, r.Space, r.Grids, false)
}

// Rings returns every iteration with its tiles, in order
func (r *Result) Rings() []Ring {
	rings := make([]Ring, 0, len(r.IterationIntensity))
	for it, intensity := range r.IterationIntensity {
		rings = append(rings, Ring{
			Iteration: it,
			Intensity: intensity,
			Tiles:     r.Tiles(it),
		})
	}
	return rings
}

// collect gathers one iteration from every flood; withBlocked adds blocked lists not yet merged
func collect(iteration int, space *flood.SpaceFlood, grids map[flood.GridID]*flood.GridFlood, withBlocked bool) []tile.Index {
	var out []tile.Index
	if space != nil {
		out = append(out, space.TileLists[iteration]...)
		if withBlocked {
			out = append(out, space.BlockedTileLists[iteration]...)
		}
	}
	for _, g := range grids {
		for _, t := range g.TileLists[iteration] {
			out = append(out, g.Grid.ToSpace(t))
		}
		if withBlocked {
			for _, t := range g.BlockedTileLists[iteration] {
				out = append(out, g.Grid.ToSpace(t))
			}
		}
	}
	slices.SortFunc(out, tile.Compare)
	return out
}
