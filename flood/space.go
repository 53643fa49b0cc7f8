package flood

import (
	"github.com/space-wizards/space-station-14-sub095/tile"
)

// GridLocator finds the grid, if any, covering a space tile
type GridLocator interface {
	GridAt(t tile.Index) (id GridID, local tile.Index, ok bool)
}

// SpaceFlood floods borderless space
// Stepping onto a tile covered by a grid hands the flood to that grid via GridJump
type SpaceFlood struct {
	*TileFlood

	Grids     GridLocator
	Epicenter tile.Index

	// Chebyshev distance from Epicenter beyond which space tiles are dropped; 0 = unbounded
	MaxDistance int32

	// Grid tiles reached during the last AddNewTiles, in each grid's local coordinates
	GridJump map[GridID]Jump

	opts Options
}

// NewSpaceFlood creates a space flood; grids may be nil when no grid is nearby
func NewSpaceFlood(epicenter tile.Index, grids GridLocator, maxDistance int32, opts Options) *SpaceFlood {
	f := &SpaceFlood{
		Grids:       grids,
		Epicenter:   epicenter,
		MaxDistance: maxDistance,
		GridJump:    make(map[GridID]Jump),
		opts:        opts.normalized(),
	}
	f.TileFlood = NewTileFlood(f)
	return f
}

// InitTile seeds iteration 0 with origin
func (f *SpaceFlood) InitTile(origin tile.Index) {
	f.ProcessedTiles.Add(origin)
	f.TileLists[0] = []tile.Index{origin}
}

// AddNewTiles builds iteration from earlier iterations plus tiles arriving from grids
// Returns the number of space tiles recorded at iteration
func (f *SpaceFlood) AddNewTiles(iteration int, spaceJump Jump) int {
	f.GridJump = make(map[GridID]Jump)
	return f.addNewTiles(iteration, f.opts, spaceJump)
}

// GetUnblockedDirectionOrAll is always All: space has no blockers
func (f *SpaceFlood) GetUnblockedDirectionOrAll(tile.Index) tile.Direction {
	return tile.All
}

// ProcessNewTile records t, or hands it to the grid covering it
func (f *SpaceFlood) ProcessNewTile(iteration int, t tile.Index, entry tile.Direction) {
	if f.MaxDistance > 0 && t.Chebyshev(f.Epicenter) > f.MaxDistance {
		return
	}

	if f.Grids != nil {
		if id, local, ok := f.Grids.GridAt(t); ok {
			j, exists := f.GridJump[id]
			if !exists {
				j = make(Jump)
				f.GridJump[id] = j
			}
			j.Put(local, entry)
			return
		}
	}

	if f.ProcessedTiles.Add(t) {
		f.newTiles = append(f.newTiles, t)
	}
}
