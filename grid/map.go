package grid

import (
	"fmt"
	"math"
	"slices"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Entity is an object anchored to a grid tile
type Entity struct {
	ID   uint32
	Name string

	// Airtight entities block the flood through BlockedDirections
	Airtight          bool
	BlockedDirections tile.Direction

	// Intensity withstood per effect type; nil means indestructible
	Tolerance []float32
}

// Tile is one floor tile and everything anchored to it
type Tile struct {
	Anchored []Entity
}

// Map is a sparse set of tiles placed at an integer offset in space
type Map struct {
	ID     flood.GridID
	Offset tile.Index

	tiles map[tile.Index]*Tile
}

var _ flood.Grid = (*Map)(nil)

// NewMap creates an empty grid whose local (0,0) sits at offset in space
func NewMap(id flood.GridID, offset tile.Index) *Map {
	return &Map{
		ID:     id,
		Offset: offset,
		tiles:  make(map[tile.Index]*Tile),
	}
}

// SetTile lays a floor tile at t, returning the existing one if present
func (m *Map) SetTile(t tile.Index) *Tile {
	if existing, ok := m.tiles[t]; ok {
		return existing
	}
	nt := &Tile{}
	m.tiles[t] = nt
	return nt
}

// RemoveTile deletes t and its anchored entities
func (m *Map) RemoveTile(t tile.Index) bool {
	if _, ok := m.tiles[t]; !ok {
		return false
	}
	delete(m.tiles, t)
	return true
}

// Anchor attaches e to the tile at t
func (m *Map) Anchor(t tile.Index, e Entity) error {
	tl, ok := m.tiles[t]
	if !ok {
		return fmt.Errorf("anchor %q at %v on grid %d: %w", e.Name, t, m.ID, ErrNoTile)
	}
	tl.Anchored = append(tl.Anchored, e)
	return nil
}

// HasTile reports whether a floor tile exists at t
func (m *Map) HasTile(t tile.Index) bool {
	_, ok := m.tiles[t]
	return ok
}

// EnumerateAnchoredEntities returns the entities anchored at t in anchoring order
func (m *Map) EnumerateAnchoredEntities(t tile.Index) []Entity {
	tl, ok := m.tiles[t]
	if !ok {
		return nil
	}
	return tl.Anchored
}

// GetBlockedDirections merges the blocked sides of every airtight entity at t
func (m *Map) GetBlockedDirections(t tile.Index) tile.Direction {
	blocked := tile.Invalid
	for _, e := range m.EnumerateAnchoredEntities(t) {
		if e.Airtight {
			blocked |= e.BlockedDirections
		}
	}
	return blocked
}

// AirtightMap builds the blocker data a flood runs against
// Tolerances of stacked entities add up per effect type; one indestructible entity makes the
// whole tile indestructible, and an entry missing from any entity counts as unbreakable
func (m *Map) AirtightMap() map[tile.Index]flood.TileData {
	out := make(map[tile.Index]flood.TileData)
	for t := range m.tiles {
		data, ok := m.tileData(t)
		if ok {
			out[t] = data
		}
	}
	return out
}

func (m *Map) tileData(t tile.Index) (flood.TileData, bool) {
	var (
		data           flood.TileData
		found          bool
		indestructible bool
		sums           []float32
		width          int
	)

	entities := m.EnumerateAnchoredEntities(t)
	for _, e := range entities {
		if !e.Airtight || e.BlockedDirections == tile.Invalid {
			continue
		}
		found = true
		data.BlockedDirections |= e.BlockedDirections
		if e.Tolerance == nil {
			indestructible = true
		}
		width = max(width, len(e.Tolerance))
	}
	if !found {
		return data, false
	}
	if indestructible {
		return data, true
	}

	sums = make([]float32, width)
	for _, e := range entities {
		if !e.Airtight || e.BlockedDirections == tile.Invalid {
			continue
		}
		for i := range sums {
			if i >= len(e.Tolerance) {
				sums[i] = float32(math.Inf(1))
				continue
			}
			sums[i] += e.Tolerance[i]
		}
	}
	data.Tolerance = sums
	return data, true
}

// ToSpace converts a local index to space coordinates
func (m *Map) ToSpace(t tile.Index) tile.Index {
	return t.Add(m.Offset)
}

// FromSpace converts a space index to local coordinates
func (m *Map) FromSpace(t tile.Index) tile.Index {
	return t.Sub(m.Offset)
}

// Len returns the number of floor tiles
func (m *Map) Len() int {
	return len(m.tiles)
}

// Tiles returns every local tile index, row-major from the bottom row
func (m *Map) Tiles() []tile.Index {
	out := make([]tile.Index, 0, len(m.tiles))
	for t := range m.tiles {
		out = append(out, t)
	}
	slices.SortFunc(out, tile.Compare)
	return out
}

// Bounds returns the inclusive local bounding box; ok is false for an empty grid
func (m *Map) Bounds() (lo, hi tile.Index, ok bool) {
	for t := range m.tiles {
		if !ok {
			lo, hi, ok = t, t, true
			continue
		}
		lo.X, lo.Y = min(lo.X, t.X), min(lo.Y, t.Y)
		hi.X, hi.Y = max(hi.X, t.X), max(hi.Y, t.Y)
	}
	return lo, hi, ok
}
