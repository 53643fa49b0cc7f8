package grid

import (
	"errors"
	"fmt"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

var (
	ErrNoTile        = errors.New("no tile")
	ErrDuplicateGrid = errors.New("duplicate grid id")
)

// Set holds every grid a flood can reach and locates them from space coordinates
// Grids are looked up in insertion order; on overlap the earliest grid wins
type Set struct {
	maps  map[flood.GridID]*Map
	order []flood.GridID
}

var _ flood.GridLocator = (*Set)(nil)

// NewSet creates an empty Set
func NewSet() *Set {
	return &Set{maps: make(map[flood.GridID]*Map)}
}

// Add registers m
func (s *Set) Add(m *Map) error {
	if _, ok := s.maps[m.ID]; ok {
		return fmt.Errorf("grid %d: %w", m.ID, ErrDuplicateGrid)
	}
	s.maps[m.ID] = m
	s.order = append(s.order, m.ID)
	return nil
}

// Get returns the grid with id
func (s *Set) Get(id flood.GridID) (*Map, bool) {
	m, ok := s.maps[id]
	return m, ok
}

// Maps returns the grids in insertion order
func (s *Set) Maps() []*Map {
	out := make([]*Map, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.maps[id])
	}
	return out
}

// Len returns the number of grids
func (s *Set) Len() int {
	return len(s.order)
}

// GridAt finds the grid with a tile at space index t
func (s *Set) GridAt(t tile.Index) (flood.GridID, tile.Index, bool) {
	if s == nil {
		return 0, tile.Index{}, false
	}
	for _, id := range s.order {
		m := s.maps[id]
		local := m.FromSpace(t)
		if m.HasTile(local) {
			return id, local, true
		}
	}
	return 0, tile.Index{}, false
}
