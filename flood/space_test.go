package flood

import (
	"testing"

	"github.com/space-wizards/space-station-14-sub095/tile"
)

// halfPlane places grid 7 over every space tile with X >= 3
type halfPlane struct{}

func (halfPlane) GridAt(t tile.Index) (GridID, tile.Index, bool) {
	if t.X < 3 {
		return 0, tile.Index{}, false
	}
	return 7, t.Sub(tile.Index{X: 3}), true
}

// TestSpaceOpenRings verifies open space floods in Chebyshev rings
func TestSpaceOpenRings(t *testing.T) {
	f := NewSpaceFlood(tile.Index{}, nil, 0, DefaultOptions())
	f.InitTile(tile.Index{})

	for k := 1; k <= 4; k++ {
		if n := f.AddNewTiles(k, nil); n != 8*k {
			t.Errorf("Iteration %d added %d tiles, want %d", k, n, 8*k)
		}
	}
	if len(f.BlockedTileLists) != 0 {
		t.Errorf("Space recorded blocked tiles: %v", f.BlockedTileLists)
	}
}

// TestSpaceMaxDistance verifies tiles past the cutoff are dropped
func TestSpaceMaxDistance(t *testing.T) {
	f := NewSpaceFlood(tile.Index{X: 5, Y: 5}, nil, 1, DefaultOptions())
	f.InitTile(tile.Index{X: 5, Y: 5})

	if n := f.AddNewTiles(1, nil); n != 8 {
		t.Errorf("Iteration 1 added %d tiles, want 8", n)
	}
	if n := f.AddNewTiles(2, nil); n != 0 {
		t.Errorf("Iteration 2 added %d tiles past the cutoff", n)
	}
}

// TestSpaceToGridJump verifies grid-covered tiles are handed over in grid coordinates
func TestSpaceToGridJump(t *testing.T) {
	f := NewSpaceFlood(tile.Index{}, halfPlane{}, 0, DefaultOptions())
	f.InitTile(tile.Index{})

	f.AddNewTiles(1, nil)
	f.AddNewTiles(2, nil)
	if len(f.GridJump) != 0 {
		t.Fatalf("Unexpected grid hand-over before the grid edge: %v", f.GridJump)
	}

	n := f.AddNewTiles(3, nil)
	jump := f.GridJump[7]
	if len(jump) != 7 {
		t.Fatalf("Expected 7 tiles handed to grid 7, got %v", jump)
	}
	if n != 24-7 {
		t.Errorf("Iteration 3 recorded %d space tiles, want %d", n, 24-7)
	}
	entry, ok := jump[tile.Index{X: 0, Y: 0}]
	if !ok {
		t.Fatal("Missing local (0,0)")
	}
	if !entry.IsFlagSet(tile.West) {
		t.Errorf("Local (0,0) entered through %v, want West among sides", entry)
	}
	for local := range jump {
		if f.ProcessedTiles.Contains(local.Add(tile.Index{X: 3})) {
			t.Errorf("Grid-covered %v marked processed in space", local)
		}
	}
}

// TestSpaceAcceptsJump verifies tiles handed over by a grid seed new space rings
func TestSpaceAcceptsJump(t *testing.T) {
	f := NewSpaceFlood(tile.Index{}, nil, 0, DefaultOptions())

	n := f.AddNewTiles(4, Jump{{X: 10, Y: 10}: tile.West})
	if n != 1 {
		t.Fatalf("Expected the jump tile recorded, got %d", n)
	}
	if n := f.AddNewTiles(5, nil); n != 8 {
		t.Errorf("Expected 8 tiles around the jump tile, got %d", n)
	}
}
