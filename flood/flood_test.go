package flood

import (
	"slices"
	"testing"

	"github.com/space-wizards/space-station-14-sub095/tile"
)

type processCall struct {
	iteration int
	t         tile.Index
	entry     tile.Direction
}

// recordingDomain returns configured open sides and records every ProcessNewTile call
type recordingDomain struct {
	free  map[tile.Index]tile.Direction
	calls []processCall
}

func newRecordingDomain() *recordingDomain {
	return &recordingDomain{free: make(map[tile.Index]tile.Direction)}
}

func (d *recordingDomain) GetUnblockedDirectionOrAll(t tile.Index) tile.Direction {
	if f, ok := d.free[t]; ok {
		return f
	}
	return tile.All
}

func (d *recordingDomain) ProcessNewTile(iteration int, t tile.Index, entry tile.Direction) {
	d.calls = append(d.calls, processCall{iteration, t, entry})
}

func (d *recordingDomain) callFor(t tile.Index) (processCall, int) {
	var found processCall
	n := 0
	for _, c := range d.calls {
		if c.t == t {
			found = c
			n++
		}
	}
	return found, n
}

// TestDiagonalCornerLeak verifies a diagonal needs both legs of one orthogonal path open
func TestDiagonalCornerLeak(t *testing.T) {
	origin := tile.Index{X: 0, Y: 0}
	d := newRecordingDomain()
	d.free[origin] = tile.North
	d.free[origin.Offset(tile.North)] = tile.West // open West, closed toward SouthEast
	d.free[origin.Offset(tile.East)] = tile.Invalid

	f := NewTileFlood(d)
	f.AddNewDiagonalTiles(1, []tile.Index{origin}, false)

	if _, n := d.callFor(origin.Offset(tile.NorthEast)); n != 0 {
		t.Errorf("NorthEast reached through a closed corner (%d calls)", n)
	}
	if len(d.calls) != 0 {
		t.Errorf("Expected no diagonal tiles, got %v", d.calls)
	}
}

// TestDiagonalSinglePathOpen verifies one open orthogonal path is enough
func TestDiagonalSinglePathOpen(t *testing.T) {
	origin := tile.Index{X: 0, Y: 0}
	d := newRecordingDomain()
	d.free[origin] = tile.North
	d.free[origin.Offset(tile.North)] = tile.South | tile.East
	d.free[origin.Offset(tile.East)] = tile.Invalid

	f := NewTileFlood(d)
	f.AddNewDiagonalTiles(1, []tile.Index{origin}, false)

	call, n := d.callFor(origin.Offset(tile.NorthEast))
	if n != 1 {
		t.Fatalf("Expected NorthEast processed once, got %d", n)
	}
	if call.entry != tile.West {
		t.Errorf("Expected entry West, got %v", call.entry)
	}
}

// TestDiagonalEntryFlagsDoNotLeak verifies each diagonal gets only its own entry sides
func TestDiagonalEntryFlagsDoNotLeak(t *testing.T) {
	origin := tile.Index{X: 0, Y: 0}
	d := newRecordingDomain()
	d.free[origin] = tile.North | tile.East
	d.free[origin.Offset(tile.East)] = tile.Invalid

	f := NewTileFlood(d)
	f.AddNewDiagonalTiles(3, []tile.Index{origin}, false)

	ne, n := d.callFor(origin.Offset(tile.NorthEast))
	if n != 1 || ne.entry != tile.West {
		t.Errorf("NorthEast: calls=%d entry=%v, want 1 West", n, ne.entry)
	}
	nw, n := d.callFor(origin.Offset(tile.NorthWest))
	if n != 1 || nw.entry != tile.East {
		t.Errorf("NorthWest: calls=%d entry=%v, want 1 East", n, nw.entry)
	}
	if len(d.calls) != 2 {
		t.Errorf("Expected 2 diagonal calls, got %v", d.calls)
	}
	for _, c := range d.calls {
		if c.iteration != 3 {
			t.Errorf("Call for %v at iteration %d, want 3", c.t, c.iteration)
		}
	}
}

// TestDiagonalOpenEntryCombines verifies both paths OR into a single call per diagonal
func TestDiagonalOpenEntryCombines(t *testing.T) {
	origin := tile.Index{X: 4, Y: -2}
	d := newRecordingDomain()

	f := NewTileFlood(d)
	f.AddNewDiagonalTiles(1, []tile.Index{origin}, false)

	want := map[tile.Direction]tile.Direction{
		tile.NorthEast: tile.West | tile.South,
		tile.NorthWest: tile.East | tile.South,
		tile.SouthEast: tile.West | tile.North,
		tile.SouthWest: tile.East | tile.North,
	}
	if len(d.calls) != 4 {
		t.Fatalf("Expected 4 calls, got %d", len(d.calls))
	}
	for dir, entry := range want {
		call, n := d.callFor(origin.Offset(dir))
		if n != 1 || call.entry != entry {
			t.Errorf("%v: calls=%d entry=%v, want 1 %v", dir, n, call.entry, entry)
		}
	}
}

// TestDiagonalIgnoreLocalBlocker verifies the source's own blocker is skipped
func TestDiagonalIgnoreLocalBlocker(t *testing.T) {
	origin := tile.Index{X: 0, Y: 0}
	d := newRecordingDomain()
	d.free[origin] = tile.Invalid

	f := NewTileFlood(d)
	f.AddNewDiagonalTiles(1, []tile.Index{origin}, false)
	if len(d.calls) != 0 {
		t.Fatalf("Blocked source produced %d calls", len(d.calls))
	}

	f.AddNewDiagonalTiles(1, []tile.Index{origin}, true)
	if len(d.calls) != 4 {
		t.Errorf("Expected 4 calls ignoring local blocker, got %d", len(d.calls))
	}
}

// TestAdjacentEntryIsOpposite verifies orthogonal steps enter through the facing side
func TestAdjacentEntryIsOpposite(t *testing.T) {
	origin := tile.Index{X: 0, Y: 0}
	d := newRecordingDomain()
	d.free[origin] = tile.North | tile.West

	f := NewTileFlood(d)
	f.AddNewAdjacentTiles(1, []tile.Index{origin}, false)

	if len(d.calls) != 2 {
		t.Fatalf("Expected 2 calls, got %v", d.calls)
	}
	if c, _ := d.callFor(tile.Index{X: 0, Y: 1}); c.entry != tile.South {
		t.Errorf("North neighbour entered through %v, want South", c.entry)
	}
	if c, _ := d.callFor(tile.Index{X: -1, Y: 0}); c.entry != tile.East {
		t.Errorf("West neighbour entered through %v, want East", c.entry)
	}
}

// TestCleanUpMerge verifies blocked tiles are appended and the blocked lists kept
func TestCleanUpMerge(t *testing.T) {
	f := NewTileFlood(newRecordingDomain())
	f.TileLists[2] = []tile.Index{{X: 5, Y: 5}}
	f.BlockedTileLists[2] = []tile.Index{{X: 6, Y: 5}}
	f.BlockedTileLists[3] = []tile.Index{{X: 7, Y: 5}}

	f.CleanUp()

	want := []tile.Index{{X: 5, Y: 5}, {X: 6, Y: 5}}
	if !slices.Equal(f.TileLists[2], want) {
		t.Errorf("TileLists[2] = %v, want %v", f.TileLists[2], want)
	}
	if !slices.Equal(f.TileLists[3], []tile.Index{{X: 7, Y: 5}}) {
		t.Errorf("TileLists[3] = %v, want blocked-only iteration created", f.TileLists[3])
	}
	if !slices.Equal(f.BlockedTileLists[2], []tile.Index{{X: 6, Y: 5}}) {
		t.Errorf("BlockedTileLists[2] modified: %v", f.BlockedTileLists[2])
	}
}

// TestCleanUpTwiceDuplicates documents that CleanUp is not re-entrant
func TestCleanUpTwiceDuplicates(t *testing.T) {
	f := NewTileFlood(newRecordingDomain())
	f.TileLists[2] = []tile.Index{{X: 5, Y: 5}}
	f.BlockedTileLists[2] = []tile.Index{{X: 6, Y: 5}}

	f.CleanUp()
	f.CleanUp()

	if len(f.TileLists[2]) != 3 {
		t.Errorf("Expected duplicated merge of 3 tiles, got %v", f.TileLists[2])
	}
}

// TestIterationsSorted verifies consumers can walk rings in order
func TestIterationsSorted(t *testing.T) {
	f := NewTileFlood(newRecordingDomain())
	for _, k := range []int{4, 0, 2, 1} {
		f.TileLists[k] = []tile.Index{{X: int32(k)}}
	}
	if got := f.Iterations(); !slices.Equal(got, []int{0, 1, 2, 4}) {
		t.Errorf("Iterations() = %v", got)
	}
}

// TestJumpPutMerges verifies entry sides accumulate per tile
func TestJumpPutMerges(t *testing.T) {
	j := make(Jump)
	p := tile.Index{X: 1, Y: 1}
	j.Put(p, tile.West)
	j.Put(p, tile.North)
	j.Put(tile.Index{X: 0, Y: 0}, tile.Invalid)

	if j[p] != tile.West|tile.North {
		t.Errorf("Expected merged West|North, got %v", j[p])
	}
	if got := j.Sorted(); len(got) != 2 || got[0] != (tile.Index{X: 0, Y: 0}) {
		t.Errorf("Sorted() = %v", got)
	}
}
