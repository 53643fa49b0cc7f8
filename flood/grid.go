package flood

import (
	"math"

	"github.com/space-wizards/space-station-14-sub095/tile"
)

// maxFreeDelay caps the iterations a blocker can hold out before it counts as indestructible
const maxFreeDelay = 1 << 20

// TileData describes the blockers anchored on one grid tile
type TileData struct {
	// Intensity each blocker withstands, one entry per effect type
	Tolerance []float32

	// Sides through which the flood cannot pass
	BlockedDirections tile.Direction
}

// Grid is the tile-existence and coordinate query a GridFlood runs against
type Grid interface {
	// HasTile reports whether the grid has a (non-space) tile at t
	HasTile(t tile.Index) bool

	// ToSpace converts a grid-local index to space coordinates
	ToSpace(t tile.Index) tile.Index
}

// GridParams configures a GridFlood
type GridParams struct {
	// Intensity gained per iteration; blockers give way after Tolerance/IntensityStep iterations
	IntensityStep float32

	// Which Tolerance entry applies to this effect
	ToleranceIndex int

	// Blockers tougher than this never give way; <= 0 means uncapped
	MaxIntensity float32

	Options Options
}

// GridFlood floods the tiles of one grid
// Stepping onto an index the grid has no tile at hands the flood to space via SpaceJump
type GridFlood struct {
	*TileFlood

	ID   GridID
	Grid Grid

	// Space tiles reached during the last AddNewTiles, in space coordinates
	SpaceJump Jump

	airtight map[tile.Index]TileData
	params   GridParams
}

// NewGridFlood creates a flood over g using airtight as the blocker map
func NewGridFlood(id GridID, g Grid, airtight map[tile.Index]TileData, params GridParams) *GridFlood {
	if airtight == nil {
		airtight = make(map[tile.Index]TileData)
	}
	params.Options = params.Options.normalized()

	f := &GridFlood{
		ID:        id,
		Grid:      g,
		SpaceJump: make(Jump),
		airtight:  airtight,
		params:    params,
	}
	f.TileFlood = NewTileFlood(f)
	return f
}

// InitTile seeds iteration 0 with origin
func (f *GridFlood) InitTile(origin tile.Index) {
	f.ProcessNewTile(0, origin, tile.Invalid)
	f.store(0)
}

// AddNewTiles builds iteration from earlier iterations plus tiles arriving from space
// Returns the number of grid tiles recorded at iteration
func (f *GridFlood) AddNewTiles(iteration int, gridJump Jump) int {
	f.SpaceJump = make(Jump)
	return f.addNewTiles(iteration, f.params.Options, gridJump)
}

// GetUnblockedDirectionOrAll returns the open sides of t, All when t has no blocker
func (f *GridFlood) GetUnblockedDirectionOrAll(t tile.Index) tile.Direction {
	data, ok := f.airtight[t]
	if !ok {
		return tile.All
	}
	return ^data.BlockedDirections & tile.All
}

// ProcessNewTile classifies t as space, free or blocked and records it
func (f *GridFlood) ProcessNewTile(iteration int, t tile.Index, entry tile.Direction) {
	if !f.Grid.HasTile(t) {
		// Sides arriving in the same step merge into one hand-over
		st := f.Grid.ToSpace(t)
		if _, pending := f.SpaceJump[st]; pending || f.ProcessedTiles.Add(t) {
			f.SpaceJump.Put(st, entry)
		}
		return
	}

	data, ok := f.airtight[t]
	if !ok || data.BlockedDirections == tile.Invalid {
		if f.ProcessedTiles.Add(t) {
			f.newTiles = append(f.newTiles, t)
		}
		return
	}

	if f.EnteredBlockedTiles.Contains(t) {
		return
	}

	// Every side the flood arrives through is blocked: the blocker absorbs it from outside
	if entry != tile.Invalid && data.BlockedDirections.IsFlagSet(entry) {
		if !f.UnenteredBlockedTiles.Add(t) {
			return
		}
		f.ProcessedTiles.Add(t)
		f.newBlockedTiles = append(f.newBlockedTiles, t)
		f.scheduleFree(iteration, t, data)
		return
	}

	// At least one open side: the flood gets in and leaves through the open sides next iteration
	f.EnteredBlockedTiles.Add(t)
	f.newEntered = append(f.newEntered, t)
	if f.UnenteredBlockedTiles.Contains(t) {
		return
	}
	f.ProcessedTiles.Add(t)
	f.newBlockedTiles = append(f.newBlockedTiles, t)
	f.scheduleFree(iteration, t, data)
}

// scheduleFree queues t to give way once the flood has outlasted its tolerance
func (f *GridFlood) scheduleFree(iteration int, t tile.Index, data TileData) {
	delay, ok := f.freeDelay(data)
	if !ok {
		return
	}
	f.free(iteration+delay, t)
}

// freeDelay converts a tolerance into whole iterations; ok=false means the blocker never breaks
func (f *GridFlood) freeDelay(data TileData) (int, bool) {
	if f.params.IntensityStep <= 0 {
		return 0, false
	}
	idx := f.params.ToleranceIndex
	if idx < 0 || idx >= len(data.Tolerance) {
		return 0, false
	}

	tol := float64(data.Tolerance[idx])
	if math.IsNaN(tol) || math.IsInf(tol, 1) {
		return 0, false
	}
	if f.params.MaxIntensity > 0 && tol > float64(f.params.MaxIntensity) {
		return 0, false
	}

	steps := math.Ceil(tol / float64(f.params.IntensityStep))
	if steps > maxFreeDelay {
		return 0, false
	}
	return max(1, int(steps)), true
}
