package flood

import (
	"slices"

	"github.com/space-wizards/space-station-14-sub095/indexset"
	"github.com/space-wizards/space-station-14-sub095/tile"
	"github.com/zyedidia/generic/mapset"
)

// Domain supplies adjacency and blocking for one coordinate domain (a grid, or open space)
type Domain interface {
	// ProcessNewTile is called when t becomes reachable at iteration through the entry sides
	// Implementations must reject tiles already in ProcessedTiles
	ProcessNewTile(iteration int, t tile.Index, entry tile.Direction)

	// GetUnblockedDirectionOrAll returns the sides t lets the flood out through
	// Tiles unknown to the domain report All
	GetUnblockedDirectionOrAll(t tile.Index) tile.Direction
}

// TileFlood holds the per-iteration state of one flood in one domain
// Lifetime: InitTile once, AddNewTiles per iteration, CleanUp once, then read TileLists
type TileFlood struct {
	// Tiles freely reached, keyed by iteration
	TileLists map[int][]tile.Index

	// Tiles reached that carry a blocker, keyed by the iteration they were first reached
	BlockedTileLists map[int][]tile.Index

	// Blocked tiles whose blocker gives way at the keyed iteration
	FreedTileLists map[int]mapset.Set[tile.Index]

	ProcessedTiles        *indexset.Set
	UnenteredBlockedTiles *indexset.Set
	EnteredBlockedTiles   *indexset.Set

	// Blocked tiles entered through an open side, keyed by entry iteration
	enteredTileLists map[int][]tile.Index

	// Scratch for the iteration being built
	newTiles        []tile.Index
	newBlockedTiles []tile.Index
	newEntered      []tile.Index

	domain Domain
}

// NewTileFlood creates empty flood state bound to domain d
func NewTileFlood(d Domain) *TileFlood {
	return &TileFlood{
		TileLists:             make(map[int][]tile.Index),
		BlockedTileLists:      make(map[int][]tile.Index),
		FreedTileLists:        make(map[int]mapset.Set[tile.Index]),
		ProcessedTiles:        indexset.New(),
		UnenteredBlockedTiles: indexset.New(),
		EnteredBlockedTiles:   indexset.New(),
		enteredTileLists:      make(map[int][]tile.Index),
		domain:                d,
	}
}

// AddNewAdjacentTiles pushes the flood one step orthogonally out of every tile
func (f *TileFlood) AddNewAdjacentTiles(iteration int, tiles []tile.Index, ignoreLocalBlocker bool) {
	for _, t := range tiles {
		free := tile.All
		if !ignoreLocalBlocker {
			free = f.domain.GetUnblockedDirectionOrAll(t)
		}

		for _, dir := range tile.Cardinals {
			if free.IsFlagSet(dir) {
				f.domain.ProcessNewTile(iteration, t.Offset(dir), dir.Opposite())
			}
		}
	}
}

// AddNewDiagonalTiles pushes the flood one diagonal step out of every tile
// A diagonal is open only through one of its two orthogonal neighbours, and that neighbour must
// itself be open toward both t and the diagonal; a bare corner between two walls stays closed
func (f *TileFlood) AddNewDiagonalTiles(iteration int, tiles []tile.Index, ignoreLocalBlocker bool) {
	for _, t := range tiles {
		free := tile.All
		if !ignoreLocalBlocker {
			free = f.domain.GetUnblockedDirectionOrAll(t)
		}

		freeN := f.domain.GetUnblockedDirectionOrAll(t.Offset(tile.North))
		freeE := f.domain.GetUnblockedDirectionOrAll(t.Offset(tile.East))
		freeS := f.domain.GetUnblockedDirectionOrAll(t.Offset(tile.South))
		freeW := f.domain.GetUnblockedDirectionOrAll(t.Offset(tile.West))

		// North East
		entry := tile.Invalid
		if free.IsFlagSet(tile.North) && freeN.IsFlagSet(tile.SouthEast) {
			entry |= tile.West
		}
		if free.IsFlagSet(tile.East) && freeE.IsFlagSet(tile.NorthWest) {
			entry |= tile.South
		}
		if entry != tile.Invalid {
			f.domain.ProcessNewTile(iteration, t.Offset(tile.NorthEast), entry)
		}

		// North West
		entry = tile.Invalid
		if free.IsFlagSet(tile.North) && freeN.IsFlagSet(tile.SouthWest) {
			entry |= tile.East
		}
		if free.IsFlagSet(tile.West) && freeW.IsFlagSet(tile.NorthEast) {
			entry |= tile.South
		}
		if entry != tile.Invalid {
			f.domain.ProcessNewTile(iteration, t.Offset(tile.NorthWest), entry)
		}

		// South East
		entry = tile.Invalid
		if free.IsFlagSet(tile.South) && freeS.IsFlagSet(tile.NorthEast) {
			entry |= tile.West
		}
		if free.IsFlagSet(tile.East) && freeE.IsFlagSet(tile.SouthWest) {
			entry |= tile.North
		}
		if entry != tile.Invalid {
			f.domain.ProcessNewTile(iteration, t.Offset(tile.SouthEast), entry)
		}

		// South West
		entry = tile.Invalid
		if free.IsFlagSet(tile.South) && freeS.IsFlagSet(tile.NorthWest) {
			entry |= tile.East
		}
		if free.IsFlagSet(tile.West) && freeW.IsFlagSet(tile.SouthEast) {
			entry |= tile.North
		}
		if entry != tile.Invalid {
			f.domain.ProcessNewTile(iteration, t.Offset(tile.SouthWest), entry)
		}
	}
}

// CleanUp appends every blocked list onto the free list of the same iteration
// BlockedTileLists is left as is. Call exactly once: a second call appends again
func (f *TileFlood) CleanUp() {
	for iteration, blocked := range f.BlockedTileLists {
		f.TileLists[iteration] = append(f.TileLists[iteration], blocked...)
	}
}

// Iterations returns the keys of TileLists in ascending order
func (f *TileFlood) Iterations() []int {
	keys := make([]int, 0, len(f.TileLists))
	for k := range f.TileLists {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// TileCount returns the number of tiles recorded in either list family
func (f *TileFlood) TileCount() int {
	n := 0
	for _, l := range f.TileLists {
		n += len(l)
	}
	for _, l := range f.BlockedTileLists {
		n += len(l)
	}
	return n
}

// addNewTiles builds one iteration from earlier ones and the tiles handed over by another domain
// Returns the number of tiles recorded at iteration
func (f *TileFlood) addNewTiles(iteration int, opts Options, jump Jump) int {
	f.newTiles = nil
	f.newBlockedTiles = nil
	f.newEntered = nil

	// Blockers giving way this iteration: their tiles count as entered from now on
	if freed, ok := f.FreedTileLists[iteration]; ok {
		freed.Each(func(t tile.Index) {
			f.EnteredBlockedTiles.Add(t)
		})
	}

	f.expandFrom(iteration, iteration-opts.AdjacentDelay, f.AddNewAdjacentTiles)
	f.expandFrom(iteration, iteration-opts.DiagonalDelay, f.AddNewDiagonalTiles)

	for _, t := range jump.Sorted() {
		f.domain.ProcessNewTile(iteration, t, jump[t])
	}

	return f.store(iteration)
}

// expandFrom runs one expansion kind from the three source families of iteration source
func (f *TileFlood) expandFrom(iteration, source int, add func(int, []tile.Index, bool)) {
	if source < 0 {
		return
	}
	if tiles, ok := f.TileLists[source]; ok {
		add(iteration, tiles, false)
	}
	if entered, ok := f.enteredTileLists[source]; ok {
		add(iteration, entered, false)
	}
	if freed, ok := f.FreedTileLists[source]; ok && freed.Size() > 0 {
		add(iteration, sortedSet(freed), true)
	}
}

// store commits the scratch lists under iteration
func (f *TileFlood) store(iteration int) int {
	if len(f.newTiles) != 0 {
		f.TileLists[iteration] = f.newTiles
	}
	if len(f.newBlockedTiles) != 0 {
		f.BlockedTileLists[iteration] = f.newBlockedTiles
	}
	if len(f.newEntered) != 0 {
		f.enteredTileLists[iteration] = f.newEntered
	}
	n := len(f.newTiles) + len(f.newBlockedTiles)
	f.newTiles, f.newBlockedTiles, f.newEntered = nil, nil, nil
	return n
}

// free schedules t to give way at iteration
func (f *TileFlood) free(iteration int, t tile.Index) {
	set, ok := f.FreedTileLists[iteration]
	if !ok {
		set = mapset.New[tile.Index]()
		f.FreedTileLists[iteration] = set
	}
	set.Put(t)
}

func sortedSet(s mapset.Set[tile.Index]) []tile.Index {
	out := make([]tile.Index, 0, s.Size())
	s.Each(func(t tile.Index) {
		out = append(out, t)
	})
	slices.SortFunc(out, tile.Compare)
	return out
}
