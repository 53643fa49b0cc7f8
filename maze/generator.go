package maze

import (
	"math/rand"
	"strings"
	"time"

	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Cell is the content of one layout tile
type Cell uint8

const (
	Wall Cell = iota
	Floor
	Door
)

// Layout characters shared with scenario files
const (
	WallChar  = '#'
	FloorChar = '.'
	DoorChar  = 'D'
)

// Config controls station layout generation
type Config struct {
	Width, Height int

	// 0 keeps a perfect maze (a tree of corridors); 1 removes every dead end it safely can
	Braiding float64

	// Share of braided openings that get a door instead of bare floor
	DoorChance float64

	Start *tile.Index // nil picks (1,1)
	Seed  int64       // 0 seeds from the clock
}

// Layout is a generated station floor plan, row 0 at the bottom
type Layout struct {
	Width, Height int
	Start, End    tile.Index

	// Shortest corridor route from Start to End, both included
	Path []tile.Index

	cells []Cell
}

// Generate carves a corridor maze then braids it into loops
func Generate(cfg Config) *Layout {
	l := &Layout{
		Width:  ensureOdd(cfg.Width),
		Height: ensureOdd(cfg.Height),
	}
	l.cells = make([]Cell, l.Width*l.Height)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	l.Start = l.clamp(cfg.Start, tile.Index{X: 1, Y: 1})
	l.End = tile.Index{X: int32(l.Width - 2), Y: int32(l.Height - 2)}

	l.carve(l.Start, rng)
	if cfg.Braiding > 0 {
		l.braid(cfg.Braiding, cfg.DoorChance, rng)
	}
	l.forceOpen(l.Start)
	l.forceOpen(l.End)

	l.Path = l.solve(l.Start, l.End)
	return l
}

// At returns the cell at t; anything outside the layout is Wall
func (l *Layout) At(t tile.Index) Cell {
	if !l.inside(t) {
		return Wall
	}
	return l.cells[int(t.Y)*l.Width+int(t.X)]
}

// Set overwrites the cell at t; out-of-range writes are ignored
func (l *Layout) Set(t tile.Index, c Cell) {
	if l.inside(t) {
		l.cells[int(t.Y)*l.Width+int(t.X)] = c
	}
}

// Count returns how many cells hold c
func (l *Layout) Count(c Cell) int {
	n := 0
	for _, v := range l.cells {
		if v == c {
			n++
		}
	}
	return n
}

// Rows renders the layout top row first using the scenario characters
func (l *Layout) Rows() []string {
	rows := make([]string, 0, l.Height)
	for y := l.Height - 1; y >= 0; y-- {
		var b strings.Builder
		for x := 0; x < l.Width; x++ {
			switch l.At(tile.Index{X: int32(x), Y: int32(y)}) {
			case Floor:
				b.WriteByte(FloorChar)
			case Door:
				b.WriteByte(DoorChar)
			default:
				b.WriteByte(WallChar)
			}
		}
		rows = append(rows, b.String())
	}
	return rows
}

func (l *Layout) inside(t tile.Index) bool {
	return t.X >= 0 && t.Y >= 0 && int(t.X) < l.Width && int(t.Y) < l.Height
}

// interior excludes the one-tile hull around the layout
func (l *Layout) interior(t tile.Index) bool {
	return t.X > 0 && t.Y > 0 && int(t.X) < l.Width-1 && int(t.Y) < l.Height-1
}

func (l *Layout) open(t tile.Index) bool {
	return l.At(t) != Wall
}

// jumps are the two-tile moves between maze rooms
var jumps = [4]tile.Index{{X: 0, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: -2}, {X: -2, Y: 0}}

func half(d tile.Index) tile.Index {
	return tile.Index{X: d.X / 2, Y: d.Y / 2}
}

// carve runs a randomized depth-first backtracker from start
func (l *Layout) carve(start tile.Index, rng *rand.Rand) {
	if !l.interior(start) {
		start = tile.Index{X: 1, Y: 1}
	}
	stack := []tile.Index{start}
	l.Set(start, Floor)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		candidates := make([]tile.Index, 0, 4)
		for _, d := range jumps {
			next := cur.Add(d)
			if l.interior(next) && l.At(next) == Wall {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.Intn(len(candidates))]
		l.Set(cur.Add(half(d)), Floor)
		next := cur.Add(d)
		l.Set(next, Floor)
		stack = append(stack, next)
	}
}

// braid opens walls next to dead ends, turning corridors into loops
// Openings that would leave a 2×2 open block or a free-standing wall are skipped
func (l *Layout) braid(probability, doorChance float64, rng *rand.Rand) {
	for y := 1; y < l.Height-1; y += 2 {
		for x := 1; x < l.Width-1; x += 2 {
			room := tile.Index{X: int32(x), Y: int32(y)}
			if !l.open(room) || l.exits(room) != 1 || rng.Float64() >= probability {
				continue
			}

			candidates := make([]tile.Index, 0, 4)
			for _, d := range jumps {
				next, wall := room.Add(d), room.Add(half(d))
				if l.inside(next) && l.open(next) && l.At(wall) == Wall && l.canOpen(wall) {
					candidates = append(candidates, wall)
				}
			}
			if len(candidates) == 0 {
				continue
			}

			wall := candidates[rng.Intn(len(candidates))]
			if rng.Float64() < doorChance {
				l.Set(wall, Door)
			} else {
				l.Set(wall, Floor)
			}
		}
	}
}

func (l *Layout) exits(t tile.Index) int {
	n := 0
	for _, d := range tile.Cardinals {
		if l.open(t.Offset(d)) {
			n++
		}
	}
	return n
}

// canOpen reports whether opening t keeps the layout free of plazas and pillars
func (l *Layout) canOpen(t tile.Index) bool {
	for _, d := range tile.Diagonals {
		v := d.Vector()
		if l.open(t.Add(tile.Index{X: v.X})) && l.open(t.Add(tile.Index{Y: v.Y})) && l.open(t.Add(v)) {
			return false
		}
	}

	for _, d := range tile.Cardinals {
		n := t.Offset(d)
		if !l.inside(n) || l.open(n) {
			continue
		}
		connected := false
		for _, d2 := range tile.Cardinals {
			nn := n.Offset(d2)
			if nn != t && l.inside(nn) && !l.open(nn) {
				connected = true
				break
			}
		}
		if !connected {
			return false
		}
	}
	return true
}

// forceOpen makes p walkable and links it to a neighbour when it would be isolated
func (l *Layout) forceOpen(p tile.Index) {
	if !l.inside(p) {
		return
	}
	if l.At(p) == Wall {
		l.Set(p, Floor)
	}
	if l.exits(p) > 0 {
		return
	}
	for _, d := range tile.Cardinals {
		if n := p.Offset(d); l.interior(n) {
			l.Set(n, Floor)
			return
		}
	}
}

// solve finds the shortest orthogonal route through open cells
func (l *Layout) solve(start, end tile.Index) []tile.Index {
	if !l.open(start) || !l.open(end) {
		return nil
	}

	queue := []tile.Index{start}
	cameFrom := map[tile.Index]tile.Index{start: start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == end {
			var path []tile.Index
			for cur != start {
				path = append(path, cur)
				cur = cameFrom[cur]
			}
			path = append(path, start)
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range tile.Cardinals {
			next := cur.Offset(d)
			if _, seen := cameFrom[next]; seen || !l.open(next) {
				continue
			}
			cameFrom[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}

func (l *Layout) clamp(p *tile.Index, def tile.Index) tile.Index {
	if p == nil {
		return def
	}
	return tile.Index{
		X: min(max(p.X, 0), int32(l.Width-1)),
		Y: min(max(p.Y, 0), int32(l.Height-1)),
	}
}

func ensureOdd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}
