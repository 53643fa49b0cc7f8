package tile

import "strings"

// Direction is an 8-way bitmask used both for blocked sides of a tile and for the side a flood
// entered it from. Diagonals are composites of their two cardinal halves
type Direction uint8

const (
	Invalid Direction = 0
	North   Direction = 1 << 0
	South   Direction = 1 << 1
	East    Direction = 1 << 2
	West    Direction = 1 << 3

	NorthEast = North | East
	NorthWest = North | West
	SouthEast = South | East
	SouthWest = South | West

	All = North | South | East | West
)

// Cardinals in evaluation order: N, E, S, W
var Cardinals = [4]Direction{North, East, South, West}

// Diagonals in evaluation order: NE, NW, SE, SW
var Diagonals = [4]Direction{NorthEast, NorthWest, SouthEast, SouthWest}

// IsFlagSet reports whether every bit of flag is set in d
// A diagonal flag therefore requires both cardinal halves
func (d Direction) IsFlagSet(flag Direction) bool {
	return d&flag == flag
}

// Opposite mirrors each set bit: N<->S, E<->W
func (d Direction) Opposite() Direction {
	var o Direction
	if d&North != 0 {
		o |= South
	}
	if d&South != 0 {
		o |= North
	}
	if d&East != 0 {
		o |= West
	}
	if d&West != 0 {
		o |= East
	}
	return o
}

// Vector returns the unit step for d; opposing bits cancel
func (d Direction) Vector() Index {
	var v Index
	if d&North != 0 {
		v.Y++
	}
	if d&South != 0 {
		v.Y--
	}
	if d&East != 0 {
		v.X++
	}
	if d&West != 0 {
		v.X--
	}
	return v
}

var directionNames = [...]struct {
	dir  Direction
	name string
}{
	{North, "N"}, {South, "S"}, {East, "E"}, {West, "W"},
}

// String renders the set bits, e.g. "N|E"; "None" and "All" for the sentinels
func (d Direction) String() string {
	switch d {
	case Invalid:
		return "None"
	case All:
		return "All"
	}
	parts := make([]string, 0, 4)
	for _, dn := range directionNames {
		if d&dn.dir != 0 {
			parts = append(parts, dn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseDirection accepts names like "N", "north", "NE", "all", "none" joined by '|' or ','
// Unknown names yield ok=false
func ParseDirection(s string) (Direction, bool) {
	var d Direction
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid, true
	}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "n", "north":
			d |= North
		case "s", "south":
			d |= South
		case "e", "east":
			d |= East
		case "w", "west":
			d |= West
		case "ne", "northeast":
			d |= NorthEast
		case "nw", "northwest":
			d |= NorthWest
		case "se", "southeast":
			d |= SouthEast
		case "sw", "southwest":
			d |= SouthWest
		case "all":
			d |= All
		case "none", "invalid":
		default:
			return Invalid, false
		}
	}
	return d, true
}
