package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/floodfill"
	"github.com/space-wizards/space-station-14-sub095/grid"
	"github.com/space-wizards/space-station-14-sub095/maze"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Defaults applied to generated scenarios
const (
	DefaultTotalIntensity = 400
	DefaultSlope          = 2
	DefaultMaxIntensity   = 20
	DefaultDoorTolerance  = 12
)

// SpaceChar marks a column with no floor tile
const SpaceChar = ' '

var (
	ErrUnknownKey  = errors.New("unknown key")
	ErrUnknownTile = errors.New("unknown tile character")
	ErrBadLegend   = errors.New("bad legend entry")
)

// Scenario is a TOML document describing grids and one flood over them
type Scenario struct {
	Name   string                 `toml:"name"`
	Flood  FloodConfig            `toml:"flood"`
	Legend map[string]LegendEntry `toml:"legend,omitempty"`
	Grids  []GridConfig           `toml:"grids"`

	set *grid.Set
}

// FloodConfig mirrors floodfill.Params
type FloodConfig struct {
	Epicenter      [2]int32 `toml:"epicenter"`
	TotalIntensity float32  `toml:"total_intensity"`
	Slope          float32  `toml:"slope"`
	MaxIntensity   float32  `toml:"max_intensity"`
	ToleranceIndex int      `toml:"tolerance_index,omitempty"`
	MaxIterations  int      `toml:"max_iterations,omitempty"`
	MaxArea        int      `toml:"max_area,omitempty"`
	AdjacentDelay  int      `toml:"adjacent_delay,omitempty"`
	DiagonalDelay  int      `toml:"diagonal_delay,omitempty"`
}

// LegendEntry defines what one layout character places on its tile
type LegendEntry struct {
	Name string `toml:"name,omitempty"`

	// No floor tile at all
	Space bool `toml:"space,omitempty"`

	// Sides the anchored blocker seals, e.g. "all" or "N|E"; empty places bare floor
	Blocked string `toml:"blocked,omitempty"`

	// Omitted makes the blocker indestructible
	Tolerance []float32 `toml:"tolerance,omitempty"`
}

// GridConfig is one grid laid out as text, top row first
type GridConfig struct {
	// Zero takes the grid's position in the file, counting from 1
	ID     uint32   `toml:"id,omitempty"`
	Offset [2]int32 `toml:"offset"`
	Rows   []string `toml:"rows"`
}

// DefaultLegend returns the built-in characters; file legends override them per key
func DefaultLegend() map[string]LegendEntry {
	return map[string]LegendEntry{
		string(maze.FloorChar): {Name: "floor"},
		string(SpaceChar):      {Name: "space", Space: true},
		string(maze.WallChar):  {Name: "wall", Blocked: "all"},
		string(maze.DoorChar):  {Name: "door", Blocked: "all", Tolerance: []float32{DefaultDoorTolerance}},
	}
}

// Load reads and builds the scenario at path
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and builds a scenario; keys the format does not know are rejected
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	meta, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return &s, nil
}

// FromMaze wraps a generated layout as a one-grid scenario with its epicenter on the layout start
func FromMaze(l *maze.Layout, id flood.GridID, offset tile.Index) (*Scenario, error) {
	epicenter := l.Start.Add(offset)
	s := &Scenario{
		Name: fmt.Sprintf("maze %dx%d", l.Width, l.Height),
		Flood: FloodConfig{
			Epicenter:      [2]int32{epicenter.X, epicenter.Y},
			TotalIntensity: DefaultTotalIntensity,
			Slope:          DefaultSlope,
			MaxIntensity:   DefaultMaxIntensity,
		},
		Grids: []GridConfig{{
			ID:     uint32(id),
			Offset: [2]int32{offset.X, offset.Y},
			Rows:   l.Rows(),
		}},
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set returns the built grids
func (s *Scenario) Set() *grid.Set {
	return s.set
}

// Params converts the [flood] table for the driver
func (s *Scenario) Params() floodfill.Params {
	f := s.Flood
	return floodfill.Params{
		Epicenter:      tile.Index{X: f.Epicenter[0], Y: f.Epicenter[1]},
		TotalIntensity: f.TotalIntensity,
		Slope:          f.Slope,
		MaxIntensity:   f.MaxIntensity,
		ToleranceIndex: f.ToleranceIndex,
		MaxIterations:  f.MaxIterations,
		MaxArea:        f.MaxArea,
		Options: flood.Options{
			AdjacentDelay: f.AdjacentDelay,
			DiagonalDelay: f.DiagonalDelay,
		},
	}
}

// Marshal encodes the scenario back to TOML
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the scenario to path
func (s *Scenario) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// build lays out every grid using the default legend overridden by the file's
func (s *Scenario) build() error {
	legend, err := s.legend()
	if err != nil {
		return err
	}

	set := grid.NewSet()
	var nextEntity uint32
	for gi, gc := range s.Grids {
		id := flood.GridID(gc.ID)
		if gc.ID == 0 {
			id = flood.GridID(gi + 1)
		}
		m := grid.NewMap(id, tile.Index{X: gc.Offset[0], Y: gc.Offset[1]})

		for ri, row := range gc.Rows {
			y := int32(len(gc.Rows) - 1 - ri)
			x := int32(0)
			for _, r := range row {
				def, ok := legend[r]
				if !ok {
					return fmt.Errorf("grid %d row %d col %d: %w %q", id, ri, x, ErrUnknownTile, r)
				}
				if !def.space {
					t := tile.Index{X: x, Y: y}
					m.SetTile(t)
					if def.entity != nil {
						nextEntity++
						e := *def.entity
						e.ID = nextEntity
						if err := m.Anchor(t, e); err != nil {
							return err
						}
					}
				}
				x++
			}
		}

		if err := set.Add(m); err != nil {
			return err
		}
	}

	s.set = set
	return nil
}

type placement struct {
	space  bool
	entity *grid.Entity
}

func (s *Scenario) legend() (map[rune]placement, error) {
	merged := DefaultLegend()
	for k, v := range s.Legend {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[rune]placement, len(merged))
	for _, k := range keys {
		v := merged[k]
		if utf8.RuneCountInString(k) != 1 {
			return nil, fmt.Errorf("legend %q: %w: key must be one character", k, ErrBadLegend)
		}
		r, _ := utf8.DecodeRuneInString(k)

		blocked, ok := tile.ParseDirection(v.Blocked)
		if !ok {
			return nil, fmt.Errorf("legend %q: %w: blocked %q", k, ErrBadLegend, v.Blocked)
		}
		if v.Space && (blocked != tile.Invalid || len(v.Tolerance) > 0) {
			return nil, fmt.Errorf("legend %q: %w: space cannot carry a blocker", k, ErrBadLegend)
		}

		p := placement{space: v.Space}
		if blocked != tile.Invalid {
			p.entity = &grid.Entity{
				Name:              v.Name,
				Airtight:          true,
				BlockedDirections: blocked,
				Tolerance:         slices.Clone(v.Tolerance),
			}
		}
		out[r] = p
	}
	return out, nil
}
