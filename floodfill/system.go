package floodfill

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/grid"
	"github.com/space-wizards/space-station-14-sub095/logger"
	"github.com/space-wizards/space-station-14-sub095/status"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

const (
	// DefaultMaxIterations bounds the number of rings a flood may grow
	DefaultMaxIterations = 500

	// DefaultMaxArea bounds the number of tiles a flood may cover
	DefaultMaxArea = 205887

	// DefaultTileSize is the edge length of a space tile when no grid sets the scale
	DefaultTileSize = 1
)

var (
	ErrNonPositiveIntensity = errors.New("total intensity must be positive")
	ErrNonPositiveSlope     = errors.New("intensity slope must be positive")
	ErrNonFiniteCap         = errors.New("intensity cap must be finite")
)

// Params describes one flood
type Params struct {
	// Epicenter in space coordinates
	Epicenter tile.Index

	// Sum of intensity over every covered tile; governs the flood's size
	TotalIntensity float32

	// Intensity lost per tile of distance from the epicenter
	Slope float32

	// Intensity cap on any one tile; <= 0 leaves it uncapped
	MaxIntensity float32

	// Which blocker tolerance entry this flood tests against
	ToleranceIndex int

	// Zero selects DefaultMaxIterations and DefaultMaxArea
	MaxIterations int
	MaxArea       int

	Options flood.Options
}

// System runs floods over a fixed set of grids
// Grids are only read; one System may serve concurrent runs
type System struct {
	grids *grid.Set
	log   logrus.FieldLogger

	runs          *atomic.Int64
	tiles         *atomic.Int64
	iterations    *atomic.Int64
	lastMs        *status.Gauge
	peakIntensity *status.Gauge
	lastDomain    *atomic.Pointer[string]
}

// NewSystem creates a System; nil arguments fall back to an empty grid set, the global logger
// and a private registry
func NewSystem(grids *grid.Set, log logrus.FieldLogger, reg *status.Registry) *System {
	if grids == nil {
		grids = grid.NewSet()
	}
	if log == nil {
		log = logger.Component("floodfill")
	}
	if reg == nil {
		reg = status.NewRegistry()
	}

	return &System{
		grids:         grids,
		log:           log,
		runs:          reg.Ints.Get(status.FloodRuns),
		tiles:         reg.Ints.Get(status.FloodTiles),
		iterations:    reg.Ints.Get(status.FloodIterations),
		lastMs:        reg.Floats.Get(status.FloodLastMs),
		peakIntensity: reg.Floats.Get(status.FloodPeakIntensity),
		lastDomain:    reg.Labels.Get(status.FloodLastDomain),
	}
}

// Grids returns the grid set floods run against
func (s *System) Grids() *grid.Set {
	return s.grids
}

// DoFloodTile runs a flood to completion
func (s *System) DoFloodTile(p Params) (*Result, error) {
	run, err := s.Start(p)
	if err != nil {
		return nil, err
	}
	for run.Step() {
	}
	return run.Finish(), nil
}

// RadiusToIntensity returns the total intensity an unobstructed flood needs to reach radius
// The intensity profile is a cone of height slope*radius, cut flat at maxIntensity when set
func RadiusToIntensity(radius, slope, maxIntensity float32) float32 {
	r := float64(radius)
	s := float64(slope)
	cone := s * math.Pi / 3 * math.Pow(r, 3)

	if maxIntensity <= 0 || s*r < float64(maxIntensity) {
		return float32(cone)
	}

	// Frustum: remove the cone above the cap
	h := s*r - float64(maxIntensity)
	return float32(cone - h*math.Pi/3*math.Pow(h/s, 2))
}

// IntensityToRadius is the inverse of RadiusToIntensity
func IntensityToRadius(totalIntensity, slope, maxIntensity float32) float32 {
	t := float64(totalIntensity)
	s := float64(slope)

	if maxIntensity <= 0 {
		return float32(math.Cbrt(3 * t / (s * math.Pi)))
	}

	// Radius at which the cap starts to matter
	r0 := float64(maxIntensity) / s
	v0 := float64(RadiusToIntensity(float32(r0), slope, 0))

	if t <= v0 {
		return float32(math.Cbrt(3 * t / (s * math.Pi)))
	}
	return float32(r0 * (math.Sqrt(12*t/v0-3)/6 + 0.5))
}

// spaceReach bounds how far a space flood may stray from the epicenter: four times the open-space
// radius, never beyond MaxIterations
func spaceReach(p Params) int32 {
	radius := 0.5 + float64(IntensityToRadius(p.TotalIntensity, p.Slope, p.MaxIntensity))
	radius = math.Min(radius, float64(p.MaxIterations)/4)
	return max(1, int32(math.Ceil(radius*4)))
}

func (p Params) withDefaults() Params {
	if p.MaxIterations <= 0 {
		p.MaxIterations = DefaultMaxIterations
	}
	if p.MaxArea <= 0 {
		p.MaxArea = DefaultMaxArea
	}
	return p
}

func (p Params) validate() error {
	if p.TotalIntensity <= 0 || !isFinite(p.TotalIntensity) {
		return fmt.Errorf("flood at %v: %w", p.Epicenter, ErrNonPositiveIntensity)
	}
	if p.Slope <= 0 || !isFinite(p.Slope) {
		return fmt.Errorf("flood at %v: %w", p.Epicenter, ErrNonPositiveSlope)
	}
	if !isFinite(p.MaxIntensity) {
		return fmt.Errorf("flood at %v: %w", p.Epicenter, ErrNonFiniteCap)
	}
	return nil
}

func isFinite(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *System) record(res *Result) {
	s.runs.Add(1)
	s.tiles.Add(int64(res.Area))
	s.iterations.Add(int64(len(res.IterationIntensity)))
	s.lastMs.Store(float64(res.Elapsed) / float64(time.Millisecond))
	origin := res.Origin
	s.lastDomain.Store(&origin)

	peak := float32(0)
	for _, v := range res.IterationIntensity {
		peak = max(peak, v)
	}
	s.peakIntensity.Raise(float64(peak))
}
