package floodfill

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/space-wizards/space-station-14-sub095/flood"
	"github.com/space-wizards/space-station-14-sub095/grid"
	"github.com/space-wizards/space-station-14-sub095/status"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func newMap(t *testing.T, id flood.GridID, offset tile.Index, w, h int32) *grid.Map {
	t.Helper()
	m := grid.NewMap(id, offset)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			m.SetTile(tile.Index{X: x, Y: y})
		}
	}
	return m
}

// sealedRoom builds a 3×3 grid whose edge tiles are indestructible walls
func sealedRoom(t *testing.T) *grid.Set {
	t.Helper()
	m := newMap(t, 1, tile.Index{}, 3, 3)
	for _, p := range m.Tiles() {
		if p == (tile.Index{X: 1, Y: 1}) {
			continue
		}
		if err := m.Anchor(p, grid.Entity{Name: "wall", Airtight: true, BlockedDirections: tile.All}); err != nil {
			t.Fatal(err)
		}
	}
	s := grid.NewSet()
	if err := s.Add(m); err != nil {
		t.Fatal(err)
	}
	return s
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestStartValidation verifies bad parameters are rejected with sentinel errors
func TestStartValidation(t *testing.T) {
	sys := NewSystem(nil, quietLogger(), nil)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"zero intensity", Params{TotalIntensity: 0, Slope: 1}, ErrNonPositiveIntensity},
		{"negative intensity", Params{TotalIntensity: -3, Slope: 1}, ErrNonPositiveIntensity},
		{"nan intensity", Params{TotalIntensity: nan, Slope: 1}, ErrNonPositiveIntensity},
		{"zero slope", Params{TotalIntensity: 10, Slope: 0}, ErrNonPositiveSlope},
		{"nan slope", Params{TotalIntensity: 10, Slope: nan}, ErrNonPositiveSlope},
		{"infinite intensity", Params{TotalIntensity: inf, Slope: 1}, ErrNonPositiveIntensity},
		{"infinite slope", Params{TotalIntensity: 10, Slope: inf}, ErrNonPositiveSlope},
		{"nan cap", Params{TotalIntensity: 10, Slope: 1, MaxIntensity: nan}, ErrNonFiniteCap},
		{"infinite cap", Params{TotalIntensity: 10, Slope: 1, MaxIntensity: inf}, ErrNonFiniteCap},
		{"negative infinite cap", Params{TotalIntensity: 10, Slope: 1, MaxIntensity: -inf}, ErrNonFiniteCap},
		{"valid", Params{TotalIntensity: 10, Slope: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.DoFloodTile(tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestIntensityRadiusInverse verifies the two volume formulas undo each other
func TestIntensityRadiusInverse(t *testing.T) {
	tests := []struct {
		name         string
		radius       float32
		slope        float32
		maxIntensity float32
		expectCapped bool
	}{
		{"cone uncapped", 5, 2, 0, false},
		{"cone below cap", 3, 1, 10, false},
		{"frustum", 10, 2, 8, true},
		{"wide frustum", 25, 1.5, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intensity := RadiusToIntensity(tt.radius, tt.slope, tt.maxIntensity)
			cone := RadiusToIntensity(tt.radius, tt.slope, 0)
			if tt.expectCapped != (intensity < cone) {
				t.Errorf("capped = %v, want %v", intensity < cone, tt.expectCapped)
			}

			back := IntensityToRadius(intensity, tt.slope, tt.maxIntensity)
			if !approx(float64(back), float64(tt.radius), 1e-3*float64(tt.radius)) {
				t.Errorf("IntensityToRadius(%v) = %v, want %v", intensity, back, tt.radius)
			}
		})
	}
}

// TestOpenSpaceFlood verifies rings, intensity conservation and the cap in open space
func TestOpenSpaceFlood(t *testing.T) {
	sys := NewSystem(nil, quietLogger(), nil)
	epicenter := tile.Index{X: 4, Y: -7}
	res, err := sys.DoFloodTile(Params{
		Epicenter:      epicenter,
		TotalIntensity: 100,
		Slope:          2,
		MaxIntensity:   10,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Origin != "space" || res.Space == nil || len(res.Grids) != 0 {
		t.Fatalf("Unexpected domains: origin=%s space=%v grids=%d", res.Origin, res.Space != nil, len(res.Grids))
	}

	area := 0
	sum := 0.0
	for _, ring := range res.Rings() {
		area += len(ring.Tiles)
		sum += float64(ring.Intensity) * float64(len(ring.Tiles))

		if ring.Intensity > 10+1e-4 {
			t.Errorf("Ring %d intensity %v above cap", ring.Iteration, ring.Intensity)
		}
		want := 8 * ring.Iteration
		if ring.Iteration == 0 {
			want = 1
		}
		if len(ring.Tiles) != want {
			t.Errorf("Ring %d has %d tiles, want %d", ring.Iteration, len(ring.Tiles), want)
		}
		for _, p := range ring.Tiles {
			if d := p.Chebyshev(epicenter); int(d) != ring.Iteration {
				t.Errorf("Ring %d holds %v at distance %d", ring.Iteration, p, d)
			}
		}
	}

	if area != res.Area {
		t.Errorf("Area = %d, rings hold %d", res.Area, area)
	}
	if !approx(sum, 100, 1e-2) {
		t.Errorf("Distributed intensity %v, want 100", sum)
	}
	for i := 1; i < res.Iterations(); i++ {
		if res.IntensityAt(i) > res.IntensityAt(i-1)+1e-4 {
			t.Errorf("Intensity rises outward at ring %d: %v > %v", i, res.IntensityAt(i), res.IntensityAt(i-1))
		}
	}
}

// TestSingleTileFlood verifies a flood too weak to spread stays on its epicenter
func TestSingleTileFlood(t *testing.T) {
	sys := NewSystem(nil, quietLogger(), nil)
	res, err := sys.DoFloodTile(Params{Epicenter: tile.Index{X: 2, Y: 2}, TotalIntensity: 0.5, Slope: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Area != 1 || !slices.Equal(res.IterationIntensity, []float32{0.5}) {
		t.Errorf("Area=%d intensity=%v, want 1 [0.5]", res.Area, res.IterationIntensity)
	}
	if got := res.Tiles(0); len(got) != 1 || got[0] != (tile.Index{X: 2, Y: 2}) {
		t.Errorf("Tiles(0) = %v", got)
	}
}

// TestTrappedFloodStops verifies a capped flood in a sealed room ends early
func TestTrappedFloodStops(t *testing.T) {
	sys := NewSystem(sealedRoom(t), quietLogger(), nil)
	res, err := sys.DoFloodTile(Params{
		Epicenter:      tile.Index{X: 1, Y: 1},
		TotalIntensity: 1000,
		Slope:          2,
		MaxIntensity:   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Origin != "grid" || res.Space != nil {
		t.Errorf("Flood left the room: origin=%s space=%v", res.Origin, res.Space != nil)
	}
	if res.Area != 5 {
		t.Errorf("Area = %d, want origin plus 4 walls", res.Area)
	}
	if res.Iterations() > 10 {
		t.Errorf("Trapped flood ran %d iterations", res.Iterations())
	}
	for _, ring := range res.Rings() {
		for _, p := range ring.Tiles {
			if p.X < 0 || p.Y < 0 || p.X > 2 || p.Y > 2 {
				t.Errorf("Tile %v outside the room", p)
			}
		}
	}
}

// TestGridSpaceGridHandOver verifies each domain crossing costs one extra iteration
func TestGridSpaceGridHandOver(t *testing.T) {
	grids := grid.NewSet()
	if err := grids.Add(newMap(t, 1, tile.Index{}, 3, 1)); err != nil {
		t.Fatal(err)
	}
	if err := grids.Add(newMap(t, 2, tile.Index{X: 5}, 3, 1)); err != nil {
		t.Fatal(err)
	}

	sys := NewSystem(grids, quietLogger(), nil)
	res, err := sys.DoFloodTile(Params{
		Epicenter:      tile.Index{},
		TotalIntensity: 100000,
		Slope:          0.2,
		MaxIterations:  10,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Space == nil {
		t.Fatal("Flood never reached space")
	}
	if !slices.Contains(res.Space.TileLists[4], tile.Index{X: 3}) {
		t.Errorf("Space (3,0) not at iteration 4: %v", res.Space.TileLists[4])
	}

	second, ok := res.Grids[2]
	if !ok {
		t.Fatal("Flood never reached grid 2")
	}
	landing := tile.Index{}
	for it := 0; it < 7; it++ {
		if slices.Contains(second.TileLists[it], landing) {
			t.Errorf("Grid 2 reached at iteration %d, before the hand-over delay", it)
		}
	}
	if !slices.Contains(second.TileLists[7], landing) {
		t.Errorf("Grid 2 local (0,0) not at iteration 7: %v", second.TileLists[7])
	}
}

// TestFloodCaps verifies MaxArea and MaxIterations end the flood
func TestFloodCaps(t *testing.T) {
	tests := []struct {
		name       string
		p          Params
		area       int
		iterations int
	}{
		{"max area", Params{TotalIntensity: 1e6, Slope: 1, MaxArea: 10}, 25, 3},
		{"max iterations", Params{TotalIntensity: 1e6, Slope: 1, MaxIterations: 3}, 49, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := NewSystem(nil, quietLogger(), nil)
			res, err := sys.DoFloodTile(tt.p)
			if err != nil {
				t.Fatal(err)
			}
			if res.Area != tt.area || res.Iterations() != tt.iterations {
				t.Errorf("area=%d iterations=%d, want %d %d", res.Area, res.Iterations(), tt.area, tt.iterations)
			}
		})
	}
}

// TestRunStepwise verifies the step API, partial rings and a repeatable Finish
func TestRunStepwise(t *testing.T) {
	sys := NewSystem(nil, quietLogger(), nil)
	run, err := sys.Start(Params{TotalIntensity: 1e6, Slope: 1, MaxIterations: 5})
	if err != nil {
		t.Fatal(err)
	}

	if !run.Step() || run.LastNewTiles() != 8 {
		t.Fatalf("First step added %d tiles", run.LastNewTiles())
	}
	partial := run.Partial()
	if len(partial) != 2 || len(partial[1].Tiles) != 8 {
		t.Errorf("Partial() = %d rings", len(partial))
	}
	if run.Iteration() != 2 || run.Done() {
		t.Errorf("Iteration()=%d Done()=%v", run.Iteration(), run.Done())
	}

	for run.Step() {
	}
	res := run.Finish()
	if run.Finish() != res {
		t.Error("Finish returned a different result")
	}
	if got := len(res.Tiles(0)); got != 1 {
		t.Errorf("Epicenter ring has %d tiles after Finish", got)
	}
	if run.Step() {
		t.Error("Step after Finish should report done")
	}
}

// TestMetricsAndLogging verifies a finished flood updates the registry and logs a summary
func TestMetricsAndLogging(t *testing.T) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	reg := status.NewRegistry()

	sys := NewSystem(nil, l, reg)
	res, err := sys.DoFloodTile(Params{TotalIntensity: 50, Slope: 2, MaxIntensity: 4})
	if err != nil {
		t.Fatal(err)
	}

	if got := reg.Ints.Get(status.FloodRuns).Load(); got != 1 {
		t.Errorf("%s = %d", status.FloodRuns, got)
	}
	if got := reg.Ints.Get(status.FloodTiles).Load(); got != int64(res.Area) {
		t.Errorf("%s = %d, want %d", status.FloodTiles, got, res.Area)
	}
	if got := reg.Snapshot()[status.FloodLastDomain]; got != "space" {
		t.Errorf("%s = %q", status.FloodLastDomain, got)
	}
	if got := reg.Floats.Get(status.FloodPeakIntensity).Load(); got <= 0 || got > 4+1e-4 {
		t.Errorf("%s = %v", status.FloodPeakIntensity, got)
	}

	last := hook.LastEntry()
	if last == nil || last.Message != "Flood generated" || last.Level != logrus.InfoLevel {
		t.Fatalf("Last entry = %+v", last)
	}
	if last.Data["tiles"] != res.Area {
		t.Errorf("Logged tiles = %v, want %d", last.Data["tiles"], res.Area)
	}

	steps := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "Flood step" {
			steps++
		}
	}
	if steps == 0 {
		t.Error("No debug step entries logged")
	}
}
