package preview

import (
	"github.com/space-wizards/space-station-14-sub095/floodfill"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

// Message types sent by the server
const (
	TypeIteration = "iteration"
	TypeSummary   = "summary"
	TypeError     = "error"
)

// PreviewRequest asks for one flood; zero caps select the driver defaults
type PreviewRequest struct {
	Epicenter      [2]int32 `json:"epicenter"`
	TotalIntensity float32  `json:"totalIntensity"`
	Slope          float32  `json:"slope"`
	MaxIntensity   float32  `json:"maxIntensity"`
	ToleranceIndex int      `json:"toleranceIndex,omitempty"`
	MaxIterations  int      `json:"maxIterations,omitempty"`
	MaxArea        int      `json:"maxArea,omitempty"`
}

// Params converts the request for the driver
func (r PreviewRequest) Params() floodfill.Params {
	return floodfill.Params{
		Epicenter:      tile.Index{X: r.Epicenter[0], Y: r.Epicenter[1]},
		TotalIntensity: r.TotalIntensity,
		Slope:          r.Slope,
		MaxIntensity:   r.MaxIntensity,
		ToleranceIndex: r.ToleranceIndex,
		MaxIterations:  r.MaxIterations,
		MaxArea:        r.MaxArea,
	}
}

// IterationUpdate is one ring of a finished flood in space coordinates
type IterationUpdate struct {
	Type      string     `json:"type"`
	Iteration int        `json:"iteration"`
	Intensity float32    `json:"intensity"`
	Tiles     [][2]int32 `json:"tiles"`
}

// Summary closes the updates of one request
type Summary struct {
	Type       string  `json:"type"`
	Area       int     `json:"area"`
	Iterations int     `json:"iterations"`
	Origin     string  `json:"origin"`
	Grids      int     `json:"grids"`
	ElapsedMs  float64 `json:"elapsedMs"`
}

// ErrorMessage reports a rejected request; the connection stays open
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newIterationUpdate(ring floodfill.Ring) IterationUpdate {
	tiles := make([][2]int32, len(ring.Tiles))
	for i, t := range ring.Tiles {
		tiles[i] = [2]int32{t.X, t.Y}
	}
	return IterationUpdate{
		Type:      TypeIteration,
		Iteration: ring.Iteration,
		Intensity: ring.Intensity,
		Tiles:     tiles,
	}
}

func newSummary(res *floodfill.Result) Summary {
	return Summary{
		Type:       TypeSummary,
		Area:       res.Area,
		Iterations: res.Iterations(),
		Origin:     res.Origin,
		Grids:      len(res.Grids),
		ElapsedMs:  float64(res.Elapsed.Microseconds()) / 1000,
	}
}

func newError(err error) ErrorMessage {
	return ErrorMessage{Type: TypeError, Error: err.Error()}
}
