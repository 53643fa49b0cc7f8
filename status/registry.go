package status

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Metric names written by the flood driver and the preview server
const (
	FloodRuns          = "flood.runs"
	FloodTiles         = "flood.tiles"
	FloodIterations    = "flood.iterations"
	FloodLastMs        = "flood.last_ms"
	FloodPeakIntensity = "flood.peak_intensity"
	FloodLastDomain    = "flood.last_domain"
	PreviewClients     = "preview.clients"
	PreviewListening   = "preview.listening"
)

// Registry groups metrics by value type
// Components fetch pointers once at construction and write them directly afterwards
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[Gauge]
	Labels *MetricMap[atomic.Pointer[string]]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[Gauge](),
		Labels: NewMetricMap[atomic.Pointer[string]](),
	}
}

// TotalCount returns the number of metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Labels.Count()
}

// Snapshot copies every current value into a flat map keyed by metric name
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.TotalCount())
	r.Bools.Range(func(key string, ptr *atomic.Bool) {
		out[key] = ptr.Load()
	})
	r.Ints.Range(func(key string, ptr *atomic.Int64) {
		out[key] = ptr.Load()
	})
	r.Floats.Range(func(key string, ptr *Gauge) {
		out[key] = ptr.Load()
	})
	r.Labels.Range(func(key string, ptr *atomic.Pointer[string]) {
		out[key] = label(ptr)
	})
	return out
}

// Lines formats every metric as "key: value" for text panels
// Keys ending in _ms render as durations
func (r *Registry) Lines() []string {
	var lines []string
	r.Bools.Range(func(key string, ptr *atomic.Bool) {
		lines = append(lines, fmt.Sprintf("%s: %v", key, ptr.Load()))
	})
	r.Ints.Range(func(key string, ptr *atomic.Int64) {
		lines = append(lines, fmt.Sprintf("%s: %d", key, ptr.Load()))
	})
	r.Floats.Range(func(key string, ptr *Gauge) {
		val := ptr.Load()
		if strings.HasSuffix(key, "_ms") {
			lines = append(lines, fmt.Sprintf("%s: %s", key, time.Duration(val*float64(time.Millisecond)).Round(time.Microsecond)))
			return
		}
		lines = append(lines, fmt.Sprintf("%s: %.3f", key, val))
	})
	r.Labels.Range(func(key string, ptr *atomic.Pointer[string]) {
		lines = append(lines, fmt.Sprintf("%s: %s", key, label(ptr)))
	})
	return lines
}

// SetLabel stores a copy of val under the label metric key
func (r *Registry) SetLabel(key, val string) {
	r.Labels.Get(key).Store(&val)
}

func label(ptr *atomic.Pointer[string]) string {
	if p := ptr.Load(); p != nil {
		return *p
	}
	return ""
}
