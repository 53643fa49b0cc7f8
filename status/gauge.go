package status

import (
	"math"
	"sync/atomic"
)

// Gauge is a float metric such as a duration in milliseconds or a peak intensity
type Gauge struct {
	bits atomic.Uint64
}

func (g *Gauge) Store(val float64) {
	g.bits.Store(math.Float64bits(val))
}

func (g *Gauge) Load() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Add adds delta and returns the new value
func (g *Gauge) Add(delta float64) float64 {
	return g.update(func(cur float64) (float64, bool) { return cur + delta, true })
}

// Raise keeps the larger of the current value and val, returning the result
// NaN never replaces the current value
func (g *Gauge) Raise(val float64) float64 {
	return g.update(func(cur float64) (float64, bool) { return val, val > cur })
}

// update applies fn until the swap wins or fn declines
func (g *Gauge) update(fn func(cur float64) (float64, bool)) float64 {
	for {
		old := g.bits.Load()
		cur := math.Float64frombits(old)
		next, ok := fn(cur)
		if !ok {
			return cur
		}
		if g.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}
