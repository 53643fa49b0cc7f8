package rumble

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/space-wizards/space-station-14-sub095/floodfill"
)

const (
	// Peak amplitude of the loudest ring before master volume
	peakAmplitude = 0.8

	// Body frequency of the first ring; later rings drop toward floorFreq
	baseFreq  = 90.0
	floorFreq = 35.0
)

// Segment is the sound of one flood iteration
type Segment struct {
	Iteration int

	// Relative loudness in [0, 1]
	Amplitude float64

	Freq float64
}

// Segments derives one segment per iteration: loudness follows intensity times ring size,
// normalized to the loudest ring
func Segments(res *floodfill.Result) []Segment {
	if res == nil {
		return nil
	}

	n := res.Iterations()
	energy := make([]float64, n)
	peak := 0.0
	for it := 0; it < n; it++ {
		energy[it] = float64(res.IntensityAt(it)) * float64(len(res.Tiles(it)))
		peak = math.Max(peak, energy[it])
	}

	segs := make([]Segment, n)
	for it := range segs {
		amp := 0.0
		if peak > 0 {
			amp = energy[it] / peak
		}
		segs[it] = Segment{
			Iteration: it,
			Amplitude: amp,
			Freq:      floorFreq + (baseFreq-floorFreq)/float64(it+1),
		}
	}
	return segs
}

// New renders res as a finite rumble, ringDuration per iteration
func New(res *floodfill.Result, sr beep.SampleRate, ringDuration time.Duration) beep.Streamer {
	return NewWithVolume(res, sr, ringDuration, 1)
}

// NewWithVolume is New with a linear master volume; 0 silences it
func NewWithVolume(res *floodfill.Result, sr beep.SampleRate, ringDuration time.Duration, vol float64) beep.Streamer {
	segs := Segments(res)
	per := sr.N(ringDuration)
	if len(segs) == 0 || per <= 0 {
		return beep.Silence(0)
	}

	parts := make([]beep.Streamer, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, beep.Take(per, newRingGenerator(sr, s, per, int64(s.Iteration)+1)))
	}
	return volume(beep.Seq(parts...), vol)
}

// Length returns the number of samples New produces
func Length(res *floodfill.Result, sr beep.SampleRate, ringDuration time.Duration) int {
	per := sr.N(ringDuration)
	if res == nil || per <= 0 {
		return 0
	}
	return res.Iterations() * per
}

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// ringGenerator plays a decaying noise burst over a low sine body
type ringGenerator struct {
	sr      beep.SampleRate
	seg     Segment
	pos     int
	samples int
	seed    int64
	lowpass float64
}

func newRingGenerator(sr beep.SampleRate, seg Segment, samples int, seed int64) *ringGenerator {
	return &ringGenerator{
		sr:      sr,
		seg:     seg,
		samples: samples,
		seed:    seed,
	}
}

func (g *ringGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// Quick attack, decay to roughly 5% by the end of the segment
		attack := math.Min(float64(g.pos)/float64(g.sr.N(5*time.Millisecond)+1), 1)
		decay := math.Exp(-3 * float64(g.pos) / float64(g.samples))

		g.seed = (g.seed*1103515245 + 12345) & 0x7fffffff
		noise := float64(g.seed)/float64(0x7fffffff)*2 - 1
		g.lowpass += 0.05 * (noise - g.lowpass)

		body := math.Sin(2 * math.Pi * g.seg.Freq * t)
		sample := peakAmplitude * g.seg.Amplitude * attack * decay * (0.6*body + 0.4*g.lowpass)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ringGenerator) Err() error {
	return nil
}
