package floodfill

import (
	"math"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/space-wizards/space-station-14-sub095/flood"
)

// Run is one flood in progress
// Call Step until it returns false, then Finish once
type Run struct {
	sys *System
	p   Params
	log logrus.FieldLogger

	step         float32
	maxIntensity float32
	maxDistance  int32
	origin       string

	space       *flood.SpaceFlood
	grids       map[flood.GridID]*flood.GridFlood
	encountered mapset.Set[flood.GridID]
	spaceJump   flood.Jump

	tilesInIteration   []int
	iterationIntensity []float32
	totalTiles         int
	remaining          float32

	iteration         int
	maxIntensityIndex int
	unchangedLastLoop bool
	lastNewTiles      int

	started time.Time
	done    bool
	result  *Result
}

// Start validates p and seeds the flood at its epicenter
// The epicenter starts on a grid when one covers it, otherwise in space
func (s *System) Start(p Params) (*Run, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	p = p.withDefaults()

	r := &Run{
		sys:          s,
		p:            p,
		step:         p.Slope / 2,
		maxIntensity: p.MaxIntensity,
		maxDistance:  spaceReach(p),
		grids:        make(map[flood.GridID]*flood.GridFlood),
		encountered:  mapset.New[flood.GridID](),
		spaceJump:    make(flood.Jump),
		started:      time.Now(),
	}
	if r.maxIntensity <= 0 {
		r.maxIntensity = math.MaxFloat32
	}

	if id, local, ok := s.grids.GridAt(p.Epicenter); ok {
		r.origin = "grid"
		r.encountered.Put(id)
		g := r.gridFlood(id)
		g.InitTile(local)
	} else {
		r.origin = "space"
		r.space = r.newSpaceFlood()
		r.space.InitTile(p.Epicenter)
	}

	r.log = s.log.WithFields(logrus.Fields{
		"epicenter": p.Epicenter.String(),
		"origin":    r.origin,
	})

	// Too weak to leave the epicenter tile
	if p.TotalIntensity < r.step {
		r.tilesInIteration = []int{1}
		r.iterationIntensity = []float32{p.TotalIntensity}
		r.totalTiles = 1
		r.done = true
		return r, nil
	}

	r.tilesInIteration = []int{1}
	r.iterationIntensity = []float32{r.step}
	r.totalTiles = 1
	r.remaining = p.TotalIntensity - r.step
	r.iteration = 1
	return r, nil
}

// Iteration returns the iteration the next Step will build
func (r *Run) Iteration() int {
	return r.iteration
}

// Done reports whether the flood has stopped growing
func (r *Run) Done() bool {
	return r.done
}

// LastNewTiles returns the number of tiles added by the last Step
func (r *Run) LastNewTiles() int {
	return r.lastNewTiles
}

// Step raises the intensity of earlier rings and grows one new ring
// Returns false once the flood is exhausted, capped or trapped
func (r *Run) Step() bool {
	if r.done {
		return false
	}
	if !r.canGrow() {
		r.done = true
		return false
	}

	previous := r.remaining
	r.raiseIntensity()
	if r.remaining <= 0 {
		r.lastNewTiles = 0
		r.done = true
		r.log.WithField("iteration", r.iteration).Debug("Intensity exhausted raising earlier rings")
		return false
	}

	newTiles := r.expand()
	r.lastNewTiles = newTiles
	r.tilesInIteration = append(r.tilesInIteration, newTiles)

	if float32(newTiles)*r.step >= r.remaining {
		r.iterationIntensity = append(r.iterationIntensity, r.remaining/float32(newTiles))
		r.totalTiles += newTiles
		r.remaining = 0
		r.done = true
		r.logStep(newTiles)
		return false
	}

	r.remaining -= float32(newTiles) * r.step
	r.iterationIntensity = append(r.iterationIntensity, r.step)
	r.totalTiles += newTiles
	r.logStep(newTiles)

	// Unchanged twice in a row: every ring is capped and the walls hold
	if r.unchangedLastLoop && r.remaining == previous {
		r.done = true
		r.log.WithField("iteration", r.iteration).Debug("Flood trapped")
		return false
	}
	r.unchangedLastLoop = r.remaining == previous

	r.iteration++
	if !r.canGrow() {
		r.done = true
		return false
	}
	return true
}

// Finish cleans up every flood and returns the result; later calls return the same result
func (r *Run) Finish() *Result {
	if r.result != nil {
		return r.result
	}
	r.done = true

	for _, g := range r.grids {
		g.CleanUp()
	}
	if r.space != nil {
		r.space.CleanUp()
	}

	r.result = &Result{
		Area:               r.totalTiles,
		IterationIntensity: r.iterationIntensity,
		Space:              r.space,
		Grids:              r.grids,
		Epicenter:          r.p.Epicenter,
		Origin:             r.origin,
		Elapsed:            time.Since(r.started),
	}
	r.sys.record(r.result)

	r.log.WithFields(logrus.Fields{
		"tiles":      r.result.Area,
		"iterations": len(r.result.IterationIntensity),
		"grids":      len(r.grids),
		"elapsed_ms": r.result.Elapsed.Milliseconds(),
	}).Info("Flood generated")

	return r.result
}

func (r *Run) canGrow() bool {
	return r.remaining > 0 && r.iteration <= r.p.MaxIterations && r.totalTiles < r.p.MaxArea
}

// raiseIntensity spends intensity on rings found earlier before any new ring is added
func (r *Run) raiseIntensity() {
	for i := r.maxIntensityIndex; i < r.iteration; i++ {
		increase := max(0, min(r.step, r.maxIntensity-r.iterationIntensity[i]))
		count := float32(r.tilesInIteration[i])

		if count*increase >= r.remaining {
			r.iterationIntensity[i] += r.remaining / count
			r.remaining = 0
			return
		}

		r.iterationIntensity[i] += increase
		r.remaining -= count * increase

		// Capped rings are skipped from now on
		if increase < r.step {
			r.maxIntensityIndex++
		}
	}
}

// expand grows every active flood by one iteration
// Hand-overs produced during the previous step are consumed now, so crossing between grid and
// space costs one iteration either way
func (r *Run) expand() int {
	previousSpaceJump := r.spaceJump
	var previousGridJump map[flood.GridID]flood.Jump
	if r.space != nil {
		previousGridJump = r.space.GridJump
	}
	r.spaceJump = make(flood.Jump)

	for id := range previousGridJump {
		r.encountered.Put(id)
	}

	newTiles := 0
	for _, id := range r.encounteredIDs() {
		g := r.gridFlood(id)
		if g == nil {
			continue
		}
		newTiles += g.AddNewTiles(r.iteration, previousGridJump[id])
		for t, entry := range g.SpaceJump {
			r.spaceJump.Put(t, entry)
		}
	}

	if r.space == nil && len(previousSpaceJump) != 0 {
		r.space = r.newSpaceFlood()
	}
	if r.space != nil {
		newTiles += r.space.AddNewTiles(r.iteration, previousSpaceJump)
	}
	return newTiles
}

func (r *Run) encounteredIDs() []flood.GridID {
	ids := make([]flood.GridID, 0, r.encountered.Size())
	r.encountered.Each(func(id flood.GridID) {
		ids = append(ids, id)
	})
	slices.Sort(ids)
	return ids
}

// gridFlood returns the flood for grid id, creating it on first contact
func (r *Run) gridFlood(id flood.GridID) *flood.GridFlood {
	if g, ok := r.grids[id]; ok {
		return g
	}
	m, ok := r.sys.grids.Get(id)
	if !ok {
		return nil
	}
	g := flood.NewGridFlood(id, m, m.AirtightMap(), flood.GridParams{
		IntensityStep:  r.step,
		ToleranceIndex: r.p.ToleranceIndex,
		MaxIntensity:   r.p.MaxIntensity,
		Options:        r.p.Options,
	})
	r.grids[id] = g
	return g
}

func (r *Run) newSpaceFlood() *flood.SpaceFlood {
	return flood.NewSpaceFlood(r.p.Epicenter, r.sys.grids, r.maxDistance, r.p.Options)
}

func (r *Run) logStep(newTiles int) {
	r.log.WithFields(logrus.Fields{
		"iteration":           r.iteration,
		"new_tiles":           newTiles,
		"remaining_intensity": r.remaining,
	}).Debug("Flood step")
}

// Partial returns the rings found so far without cleaning up
// Blocked tiles are included; the flood may keep stepping afterwards
func (r *Run) Partial() []Ring {
	var rings []Ring
	for it := range r.iterationIntensity {
		rings = append(rings, Ring{
			Iteration: it,
			Intensity: r.iterationIntensity[it],
			Tiles:     collect(it, r.space, r.grids, true),
		})
	}
	return rings
}
