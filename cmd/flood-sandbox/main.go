package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/space-wizards/space-station-14-sub095/floodfill"
	"github.com/space-wizards/space-station-14-sub095/logger"
	"github.com/space-wizards/space-station-14-sub095/maze"
	"github.com/space-wizards/space-station-14-sub095/rumble"
	"github.com/space-wizards/space-station-14-sub095/scenario"
	"github.com/space-wizards/space-station-14-sub095/status"
	"github.com/space-wizards/space-station-14-sub095/tile"
)

const sampleRate = beep.SampleRate(44100)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "TOML scenario to load")
		useMaze      = flag.Bool("maze", false, "generate a station maze even when -scenario is set")
		width        = flag.Int("width", 41, "maze width")
		height       = flag.Int("height", 21, "maze height")
		braid        = flag.Float64("braid", 0.3, "maze braiding [0-1]")
		doors        = flag.Float64("doors", 0.5, "share of braided openings that get doors")
		seed         = flag.Int64("seed", 0, "maze seed; 0 uses the clock")
		tick         = flag.Duration("tick", 120*time.Millisecond, "auto-play interval per ring")
		sound        = flag.Bool("sound", false, "play a rumble when the flood finishes")
		save         = flag.String("save", "", "write the loaded or generated scenario to this path")
		logPath      = flag.String("log", "", "log file; logs are discarded when empty")
	)
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger.Configure(logger.Log, out, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	scn, err := loadScenario(*scenarioPath, *useMaze, maze.Config{
		Width:      *width,
		Height:     *height,
		Braiding:   *braid,
		DoorChance: *doors,
		Seed:       *seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *save != "" {
		if err := scn.Save(*save); err != nil {
			fmt.Fprintf(os.Stderr, "save: %v\n", err)
			os.Exit(1)
		}
	}

	sb, err := newSandbox(scn, *tick, *sound)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer sb.screen.Fini()

	if err := sb.loop(); err != nil {
		sb.screen.Fini()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadScenario reads path unless a maze is requested or no path is given
func loadScenario(path string, useMaze bool, cfg maze.Config) (*scenario.Scenario, error) {
	if path != "" && !useMaze {
		return scenario.Load(path)
	}
	return scenario.FromMaze(maze.Generate(cfg), 1, tile.Index{})
}

type sandbox struct {
	screen tcell.Screen
	scn    *scenario.Scenario
	reg    *status.Registry
	sys    *floodfill.System

	run    *floodfill.Run
	result *floodfill.Result
	rings  []floodfill.Ring
	err    error

	tick    time.Duration
	auto    bool
	audioOK bool
}

func newSandbox(scn *scenario.Scenario, tick time.Duration, sound bool) (*sandbox, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	reg := status.NewRegistry()
	sb := &sandbox{
		screen: screen,
		scn:    scn,
		reg:    reg,
		sys:    floodfill.NewSystem(scn.Set(), logger.Component("floodfill"), reg),
		tick:   tick,
	}

	if sound {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			logger.Log.WithError(err).Warn("Audio initialization failed")
		} else {
			sb.audioOK = true
		}
	}

	sb.restart()
	return sb, nil
}

// restart discards the current flood and seeds a new one
func (sb *sandbox) restart() {
	if sb.audioOK {
		speaker.Clear()
	}
	sb.result = nil
	sb.rings = nil
	sb.run, sb.err = sb.sys.Start(sb.scn.Params())
	if sb.err == nil {
		sb.rings = sb.run.Partial()
	}
}

// step grows one ring, finishing the flood when it stops
func (sb *sandbox) step() {
	if sb.run == nil || sb.result != nil {
		return
	}
	if sb.run.Step() {
		sb.rings = sb.run.Partial()
		return
	}
	sb.result = sb.run.Finish()
	sb.rings = sb.result.Rings()
	sb.auto = false

	if sb.audioOK {
		speaker.Play(rumble.New(sb.result, sampleRate, max(sb.tick, 50*time.Millisecond)))
	}
}

func (sb *sandbox) loop() error {
	events := make(chan tcell.Event, 16)
	go func() {
		defer close(events)
		for {
			ev := sb.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	interval := sb.tick
	if interval <= 0 {
		interval = 120 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sb.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				sb.screen.Sync()
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
					return nil
				case ev.Rune() == ' ':
					sb.auto = false
					sb.step()
				case ev.Rune() == 'p' || ev.Key() == tcell.KeyEnter:
					sb.auto = !sb.auto
				case ev.Rune() == 'r':
					sb.restart()
				}
			}
			sb.draw()

		case <-ticker.C:
			if sb.auto {
				sb.step()
				sb.draw()
			}
		}
	}
}

func (sb *sandbox) draw() {
	s := sb.screen
	s.Clear()
	w, h := s.Size()

	p := sb.scn.Params()
	center := p.Epicenter
	toScreen := func(t tile.Index) (int, int, bool) {
		x := w/2 + int(t.X-center.X)
		y := h/2 - int(t.Y-center.Y)
		return x, y, x >= 0 && y >= 0 && x < w && y < h
	}

	floorStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	wallStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for _, m := range sb.scn.Set().Maps() {
		air := m.AirtightMap()
		for _, local := range m.Tiles() {
			x, y, ok := toScreen(m.ToSpace(local))
			if !ok {
				continue
			}
			ch, style := '.', floorStyle
			switch blocked := m.GetBlockedDirections(local); {
			case blocked == tile.All && len(air[local].Tolerance) > 0:
				ch, style = 'D', wallStyle
			case blocked == tile.All:
				ch, style = '#', wallStyle
			case blocked != tile.Invalid:
				ch, style = '+', wallStyle
			}
			s.SetContent(x, y, ch, nil, style)
		}
	}

	peak := float32(0)
	for _, r := range sb.rings {
		peak = max(peak, r.Intensity)
	}
	for _, r := range sb.rings {
		style := heat(r.Intensity, peak)
		for _, t := range r.Tiles {
			x, y, ok := toScreen(t)
			if !ok {
				continue
			}
			ch, _, _, _ := s.GetContent(x, y)
			if ch == 0 || ch == ' ' {
				ch = '~'
			}
			s.SetContent(x, y, ch, nil, style)
		}
	}

	lines := []string{
		fmt.Sprintf("%s  epicenter %v", sb.scn.Name, p.Epicenter),
		"space: step  p: auto  r: restart  q: quit",
	}
	switch {
	case sb.err != nil:
		lines = append(lines, "error: "+sb.err.Error())
	case sb.result != nil:
		lines = append(lines, fmt.Sprintf("done: %d tiles in %d iterations", sb.result.Area, sb.result.Iterations()))
	case sb.run != nil:
		lines = append(lines, fmt.Sprintf("iteration %d, last ring %d tiles", sb.run.Iteration(), sb.run.LastNewTiles()))
	}
	lines = append(lines, sb.reg.Lines()...)

	label := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, line := range lines {
		for j, r := range line {
			s.SetContent(j, i, r, nil, label)
		}
	}
	s.Show()
}

// heat maps intensity onto a blue-to-red background
func heat(v, peak float32) tcell.Style {
	f := float32(0)
	if peak > 0 {
		f = v / peak
	}
	r := int32(40 + 215*f)
	b := int32(200 - 160*f)
	return tcell.StyleDefault.Background(tcell.NewRGBColor(r, 40, b)).Foreground(tcell.ColorBlack)
}
