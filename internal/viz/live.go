package viz

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/color/palette"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	xdraw "golang.org/x/image/draw"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/metrics"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/sim"
)

const (
	panelWidth      = 44
	historyCapacity = 600
	maxGIFFrames    = 600
	// maxTickDelta caps how far the clock jumps after a stall.
	maxTickDelta = 0.1
	tickInterval = time.Second / 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// history collects per-frame measurements from the engine.
type history struct {
	energy   []float64
	coverage []float64
	last     metrics.Sample
}

func (h *history) OnFrame(info sim.FrameInfo) {
	s := metrics.Measure(info.Field)
	s.Frame, s.Time = info.Index, info.Time
	s.AutoMove = info.Force.UsingAutoMovement
	h.last = s
	h.energy = appendCapped(h.energy, s.Energy)
	h.coverage = appendCapped(h.coverage, s.Coverage)
}

func (h *history) clear() {
	h.energy = h.energy[:0]
	h.coverage = h.coverage[:0]
	h.last = metrics.Sample{}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// recorder quantizes committed frames for a GIF.
type recorder struct {
	path   string
	frames []*image.Paletted
}

func (r *recorder) capture(img *image.RGBA) {
	if len(r.frames) >= maxGIFFrames {
		return
	}
	p := image.NewPaletted(img.Bounds(), palette.Plan9)
	xdraw.FloydSteinberg.Draw(p, p.Bounds(), img, img.Bounds().Min)
	r.frames = append(r.frames, p)
}

func (r *recorder) save() error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(r.path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Model is the live terminal view. The pointer drives the forcing while
// the mouse is over the canvas.
type Model struct {
	engine  *sim.Engine
	canvas  Canvas
	hist    *history
	title   string
	initial params.Set

	img      *image.RGBA
	clock    float64
	lastTick time.Time
	fps      float64
	running  bool
	lastErr  error

	names    []string
	selected int

	rec      *recorder
	showHelp bool
	width    int
	height   int
}

// NewModel wraps an engine. The engine's current parameters are what reset
// restores.
func NewModel(engine *sim.Engine, title string) Model {
	w, h := engine.Size()
	hist := &history{
		energy:   make([]float64, 0, historyCapacity),
		coverage: make([]float64, 0, historyCapacity),
	}
	engine.AddObserver(hist)
	return Model{
		engine:  engine,
		canvas:  NewCanvas(w, h/2),
		hist:    hist,
		title:   title,
		initial: engine.Params().Snapshot(),
		running: true,
		names:   params.Names(),
		width:   w + panelWidth,
		height:  h / 2,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and advances the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	store := m.engine.Params()
	switch msg.String() {
	case "q", "ctrl+c":
		m.stopRecording()
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "p":
		m.cyclePreset()
	case "a":
		p := store.Snapshot()
		_ = store.SetBool(params.FlagAutoMove, !p.AutoMove)
	case "i":
		p := store.Snapshot()
		_ = store.SetBool(params.FlagAutoMoveWhenInactive, !p.AutoMoveWhenInactive)
	case "esc":
		m.engine.Pointer(force.Event{Kind: force.Lost, Time: m.clock})
	case "tab":
		m.selected = (m.selected + 1) % len(m.names)
	case "shift+tab":
		m.selected = (m.selected + len(m.names) - 1) % len(m.names)
	case "up", "k":
		m.nudge(1)
	case "down", "j":
		m.nudge(-1)
	case "g":
		if m.rec != nil {
			m.stopRecording()
		} else {
			m.rec = &recorder{path: "marbling.gif"}
		}
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if !m.canvas.Contains(msg.X, msg.Y) {
		m.engine.Pointer(force.Event{Kind: force.Leave, Time: m.clock})
		return
	}
	pos := m.canvas.Normalize(msg.X, msg.Y)
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.engine.Pointer(force.Event{Kind: force.Engage, Position: pos, Engaged: true, Time: m.clock})
	case msg.Action == tea.MouseActionRelease:
		m.engine.Pointer(force.Event{Kind: force.Engage, Position: pos, Engaged: false, Time: m.clock})
	case msg.Action == tea.MouseActionMotion:
		m.engine.Pointer(force.Event{Kind: force.Move, Position: pos, Time: m.clock})
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	canvas := NewCanvas(width-panelWidth, height)
	w, h := canvas.FieldSize()
	if err := m.engine.Resize(w, h); err != nil {
		m.lastErr = err
		return
	}
	m.canvas = canvas
	m.img = nil
}

// advance moves the clock by the wall time since the last tick while
// running and renders one frame.
func (m *Model) advance(now time.Time) {
	if !m.lastTick.IsZero() {
		dt := now.Sub(m.lastTick).Seconds()
		if dt > 0 {
			m.fps = 0.9*m.fps + 0.1/dt
		}
		if m.running {
			m.clock += min(dt, maxTickDelta)
		}
	}
	m.lastTick = now
	if !m.running {
		return
	}

	img, err := m.engine.Frame(m.clock)
	m.img = img
	var fe *dynamo.FrameError
	if errors.As(err, &fe) {
		m.lastErr = err
		return
	}
	m.lastErr = nil
	if m.rec != nil {
		m.rec.capture(img)
	}
}

// reset re-seeds the field and restores the starting parameters.
func (m *Model) reset() {
	m.engine.Reset()
	_ = m.engine.Params().Update(func(s *params.Set) error {
		*s = m.initial
		return nil
	})
	m.clock = 0
	m.hist.clear()
	m.lastErr = nil
}

func (m *Model) cyclePreset() {
	names := params.ListPresets()
	cur := m.engine.Params().Snapshot().Preset
	next := names[0]
	for i, name := range names {
		if name == cur {
			next = names[(i+1)%len(names)]
			break
		}
	}
	if err := m.engine.Params().ApplyPreset(next); err != nil {
		m.lastErr = err
		return
	}
	dynamo.Logger().Info("preset applied", "preset", next)
}

func (m *Model) nudge(steps float64) {
	if _, err := m.engine.Params().Nudge(m.names[m.selected], steps); err != nil {
		m.lastErr = err
	}
}

func (m *Model) stopRecording() {
	if m.rec == nil {
		return
	}
	if err := m.rec.save(); err != nil {
		dynamo.Logger().Warn("gif save failed", "path", m.rec.path, "err", err)
		m.lastErr = err
	} else {
		dynamo.Logger().Info("gif saved", "path", m.rec.path, "frames", len(m.rec.frames))
	}
	m.rec = nil
}

// View renders the canvas and the side panel.
func (m Model) View() string {
	var canvasView string
	if m.img != nil {
		canvasView = m.canvas.Render(m.img)
	} else {
		canvasView = strings.Repeat(strings.Repeat(" ", m.canvas.Cols)+"\n", m.canvas.Rows-1) +
			strings.Repeat(" ", m.canvas.Cols)
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.panel())
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

func (m Model) panel() string {
	p := m.engine.Params().Snapshot()
	sample := m.engine.LastForce()
	inner := panelWidth - 4

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), CurrentTheme.Primary, CurrentTheme.Accent) + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(statusStyle(m.running).Render(status))
	if m.rec != nil {
		s.WriteString("  " + StatusRecording.Render(fmt.Sprintf("● REC %d", len(m.rec.frames))))
	}
	s.WriteString("\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	w, h := m.engine.Size()
	row("Time", fmt.Sprintf("%.2fs", m.clock))
	row("FPS", fmt.Sprintf("%.0f", m.fps))
	row("Frame", fmt.Sprintf("%d (%d faults)", m.engine.FrameCount(), m.engine.Faults()))
	row("Field", fmt.Sprintf("%dx%d", w, h))
	source := "pointer"
	if sample.UsingAutoMovement {
		source = "orbit"
	}
	row("Source", fmt.Sprintf("%s (%.2f, %.2f)", source, sample.Center.X, sample.Center.Y))
	preset := p.Preset
	if preset == "" {
		preset = "custom"
	}
	row("Preset", preset)
	row("Auto", fmt.Sprintf("move=%t inactive=%t", p.AutoMove, p.AutoMoveWhenInactive))

	if len(m.hist.energy) > 1 {
		chart := asciigraph.Plot(m.hist.energy,
			asciigraph.Height(4), asciigraph.Width(inner-8), asciigraph.Caption("energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	row("Coverage", fmt.Sprintf("%.1f%%", m.hist.last.Coverage*100))
	s.WriteString(SparklineChart(m.hist.coverage, inner) + "\n")
	s.WriteString(Separator(inner) + "\n")

	for i, name := range m.names {
		sp, _ := params.LookupSpec(name)
		v, _ := p.Get(name)
		line := fmt.Sprintf("%-17s %s %5.2f", name, ProgressBar(v, sp.Min, sp.Max, 8), v)
		if i == m.selected {
			s.WriteString(activeStyle().Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	if m.lastErr != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(truncate(m.lastErr.Error(), inner)) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset P:Preset Q:Quit\nTab:Param ↑↓:Tune A/I:Auto ?:Help"))
	return panelStyle.Width(panelWidth).Render(s.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD AND MOUSE          ║
╠══════════════════════════════════════╣
║  Mouse    - Stir the ink             ║
║  Click    - Take over from the orbit ║
║  Esc      - Drop the pointer         ║
║  Space    - Pause/Resume             ║
║  R        - Reset field and params   ║
║  P        - Next color preset        ║
║  A / I    - Toggle auto movement     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// RunLive runs the live view full screen with mouse tracking.
func RunLive(engine *sim.Engine, title string) error {
	_, err := tea.NewProgram(NewModel(engine, title), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
