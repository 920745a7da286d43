package viz

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/sim"
)

func TestCanvasGeometry(t *testing.T) {
	c := NewCanvas(10, 5)
	w, h := c.FieldSize()
	if w != 10 || h != 10 {
		t.Fatalf("FieldSize = %dx%d, want 10x10", w, h)
	}

	tests := []struct {
		col, row int
		in       bool
	}{
		{0, 0, true},
		{9, 4, true},
		{10, 0, false},
		{0, 5, false},
		{-1, 2, false},
	}
	for _, tt := range tests {
		if got := c.Contains(tt.col, tt.row); got != tt.in {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.col, tt.row, got, tt.in)
		}
	}

	p := c.Normalize(0, 0)
	if math.Abs(p.X-0.05) > 1e-12 || math.Abs(p.Y-0.9) > 1e-12 {
		t.Errorf("Normalize(0, 0) = %+v, want (0.05, 0.9)", p)
	}
	p = c.Normalize(9, 4)
	if math.Abs(p.X-0.95) > 1e-12 || math.Abs(p.Y-0.1) > 1e-12 {
		t.Errorf("Normalize(9, 4) = %+v, want (0.95, 0.1)", p)
	}
}

func TestNewCanvasMinimum(t *testing.T) {
	c := NewCanvas(-3, 0)
	if c.Cols != 1 || c.Rows != 1 {
		t.Errorf("NewCanvas(-3, 0) = %+v, want 1x1", c)
	}
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(6, 3)
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	out := c.Render(img)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if n := strings.Count(out, upperHalf); n != 18 {
		t.Errorf("half blocks = %d, want 18", n)
	}
}

func TestPixelHex(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 0, color.RGBA{R: 255, G: 128, B: 0, A: 255})
	if got := pixelHex(img, 1, 0); got != "#ff8000" {
		t.Errorf("pixelHex = %s, want #ff8000", got)
	}
	if got := pixelHex(img, 5, 5); got != "#000000" {
		t.Errorf("pixelHex out of bounds = %s, want #000000", got)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	engine, err := sim.New(sim.Options{Width: 20, Height: 10, Workers: 2, Params: params.Defaults()})
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(engine, "test")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTicksAdvanceFrames(t *testing.T) {
	m := newTestModel(t)
	t0 := time.Unix(1000, 0)
	m = update(m, TickMsg(t0))
	m = update(m, TickMsg(t0.Add(16*time.Millisecond)))
	if got := m.engine.FrameCount(); got != 2 {
		t.Fatalf("FrameCount = %d, want 2", got)
	}
	if math.Abs(m.clock-0.016) > 1e-9 {
		t.Errorf("clock = %v, want 0.016", m.clock)
	}
	if len(m.hist.energy) != 2 {
		t.Errorf("energy history = %d, want 2", len(m.hist.energy))
	}

	// A long stall only moves the clock by the cap.
	m = update(m, TickMsg(t0.Add(5*time.Second)))
	if math.Abs(m.clock-(0.016+maxTickDelta)) > 1e-9 {
		t.Errorf("clock after stall = %v", m.clock)
	}
}

func TestModelPause(t *testing.T) {
	m := newTestModel(t)
	m = update(m, key(" "))
	if m.running {
		t.Fatal("space should pause")
	}
	t0 := time.Unix(1000, 0)
	m = update(m, TickMsg(t0))
	m = update(m, TickMsg(t0.Add(time.Second)))
	if m.engine.FrameCount() != 0 || m.clock != 0 {
		t.Errorf("paused model advanced: frames=%d clock=%v", m.engine.FrameCount(), m.clock)
	}
}

func TestModelParameterKeys(t *testing.T) {
	m := newTestModel(t)
	name := m.names[0]
	before, _ := m.engine.Params().Snapshot().Get(name)
	m = update(m, key("up"))
	after, _ := m.engine.Params().Snapshot().Get(name)
	if after <= before {
		t.Errorf("%s: up %v -> %v, want increase", name, before, after)
	}

	m = update(m, key("tab"))
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.selected != len(m.names)-1 {
		t.Errorf("selected = %d, want wrap to %d", m.selected, len(m.names)-1)
	}

	m = update(m, key("a"))
	if m.engine.Params().Snapshot().AutoMove {
		t.Error("a should toggle autoMove off")
	}

	m = update(m, key("p"))
	if got := m.engine.Params().Snapshot().Preset; got != params.ListPresets()[0] {
		t.Errorf("preset = %q, want %q", got, params.ListPresets()[0])
	}

	m = update(m, key("r"))
	p := m.engine.Params().Snapshot()
	if p != m.initial {
		t.Errorf("reset did not restore parameters: %+v", p)
	}
}

func TestModelMouse(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionMotion})
	st := m.engine.PointerState()
	if !st.Active || !st.Engaged {
		t.Fatalf("pointer state after motion = %+v", st)
	}
	want := m.canvas.Normalize(3, 2)
	if st.Position != want {
		t.Errorf("position = %+v, want %+v", st.Position, want)
	}

	// Leaving the canvas keeps the pointer until it times out.
	m = update(m, tea.MouseMsg{X: 500, Y: 2, Action: tea.MouseActionMotion})
	if st := m.engine.PointerState(); !st.Active || st.Position != want {
		t.Errorf("leave changed pointer state: %+v", st)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.engine.PointerState().Active {
		t.Error("esc should drop the pointer")
	}
}

func TestModelResetForgetsPointer(t *testing.T) {
	m := newTestModel(t)
	m.clock = 10
	m = update(m, tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionMotion})
	if st := m.engine.PointerState(); st.LastActive != 10 {
		t.Fatalf("LastActive = %v, want 10", st.LastActive)
	}

	m = update(m, key("r"))
	if st := m.engine.PointerState(); st.Engaged || st.LastActive != 0 {
		t.Errorf("pointer state after reset = %+v", st)
	}

	t0 := time.Unix(1000, 0)
	m = update(m, TickMsg(t0))
	m = update(m, TickMsg(t0.Add(16*time.Millisecond)))
	if !m.engine.LastForce().UsingAutoMovement {
		t.Error("orbit should drive the field after reset")
	}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: panelWidth + 30, Height: 12})
	w, h := m.engine.Size()
	if w != 30 || h != 24 {
		t.Errorf("engine size = %dx%d, want 30x24", w, h)
	}
	if m.canvas.Cols != 30 || m.canvas.Rows != 12 {
		t.Errorf("canvas = %+v", m.canvas)
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m = update(m, TickMsg(time.Unix(1000, 0)))
	out := m.View()
	for _, want := range []string{"RUNNING", "Coverage", "colorIntensity"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRecorderSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	r := &recorder{path: path}
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	r.capture(img)
	r.capture(img)
	if len(r.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(r.frames))
	}
	if err := r.save(); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("gif not written: %v", err)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "░░░░"},
		{5, "██░░"},
		{10, "████"},
		{20, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.v, 0, 10, 4); got != tt.want {
			t.Errorf("ProgressBar(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSparklineChart(t *testing.T) {
	got := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 4)
	if got != "▁▃▅█" {
		t.Errorf("SparklineChart = %q", got)
	}
	if got := SparklineChart(nil, 3); got != "───" {
		t.Errorf("empty SparklineChart = %q", got)
	}
}

func TestNextTheme(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)
	SetTheme("washi")
	NextTheme()
	if CurrentTheme.Name != "sumi" {
		t.Errorf("NextTheme = %s, want sumi", CurrentTheme.Name)
	}
	if GetTheme("nope").Name != "washi" {
		t.Error("unknown theme should fall back to washi")
	}
}
