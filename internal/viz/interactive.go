package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/marbling/internal/config"
	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/sim"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5efe6")).Bold(true)
	subStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8178"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4d66b3")).Bold(true)
	pickedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickedDesc    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9fb4ff"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c5650"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4d66b3")).Bold(true)
	keyLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c5650"))
)

var sceneInfo = map[string]string{
	"default": "blue-black ink on washi",
	"calm":    "slow sumi wash",
	"storm":   "strong blue currents",
	"bleed":   "soft sepia bleeding",
	"crisp":   "sharp red edges",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type app struct {
	state, cursor int
	scenes        []string
	selected      string
	set           params.Set
	names         []string
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	width, height int
	workers       int
	live          Model
}

// NewInteractiveApp starts at the scene menu.
func NewInteractiveApp(workers int) tea.Model {
	return app{
		state:   stateMenu,
		scenes:  config.ListScenes(),
		names:   params.Names(),
		workers: workers,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	if m.state == stateSim {
		return m.forward(msg)
	}
	return m, nil
}

func (m app) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(Model)
	return m, cmd
}

func (m app) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.forward(msg)
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.scenes[m.cursor]
		set, _, err := config.GetScene(m.selected).ParamSet()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.set, m.err = set, nil
		m.state, m.paramCursor = stateConfig, 0
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.names[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				_, m.err = m.set.SetClamped(name, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.names)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		v, _ := m.set.Get(name)
		m.editing, m.editBuf = true, strconv.FormatFloat(v, 'f', -1, 64)
	case "left", "h":
		m.adjust(name, -1)
	case "right", "l":
		m.adjust(name, 1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *app) adjust(name string, steps float64) {
	sp, ok := params.LookupSpec(name)
	if !ok {
		return
	}
	v, _ := m.set.Get(name)
	_, m.err = m.set.SetClamped(name, v+steps*sp.Step())
}

func (m app) start() (tea.Model, tea.Cmd) {
	cols, rows := config.DefaultWidth, config.DefaultHeight/2
	if m.width > 0 && m.height > 0 {
		cols, rows = m.width-panelWidth, m.height
	}
	canvas := NewCanvas(cols, rows)
	w, h := canvas.FieldSize()
	engine, err := sim.New(sim.Options{Width: w, Height: h, Workers: m.workers, Params: m.set})
	if err != nil {
		m.err = err
		return m, nil
	}
	dynamo.Logger().Info("live session", "scene", m.selected, "width", w, "height", h)
	m.live = NewModel(engine, m.selected)
	if m.width > 0 {
		m.live.width, m.live.height = m.width, m.height
	}
	m.state = stateSim
	return m, m.live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + keyLabelStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("MARBLING") + "\n    " + subStyle.Render("ink feedback simulation") + "\n    " + subStyle.Render("───────────────────────") + "\n\n")
	for i, name := range m.scenes {
		desc := sceneInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), pickedStyle.Render(fmt.Sprintf("%-10s", name)), pickedDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-10s", name)), idleStyle.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subStyle.Render(sceneInfo[m.selected]) + "\n    " + subStyle.Render("───────────────────────") + "\n\n")
	for i, name := range m.names {
		v, _ := m.set.Get(name)
		valStr := fmt.Sprintf("%8.3f", v)
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), pickedStyle.Render(fmt.Sprintf("%-18s", name)), pickedDesc.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-18s", name)), idleStyle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive starts the scene picker, then the live view.
func RunInteractive(workers int) error {
	_, err := tea.NewProgram(NewInteractiveApp(workers), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
