package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/metrics"
	"github.com/san-kum/softsim/internal/physics"
	"github.com/san-kum/softsim/internal/scene"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	tickRate        = time.Second / 60
	rotateStep      = 0.1
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a scene once per tick and draws the published frames. The
// scene is only touched from Update, so drawing never races a step.
type Model struct {
	scene  *scene.Scene
	title  string
	canvas *Canvas
	camera *Camera
	theme  Theme
	styles styles

	edges  map[uuid.UUID][]physics.Edge
	frames []scene.Frame

	running bool
	err     error

	heightHistory []float64
	energyHistory []float64
	lowest        float64
	stretch       float64
	energy        float64

	recorder *Recorder
	showHelp bool
}

func NewModel(s *scene.Scene, title string) Model {
	m := Model{
		scene:         s,
		title:         title,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		theme:         Themes[0],
		styles:        newStyles(Themes[0]),
		edges:         make(map[uuid.UUID][]physics.Edge),
		running:       true,
		heightHistory: make([]float64, 0, historyCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
		stretch:       1,
	}
	m.fitCamera()
	m.publish()
	m.draw()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "left", "h":
			m.camera.Rotate(-rotateStep, 0)
		case "right", "l":
			m.camera.Rotate(rotateStep, 0)
		case "up", "k":
			m.camera.Rotate(0, rotateStep)
		case "down", "j":
			m.camera.Rotate(0, -rotateStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.fitCamera()
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "g":
			if m.recorder != nil {
				m.stopRecording()
			} else {
				m.recorder = NewRecorder()
			}
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

// step advances the scene once and publishes the result.
func (m *Model) step() {
	if err := m.scene.Step(); err != nil {
		m.fail(err)
		return
	}
	m.publish()

	for _, b := range m.scene.SoftBodies() {
		if !b.Particles().Valid() {
			m.fail(&dynamo.SimulationError{Step: m.scene.Steps(), Time: m.elapsed(), Wrapped: dynamo.ErrUnstable})
			return
		}
	}

	m.heightHistory = appendCapped(m.heightHistory, m.lowest)
	m.energyHistory = appendCapped(m.energyHistory, m.energy)
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
	logging.Error("live simulation stopped", "err", err)
}

// publish copies the scene state into frames and refreshes the readouts.
func (m *Model) publish() {
	m.frames = m.scene.Publish()

	m.lowest = math.Inf(1)
	m.stretch = 1
	m.energy = 0
	for _, b := range m.scene.SoftBodies() {
		m.lowest = math.Min(m.lowest, dynamo.LowestY(b.Particles()))
		m.stretch = math.Max(m.stretch, b.MaxStretch())
		m.energy += metrics.Kinetic(b.Particles(), m.scene.Config.Dt)
	}
	if math.IsInf(m.lowest, 1) {
		m.lowest = 0
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// reset restores every body to its rest state.
func (m *Model) reset() {
	m.scene.Reset()
	m.err = nil
	m.heightHistory = m.heightHistory[:0]
	m.energyHistory = m.energyHistory[:0]
	m.publish()
}

func (m *Model) fitCamera() {
	var lo, hi mgl64.Vec3
	first := true
	grow := func(p mgl64.Vec3) {
		if first {
			lo, hi, first = p, p, false
			return
		}
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	for _, e := range m.scene.Entities() {
		switch e.Kind {
		case scene.KindSoftBody:
			for _, p := range e.Soft.Positions() {
				grow(p)
			}
		case scene.KindStatic:
			for _, p := range e.Static.Points {
				grow(p)
			}
		}
	}
	if first {
		return
	}
	lo[1] = math.Min(lo[1], m.scene.Config.FloorY)
	m.camera.Fit(lo, hi)
}

func (m Model) elapsed() float64 {
	return float64(m.scene.Steps()) * m.scene.Config.Dt
}

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Running() bool { return m.running }

func (m Model) Steps() int { return m.scene.Steps() }

func (m *Model) draw() {
	m.canvas.Clear()
	DrawFloor(m.canvas, m.camera, m.scene.Config.FloorY)
	for _, f := range m.frames {
		edges, ok := m.edges[f.EntityID]
		if !ok {
			edges = physics.BuildEdges(f.Indices)
			m.edges[f.EntityID] = edges
		}
		DrawWireframe(m.canvas, m.camera, f.Positions, edges)
	}
}

func (m *Model) stopRecording() {
	if m.recorder == nil {
		return
	}
	if path, err := m.recorder.Save(""); err != nil {
		logging.Error("save recording", "err", err)
	} else if path != "" {
		logging.Info("recording saved", "path", path)
	}
	m.recorder = nil
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("FAILED") + "\n" + st.label.Render(m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}
	if m.recorder != nil {
		s.WriteString(st.failed.Render(fmt.Sprintf("REC %d frames", m.recorder.Len())) + "\n\n")
	}

	if len(m.heightHistory) > 1 {
		chart := asciigraph.Plot(m.heightHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Lowest y"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	particles, constraints := 0, 0
	for _, b := range m.scene.SoftBodies() {
		particles += b.NumParticles()
		constraints += len(b.Constraints())
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.elapsed()))
	row("Steps", fmt.Sprintf("%d", m.scene.Steps()))
	row("Particles", fmt.Sprintf("%d", particles))
	row("Constraints", fmt.Sprintf("%d", constraints))
	row("Lowest y", fmt.Sprintf("%.4f", m.lowest))
	row("Max stretch", fmt.Sprintf("%.3f", m.stretch))
	row("Kinetic", fmt.Sprintf("%.3f", m.energy))
	s.WriteString(st.label.Render("") + st.value.Render(SparklineChart(m.energyHistory, 24)) + "\n")

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\n←→↑↓:Orbit +/-:Zoom F:Fit\nT:Theme G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset bodies to rest     ║
║  Q        - Quit                     ║
║  Arrows   - Orbit camera             ║
║  +/-      - Zoom                     ║
║  F        - Fit camera to scene      ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run starts the live view full screen and blocks until it quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// WithTheme returns m using the named theme.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.styles = newStyles(m.theme)
	return m
}
