package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/softsim/internal/scene"
)

const (
	stateMenu = iota
	stateSim
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	menuErr      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// SceneBuilder builds a fresh scene for a named preset.
type SceneBuilder func(name string) (*scene.Scene, error)

// Menu lists presets and opens a live view for the chosen one.
type Menu struct {
	state    int
	cursor   int
	presets  []string
	describe func(string) string
	build    SceneBuilder
	err      error
	live     Model
}

func NewMenu(presets []string, describe func(string) string, build SceneBuilder) Menu {
	if describe == nil {
		describe = func(string) string { return "" }
	}
	return Menu{presets: presets, describe: describe, build: build}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.live.stopRecording()
			m.state = stateMenu
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter":
		return m.start()
	}
	return m, nil
}

func (m Menu) start() (tea.Model, tea.Cmd) {
	if len(m.presets) == 0 {
		return m, nil
	}
	name := m.presets[m.cursor]
	s, err := m.build(name)
	if err != nil {
		m.err = fmt.Errorf("%s: %w", name, err)
		return m, nil
	}
	m.err = nil
	m.live = NewModel(s, name)
	m.state = stateSim
	return m, m.live.Init()
}

func (m Menu) View() string {
	if m.state == stateSim {
		return m.live.View() + "\n" + menuSub.Render("esc: back to presets")
	}

	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("SOFTSIM") + "\n    " + menuSub.Render("xpbd soft body solver") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := m.describe(name)
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", menuCursor.Render("▸"), menuSelected.Render(fmt.Sprintf("%-14s", name)), menuDesc.Render(desc))
		} else {
			fmt.Fprintf(&b, "    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-14s", name)), menuIdle.Render(desc))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + menuErr.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") + menuKey.Render("enter") + menuIdle.Render(" start  ") + menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

func RunMenu(m Menu) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
