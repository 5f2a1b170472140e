package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type view int

const (
	viewSeries view = iota
	viewPhase
	viewOrbit
)

func (v view) String() string {
	switch v {
	case viewPhase:
		return "phase"
	case viewOrbit:
		return "orbit"
	default:
		return "series"
	}
}

// Browser is a Bubble Tea model for stepping through a finished trajectory.
type Browser struct {
	title string
	tr    *dynamo.Trajectory

	cursor int
	varIdx int
	view   view
	theme  int
	camera *Camera
	orbit  []Vec3

	width  int
	height int
}

func NewBrowser(title string, tr *dynamo.Trajectory) Browser {
	b := Browser{
		title:  title,
		tr:     tr,
		camera: NewCamera(),
		width:  80,
		height: 24,
	}
	if b.dim() >= 3 {
		b.orbit = Orbit(tr, 0, 1, 2)
	}
	return b
}

// RunBrowser blocks until the user quits.
func RunBrowser(title string, tr *dynamo.Trajectory) error {
	if tr == nil || tr.Len() == 0 {
		return fmt.Errorf("nothing to browse: trajectory is empty")
	}
	_, err := tea.NewProgram(NewBrowser(title, tr), tea.WithAltScreen()).Run()
	return err
}

func (m Browser) dim() int {
	if m.tr == nil || len(m.tr.States) == 0 {
		return 0
	}
	return len(m.tr.States[0])
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	last := m.tr.Len() - 1
	jump := max(last/10, 1)

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l":
		if m.view == viewOrbit {
			m.camera.Rotate(0, 0.1)
		} else {
			m.cursor = min(m.cursor+1, last)
		}
	case "left", "h":
		if m.view == viewOrbit {
			m.camera.Rotate(0, -0.1)
		} else {
			m.cursor = max(m.cursor-1, 0)
		}
	case "up", "k":
		if m.view == viewOrbit {
			m.camera.Rotate(-0.1, 0)
		}
	case "down", "j":
		if m.view == viewOrbit {
			m.camera.Rotate(0.1, 0)
		}
	case "pgup":
		m.cursor = max(m.cursor-jump, 0)
	case "pgdown":
		m.cursor = min(m.cursor+jump, last)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = last
	case "+", "=":
		m.camera.ZoomIn()
	case "-":
		m.camera.ZoomOut()
	case "tab":
		if d := m.dim(); d > 0 {
			m.varIdx = (m.varIdx + 1) % d
		}
	case "p":
		if m.view == viewPhase {
			m.view = viewSeries
		} else if m.dim() >= 2 {
			m.view = viewPhase
		}
	case "o":
		if m.view == viewOrbit {
			m.view = viewSeries
		} else if len(m.orbit) > 0 {
			m.view = viewOrbit
		}
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
	}
	return m, nil
}

func (m Browser) View() string {
	theme := Themes[m.theme]
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary)
	accent := lipgloss.NewStyle().Foreground(theme.Accent)
	muted := lipgloss.NewStyle().Foreground(theme.Muted)
	text := lipgloss.NewStyle().Foreground(theme.Text)

	var b strings.Builder
	b.WriteString(title.Render(m.title))
	b.WriteString(muted.Render(fmt.Sprintf("  [%s | %s]", m.view, theme.Name)))
	b.WriteString("\n\n")

	plotW := max(m.width-12, 20)
	plotH := max(m.height-10, 6)

	switch m.view {
	case viewPhase:
		y := (m.varIdx + 1) % m.dim()
		portrait, err := NewPhasePortrait(m.tr, m.varIdx, y)
		if err != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(err.Error()))
			break
		}
		b.WriteString(accent.Render(portrait.Braille(plotW/2, plotH)))
		b.WriteString(muted.Render(fmt.Sprintf("%s vs %s", portrait.YLabel, portrait.XLabel)))
	case viewOrbit:
		c := NewCanvas(plotW/2, plotH)
		RenderOrbit(c, m.orbit, m.camera)
		b.WriteString(accent.Render(c.String()))
		b.WriteString(muted.Render(fmt.Sprintf("%s / %s / %s  zoom %.2f",
			m.tr.VarName(0), m.tr.VarName(1), m.tr.VarName(2), m.camera.Zoom)))
	default:
		chart, err := TimeSeries(m.tr, []int{m.varIdx}, PlotOptions{
			Width:  plotW,
			Height: plotH,
			Theme:  theme,
		})
		if err != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(err.Error()))
			break
		}
		b.WriteString(chart)
	}
	b.WriteString("\n\n")

	t := m.tr.Times[m.cursor]
	x := m.tr.States[m.cursor]
	parts := make([]string, len(x))
	for i, v := range x {
		entry := fmt.Sprintf("%s=%.6g", m.tr.VarName(i), v)
		if i == m.varIdx {
			parts[i] = accent.Render(entry)
		} else {
			parts[i] = text.Render(entry)
		}
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", muted.Render(fmt.Sprintf("[%d/%d] t=%.5g", m.cursor+1, m.tr.Len(), t)),
		strings.Join(parts, "  ")))
	b.WriteString(KeyHint.Render("←/→ scrub  pgup/pgdn jump  tab var  p phase  o orbit  t theme  q quit"))
	return b.String()
}
