package viz

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/sim"
)

const (
	width           = 80
	height          = 24
	statsWidth      = 42
	historyCapacity = 600
	frameInterval   = time.Second / 60
	rotateStep      = 0.1
)

// Engine is the part of a simulation the viewer drives.
type Engine interface {
	Snapshot() sim.Frame
	TrailSnapshot(id dynamo.BodyID) ([]dynamo.Vec3, error)
	Step(elapsed time.Duration) error
	TogglePause() bool
	AdjustSpeed(delta float64) float64
	AdjustScale(delta float64) float64
	SetTrailEnabled(enabled bool)
	SetShortOrbitMode(short bool)
	Energy() float64
	Close() error
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live viewer of one running simulation.
type Model struct {
	engine        Engine
	title         string
	frame         sim.Frame
	canvas        *Canvas
	camera        *Camera
	extent        float64
	last          time.Time
	energyHistory []float64
	lastErr       string
	showHelp      bool
	quitting      bool
}

// NewModel fits the view to the initial positions of engine.
func NewModel(engine Engine, title string) Model {
	frame := engine.Snapshot()
	points := make([]dynamo.Vec3, len(frame.Bodies))
	for i, b := range frame.Bodies {
		points[i] = b.Position
	}
	return Model{
		engine:        engine,
		title:         title,
		frame:         frame,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		extent:        Extent(points),
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.canvas = NewCanvas(msg.Width-statsWidth-4, msg.Height-2)
		m.draw()
	case TickMsg:
		if m.quitting {
			return m, nil
		}
		now := time.Time(msg)
		var elapsed time.Duration
		if !m.last.IsZero() {
			elapsed = now.Sub(m.last)
		}
		m.last = now

		if err := m.engine.Step(elapsed); err != nil {
			if errors.Is(err, dynamo.ErrClosed) {
				return m, tea.Quit
			}
			m.lastErr = err.Error()
		} else {
			m.lastErr = ""
		}
		m.frame = m.engine.Snapshot()
		if e := m.engine.Energy(); !m.frame.Paused && !math.IsNaN(e) {
			m.energyHistory = append(m.energyHistory, e)
			if len(m.energyHistory) > historyCapacity {
				m.energyHistory = m.energyHistory[1:]
			}
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		_ = m.engine.Close()
		return m, tea.Quit
	case " ":
		m.frame.Paused = m.engine.TogglePause()
	case "+", "=":
		m.frame.Speed = m.engine.AdjustSpeed(m.frame.Speed * 0.25)
	case "-", "_":
		m.frame.Speed = m.engine.AdjustSpeed(-m.frame.Speed * 0.2)
	case "]":
		m.frame.Scale = m.engine.AdjustScale(m.frame.Scale * 0.25)
	case "[":
		m.frame.Scale = m.engine.AdjustScale(-m.frame.Scale * 0.2)
	case "t":
		m.frame.TrailsEnabled = !m.frame.TrailsEnabled
		m.engine.SetTrailEnabled(m.frame.TrailsEnabled)
	case "o":
		m.frame.ShortOrbits = !m.frame.ShortOrbits
		m.engine.SetShortOrbitMode(m.frame.ShortOrbits)
	case "x":
		m.camera.RotateX(rotateStep)
	case "X":
		m.camera.RotateX(-rotateStep)
	case "y":
		m.camera.RotateY(rotateStep)
	case "Y":
		m.camera.RotateY(-rotateStep)
	case "z":
		m.camera.RotateZ(rotateStep)
	case "Z":
		m.camera.RotateZ(-rotateStep)
	case "r":
		m.camera.Reset()
	case "c":
		CycleTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return m, nil
}

type projectedBody struct {
	x, y, r int
	depth   float64
	hex     string
}

// draw renders trails first, then bodies far to near.
func (m *Model) draw() {
	m.canvas.Clear()
	sw, sh := m.canvas.SubWidth(), m.canvas.SubHeight()
	ppu := 0.45 * float64(min(sw, sh)) / m.extent * m.frame.Scale
	proj := m.camera.Frame(ppu, sw, sh)

	bodies := make([]projectedBody, 0, len(m.frame.Bodies))
	for _, b := range m.frame.Bodies {
		if m.frame.TrailsEnabled {
			m.drawTrail(proj, b)
		}
		x, y, depth, ok := proj.Project(b.Position)
		if !ok {
			continue
		}
		r := int(math.Round(b.Radius * ppu))
		bodies = append(bodies, projectedBody{x: x, y: y, r: min(max(r, 0), 6), depth: depth, hex: b.Color.Clamped().Hex()})
	}

	slices.SortFunc(bodies, func(a, b projectedBody) int {
		switch {
		case a.depth < b.depth:
			return -1
		case a.depth > b.depth:
			return 1
		}
		return 0
	})
	for _, b := range bodies {
		m.canvas.Disc(b.x, b.y, b.r, b.hex)
	}
}

var trailBackground = colorful.Color{R: 0.05, G: 0.05, B: 0.08}

func (m *Model) drawTrail(proj Projection, b sim.BodyView) {
	trail, err := m.engine.TrailSnapshot(b.ID)
	if err != nil || len(trail) < 2 {
		return
	}
	hex := b.Color.BlendLab(trailBackground, 0.55).Clamped().Hex()

	px, py, _, pok := proj.Project(trail[0])
	for _, p := range trail[1:] {
		x, y, _, ok := proj.Project(p)
		if ok && pok {
			m.canvas.DrawLine(px, py, x, y, hex)
		}
		px, py, pok = x, y, ok
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	theme := CurrentTheme
	label := lipgloss.NewStyle().Foreground(theme.Muted).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.Text)

	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).MarginBottom(1).Render(strings.ToUpper(m.title)) + "\n")

	status := lipgloss.NewStyle().Bold(true).Foreground(theme.Success).Render("RUNNING")
	if m.frame.Paused {
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.Warning).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	row := func(k, v string) { s.WriteString(label.Render(k) + value.Render(v) + "\n") }
	row("Time", fmt.Sprintf("%.3f", m.frame.Time))
	row("Step", fmt.Sprintf("%d", m.frame.Step))
	row("Bodies", fmt.Sprintf("%d", len(m.frame.Bodies)))
	row("Speed", fmt.Sprintf("%.2fx", m.frame.Speed))
	row("Scale", fmt.Sprintf("%.2fx", m.frame.Scale))
	trails := "off"
	if m.frame.TrailsEnabled {
		trails = "on"
		if m.frame.ShortOrbits {
			trails = "short"
		}
	}
	row("Trails", trails)

	if n := len(m.energyHistory); n > 0 {
		e0, e := m.energyHistory[0], m.energyHistory[n-1]
		row("Energy", fmt.Sprintf("%.6g", e))
		if e0 != 0 {
			row("Drift", fmt.Sprintf("%.2e", (e-e0)/math.Abs(e0)))
		}
	}
	if n := len(m.energyHistory); n > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(statsWidth-12), asciigraph.Caption("energy"))
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Secondary).Render(chart) + "\n")
	}
	if m.lastErr != "" {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Error).Width(statsWidth-4).Render(m.lastErr) + "\n")
	}

	help := "SP:pause +/-:speed [/]:scale\nt:trails o:short x/y/z:rotate\nr:view c:theme ?:help q:quit"
	s.WriteString(lipgloss.NewStyle().Foreground(theme.Muted).MarginTop(1).Render(help))

	stats := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(theme.Muted).
		Padding(0, 2).
		Width(statsWidth).
		Render(s.String())
	view := lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Padding(0, 1).Render(m.canvas.String()), stats)

	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `  space      pause / resume
  + / -      faster / slower
  ] / [      zoom in / out
  t          toggle trails
  o          short orbit trails
  x y z      rotate (shift reverses)
  r          reset view
  c          cycle theme
  q          quit`
