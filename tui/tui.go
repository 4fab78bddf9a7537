// Package tui hosts a renderer in the terminal. Frames are flushed on a
// bubbletea tick and mouse events drive the pointer handler.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
	"github.com/TFMV/springgraph/render"
)

const (
	doubleClickWindow = 400 * time.Millisecond
	statusLines       = 1
	defaultFitSeconds = 0.5
)

var (
	edgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	nodeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	hoverStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Underline(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Options configures the terminal host.
type Options struct {
	FPS        int
	Glyph      rune
	TimeStep   float64
	Chase      float64
	HitRadius  float64
	FitSeconds float64 // duration of the fit animation; 0 means 0.5
	Logger     *log.Logger
}

type tickMsg time.Time

// Model is the bubbletea model. It owns the canvas, the frame queue and the
// renderer; all of them are only touched from Update.
type Model struct {
	graph    *graph.Graph
	canvas   *render.Canvas
	frames   *render.FrameQueue
	renderer *render.Renderer
	interval time.Duration
	fit      float32
	now      func() time.Time

	lastClick   time.Time
	lastClickAt [2]int
	quitting    bool
}

// New creates a model drawing fd.
func New(fd *physics.ForceDirectedLayout, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.FitSeconds <= 0 {
		opts.FitSeconds = defaultFitSeconds
	}
	m := &Model{
		graph:    fd.Graph(),
		frames:   &render.FrameQueue{},
		interval: time.Second / time.Duration(opts.FPS),
		fit:      float32(opts.FitSeconds),
		now:      time.Now,
	}
	m.canvas = render.NewCanvas(fd.Graph(), 80, 24-statusLines, opts.Glyph)
	m.renderer = render.New(fd, m.canvas, m.frames, m.canvas, render.Options{
		TimeStep:  opts.TimeStep,
		Chase:     opts.Chase,
		HitRadius: opts.HitRadius,
		Logger:    opts.Logger,
	})
	return m
}

// Renderer returns the model's renderer.
func (m *Model) Renderer() *render.Renderer {
	return m.renderer
}

func (m *Model) Init() tea.Cmd {
	m.renderer.Start()
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frames.Flush()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.canvas.Resize(msg.Width, msg.Height-statusLines)
		m.renderer.Start()
		return m, nil

	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.renderer.Fit(m.fit)
		case "l":
			m.canvas.ShowLabels = !m.canvas.ShowLabels
			m.renderer.Start()
		case " ":
			if m.renderer.Running() {
				m.renderer.Stop()
			} else {
				m.renderer.Start()
			}
		}
	}
	return m, nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	x, y := float64(msg.X), float64(msg.Y)
	p := m.renderer.Pointer()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		now := m.now()
		at := [2]int{msg.X, msg.Y}
		if now.Sub(m.lastClick) < doubleClickWindow && at == m.lastClickAt {
			m.lastClick = time.Time{}
			p.DoubleClick(x, y)
			return
		}
		m.lastClick = now
		m.lastClickAt = at
		p.Press(x, y)
	case tea.MouseActionMotion:
		p.Move(x, y)
	case tea.MouseActionRelease:
		p.Release(x, y)
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	width, height := m.canvas.Dimensions()
	for y := 0; y < height; y++ {
		m.renderRow(&b, y, width)
		b.WriteByte('\n')
	}
	b.WriteString(m.status())
	return b.String()
}

// renderRow writes one canvas row, styling runs of cells that share a style.
func (m *Model) renderRow(b *strings.Builder, y, width int) {
	var run strings.Builder
	var current *lipgloss.Style
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if current == nil {
			b.WriteString(run.String())
		} else {
			b.WriteString(current.Render(run.String()))
		}
		run.Reset()
	}

	for x := 0; x < width; x++ {
		r, owner := m.canvas.Cell(x, y)
		style := m.cellStyle(r, owner)
		if style != current {
			flush()
			current = style
		}
		run.WriteRune(r)
	}
	flush()
}

func (m *Model) cellStyle(r rune, owner string) *lipgloss.Style {
	if owner == "" {
		if r == ' ' {
			return nil
		}
		return &edgeStyle
	}
	p := m.renderer.Pointer()
	if n := p.Selected(); n != nil && n.ID == owner {
		return &selectedStyle
	}
	if n := p.Hovered(); n != nil && n.ID == owner {
		return &hoverStyle
	}
	return &nodeStyle
}

func (m *Model) status() string {
	nodes, edges := m.graph.Len()
	line := fmt.Sprintf("nodes %d  edges %d  energy %.5f  frame %d", nodes, edges, m.renderer.Layout().Energy(), m.renderer.Frames())
	if n := m.renderer.Pointer().Selected(); n != nil {
		line += "  selected " + nodeName(n)
	}
	state := "idle"
	if m.renderer.Running() {
		state = runningStyle.Render("running")
	}
	return statusStyle.Render(line) + "  " + state + statusStyle.Render("  [f]it [l]abels [space] pause [q]uit")
}

func nodeName(n *graph.Node) string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// Run starts a full-screen program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, fd *physics.ForceDirectedLayout, opts Options) error {
	m := New(fd, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal program: %w", err)
	}
	return nil
}
