// Package window hosts a renderer in a desktop window. Every node and edge
// owns a retained shape that the renderer moves each frame; ebiten paints the
// shapes on every tick whether or not the layout is animating.
package window

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
	"github.com/TFMV/springgraph/render"
)

const (
	nodeRadius        = 7
	edgeWidth         = 1.5
	doubleClickWindow = 400 * time.Millisecond
	pulseSeconds      = 0.35
	defaultFitSeconds = 0.5
)

var (
	background       = color.RGBA{0xf8, 0xf8, 0xf8, 0xff}
	defaultNodeColor = color.RGBA{0x42, 0x85, 0xf4, 0xff}
	defaultEdgeColor = color.RGBA{0x66, 0x66, 0x66, 0xff}
	hoverColor       = color.RGBA{0xff, 0xb3, 0x00, 0xff}
)

// Options configures the window host.
type Options struct {
	Width      int
	Height     int
	Title      string
	TimeStep   float64
	FitSeconds float64 // duration of the fit animation; 0 means 0.5
	Chase      float64
	HitRadius  float64
	Logger     *log.Logger
}

// shape is the retained drawing of one node or edge.
type shape struct {
	id     string
	color  color.RGBA
	label  string
	p1, p2 physics.Vector
}

// Game implements ebiten.Game and render.Backend.
type Game struct {
	ctx      context.Context
	graph    *graph.Graph
	renderer *render.Renderer
	frames   render.FrameQueue
	shapes   *render.Handles[*shape]
	edges    []*shape
	nodes    []*shape
	width    int
	height   int
	logger   *log.Logger
	fit      float32

	pointerDown bool
	fitDown     bool
	lastX       int
	lastY       int
	lastClick   time.Time

	pulse      *gween.Tween
	pulseScale float32
}

// NewGame creates a game drawing fd.
func NewGame(ctx context.Context, fd *physics.ForceDirectedLayout, opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.FitSeconds <= 0 {
		opts.FitSeconds = defaultFitSeconds
	}
	g := &Game{
		ctx:        ctx,
		graph:      fd.Graph(),
		fit:        float32(opts.FitSeconds),
		width:      opts.Width,
		height:     opts.Height,
		logger:     opts.Logger,
		pulseScale: 1,
	}
	g.shapes = render.NewHandles[*shape](fd.Graph(), func(s *shape) {
		g.logger.Debug("shape released", "id", s.id)
	})
	g.renderer = render.New(fd, g, &g.frames, g, render.Options{
		TimeStep:  opts.TimeStep,
		Chase:     opts.Chase,
		HitRadius: opts.HitRadius,
		Logger:    opts.Logger,
	})
	g.renderer.Pointer().OnSelect = func(*graph.Node) {
		g.pulse = gween.New(1.8, 1, pulseSeconds, ease.OutBack)
	}
	return g
}

// Size implements render.Surface.
func (g *Game) Size() (float64, float64) {
	return float64(g.width), float64(g.height)
}

// Clear implements render.Backend. Shapes are kept; only the draw list resets.
func (g *Game) Clear() {
	g.edges = g.edges[:0]
	g.nodes = g.nodes[:0]
}

// DrawEdge implements render.Backend.
func (g *Game) DrawEdge(e *graph.Edge, p1, p2 physics.Vector) {
	s := g.shapes.Edge(e.ID, func() *shape {
		return &shape{id: e.ID, color: parseHexColor(e.Data.Color, defaultEdgeColor), label: e.Data.Label}
	})
	off := render.ParallelOffset(g.graph, e, p1, p2)
	s.p1, s.p2 = p1.Add(off), p2.Add(off)
	g.edges = append(g.edges, s)
}

// DrawNode implements render.Backend.
func (g *Game) DrawNode(n *graph.Node, p physics.Vector) {
	s := g.shapes.Node(n.ID, func() *shape {
		return &shape{id: n.ID, color: parseHexColor(n.Data.Color, defaultNodeColor), label: n.Data.Label}
	})
	s.p1 = p
	g.nodes = append(g.nodes, s)
}

func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	g.input()
	if g.pulse != nil {
		v, done := g.pulse.Update(1 / float32(ebiten.TPS()))
		g.pulseScale = v
		if done {
			g.pulse = nil
		}
	}
	g.frames.Flush()
	return nil
}

func (g *Game) input() {
	p := g.renderer.Pointer()
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case down && !g.pointerDown:
		now := time.Now()
		if now.Sub(g.lastClick) < doubleClickWindow {
			g.lastClick = time.Time{}
			p.DoubleClick(x, y)
		} else {
			g.lastClick = now
			p.Press(x, y)
		}
	case !down && g.pointerDown:
		p.Release(x, y)
	}
	g.pointerDown = down

	if mx != g.lastX || my != g.lastY {
		p.Move(x, y)
		g.lastX, g.lastY = mx, my
	}

	fit := ebiten.IsKeyPressed(ebiten.KeyF)
	if fit && !g.fitDown {
		g.renderer.Fit(g.fit)
	}
	g.fitDown = fit
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	for _, s := range g.edges {
		vector.StrokeLine(screen, float32(s.p1.X), float32(s.p1.Y), float32(s.p2.X), float32(s.p2.Y), edgeWidth, s.color, true)
	}

	p := g.renderer.Pointer()
	for _, s := range g.nodes {
		r := float32(nodeRadius)
		c := s.color
		if n := p.Selected(); n != nil && n.ID == s.id {
			r *= g.pulseScale
		}
		if n := p.Hovered(); n != nil && n.ID == s.id {
			c = hoverColor
		}
		vector.DrawFilledCircle(screen, float32(s.p1.X), float32(s.p1.Y), r, c, true)
		if s.label != "" {
			ebitenutil.DebugPrintAt(screen, s.label, int(s.p1.X)+nodeRadius+2, int(s.p1.Y)-8)
		}
	}

	nodes, edges := g.graph.Len()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("nodes %d  edges %d  energy %.5f  [f]it [q]uit",
		nodes, edges, g.renderer.Layout().Energy()), 4, 4)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.renderer.Start()
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, fd *physics.ForceDirectedLayout, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 768
	}
	if opts.Title == "" {
		opts.Title = "springgraph"
	}

	g := NewGame(ctx, fd, opts)
	g.renderer.Start()

	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

// parseHexColor reads #rgb or #rrggbb, falling back to def.
func parseHexColor(hex string, def color.RGBA) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	switch len(hex) {
	case 3:
		r, g, b := hexDigit(hex[0]), hexDigit(hex[1]), hexDigit(hex[2])
		return color.RGBA{r * 17, g * 17, b * 17, 0xff}
	case 6:
		return color.RGBA{hexByte(hex[0:2]), hexByte(hex[2:4]), hexByte(hex[4:6]), 0xff}
	}
	return def
}

func hexDigit(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func hexByte(s string) uint8 {
	return hexDigit(s[0])<<4 | hexDigit(s[1])
}
