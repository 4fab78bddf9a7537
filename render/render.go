// Package render drives a force-directed layout frame by frame and hands the
// result to a drawing backend. It also owns the viewport that maps simulation
// space to pixels and the pointer handler that maps pixels back.
package render

import (
	"github.com/charmbracelet/log"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

const (
	defaultTimeStep = 0.03
	defaultChase    = 0.1
)

// Backend draws one frame. Positions are in screen space. Every call may repeat
// unchanged positions; implementations must tolerate that.
type Backend interface {
	Clear()
	DrawEdge(e *graph.Edge, p1, p2 physics.Vector)
	DrawNode(n *graph.Node, p physics.Vector)
}

// Options configures a Renderer.
type Options struct {
	TimeStep  float64 // seconds of simulation per frame; 0 means 0.03
	Chase     float64 // viewport easing factor per frame; 0 means 0.1
	HitRadius float64 // pointer pick radius in pixels; 0 means unlimited
	Logger    *log.Logger

	OnStart func()
	OnStop  func()
}

// Renderer is one independent animated visualization: a layout, a backend, a
// viewport and a pointer handler sharing one host frame scheduler.
type Renderer struct {
	layout   *physics.ForceDirectedLayout
	backend  Backend
	frames   FrameScheduler
	viewport *Viewport
	pointer  *Pointer

	timeStep   float64
	running    bool
	frameCount uint64
	logger     *log.Logger
	onStart    func()
	onStop     func()
}

// New creates a stopped Renderer. It wakes itself up whenever the graph changes.
func New(layout *physics.ForceDirectedLayout, backend Backend, frames FrameScheduler, surface Surface, opts Options) *Renderer {
	if opts.TimeStep <= 0 {
		opts.TimeStep = defaultTimeStep
	}
	if opts.Chase <= 0 {
		opts.Chase = defaultChase
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	r := &Renderer{
		layout:   layout,
		backend:  backend,
		frames:   frames,
		viewport: NewViewport(surface, layout.BoundingBox(), opts.Chase),
		timeStep: opts.TimeStep,
		logger:   opts.Logger,
		onStart:  opts.OnStart,
		onStop:   opts.OnStop,
	}
	r.pointer = newPointer(r, opts.HitRadius)
	layout.Graph().AddListener(graph.ListenerFunc(r.graphChanged))
	return r
}

// Layout returns the layout being animated.
func (r *Renderer) Layout() *physics.ForceDirectedLayout {
	return r.layout
}

// Viewport returns the renderer's viewport.
func (r *Renderer) Viewport() *Viewport {
	return r.viewport
}

// Pointer returns the renderer's pointer handler.
func (r *Renderer) Pointer() *Pointer {
	return r.pointer
}

// Running reports whether a next frame is scheduled.
func (r *Renderer) Running() bool {
	return r.running
}

// Frames returns the number of frames drawn so far.
func (r *Renderer) Frames() uint64 {
	return r.frameCount
}

// Start schedules frames until the layout settles. Calling Start while running
// does nothing.
func (r *Renderer) Start() {
	if r.running {
		return
	}
	r.running = true
	r.logger.Debug("animation started", "frame", r.frameCount)
	if r.onStart != nil {
		r.onStart()
	}
	r.frames.RequestFrame(r.frame)
}

// Stop cancels the next frame. A frame already executing completes.
func (r *Renderer) Stop() {
	if !r.running {
		return
	}
	r.frames.CancelFrame()
	r.halt()
}

// Fit eases the viewport onto the layout's current bounding box over the given
// number of seconds and makes sure frames are running to show it.
func (r *Renderer) Fit(seconds float32) {
	r.viewport.Tween(r.layout.BoundingBox(), seconds, nil)
	r.Start()
}

func (r *Renderer) frame() {
	if !r.running {
		return
	}
	r.frameCount++

	r.backend.Clear()
	energy := r.layout.Step(r.timeStep)
	r.viewport.Update(r.layout.BoundingBox(), r.timeStep)

	vp := r.viewport
	r.layout.EachEdge(func(e *graph.Edge, p1, p2 physics.Vector) {
		r.backend.DrawEdge(e, vp.ToScreen(p1), vp.ToScreen(p2))
	})
	r.layout.EachNode(func(n *graph.Node, p physics.Vector) {
		r.backend.DrawNode(n, vp.ToScreen(p))
	})

	if energy < r.layout.Params().MinEnergy && !r.pointer.Dragging() && !vp.Tweening() {
		r.halt()
		return
	}
	r.frames.RequestFrame(r.frame)
}

func (r *Renderer) halt() {
	r.running = false
	r.logger.Debug("animation stopped", "frame", r.frameCount, "energy", r.layout.Energy())
	if r.onStop != nil {
		r.onStop()
	}
}

func (r *Renderer) graphChanged(ev graph.Event) {
	if ev.Action == graph.DetachNode {
		r.pointer.forget(ev.Node)
	}
	r.Start()
}
