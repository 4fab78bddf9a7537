package render

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

type recorder struct {
	calls []string
}

func (r *recorder) Clear() { r.calls = append(r.calls, "clear") }

func (r *recorder) DrawEdge(e *graph.Edge, p1, p2 physics.Vector) {
	r.calls = append(r.calls, "edge:"+e.ID)
}

func (r *recorder) DrawNode(n *graph.Node, p physics.Vector) {
	r.calls = append(r.calls, "node:"+n.ID)
}

func newTestRenderer(t *testing.T, opts Options) (*graph.Graph, *Renderer, *FrameQueue, *recorder) {
	t.Helper()
	g := graph.New()
	g.AddNodes("a", "b")
	if _, err := g.AddEdge("ab", "a", "b", graph.EdgeData{}); err != nil {
		t.Fatal(err)
	}
	fd := physics.NewForceDirectedLayout(g, physics.DefaultParams())
	q := &FrameQueue{}
	rec := &recorder{}
	r := New(fd, rec, q, Size{Width: 400, Height: 300}, opts)
	return g, r, q, rec
}

func runUntilIdle(q *FrameQueue, limit int) int {
	n := 0
	for n < limit && q.Flush() {
		n++
	}
	return n
}

func TestFrameOrder(t *testing.T) {
	_, r, q, rec := newTestRenderer(t, Options{})
	r.Start()
	if !q.Flush() {
		t.Fatal("Start did not request a frame")
	}
	want := []string{"clear", "edge:ab", "node:a", "node:b"}
	if strings.Join(rec.calls, " ") != strings.Join(want, " ") {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if r.Frames() != 1 {
		t.Errorf("frames = %d, want 1", r.Frames())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	starts, stops := 0, 0
	_, r, q, _ := newTestRenderer(t, Options{
		OnStart: func() { starts++ },
		OnStop:  func() { stops++ },
	})

	r.Stop()
	r.Start()
	r.Start()
	if starts != 1 {
		t.Errorf("OnStart called %d times, want 1", starts)
	}

	r.Stop()
	r.Stop()
	if stops != 1 {
		t.Errorf("OnStop called %d times, want 1", stops)
	}
	if q.Pending() {
		t.Error("frame still pending after Stop")
	}
}

func TestAutoStopWhenSettled(t *testing.T) {
	stops := 0
	_, r, q, _ := newTestRenderer(t, Options{OnStop: func() { stops++ }})
	r.Start()

	frames := runUntilIdle(q, 5000)
	if r.Running() {
		t.Fatalf("still running after %d frames, energy %v", frames, r.Layout().Energy())
	}
	if e := r.Layout().Energy(); e >= r.Layout().Params().MinEnergy {
		t.Errorf("stopped with energy %v", e)
	}
	if stops != 1 {
		t.Errorf("OnStop called %d times, want 1", stops)
	}
}

func TestGraphChangeWakesRenderer(t *testing.T) {
	g, r, q, _ := newTestRenderer(t, Options{})
	r.Start()
	runUntilIdle(q, 5000)
	if r.Running() {
		t.Fatal("renderer did not settle")
	}

	g.AddNode("c", graph.NodeData{})
	if !r.Running() || !q.Pending() {
		t.Error("adding a node did not restart the loop")
	}
}

func TestDragKeepsLoopRunning(t *testing.T) {
	_, r, q, _ := newTestRenderer(t, Options{})
	r.Start()
	runUntilIdle(q, 5000)

	pos, _ := r.Layout().Position("a")
	screen := r.Viewport().ToScreen(pos)
	r.Pointer().Press(screen.X, screen.Y)
	if !r.Pointer().Dragging() || r.Pointer().Dragged().ID != "a" {
		t.Fatalf("press on a did not start a drag")
	}
	if !r.Layout().Pinned("a") {
		t.Error("dragged node is not pinned")
	}

	to := physics.Vector{X: 20, Y: 30}
	r.Pointer().Move(to.X, to.Y)
	want := r.Viewport().FromScreen(to)
	if got, _ := r.Layout().Position("a"); got != want {
		t.Errorf("dragged node at %v, want %v", got, want)
	}

	for i := 0; i < 500; i++ {
		q.Flush()
	}
	if !r.Running() {
		t.Error("loop stopped during a drag")
	}
	if got, _ := r.Layout().Position("a"); got != want {
		t.Errorf("dragged node drifted to %v", got)
	}

	r.Pointer().Release(to.X, to.Y)
	if r.Pointer().Dragging() || r.Layout().Pinned("a") {
		t.Error("release did not let go")
	}
}

func TestFitAnimatesSettledLayout(t *testing.T) {
	_, r, q, _ := newTestRenderer(t, Options{})
	r.Start()
	runUntilIdle(q, 5000)
	if r.Running() {
		t.Fatal("renderer did not settle")
	}

	r.Viewport().Jump(physics.BoundingBox{
		BottomLeft: physics.Vector{X: -50, Y: -50},
		TopRight:   physics.Vector{X: 50, Y: 50},
	})
	before := r.Frames()
	r.Fit(0.5)
	runUntilIdle(q, 5000)

	if got := r.Frames() - before; got < 10 {
		t.Errorf("Fit ran %d frames, want the whole tween", got)
	}
	if r.Viewport().Tweening() || r.Running() {
		t.Fatalf("tweening=%v running=%v after the loop went idle", r.Viewport().Tweening(), r.Running())
	}
	want := r.Layout().BoundingBox()
	got := r.Viewport().Current()
	if got.BottomLeft.Dist(want.BottomLeft) > 1e-3 || got.TopRight.Dist(want.TopRight) > 1e-3 {
		t.Errorf("viewport = %+v, want %+v", got, want)
	}
}

func TestPressWithoutReleaseUnpins(t *testing.T) {
	_, r, q, _ := newTestRenderer(t, Options{})
	r.Start()
	runUntilIdle(q, 5000)

	pa, _ := r.Layout().Position("a")
	pb, _ := r.Layout().Position("b")
	sa, sb := r.Viewport().ToScreen(pa), r.Viewport().ToScreen(pb)

	p := r.Pointer()
	p.Press(sa.X, sa.Y)
	p.Press(sb.X, sb.Y)
	if p.Dragged() == nil || p.Dragged().ID != "b" {
		t.Fatalf("second press dragged %v, want b", p.Dragged())
	}
	if r.Layout().Pinned("a") {
		t.Error("a still pinned after the pointer moved on to b")
	}

	p.Release(sb.X, sb.Y)
	if r.Layout().Pinned("a") || r.Layout().Pinned("b") {
		t.Errorf("pinned after release: a=%v b=%v", r.Layout().Pinned("a"), r.Layout().Pinned("b"))
	}
}

func TestParallelOffset(t *testing.T) {
	g := graph.New()
	g.AddNodes("a", "b", "c")
	mustEdge := func(id, from, to string) *graph.Edge {
		e, err := g.AddEdge(id, from, to, graph.EdgeData{})
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	e1 := mustEdge("e1", "a", "b")
	e2 := mustEdge("e2", "a", "b")
	e3 := mustEdge("e3", "b", "a")
	lone := mustEdge("bc", "b", "c")

	a, b := physics.Vector{X: 0, Y: 0}, physics.Vector{X: 10, Y: 0}
	tests := []struct {
		edge   *graph.Edge
		p1, p2 physics.Vector
		want   physics.Vector
	}{
		{e1, a, b, physics.Vector{X: 0, Y: -12}},
		{e2, a, b, physics.Vector{X: 0, Y: 0}},
		{e3, b, a, physics.Vector{X: 0, Y: 12}},
		{lone, a, b, physics.Vector{}},
	}
	for _, tt := range tests {
		t.Run(tt.edge.ID, func(t *testing.T) {
			if got := ParallelOffset(g, tt.edge, tt.p1, tt.p2); got.Dist(tt.want) > 1e-9 {
				t.Errorf("offset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointerHitRadius(t *testing.T) {
	_, r, _, _ := newTestRenderer(t, Options{HitRadius: 5})
	pos, _ := r.Layout().Position("a")
	screen := r.Viewport().ToScreen(pos)

	r.Pointer().Press(screen.X+50, screen.Y+50)
	if r.Pointer().Dragging() {
		t.Error("press far from every node started a drag")
	}
	r.Pointer().Press(screen.X+1, screen.Y)
	if !r.Pointer().Dragging() {
		t.Error("press next to a did not start a drag")
	}
}

func TestPointerOnEmptyGraph(t *testing.T) {
	g := graph.New()
	fd := physics.NewForceDirectedLayout(g, physics.DefaultParams())
	r := New(fd, &recorder{}, &FrameQueue{}, Size{}, Options{})

	p := r.Pointer()
	p.Press(10, 10)
	p.Move(20, 20)
	p.DoubleClick(20, 20)
	p.Release(20, 20)
	if p.Dragging() || p.Hovered() != nil {
		t.Error("pointer found something in an empty graph")
	}
}

func TestDoubleClick(t *testing.T) {
	g := graph.New()
	var clicked string
	g.AddNode("a", graph.NodeData{OnDoubleClick: func(n *graph.Node) { clicked = n.ID }})
	fd := physics.NewForceDirectedLayout(g, physics.DefaultParams())
	r := New(fd, &recorder{}, &FrameQueue{}, Size{Width: 100, Height: 100}, Options{})

	pos, _ := fd.Position("a")
	s := r.Viewport().ToScreen(pos)
	r.Pointer().DoubleClick(s.X, s.Y)
	if clicked != "a" {
		t.Errorf("double-click hook got %q, want a", clicked)
	}
}

func TestPointerForgetsRemovedNode(t *testing.T) {
	g, r, _, _ := newTestRenderer(t, Options{})
	pos, _ := r.Layout().Position("a")
	s := r.Viewport().ToScreen(pos)
	r.Pointer().Press(s.X, s.Y)

	g.RemoveNode("a")
	if r.Pointer().Dragging() || r.Pointer().Selected() != nil {
		t.Error("pointer still references a removed node")
	}
	r.Pointer().Move(1, 1)
	r.Pointer().Release(1, 1)
}

func TestViewportRoundTrip(t *testing.T) {
	box := physics.BoundingBox{BottomLeft: physics.Vector{X: -2, Y: -2}, TopRight: physics.Vector{X: 2, Y: 2}}
	vp := NewViewport(Size{Width: 800, Height: 600}, box, 0.1)

	tests := []physics.Vector{
		{X: 0, Y: 0},
		{X: 1.25, Y: -0.5},
		{X: -2, Y: 2},
		{X: 7.5, Y: -3.3},
	}
	for _, p := range tests {
		got := vp.FromScreen(vp.ToScreen(p))
		if got.Dist(p) > 1e-9 {
			t.Errorf("FromScreen(ToScreen(%v)) = %v", p, got)
		}
	}

	if s := vp.ToScreen(physics.Vector{X: 2, Y: 2}); s != (physics.Vector{X: 800, Y: 600}) {
		t.Errorf("top right maps to %v, want (800,600)", s)
	}
}

func TestViewportZeroSurface(t *testing.T) {
	vp := NewViewport(Size{}, physics.DefaultBoundingBox(), 0.1)
	p := vp.FromScreen(physics.Vector{X: 10, Y: 10})
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		t.Errorf("FromScreen on zero surface = %v", p)
	}
}

func TestViewportChase(t *testing.T) {
	from := physics.BoundingBox{TopRight: physics.Vector{X: 10, Y: 10}}
	to := physics.BoundingBox{BottomLeft: physics.Vector{X: -10, Y: -10}, TopRight: physics.Vector{X: 10, Y: 10}}
	vp := NewViewport(Size{Width: 1, Height: 1}, from, 0.1)

	vp.Update(to, 0.03)
	if bl := vp.Current().BottomLeft; math.Abs(bl.X+1) > 1e-9 || math.Abs(bl.Y+1) > 1e-9 {
		t.Errorf("after one update bottom left = %v, want (-1,-1)", bl)
	}
}

func TestViewportTween(t *testing.T) {
	to := physics.BoundingBox{BottomLeft: physics.Vector{X: -8, Y: -4}, TopRight: physics.Vector{X: 8, Y: 4}}
	vp := NewViewport(Size{Width: 1, Height: 1}, physics.DefaultBoundingBox(), 0.1)

	vp.Tween(to, 0.3, nil)
	for i := 0; i < 20 && vp.Tweening(); i++ {
		vp.Update(to, 0.03)
	}
	if vp.Tweening() {
		t.Fatal("tween did not finish")
	}
	cur := vp.Current()
	if cur.BottomLeft.Dist(to.BottomLeft) > 1e-4 || cur.TopRight.Dist(to.TopRight) > 1e-4 {
		t.Errorf("tween ended at %v, want %v", cur, to)
	}
}

func TestHandlesReleased(t *testing.T) {
	g := graph.New()
	g.AddNodes("a", "b", "c")
	if _, err := g.AddEdges([2]string{"a", "b"}, [2]string{"b", "c"}); err != nil {
		t.Fatal(err)
	}

	var released []string
	h := NewHandles[string](g, func(v string) { released = append(released, v) })
	for _, n := range g.Nodes() {
		h.Node(n.ID, func() string { return "shape-" + n.ID })
	}
	for _, e := range g.Edges() {
		h.Edge(e.ID, func() string { return "line-" + e.Source.ID + e.Target.ID })
	}

	if v := h.Node("a", func() string { return "other" }); v != "shape-a" {
		t.Errorf("existing handle replaced by %q", v)
	}

	g.RemoveNode("b")
	want := "line-ab line-bc shape-b"
	if got := strings.Join(released, " "); got != want {
		t.Errorf("released %q, want %q", got, want)
	}
	if nodes, edges := h.Len(); nodes != 2 || edges != 0 {
		t.Errorf("Len = %d, %d; want 2, 0", nodes, edges)
	}
}

func TestSVGFrames(t *testing.T) {
	g := graph.New()
	g.AddNode("a", graph.NodeData{Label: "<A>", Color: "#ff0000"})
	g.AddNode("b", graph.NodeData{Label: "B"})
	if _, err := g.AddEdge("ab", "a", "b", graph.EdgeData{Directional: true}); err != nil {
		t.Fatal(err)
	}
	fd := physics.NewForceDirectedLayout(g, physics.DefaultParams())
	svg := NewSVG(g, DefaultSVGOptions())
	q := &FrameQueue{}
	r := New(fd, svg, q, svg, Options{})

	r.Start()
	q.Flush()
	doc := string(svg.Document())
	for _, want := range []string{"<svg", `id="e1"`, `marker-end="url(#arrow)"`, "&lt;A&gt;", `fill="#ff0000"`, "</svg>"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	if got := svg.EdgeElement("ab"); got != "e1" {
		t.Errorf("EdgeElement(ab) = %q, want e1", got)
	}
	first := svg.NodeElement("a")
	q.Flush()
	if svg.NodeElement("a") != first {
		t.Error("element id changed between frames")
	}
	if n := strings.Count(string(svg.Document()), "<circle"); n != 2 {
		t.Errorf("second frame has %d circles, want 2", n)
	}

	g.RemoveNode("a")
	if svg.NodeElement("a") != "" || svg.EdgeElement("ab") != "" {
		t.Error("element of removed node or edge still live")
	}
	q.Flush()
	if strings.Contains(string(svg.Document()), `id="`+first+`"`) {
		t.Errorf("removed element %s still drawn", first)
	}
}

func TestCanvasDraw(t *testing.T) {
	g := graph.New()
	a := g.AddNode("a", graph.NodeData{Label: "hi"})
	b := g.AddNode("b", graph.NodeData{})
	e, err := g.AddEdge("ab", "a", "b", graph.EdgeData{})
	if err != nil {
		t.Fatal(err)
	}

	c := NewCanvas(g, 10, 3, 0)
	c.DrawEdge(e, physics.Vector{X: 0, Y: 0}, physics.Vector{X: 9, Y: 0})
	c.DrawNode(a, physics.Vector{X: 0, Y: 0})
	c.DrawNode(b, physics.Vector{X: 9, Y: 0})

	lines := c.Lines()
	if lines[0] != "O········@" {
		t.Errorf("row 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "hi") {
		t.Errorf("row 1 = %q, want label", lines[1])
	}
	if _, owner := c.Cell(0, 0); owner != "a" {
		t.Errorf("cell owner = %q, want a", owner)
	}

	c.Clear()
	c.DrawNode(a, physics.Vector{X: 100, Y: -5})
	if r, _ := c.Cell(9, 0); r != 'O' {
		t.Errorf("off-grid node not clamped: %q", r)
	}
}

func TestLoopRunsFramesAndTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(100)
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	ran := make(chan struct{})
	if err := l.Do(ctx, func() {
		l.RequestFrame(func() { close(ran) })
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("requested frame never ran")
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
