package render

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/TFMV/springgraph/physics"
)

// Surface reports the current drawable size in pixels.
type Surface interface {
	Size() (width, height float64)
}

// Size is a fixed Surface.
type Size struct {
	Width, Height float64
}

// Size implements Surface.
func (s Size) Size() (float64, float64) {
	return s.Width, s.Height
}

// Viewport maps between simulation space and screen space. Its box eases
// toward the layout's bounding box a fraction at a time, or follows a tween
// while one is active.
type Viewport struct {
	surface Surface
	chase   float64
	current physics.BoundingBox
	target  physics.BoundingBox
	tween   *boxTween
}

// NewViewport creates a viewport showing initial.
func NewViewport(surface Surface, initial physics.BoundingBox, chase float64) *Viewport {
	if chase <= 0 || chase > 1 {
		chase = defaultChase
	}
	return &Viewport{
		surface: surface,
		chase:   chase,
		current: initial,
		target:  initial,
	}
}

// Current returns the box being shown.
func (v *Viewport) Current() physics.BoundingBox {
	return v.current
}

// Target returns the box the viewport is easing toward.
func (v *Viewport) Target() physics.BoundingBox {
	return v.target
}

// Tweening reports whether a tween is in progress.
func (v *Viewport) Tweening() bool {
	return v.tween != nil
}

// Update moves the current box one step toward target.
func (v *Viewport) Update(target physics.BoundingBox, dt float64) {
	v.target = target
	if v.tween != nil {
		box, done := v.tween.update(float32(dt))
		v.current = box
		if done {
			v.tween = nil
		}
		return
	}
	v.current.BottomLeft = v.current.BottomLeft.Add(target.BottomLeft.Sub(v.current.BottomLeft).Scale(v.chase))
	v.current.TopRight = v.current.TopRight.Add(target.TopRight.Sub(v.current.TopRight).Scale(v.chase))
}

// Tween animates the current box to target over the given seconds of frame
// time, overriding the chase until it completes. A nil fn uses ease.OutCubic.
func (v *Viewport) Tween(target physics.BoundingBox, seconds float32, fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.OutCubic
	}
	if seconds <= 0 {
		v.Jump(target)
		return
	}
	v.tween = newBoxTween(v.current, target, seconds, fn)
}

// Jump shows box immediately.
func (v *Viewport) Jump(box physics.BoundingBox) {
	v.current = box
	v.target = box
	v.tween = nil
}

// ToScreen converts a simulation position to pixels.
func (v *Viewport) ToScreen(p physics.Vector) physics.Vector {
	w, h := v.surface.Size()
	size := v.current.Size()
	if size.X == 0 || size.Y == 0 {
		return physics.Vector{}
	}
	d := p.Sub(v.current.BottomLeft)
	return physics.Vector{X: d.X / size.X * w, Y: d.Y / size.Y * h}
}

// FromScreen converts pixels to a simulation position. A zero-size surface maps
// everything to the box corner.
func (v *Viewport) FromScreen(s physics.Vector) physics.Vector {
	w, h := v.surface.Size()
	if w == 0 || h == 0 {
		return v.current.BottomLeft
	}
	size := v.current.Size()
	return physics.Vector{
		X: s.X/w*size.X + v.current.BottomLeft.X,
		Y: s.Y/h*size.Y + v.current.BottomLeft.Y,
	}
}

type boxTween struct {
	coords [4]*gween.Tween
}

func newBoxTween(from, to physics.BoundingBox, seconds float32, fn ease.TweenFunc) *boxTween {
	return &boxTween{coords: [4]*gween.Tween{
		gween.New(float32(from.BottomLeft.X), float32(to.BottomLeft.X), seconds, fn),
		gween.New(float32(from.BottomLeft.Y), float32(to.BottomLeft.Y), seconds, fn),
		gween.New(float32(from.TopRight.X), float32(to.TopRight.X), seconds, fn),
		gween.New(float32(from.TopRight.Y), float32(to.TopRight.Y), seconds, fn),
	}}
}

func (t *boxTween) update(dt float32) (physics.BoundingBox, bool) {
	var vals [4]float64
	done := true
	for i, tw := range t.coords {
		v, finished := tw.Update(dt)
		vals[i] = float64(v)
		done = done && finished
	}
	return physics.BoundingBox{
		BottomLeft: physics.Vector{X: vals[0], Y: vals[1]},
		TopRight:   physics.Vector{X: vals[2], Y: vals[3]},
	}, done
}
