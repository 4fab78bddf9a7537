package physics

import "math"

// distanceOffset keeps repulsion finite when two bodies are very close.
const distanceOffset = 0.1

// Params are the constants of the simulation.
type Params struct {
	Stiffness float64 // default spring stiffness for edges without their own
	Repulsion float64 // repulsion constant; also scales the centering pull
	Damping   float64 // velocity multiplier applied each tick, in (0, 1]
	MinEnergy float64 // total energy below which the layout counts as settled
	MaxSpeed  float64 // velocity clamp; 0 or +Inf disables it
	Seed      int64   // seed for initial placement noise
}

// DefaultParams returns constants that give visually stable layouts.
func DefaultParams() Params {
	return Params{
		Stiffness: 400,
		Repulsion: 400,
		Damping:   0.5,
		MinEnergy: 0.00001,
		MaxSpeed:  math.Inf(1),
		Seed:      1,
	}
}

// Body is the simulation state of one node.
type Body struct {
	ID       string
	Position Vector
	Velocity Vector
	Mass     float64
	Pinned   bool
}

// Link is a spring between Bodies[A] and Bodies[B].
type Link struct {
	A, B      int
	Length    float64
	Stiffness float64
}

// State is everything a tick needs. Advance never mutates its input.
type State struct {
	Bodies []Body
	Links  []Link
}

// Advance runs one tick of length dt and returns the new state with its
// kinetic energy. Linked pairs are held by their spring only; every other
// pair repels. Pinned bodies neither move nor respond to forces, but still
// push on the others.
func Advance(s State, p Params, dt float64) (State, float64) {
	n := len(s.Bodies)
	next := State{Bodies: make([]Body, n), Links: s.Links}
	copy(next.Bodies, s.Bodies)

	acc := make([]Vector, n)
	apply := func(i int, f Vector) {
		b := &next.Bodies[i]
		if b.Pinned {
			return
		}
		acc[i] = acc[i].Add(f.Div(mass(b)))
	}

	linked := make(map[[2]int]bool, len(s.Links))
	for _, l := range s.Links {
		linked[pairKey(l.A, l.B)] = true
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if linked[pairKey(i, j)] {
				continue
			}
			d := next.Bodies[i].Position.Sub(next.Bodies[j].Position)
			dist := d.Len() + distanceOffset
			dir := d.Normalize()
			if dir.IsZero() {
				dir = separation(i, j)
			}
			f := dir.Scale(p.Repulsion / (dist * dist * 0.5))
			apply(i, f)
			apply(j, f.Scale(-1))
		}
	}

	for _, l := range s.Links {
		if l.A == l.B {
			continue
		}
		d := next.Bodies[l.B].Position.Sub(next.Bodies[l.A].Position)
		displacement := l.Length - d.Len()
		dir := d.Normalize()
		if dir.IsZero() {
			dir = separation(l.A, l.B)
		}
		apply(l.A, dir.Scale(l.Stiffness*displacement*-0.5))
		apply(l.B, dir.Scale(l.Stiffness*displacement*0.5))
	}

	centering := p.Repulsion / 50
	for i := range next.Bodies {
		apply(i, next.Bodies[i].Position.Scale(-centering))
	}

	energy := 0.0
	for i := range next.Bodies {
		b := &next.Bodies[i]
		if b.Pinned {
			b.Velocity = Vector{}
			continue
		}
		b.Velocity = b.Velocity.Add(acc[i].Scale(dt)).Scale(p.Damping)
		speed := b.Velocity.Len()
		if p.MaxSpeed > 0 && speed > p.MaxSpeed {
			b.Velocity = b.Velocity.Normalize().Scale(p.MaxSpeed)
			speed = p.MaxSpeed
		}
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		energy += 0.5 * mass(b) * speed * speed
	}

	return next, energy
}

func mass(b *Body) float64 {
	if b.Mass <= 0 {
		return 1
	}
	return b.Mass
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// separation picks a fixed direction for coincident bodies so they can drift apart.
func separation(i, j int) Vector {
	angle := float64(i*7919+j*104729) * 0.618
	return Vector{math.Cos(angle), math.Sin(angle)}
}
