package physics

import "math"

// Vector is a 2D point or direction in simulation space.
type Vector struct {
	X, Y float64
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

// Div returns v divided by s. Division by zero yields the zero vector.
func (v Vector) Div(s float64) Vector {
	if s == 0 {
		return Vector{}
	}
	return Vector{v.X / s, v.Y / s}
}

// Len returns the magnitude of v.
func (v Vector) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns the unit vector in the direction of v, or zero for a zero vector.
func (v Vector) Normalize() Vector {
	return v.Div(v.Len())
}

// Perp returns v rotated by 90 degrees counter-clockwise.
func (v Vector) Perp() Vector {
	return Vector{-v.Y, v.X}
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Dist returns the distance between v and o.
func (v Vector) Dist(o Vector) float64 {
	return v.Sub(o).Len()
}

// IsZero reports whether both components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// ClosestOnSegment returns the point of segment a-b nearest to v.
func (v Vector) ClosestOnSegment(a, b Vector) Vector {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := v.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Scale(t))
}
