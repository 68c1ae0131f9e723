package level

import "math"

// Vec2 is a 2-D vector.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// LinearToTan maps a position in (-1, 1)² into the unbounded tan space,
// componentwise tan(x·π/2)·0.5.
func LinearToTan(v Vec2) Vec2 {
	return Vec2{linearToTan(v.X), linearToTan(v.Y)}
}

// TanToLinear is the exact inverse of LinearToTan, componentwise
// atan(x·2)·(2/π). Its output always lies in [-1, 1].
func TanToLinear(v Vec2) Vec2 {
	return Vec2{tanToLinear(v.X), tanToLinear(v.Y)}
}

func linearToTan(x float64) float64 { return math.Tan(x*math.Pi*0.5) * 0.5 }

func tanToLinear(x float64) float64 { return math.Atan(x*2) * (2 / math.Pi) }
