package level

import (
	"fmt"
	"math"
)

// Mode decides which channel(s) receive notes.
type Mode int

const (
	LeftOnly Mode = iota
	RightOnly
	FullSymmetry
)

var allModes = [...]Mode{LeftOnly, RightOnly, FullSymmetry}

// Modes returns the closed set of generation modes.
func Modes() []Mode {
	out := make([]Mode, len(allModes))
	copy(out, allModes[:])
	return out
}

func (m Mode) Valid() bool { return m >= LeftOnly && m <= FullSymmetry }

func (m Mode) String() string {
	switch m {
	case LeftOnly:
		return "left-only"
	case RightOnly:
		return "right-only"
	case FullSymmetry:
		return "full-symmetry"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Trajectory is a position and the velocity carried to the next onset.
type Trajectory struct {
	Position Vec2
	Velocity Vec2
}

// Motion advances a trajectory from onset to onset and switches modes at
// random. A nil trajectory means there is no continuity with the previous
// onset and the next step places a fresh one.
type Motion struct {
	cfg Config
	src Source

	mode       Mode
	trajectory *Trajectory
	parity     bool
	lastTime   float64
}

// NewMotion returns a model with no trajectory, in cfg.InitialMode, whose
// clock starts at time zero.
func NewMotion(cfg Config, src Source) (*Motion, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Motion{cfg: cfg, src: src, mode: cfg.InitialMode}, nil
}

// Mode is the currently active mode.
func (m *Motion) Mode() Mode { return m.mode }

// Parity flips on every step taken in FullSymmetry mode.
func (m *Motion) Parity() bool { return m.parity }

// Trajectory returns the current trajectory, or false if it is undefined.
func (m *Motion) Trajectory() (Trajectory, bool) {
	if m.trajectory == nil {
		return Trajectory{}, false
	}
	return *m.trajectory, true
}

// Step advances the model to time t (seconds) and returns the new position.
func (m *Motion) Step(t float64) (Vec2, error) {
	dt := t - m.lastTime
	if dt < 0 {
		return Vec2{}, fmt.Errorf("%w: %.6fs after %.6fs", ErrUnorderedOnsets, t, m.lastTime)
	}

	switchChance := 1 - math.Pow(1-m.cfg.ModeChangeRate, dt)
	if m.src.Float64() <= switchChance {
		m.mode = allModes[m.src.IntN(len(allModes))]
		if m.src.Float64() <= m.cfg.ResetRate {
			m.trajectory = nil
		}
	}

	var next Trajectory
	if m.trajectory == nil {
		next = m.place()
	} else {
		next = m.integrate(*m.trajectory, dt)
	}

	m.trajectory = &next
	m.lastTime = t
	if m.mode == FullSymmetry {
		m.parity = !m.parity
	}
	return next.Position, nil
}

// place draws a uniform position in [-1, 1]² and a uniform direction at the
// nominal speed.
func (m *Motion) place() Trajectory {
	pos := Vec2{m.uniform(), m.uniform()}

	var dir Vec2
	for {
		dir = Vec2{m.uniform(), m.uniform()}
		if l := dir.Len(); l > 0 {
			dir = dir.Scale(1 / l)
			break
		}
	}
	return Trajectory{Position: pos, Velocity: dir.Scale(m.cfg.NominalVelocity)}
}

// integrate applies the degree-5 restoring force and moves the position in
// tan space, so the linear position can approach but never leave [-1, 1].
func (m *Motion) integrate(prev Trajectory, dt float64) Trajectory {
	p := prev.Position
	force := Vec2{-math.Pow(p.X, 5), -math.Pow(p.Y, 5)}
	vel := prev.Velocity.Add(force.Scale(dt * m.cfg.ForceStrength))
	pos := TanToLinear(LinearToTan(p).Add(vel.Scale(dt)))
	return Trajectory{Position: pos, Velocity: vel}
}

func (m *Motion) uniform() float64 { return m.src.Float64()*2 - 1 }
