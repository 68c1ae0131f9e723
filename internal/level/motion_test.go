package level

import (
	"errors"
	"math"
	"testing"
)

// constSource returns the same draw forever.
type constSource struct {
	f float64
	i int
}

func (s constSource) Float64() float64 { return s.f }
func (s constSource) IntN(n int) int   { return s.i % n }

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero rates", func(c *Config) { c.ModeChangeRate, c.ResetRate = 0, 0 }, true},
		{"mode change rate above one", func(c *Config) { c.ModeChangeRate = 1.5 }, false},
		{"negative reset rate", func(c *Config) { c.ResetRate = -0.1 }, false},
		{"negative force", func(c *Config) { c.ForceStrength = -1 }, false},
		{"zero velocity", func(c *Config) { c.NominalVelocity = 0 }, false},
		{"unknown mode", func(c *Config) { c.InitialMode = Mode(7) }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.valid && !errors.Is(err, ErrConfig) {
			t.Errorf("%s: error = %v, want ErrConfig", tt.name, err)
		}
	}
}

func TestNewMotionNilSource(t *testing.T) {
	if _, err := NewMotion(DefaultConfig(), nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("error = %v, want ErrNilSource", err)
	}
}

func TestMotionFirstStepPlacesTrajectory(t *testing.T) {
	m, err := NewMotion(DefaultConfig(), NewSource(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Trajectory(); ok {
		t.Fatal("new model should have no trajectory")
	}

	pos, err := m.Step(0.5)
	if err != nil {
		t.Fatal(err)
	}
	tr, ok := m.Trajectory()
	if !ok {
		t.Fatal("trajectory undefined after first step")
	}
	if tr.Position != pos {
		t.Errorf("returned position %v, stored %v", pos, tr.Position)
	}
	if math.Abs(pos.X) > 1 || math.Abs(pos.Y) > 1 {
		t.Errorf("fresh position %v outside [-1, 1]²", pos)
	}
	if l := tr.Velocity.Len(); math.Abs(l-DefaultNominalVelocity) > 1e-9 {
		t.Errorf("fresh speed %f, want %f", l, DefaultNominalVelocity)
	}
}

func TestMotionRejectsUnorderedOnsets(t *testing.T) {
	m, _ := NewMotion(DefaultConfig(), NewSource(1))
	if _, err := m.Step(2); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Step(1); !errors.Is(err, ErrUnorderedOnsets) {
		t.Errorf("error = %v, want ErrUnorderedOnsets", err)
	}
}

func TestMotionForcedModes(t *testing.T) {
	for i, want := range Modes() {
		m, _ := NewMotion(DefaultConfig(), constSource{f: 0, i: i})
		for step := 1; step <= 3; step++ {
			if _, err := m.Step(float64(step)); err != nil {
				t.Fatal(err)
			}
			if m.Mode() != want {
				t.Errorf("IntN=%d: mode %v, want %v", i, m.Mode(), want)
			}
		}
	}
}

func TestMotionNoSwitchWithZeroRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModeChangeRate = 0
	cfg.InitialMode = RightOnly

	m, _ := NewMotion(cfg, constSource{f: 0.25, i: 0})
	for step := 1; step <= 50; step++ {
		if _, err := m.Step(float64(step) * 0.3); err != nil {
			t.Fatal(err)
		}
		if m.Mode() != RightOnly {
			t.Fatalf("step %d: mode switched to %v", step, m.Mode())
		}
	}
}

func TestMotionBoundedExcursion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModeChangeRate = 0
	cfg.ForceStrength = 50

	src := NewSource(99)
	m, _ := NewMotion(cfg, src)

	now := 0.0
	for step := 0; step < 5000; step++ {
		now += 0.01 + src.Float64()*2
		pos, err := m.Step(now)
		if err != nil {
			t.Fatal(err)
		}
		tr, _ := m.Trajectory()
		if !pos.IsFinite() || !tr.Velocity.IsFinite() {
			t.Fatalf("step %d: non-finite state %+v", step, tr)
		}
		if math.Abs(pos.X) > 1 || math.Abs(pos.Y) > 1 {
			t.Fatalf("step %d: position %v left [-1, 1]²", step, pos)
		}
	}
}

func TestModeString(t *testing.T) {
	if LeftOnly.String() != "left-only" || FullSymmetry.String() != "full-symmetry" {
		t.Error("unexpected mode names")
	}
	if Mode(9).String() != "mode(9)" {
		t.Errorf("got %q for unknown mode", Mode(9).String())
	}
}
