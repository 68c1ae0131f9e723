package level

import (
	"errors"
	"fmt"
)

// Tunables. Empirically chosen; none of them is derived.
const (
	DefaultModeChangeRate  = 0.75 // chance per second of switching mode
	DefaultResetRate       = 0.5  // chance a mode switch also drops the trajectory
	DefaultForceStrength   = 5.0
	DefaultNominalVelocity = 1.5
)

var (
	ErrConfig          = errors.New("level: invalid generator config")
	ErrNilSource       = errors.New("level: random source is nil")
	ErrUnorderedOnsets = errors.New("level: onset is earlier than the previous one")
)

// Config holds the motion model constants.
type Config struct {
	ModeChangeRate  float64 // per second, in [0, 1]
	ResetRate       float64 // in [0, 1]
	ForceStrength   float64
	NominalVelocity float64
	InitialMode     Mode
}

func DefaultConfig() Config {
	return Config{
		ModeChangeRate:  DefaultModeChangeRate,
		ResetRate:       DefaultResetRate,
		ForceStrength:   DefaultForceStrength,
		NominalVelocity: DefaultNominalVelocity,
		InitialMode:     LeftOnly,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ModeChangeRate < 0 || c.ModeChangeRate > 1:
		return fmt.Errorf("%w: mode change rate %g outside [0, 1]", ErrConfig, c.ModeChangeRate)
	case c.ResetRate < 0 || c.ResetRate > 1:
		return fmt.Errorf("%w: reset rate %g outside [0, 1]", ErrConfig, c.ResetRate)
	case c.ForceStrength < 0:
		return fmt.Errorf("%w: negative force strength %g", ErrConfig, c.ForceStrength)
	case c.NominalVelocity <= 0:
		return fmt.Errorf("%w: nominal velocity must be positive, got %g", ErrConfig, c.NominalVelocity)
	case !c.InitialMode.Valid():
		return fmt.Errorf("%w: unknown initial mode %d", ErrConfig, int(c.InitialMode))
	}
	return nil
}
