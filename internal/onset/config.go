package onset

import (
	"errors"
	"fmt"
)

// Tunables
const (
	DefaultWindowSize      = 1024
	DefaultSampleRate      = 44100
	DefaultSmoothingWindow = 31
	// DefaultSensitivity scales the local mean before it is subtracted from the
	// centered flux value. Empirically tuned.
	DefaultSensitivity = 1.8
)

var (
	ErrWindowSize         = errors.New("onset: window size must be a power of two >= 2")
	ErrSmoothingWindow    = errors.New("onset: smoothing window must be odd and >= 1")
	ErrSampleRate         = errors.New("onset: sample rate must be positive")
	ErrSensitivity        = errors.New("onset: sensitivity must be positive")
	ErrWindowLength       = errors.New("onset: window length does not match engine size")
	ErrSampleRateMismatch = errors.New("onset: chunk sample rate does not match detector")
	ErrDetectorFailed     = errors.New("onset: detector is unusable after an earlier error")
)

// Config holds the analysis parameters of a Detector.
type Config struct {
	WindowSize      int     // samples per analysis window, power of two
	SampleRate      int     // Hz
	SmoothingWindow int     // flux values in the moving average, odd
	Sensitivity     float64 // multiplier applied to the moving average
}

func DefaultConfig() Config {
	return Config{
		WindowSize:      DefaultWindowSize,
		SampleRate:      DefaultSampleRate,
		SmoothingWindow: DefaultSmoothingWindow,
		Sensitivity:     DefaultSensitivity,
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	if c.WindowSize < 2 || c.WindowSize&(c.WindowSize-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrWindowSize, c.WindowSize)
	}
	if c.SmoothingWindow < 1 || c.SmoothingWindow%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrSmoothingWindow, c.SmoothingWindow)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrSampleRate, c.SampleRate)
	}
	if c.Sensitivity <= 0 {
		return fmt.Errorf("%w: got %g", ErrSensitivity, c.Sensitivity)
	}
	return nil
}

// WindowDuration is the length of one analysis window in seconds.
func (c Config) WindowDuration() float64 {
	return float64(c.WindowSize) / float64(c.SampleRate)
}
