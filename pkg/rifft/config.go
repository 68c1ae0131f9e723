package rifft

import (
	"os"

	"github.com/himanishpuri/Rifft/internal/level"
	"github.com/himanishpuri/Rifft/internal/onset"
)

type Config struct {
	DBPath  string
	TempDir string
	Onset   onset.Config
	Level   level.Config
	Logger  Logger
	Storage Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithTempDir sets where converted WAV files are written during analysis.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithSampleRate sets both the ffmpeg conversion rate and the rate the
// detector expects.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.Onset.SampleRate = rate
	}
}

func WithWindowSize(size int) Option {
	return func(c *Config) {
		c.Onset.WindowSize = size
	}
}

func WithSmoothingWindow(windows int) Option {
	return func(c *Config) {
		c.Onset.SmoothingWindow = windows
	}
}

func WithSensitivity(sensitivity float64) Option {
	return func(c *Config) {
		c.Onset.Sensitivity = sensitivity
	}
}

func WithModeChangeRate(rate float64) Option {
	return func(c *Config) {
		c.Level.ModeChangeRate = rate
	}
}

func WithResetRate(rate float64) Option {
	return func(c *Config) {
		c.Level.ResetRate = rate
	}
}

func WithForceStrength(strength float64) Option {
	return func(c *Config) {
		c.Level.ForceStrength = strength
	}
}

func WithNominalVelocity(velocity float64) Option {
	return func(c *Config) {
		c.Level.NominalVelocity = velocity
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStorage replaces the SQLite backend. The service closes it on Close.
func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:  "rifft.sqlite3",
		TempDir: os.TempDir(),
		Onset:   onset.DefaultConfig(),
		Level:   level.DefaultConfig(),
	}
}
