package rifft

import (
	"time"

	"github.com/himanishpuri/Rifft/internal/model"
	"github.com/himanishpuri/Rifft/internal/storage"
)

type (
	Onset   = model.Onset
	Note    = model.Note
	Channel = model.Channel
)

const (
	Left  = model.Left
	Right = model.Right
)

// ErrNotFound is returned when a track or level ID is unknown.
var ErrNotFound = storage.ErrNotFound

// Track is an analyzed audio file.
type Track struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	SourcePath      string    `json:"source_path"` // the file the level's music points at
	SampleRate      int       `json:"sample_rate"`
	DurationMs      int       `json:"duration_ms"`
	WindowSize      int       `json:"window_size"`
	SmoothingWindow int       `json:"smoothing_window"`
	Sensitivity     float64   `json:"sensitivity"`
	OnsetCount      int       `json:"onset_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Level is a generated note sequence. Regenerating with the same seed and
// constants from the same onsets yields the same notes.
type Level struct {
	ID              string    `json:"id"`
	TrackID         string    `json:"track_id"`
	Seed            uint64    `json:"seed"`
	ModeChangeRate  float64   `json:"mode_change_rate"`
	ResetRate       float64   `json:"reset_rate"`
	ForceStrength   float64   `json:"force_strength"`
	NominalVelocity float64   `json:"nominal_velocity"`
	NoteCount       int       `json:"note_count"`
	CreatedAt       time.Time `json:"created_at"`
}
