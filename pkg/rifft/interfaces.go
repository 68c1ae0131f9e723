package rifft

import (
	"context"
	"io"
)

type Service interface {
	AnalyzeTrack(ctx context.Context, audioPath, title, artist string) (string, error)
	AnalyzeWAV(ctx context.Context, wavPath, title, artist string) (string, error)
	GenerateLevel(ctx context.Context, trackID string, seed uint64) (string, error)
	ExportLevel(levelID string, w io.Writer) error
	SaveLevel(levelID, path string) error
	GetTrack(trackID string) (*Track, error)
	ListTracks() ([]Track, error)
	GetOnsets(trackID string) ([]Onset, error)
	ListLevels(trackID string) ([]Level, error)
	DeleteTrack(trackID string) error
	Close() error
}

type Storage interface {
	RegisterTrack(track Track) (string, error)
	StoreOnsets(trackID string, onsets []Onset) error
	GetOnsets(trackID string) ([]Onset, error)
	GetTrack(trackID string) (*Track, error)
	ListTracks() ([]Track, error)
	DeleteTrack(trackID string) error
	StoreLevel(lvl Level, notes []Note) (string, error)
	GetLevel(levelID string) (*Level, error)
	GetNotes(levelID string) ([]Note, error)
	ListLevels(trackID string) ([]Level, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
