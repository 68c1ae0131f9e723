package rifft

import (
	"github.com/himanishpuri/Rifft/internal/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterTrack(t Track) (string, error) {
	return s.db.RegisterTrack(storage.Track{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		SourcePath:      t.SourcePath,
		SampleRate:      t.SampleRate,
		DurationMs:      t.DurationMs,
		WindowSize:      t.WindowSize,
		SmoothingWindow: t.SmoothingWindow,
		Sensitivity:     t.Sensitivity,
		OnsetCount:      t.OnsetCount,
	})
}

func (s *storageAdapter) StoreOnsets(trackID string, onsets []Onset) error {
	return s.db.StoreOnsets(trackID, onsets)
}

func (s *storageAdapter) GetOnsets(trackID string) ([]Onset, error) {
	return s.db.GetOnsets(trackID)
}

func (s *storageAdapter) GetTrack(trackID string) (*Track, error) {
	t, err := s.db.GetTrack(trackID)
	if err != nil {
		return nil, err
	}
	out := fromDBTrack(*t)
	return &out, nil
}

func (s *storageAdapter) ListTracks() ([]Track, error) {
	rows, err := s.db.ListTracks()
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, len(rows))
	for i, r := range rows {
		tracks[i] = fromDBTrack(r)
	}
	return tracks, nil
}

func (s *storageAdapter) DeleteTrack(trackID string) error {
	return s.db.DeleteTrack(trackID)
}

func (s *storageAdapter) StoreLevel(lvl Level, notes []Note) (string, error) {
	return s.db.StoreLevel(storage.Level{
		ID:              lvl.ID,
		TrackID:         lvl.TrackID,
		Seed:            int64(lvl.Seed), // sqlite integers are signed
		ModeChangeRate:  lvl.ModeChangeRate,
		ResetRate:       lvl.ResetRate,
		ForceStrength:   lvl.ForceStrength,
		NominalVelocity: lvl.NominalVelocity,
	}, notes)
}

func (s *storageAdapter) GetLevel(levelID string) (*Level, error) {
	l, err := s.db.GetLevel(levelID)
	if err != nil {
		return nil, err
	}
	out := fromDBLevel(*l)
	return &out, nil
}

func (s *storageAdapter) GetNotes(levelID string) ([]Note, error) {
	return s.db.GetNotes(levelID)
}

func (s *storageAdapter) ListLevels(trackID string) ([]Level, error) {
	rows, err := s.db.ListLevels(trackID)
	if err != nil {
		return nil, err
	}
	levels := make([]Level, len(rows))
	for i, r := range rows {
		levels[i] = fromDBLevel(r)
	}
	return levels, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func fromDBTrack(t storage.Track) Track {
	return Track{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		SourcePath:      t.SourcePath,
		SampleRate:      t.SampleRate,
		DurationMs:      t.DurationMs,
		WindowSize:      t.WindowSize,
		SmoothingWindow: t.SmoothingWindow,
		Sensitivity:     t.Sensitivity,
		OnsetCount:      t.OnsetCount,
		CreatedAt:       t.CreatedAt,
	}
}

func fromDBLevel(l storage.Level) Level {
	return Level{
		ID:              l.ID,
		TrackID:         l.TrackID,
		Seed:            uint64(l.Seed),
		ModeChangeRate:  l.ModeChangeRate,
		ResetRate:       l.ResetRate,
		ForceStrength:   l.ForceStrength,
		NominalVelocity: l.NominalVelocity,
		NoteCount:       l.NoteCount,
		CreatedAt:       l.CreatedAt,
	}
}
