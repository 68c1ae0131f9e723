package rifft

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/Rifft/internal/audio"
	"github.com/himanishpuri/Rifft/internal/level"
	"github.com/himanishpuri/Rifft/internal/levelfile"
	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/logger"
	"github.com/himanishpuri/Rifft/pkg/utils"
)

// rifftService is the default implementation of the Service interface.
type rifftService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Onset.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Level.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &rifftService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AnalyzeTrack converts any audio file ffmpeg can read to a mono WAV at the
// configured rate, detects its onsets and stores them. Missing title or
// artist are taken from the file's tags.
func (s *rifftService) AnalyzeTrack(ctx context.Context, audioPath, title, artist string) (string, error) {
	if title == "" || artist == "" {
		meta, err := audio.ReadMetadataFFmpeg(ctx, audioPath)
		if err != nil {
			s.log.Warnf("Could not read tags from %s: %v", audioPath, err)
		} else {
			if title == "" {
				title = meta.Title
			}
			if artist == "" {
				artist = meta.Artist
			}
		}
	}

	wavPath, err := audio.ConvertToMonoWAV(ctx, audioPath, s.config.TempDir, audio.ConvertWAVConfig{
		SampleRate: s.config.Onset.SampleRate,
	})
	if err != nil {
		return "", fmt.Errorf("audio conversion failed: %w", err)
	}
	defer func() {
		if err := utils.DeleteFile(wavPath); err != nil {
			s.log.Warnf("Failed to remove %s: %v", wavPath, err)
		}
	}()

	return s.analyze(ctx, wavPath, audioPath, title, artist)
}

// AnalyzeWAV detects onsets in a PCM WAV file that is already at the
// configured sample rate.
func (s *rifftService) AnalyzeWAV(ctx context.Context, wavPath, title, artist string) (string, error) {
	return s.analyze(ctx, wavPath, wavPath, title, artist)
}

func (s *rifftService) analyze(ctx context.Context, wavPath, sourcePath, title, artist string) (string, error) {
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	}
	s.log.Infof("Analyzing track: %s by %s", title, artist)

	det, err := onset.NewDetector(s.config.Onset)
	if err != nil {
		return "", err
	}

	chunkFrames := s.config.Onset.WindowSize * 4
	format, err := audio.StreamWav(ctx, wavPath, chunkFrames, func(c audio.Chunk) error {
		return det.PushChunk(c.Samples, c.SampleRate)
	})
	if err != nil {
		return "", fmt.Errorf("onset detection failed for %s: %w", wavPath, err)
	}

	onsets := det.Onsets()
	s.log.Infof("Detected %d onsets in %d windows (%.1fs)", len(onsets), det.Windows(), format.Duration())

	trackID, err := s.storage.RegisterTrack(Track{
		Title:           title,
		Artist:          artist,
		SourcePath:      sourcePath,
		SampleRate:      format.SampleRate,
		DurationMs:      int(format.Duration() * 1000),
		WindowSize:      s.config.Onset.WindowSize,
		SmoothingWindow: s.config.Onset.SmoothingWindow,
		Sensitivity:     s.config.Onset.Sensitivity,
	})
	if err != nil {
		return "", fmt.Errorf("failed to register track: %w", err)
	}

	if err := s.storage.StoreOnsets(trackID, onsets); err != nil {
		if delErr := s.storage.DeleteTrack(trackID); delErr != nil {
			s.log.Errorf("Rollback of track %s failed: %v", trackID, delErr)
		}
		return "", fmt.Errorf("failed to store onsets: %w", err)
	}

	s.log.Infof("Successfully analyzed track ID=%s", trackID)
	return trackID, nil
}

// GenerateLevel places one or two notes on every stored onset of a track
// and saves the result. The seed fully determines the placement.
func (s *rifftService) GenerateLevel(ctx context.Context, trackID string, seed uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	onsets, err := s.storage.GetOnsets(trackID)
	if err != nil {
		return "", fmt.Errorf("failed to load onsets: %w", err)
	}

	notes, err := level.Generate(s.config.Level, level.NewSource(seed), onsets)
	if err != nil {
		return "", fmt.Errorf("level generation failed: %w", err)
	}

	levelID, err := s.storage.StoreLevel(Level{
		TrackID:         trackID,
		Seed:            seed,
		ModeChangeRate:  s.config.Level.ModeChangeRate,
		ResetRate:       s.config.Level.ResetRate,
		ForceStrength:   s.config.Level.ForceStrength,
		NominalVelocity: s.config.Level.NominalVelocity,
	}, notes)
	if err != nil {
		return "", fmt.Errorf("failed to store level: %w", err)
	}

	s.log.Infof("Generated level %s: %d notes from %d onsets (seed %d)", levelID, len(notes), len(onsets), seed)
	return levelID, nil
}

// ExportLevel writes the level descriptor the game loads.
func (s *rifftService) ExportLevel(levelID string, w io.Writer) error {
	lvl, err := s.levelFile(levelID)
	if err != nil {
		return err
	}
	return levelfile.Encode(w, lvl)
}

// SaveLevel writes the level descriptor to path, creating parent directories.
func (s *rifftService) SaveLevel(levelID, path string) error {
	lvl, err := s.levelFile(levelID)
	if err != nil {
		return err
	}
	if err := levelfile.Save(path, lvl); err != nil {
		return err
	}
	s.log.Infof("Saved level %s to %s", levelID, path)
	return nil
}

func (s *rifftService) levelFile(levelID string) (levelfile.Level, error) {
	lvl, err := s.storage.GetLevel(levelID)
	if err != nil {
		return levelfile.Level{}, err
	}
	track, err := s.storage.GetTrack(lvl.TrackID)
	if err != nil {
		return levelfile.Level{}, err
	}
	notes, err := s.storage.GetNotes(levelID)
	if err != nil {
		return levelfile.Level{}, err
	}
	return levelfile.Level{Music: track.SourcePath, Notes: notes}, nil
}

func (s *rifftService) GetTrack(trackID string) (*Track, error) {
	return s.storage.GetTrack(trackID)
}

func (s *rifftService) ListTracks() ([]Track, error) {
	return s.storage.ListTracks()
}

func (s *rifftService) GetOnsets(trackID string) ([]Onset, error) {
	return s.storage.GetOnsets(trackID)
}

func (s *rifftService) ListLevels(trackID string) ([]Level, error) {
	if _, err := s.storage.GetTrack(trackID); err != nil {
		return nil, err
	}
	return s.storage.ListLevels(trackID)
}

// DeleteTrack removes a track with its onsets and levels.
func (s *rifftService) DeleteTrack(trackID string) error {
	return s.storage.DeleteTrack(trackID)
}

// Close releases all resources held by the service.
func (s *rifftService) Close() error {
	return s.storage.Close()
}
