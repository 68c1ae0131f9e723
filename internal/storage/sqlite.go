package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/Rifft/internal/model"
	"github.com/himanishpuri/Rifft/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "rifft.sqlite3"
const errDBClientNil = "db client is nil"

// insertBatch bounds the rows sent per INSERT.
const insertBatch = 500

var ErrNotFound = errors.New("storage: not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Track is an analyzed audio file together with the detector settings that
// produced its onsets.
type Track struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title           string    `gorm:"index:idx_track_meta,priority:1" json:"title"`
	Artist          string    `gorm:"index:idx_track_meta,priority:2" json:"artist"`
	SourcePath      string    `json:"source_path"`
	SampleRate      int       `json:"sample_rate"`
	DurationMs      int       `json:"duration_ms"`
	WindowSize      int       `json:"window_size"`
	SmoothingWindow int       `json:"smoothing_window"`
	Sensitivity     float64   `json:"sensitivity"`
	OnsetCount      int       `json:"onset_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type OnsetRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TrackID   string `gorm:"type:varchar(36);index:idx_onset_track,priority:1"`
	Seq       int    `gorm:"index:idx_onset_track,priority:2"`
	Timestamp float64
}

func (OnsetRow) TableName() string { return "onsets" }

// Level is one generated note sequence for a track. Seed and the motion
// constants are enough to regenerate it.
type Level struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TrackID         string    `gorm:"type:varchar(36);index:idx_level_track" json:"track_id"`
	Seed            int64     `json:"seed"`
	ModeChangeRate  float64   `json:"mode_change_rate"`
	ResetRate       float64   `json:"reset_rate"`
	ForceStrength   float64   `json:"force_strength"`
	NominalVelocity float64   `json:"nominal_velocity"`
	NoteCount       int       `json:"note_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type NoteRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	LevelID   string `gorm:"type:varchar(36);index:idx_note_level,priority:1"`
	Seq       int    `gorm:"index:idx_note_level,priority:2"`
	Timestamp float64
	Channel   int
	X         float32
	Y         float32
}

func (NoteRow) TableName() string { return "notes" }

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("RIFFT_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Track{}, &OnsetRow{}, &Level{}, &NoteRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) ok() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

// RegisterTrack inserts t, assigning a fresh ID when t.ID is empty, and
// returns the ID.
func (c *DBClient) RegisterTrack(t Track) (string, error) {
	if err := c.ok(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = utils.GenerateUUID()
	}
	if err := c.DB.Create(&t).Error; err != nil {
		return "", fmt.Errorf("creating track: %w", err)
	}
	return t.ID, nil
}

// StoreOnsets replaces the onsets of a track and updates its onset count.
func (c *DBClient) StoreOnsets(trackID string, onsets []model.Onset) error {
	if err := c.ok(); err != nil {
		return err
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Track{}).Where("id = ?", trackID).Update("onset_count", len(onsets))
		if res.Error != nil {
			return fmt.Errorf("updating onset count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("track %s: %w", trackID, ErrNotFound)
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&OnsetRow{}).Error; err != nil {
			return fmt.Errorf("clearing onsets: %w", err)
		}
		if len(onsets) == 0 {
			return nil
		}

		rows := make([]OnsetRow, len(onsets))
		for i, o := range onsets {
			rows[i] = OnsetRow{TrackID: trackID, Seq: i, Timestamp: o.Timestamp}
		}
		if err := tx.CreateInBatches(rows, insertBatch).Error; err != nil {
			return fmt.Errorf("batch insert onsets: %w", err)
		}
		return nil
	})
}

func (c *DBClient) GetOnsets(trackID string) ([]model.Onset, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	if _, err := c.GetTrack(trackID); err != nil {
		return nil, err
	}

	var rows []OnsetRow
	if err := c.DB.Where("track_id = ?", trackID).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying onsets: %w", err)
	}
	out := make([]model.Onset, len(rows))
	for i, r := range rows {
		out[i] = model.Onset{Timestamp: r.Timestamp}
	}
	return out, nil
}

func (c *DBClient) GetTrack(trackID string) (*Track, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	var t Track
	if err := c.DB.Where("id = ?", trackID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return &t, nil
}

func (c *DBClient) ListTracks() ([]Track, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	var tracks []Track
	if err := c.DB.Order("created_at, id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	return tracks, nil
}

// DeleteTrack removes a track with its onsets, levels and notes.
func (c *DBClient) DeleteTrack(trackID string) error {
	if err := c.ok(); err != nil {
		return err
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		levelIDs := tx.Model(&Level{}).Select("id").Where("track_id = ?", trackID)
		if err := tx.Where("level_id IN (?)", levelIDs).Delete(&NoteRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&Level{}).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&OnsetRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", trackID).Delete(&Track{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("track %s: %w", trackID, ErrNotFound)
		}
		return nil
	})
}

// StoreLevel inserts lvl and its notes in one transaction and returns the
// level ID.
func (c *DBClient) StoreLevel(lvl Level, notes []model.Note) (string, error) {
	if err := c.ok(); err != nil {
		return "", err
	}
	if lvl.ID == "" {
		lvl.ID = utils.GenerateUUID()
	}
	lvl.NoteCount = len(notes)

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Track{}).Where("id = ?", lvl.TrackID).Count(&n).Error; err != nil {
			return fmt.Errorf("checking track: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("track %s: %w", lvl.TrackID, ErrNotFound)
		}
		if err := tx.Create(&lvl).Error; err != nil {
			return fmt.Errorf("creating level: %w", err)
		}
		if len(notes) == 0 {
			return nil
		}

		rows := make([]NoteRow, len(notes))
		for i, note := range notes {
			rows[i] = NoteRow{
				LevelID:   lvl.ID,
				Seq:       i,
				Timestamp: note.Timestamp,
				Channel:   int(note.Channel),
				X:         note.X,
				Y:         note.Y,
			}
		}
		if err := tx.CreateInBatches(rows, insertBatch).Error; err != nil {
			return fmt.Errorf("batch insert notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return lvl.ID, nil
}

func (c *DBClient) GetLevel(levelID string) (*Level, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	var lvl Level
	if err := c.DB.Where("id = ?", levelID).First(&lvl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("level %s: %w", levelID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying level: %w", err)
	}
	return &lvl, nil
}

func (c *DBClient) GetNotes(levelID string) ([]model.Note, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	var rows []NoteRow
	if err := c.DB.Where("level_id = ?", levelID).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	out := make([]model.Note, len(rows))
	for i, r := range rows {
		out[i] = model.Note{
			Timestamp: r.Timestamp,
			Channel:   model.Channel(r.Channel),
			X:         r.X,
			Y:         r.Y,
		}
	}
	return out, nil
}

// ListLevels returns the levels of a track, oldest first.
func (c *DBClient) ListLevels(trackID string) ([]Level, error) {
	if err := c.ok(); err != nil {
		return nil, err
	}
	var levels []Level
	if err := c.DB.Where("track_id = ?", trackID).Order("created_at, id").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("listing levels: %w", err)
	}
	return levels, nil
}
