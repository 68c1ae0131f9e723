// Package levelfile reads and writes the JSON level format consumed by the
// game: {"music": path, "notes": [[timestamp, channel, x, y], ...]}.
package levelfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/himanishpuri/Rifft/internal/model"
)

var ErrMalformed = errors.New("levelfile: malformed level")

type Level struct {
	Music string
	Notes []model.Note
}

type wireLevel struct {
	Music string       `json:"music"`
	Notes [][4]float64 `json:"notes"`
}

// Encode writes lvl as indented JSON.
func Encode(w io.Writer, lvl Level) error {
	wire := wireLevel{Music: lvl.Music, Notes: make([][4]float64, len(lvl.Notes))}
	for i, n := range lvl.Notes {
		if !n.Channel.Valid() {
			return fmt.Errorf("%w: note %d has channel %d", ErrMalformed, i, n.Channel)
		}
		wire.Notes[i] = [4]float64{n.Timestamp, float64(n.Channel), float64(n.X), float64(n.Y)}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}

func Decode(r io.Reader) (Level, error) {
	var raw struct {
		Music string            `json:"music"`
		Notes []json.RawMessage `json:"notes"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Level{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	lvl := Level{Music: raw.Music, Notes: make([]model.Note, 0, len(raw.Notes))}
	for i, msg := range raw.Notes {
		var row []float64
		if err := json.Unmarshal(msg, &row); err != nil {
			return Level{}, fmt.Errorf("%w: note %d: %w", ErrMalformed, i, err)
		}
		if len(row) != 4 {
			return Level{}, fmt.Errorf("%w: note %d has %d fields, want 4", ErrMalformed, i, len(row))
		}
		ch := model.Channel(int(row[1]))
		if float64(ch) != row[1] || !ch.Valid() {
			return Level{}, fmt.Errorf("%w: note %d has channel %v", ErrMalformed, i, row[1])
		}
		lvl.Notes = append(lvl.Notes, model.Note{
			Timestamp: row[0],
			Channel:   ch,
			X:         float32(row[2]),
			Y:         float32(row[3]),
		})
	}
	return lvl, nil
}

// Save writes lvl to path, creating parent directories.
func Save(path string, lvl Level) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create level directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create level file: %w", err)
	}
	if err := Encode(f, lvl); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Load(path string) (Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return Level{}, fmt.Errorf("failed to open level file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
