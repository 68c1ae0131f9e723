package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/himanishpuri/Rifft/internal/levelfile"
	"github.com/himanishpuri/Rifft/internal/model"
)

func TestMarkerColumn(t *testing.T) {
	tests := []struct {
		t, duration float64
		width, want int
	}{
		{0, 10, 100, 0},
		{5, 10, 100, 50},
		{10, 10, 100, 99},
		{-1, 10, 100, 0},
		{1, 0, 100, 0},
	}
	for _, tt := range tests {
		if got := markerColumn(tt.t, tt.duration, tt.width); got != tt.want {
			t.Errorf("markerColumn(%v, %v, %d) = %d, want %d", tt.t, tt.duration, tt.width, got, tt.want)
		}
	}
}

func TestLevelOnsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.json")
	lvl := levelfile.Level{
		Music: "song.mp3",
		Notes: []model.Note{
			{Timestamp: 0.5, Channel: model.Left, X: 0.1, Y: 0.2},
			{Timestamp: 0.5, Channel: model.Right, X: -0.1, Y: 0.2},
			{Timestamp: 1.25, Channel: model.Left},
		},
	}
	if err := levelfile.Save(path, lvl); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := levelOnsets(path)
	if err != nil {
		t.Fatalf("levelOnsets: %v", err)
	}
	want := []model.Onset{{Timestamp: 0.5}, {Timestamp: 1.25}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := levelOnsets(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing level file")
	}
}
