package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/himanishpuri/Rifft/internal/level"

	"github.com/himanishpuri/Rifft/pkg/rifft"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		args      []string
		wantPos   string
		wantFlags []string
	}{
		{[]string{"song.mp3", "-title", "x"}, "song.mp3", []string{"-title", "x"}},
		{[]string{"-title", "x", "song.mp3"}, "", []string{"-title", "x", "song.mp3"}},
		{[]string{"abc"}, "abc", nil},
		{nil, "", nil},
	}
	for _, tt := range tests {
		pos, flags := splitArgs(tt.args)
		if pos != tt.wantPos || !reflect.DeepEqual(flags, tt.wantFlags) {
			t.Errorf("splitArgs(%v) = %q, %v", tt.args, pos, flags)
		}
	}
}

func TestCollectAudioFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.mp3", "a.WAV", "notes.txt", "sub/c.flac", "sub/cover.jpg"} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := collectAudioFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.WAV"),
		filepath.Join(root, "b.mp3"),
		filepath.Join(root, "sub", "c.flac"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestWriteOnsets(t *testing.T) {
	var buf bytes.Buffer
	writeOnsets(&buf, []rifft.Onset{{Timestamp: 0.5}, {Timestamp: 1.23456}})
	if got := buf.String(); got != "0.5000\n1.2346\n" {
		t.Errorf("got %q", got)
	}
}

func TestFailureIncludesStackTrace(t *testing.T) {
	got := failure("Failed to analyze track", errors.New("boom"))

	if !strings.HasPrefix(got, "Failed to analyze track: Error: boom\n") {
		t.Errorf("unexpected report header: %q", got)
	}
	if !strings.Contains(got, "\tat ") || !strings.Contains(got, ".failure (") {
		t.Errorf("report has no stack trace: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("report should end with a newline: %q", got)
	}
}

func TestMotionFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want level.Config
	}{
		{
			name: "defaults",
			want: level.DefaultConfig(),
		},
		{
			name: "overrides",
			args: []string{"-force", "8", "-velocity", "2.5", "-mode-change-rate", "0.2", "-reset-rate", "0"},
			want: level.Config{ModeChangeRate: 0.2, ResetRate: 0, ForceStrength: 8, NominalVelocity: 2.5, InitialMode: level.DefaultConfig().InitialMode},
		},
	}
	for _, tt := range tests {
		set := flag.NewFlagSet("generate", flag.ContinueOnError)
		set.SetOutput(io.Discard)
		motion := addMotionFlags(set)
		if err := set.Parse(tt.args); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}

		cfg := rifft.Config{Level: level.DefaultConfig()}
		for _, opt := range motion.options("levels.sqlite3") {
			opt(&cfg)
		}
		if cfg.DBPath != "levels.sqlite3" {
			t.Errorf("%s: db path %q", tt.name, cfg.DBPath)
		}
		if cfg.Level != tt.want {
			t.Errorf("%s: level config %+v, want %+v", tt.name, cfg.Level, tt.want)
		}
	}
}
