package rifft

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/Rifft/internal/audio"
	"github.com/himanishpuri/Rifft/internal/levelfile"
	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/logger"
)

const testWindow = 1024

func quietLogger() Logger {
	return logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
}

func setupService(t *testing.T, opts ...Option) Service {
	t.Helper()

	base := []Option{
		WithDBPath(filepath.Join(t.TempDir(), "rifft_test.sqlite3")),
		WithTempDir(t.TempDir()),
		WithLogger(quietLogger()),
	}
	svc, err := NewService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// writeBurstWav writes silence with short noise bursts starting at the given
// window indices and returns the file path.
func writeBurstWav(t *testing.T, sampleRate, windows int, bursts ...int) string {
	t.Helper()

	r := rand.New(rand.NewPCG(1, 2))
	samples := make([]float64, windows*testWindow)
	for _, w := range bursts {
		for i := w * testWindow; i < (w+4)*testWindow && i < len(samples); i++ {
			samples[i] = 0.8 * (r.Float64()*2 - 1)
		}
	}

	path := filepath.Join(t.TempDir(), "bursts.wav")
	if err := audio.WriteWav(path, samples, sampleRate); err != nil {
		t.Fatalf("WriteWav: %v", err)
	}
	return path
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"window size", WithWindowSize(1000), onset.ErrWindowSize},
		{"smoothing", WithSmoothingWindow(4), onset.ErrSmoothingWindow},
		{"sensitivity", WithSensitivity(0), onset.ErrSensitivity},
		{"sample rate", WithSampleRate(0), onset.ErrSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(WithDBPath(filepath.Join(t.TempDir(), "x.db")), tt.opt)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewService(WithModeChangeRate(2)); err == nil {
		t.Error("expected error for mode change rate > 1")
	}
}

func TestAnalyzeWAV(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 44100, 200, 40, 100, 160)

	trackID, err := svc.AnalyzeWAV(context.Background(), path, "", "Tester")
	if err != nil {
		t.Fatalf("AnalyzeWAV: %v", err)
	}

	track, err := svc.GetTrack(trackID)
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if track.Title != "bursts" || track.Artist != "Tester" || track.SourcePath != path {
		t.Errorf("unexpected track metadata: %+v", track)
	}
	if track.SampleRate != 44100 || track.WindowSize != onset.DefaultWindowSize {
		t.Errorf("unexpected track settings: %+v", track)
	}

	onsets, err := svc.GetOnsets(trackID)
	if err != nil {
		t.Fatalf("GetOnsets: %v", err)
	}
	if len(onsets) == 0 {
		t.Fatal("expected onsets for a signal with bursts")
	}
	if track.OnsetCount != len(onsets) {
		t.Errorf("OnsetCount = %d, stored %d", track.OnsetCount, len(onsets))
	}
	t.Logf("detected %d onsets: %v", len(onsets), onsets)

	// Streaming through the service must agree with a one-shot detection.
	samples, _, err := audio.ReadWavAsFloat64(path)
	if err != nil {
		t.Fatal(err)
	}
	want, err := onset.DetectOnsets(onset.DefaultConfig(), samples)
	if err != nil {
		t.Fatal(err)
	}
	if len(want) != len(onsets) {
		t.Fatalf("service found %d onsets, one-shot found %d", len(onsets), len(want))
	}
	for i := range want {
		if want[i] != onsets[i] {
			t.Errorf("onset %d: %v vs %v", i, onsets[i], want[i])
		}
	}
}

func TestAnalyzeWAVRejectsSampleRateMismatch(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 22050, 20, 5)

	_, err := svc.AnalyzeWAV(context.Background(), path, "Slow", "")
	if !errors.Is(err, onset.ErrSampleRateMismatch) {
		t.Fatalf("err = %v, want ErrSampleRateMismatch", err)
	}

	tracks, err := svc.ListTracks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 0 {
		t.Errorf("a rejected file registered %d tracks", len(tracks))
	}
}

func TestAnalyzeWAVCanceled(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 44100, 20, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.AnalyzeWAV(ctx, path, "x", "y"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateLevelDeterministic(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 44100, 200, 40, 100, 160)
	ctx := context.Background()

	trackID, err := svc.AnalyzeWAV(ctx, path, "Level", "")
	if err != nil {
		t.Fatal(err)
	}

	export := func(seed uint64) []byte {
		t.Helper()
		id, err := svc.GenerateLevel(ctx, trackID, seed)
		if err != nil {
			t.Fatalf("GenerateLevel: %v", err)
		}
		var buf bytes.Buffer
		if err := svc.ExportLevel(id, &buf); err != nil {
			t.Fatalf("ExportLevel: %v", err)
		}
		return buf.Bytes()
	}

	a := export(99)
	b := export(99)
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different levels")
	}

	lvl, err := levelfile.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if lvl.Music != path {
		t.Errorf("music = %q, want %q", lvl.Music, path)
	}
	onsets, _ := svc.GetOnsets(trackID)
	if len(lvl.Notes) != len(onsets) {
		t.Errorf("%d notes for %d onsets", len(lvl.Notes), len(onsets))
	}

	levels, err := svc.ListLevels(trackID)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 2 || levels[0].Seed != 99 || levels[0].ID == levels[1].ID {
		t.Errorf("unexpected levels: %+v", levels)
	}
}

func TestSaveLevel(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 44100, 200, 40, 100, 160)
	ctx := context.Background()

	trackID, err := svc.AnalyzeWAV(ctx, path, "Saved", "")
	if err != nil {
		t.Fatal(err)
	}
	levelID, err := svc.GenerateLevel(ctx, trackID, 7)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "levels", "nested", "level.json")
	if err := svc.SaveLevel(levelID, out); err != nil {
		t.Fatalf("SaveLevel: %v", err)
	}

	saved, err := levelfile.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var buf bytes.Buffer
	if err := svc.ExportLevel(levelID, &buf); err != nil {
		t.Fatal(err)
	}
	exported, err := levelfile.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Music != path || len(saved.Notes) != len(exported.Notes) {
		t.Errorf("saved level %q with %d notes, export has %q with %d",
			saved.Music, len(saved.Notes), exported.Music, len(exported.Notes))
	}

	if err := svc.SaveLevel("missing", out); !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveLevel(missing) = %v, want ErrNotFound", err)
	}
}

func TestGenerateLevelUnknownTrack(t *testing.T) {
	svc := setupService(t)

	if _, err := svc.GenerateLevel(context.Background(), "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := svc.ExportLevel("missing", io.Discard); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTrack(t *testing.T) {
	svc := setupService(t)
	path := writeBurstWav(t, 44100, 100, 40)
	ctx := context.Background()

	trackID, err := svc.AnalyzeWAV(ctx, path, "Gone", "")
	if err != nil {
		t.Fatal(err)
	}
	levelID, err := svc.GenerateLevel(ctx, trackID, 3)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteTrack(trackID); err != nil {
		t.Fatalf("DeleteTrack: %v", err)
	}
	if _, err := svc.GetTrack(trackID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTrack after delete: %v", err)
	}
	if err := svc.ExportLevel(levelID, io.Discard); !errors.Is(err, ErrNotFound) {
		t.Errorf("ExportLevel after delete: %v", err)
	}
}

func TestAnalyzeTrackWithFFmpeg(t *testing.T) {
	if err := audio.FFmpegAvailable(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}

	svc := setupService(t)
	path := writeBurstWav(t, 22050, 100, 30)

	trackID, err := svc.AnalyzeTrack(context.Background(), path, "Converted", "Artist")
	if err != nil {
		t.Fatalf("AnalyzeTrack: %v", err)
	}
	track, err := svc.GetTrack(trackID)
	if err != nil {
		t.Fatal(err)
	}
	if track.SampleRate != 44100 || track.SourcePath != path {
		t.Errorf("unexpected track: %+v", track)
	}
}
