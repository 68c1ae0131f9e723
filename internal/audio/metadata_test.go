package audio

import (
	"context"
	"path/filepath"
	"testing"
)

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video"},
			{"codec_type": "audio", "sample_rate": "48000", "channels": 2, "tags": {"title": "Stream Title"}}
		],
		"format": {
			"filename": "/music/oban.mp3",
			"duration": "215.5",
			"format_name": "mp3",
			"tags": {"title": "Oban", "artist": "Someone"}
		}
	}`)

	meta, err := parseProbe("/music/oban.mp3", out)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if meta.Filename != "oban.mp3" {
		t.Errorf("Filename = %q", meta.Filename)
	}
	if meta.Title != "Oban" || meta.Artist != "Someone" {
		t.Errorf("tags = %q / %q", meta.Title, meta.Artist)
	}
	if meta.SampleRate != 48000 || meta.Channels != 2 {
		t.Errorf("stream = %d Hz, %d channels", meta.SampleRate, meta.Channels)
	}
	if meta.DurationSec != 215.5 {
		t.Errorf("DurationSec = %f", meta.DurationSec)
	}
}

func TestParseProbeNoAudio(t *testing.T) {
	if _, err := parseProbe("x", []byte(`{"streams": [{"codec_type": "video"}], "format": {}}`)); err == nil {
		t.Error("expected error without an audio stream")
	}
}

func TestConvertToMonoWAV(t *testing.T) {
	if err := FFmpegAvailable(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "source.wav")
	samples := make([]float64, 22050)
	for i := range samples {
		samples[i] = 0.25
	}
	if err := WriteWav(src, samples, 22050); err != nil {
		t.Fatal(err)
	}

	out, err := ConvertToMonoWAV(context.Background(), src, filepath.Join(dir, "converted"), ConvertWAVConfig{SampleRate: 11025})
	if err != nil {
		t.Fatalf("ConvertToMonoWAV failed: %v", err)
	}

	got, sr, err := ReadWavAsFloat64(out)
	if err != nil {
		t.Fatalf("reading converted file: %v", err)
	}
	if sr != 11025 {
		t.Errorf("converted rate %d, want 11025", sr)
	}
	if len(got) < 11000 || len(got) > 11100 {
		t.Errorf("converted length %d, want about 11025", len(got))
	}

	meta, err := ReadMetadataFFmpeg(context.Background(), out)
	if err != nil {
		t.Fatalf("ReadMetadataFFmpeg failed: %v", err)
	}
	if meta.Channels != 1 {
		t.Errorf("converted channels = %d, want 1", meta.Channels)
	}
}
