// Command spectrogram renders a WAV file's spectrogram to PNG and marks the
// onsets the detector finds, for tuning detector settings by eye.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"github.com/himanishpuri/Rifft/internal/audio"
	"github.com/himanishpuri/Rifft/internal/levelfile"
	"github.com/himanishpuri/Rifft/internal/model"
	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/logger"
	"github.com/himanishpuri/Rifft/pkg/utils"
)

var (
	width       int
	height      int
	smoothing   int
	sensitivity float64
	markers     bool
	levelPath   string
)

func init() {
	flag.IntVar(&width, "width", 2048, "Image width in pixels")
	flag.IntVar(&height, "height", 512, "Image height in pixels (frequency bins)")
	flag.IntVar(&smoothing, "smoothing", onset.DefaultSmoothingWindow, "Detector smoothing window")
	flag.Float64Var(&sensitivity, "sensitivity", onset.DefaultSensitivity, "Detector sensitivity")
	flag.BoolVar(&markers, "onsets", true, "Overlay detected onsets")
	flag.StringVar(&levelPath, "level", "", "Overlay the notes of this level file instead of detected onsets")
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	if flag.NArg() != 2 {
		fmt.Println("Usage: spectrogram [flags] <input.wav|dir> <output.png|dir>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	in, out := flag.Arg(0), flag.Arg(1)

	info, err := os.Stat(in)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if !info.IsDir() {
		if err := render(in, out); err != nil {
			log.Fatalf("%s: %v", in, err)
		}
		return
	}

	if err := utils.MakeDir(out); err != nil {
		log.Fatalf("%v", err)
	}
	err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !utils.HasExt(path, ".wav") {
			return nil
		}
		if err := render(path, filepath.Join(out, filepath.Base(path)+".png")); err != nil {
			log.Warnf("%s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func render(in, out string) error {
	log := logger.GetLogger()

	samples, rate, err := audio.ReadWavAsFloat64(in)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples")
	}
	log.Infof("Read %d samples at %d Hz from %s", len(samples), rate, in)

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(rate),
		uint32(height),
		false, // Hamming window
		false, // FFT
		true,  // magnitude
		false, // linear scale
	)

	duration := float64(len(samples)) / float64(rate)
	switch {
	case levelPath != "":
		onsets, err := levelOnsets(levelPath)
		if err != nil {
			return err
		}
		drawMarkers(img, onsets, duration)
		log.Infof("Marked %d note times from %s", len(onsets), levelPath)
	case markers:
		cfg := onset.DefaultConfig()
		cfg.SampleRate = rate
		cfg.SmoothingWindow = smoothing
		cfg.Sensitivity = sensitivity
		onsets, err := onset.DetectOnsets(cfg, samples)
		if err != nil {
			return err
		}
		drawMarkers(img, onsets, duration)
		log.Infof("Marked %d onsets", len(onsets))
	}

	if err := spectrogram.SavePng(img, out); err != nil {
		return err
	}
	log.Infof("Saved spectrogram to %s", out)
	return nil
}

// levelOnsets returns the distinct note times of a saved level.
func levelOnsets(path string) ([]model.Onset, error) {
	lvl, err := levelfile.Load(path)
	if err != nil {
		return nil, err
	}
	onsets := make([]model.Onset, 0, len(lvl.Notes))
	for i, n := range lvl.Notes {
		if i > 0 && n.Timestamp == lvl.Notes[i-1].Timestamp {
			continue
		}
		onsets = append(onsets, model.Onset{Timestamp: n.Timestamp})
	}
	return onsets, nil
}

// drawMarkers draws a vertical line at each onset's column.
func drawMarkers(img draw.Image, onsets []model.Onset, duration float64) {
	b := img.Bounds()
	red := spectrogram.ParseColor("ff3030")
	for _, o := range onsets {
		x := b.Min.X + markerColumn(o.Timestamp, duration, b.Dx())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.Set(x, y, red)
		}
	}
}

// markerColumn maps a timestamp to a pixel column in [0, width).
func markerColumn(t, duration float64, width int) int {
	if duration <= 0 || width <= 0 {
		return 0
	}
	x := int(t / duration * float64(width))
	return min(max(x, 0), width-1)
}
