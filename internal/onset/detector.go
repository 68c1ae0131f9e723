package onset

import (
	"fmt"

	"github.com/himanishpuri/Rifft/internal/model"
)

// Detector re-chunks an arbitrary stream of PCM samples into fixed,
// non-overlapping windows and runs the spectral engine and flux tracker once
// per completed window.
//
// Samples that do not fill a final window are never analyzed. After any
// error the detector refuses further input; build a new one.
type Detector struct {
	cfg     Config
	engine  *SpectralEngine
	tracker *Tracker

	carry    []float64 // partial window carried between Push calls
	fill     int
	spectrum []float64

	onsets []model.Onset
	err    error
}

// NewDetector validates cfg and allocates all per-stream state.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewSpectralEngine(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	tracker, err := NewTracker(cfg)
	if err != nil {
		return nil, err
	}
	return &Detector{
		cfg:      cfg,
		engine:   engine,
		tracker:  tracker,
		carry:    make([]float64, cfg.WindowSize),
		spectrum: make([]float64, engine.Bins()),
	}, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config { return d.cfg }

// Push feeds the next chunk of mono samples at the detector's sample rate.
func (d *Detector) Push(samples []float64) error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrDetectorFailed, d.err)
	}

	for len(samples) > 0 {
		n := copy(d.carry[d.fill:], samples)
		d.fill += n
		samples = samples[n:]

		if d.fill < len(d.carry) {
			break
		}
		d.fill = 0
		if err := d.analyze(); err != nil {
			d.err = err
			return err
		}
	}
	return nil
}

// PushChunk is Push for a chunk that declares its own sample rate. A chunk
// at a different rate is rejected and poisons the detector, since its
// windows would map to the wrong timestamps.
func (d *Detector) PushChunk(samples []float64, sampleRate int) error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrDetectorFailed, d.err)
	}
	if sampleRate != d.cfg.SampleRate {
		d.err = fmt.Errorf("%w: got %d Hz, want %d Hz", ErrSampleRateMismatch, sampleRate, d.cfg.SampleRate)
		return d.err
	}
	return d.Push(samples)
}

func (d *Detector) analyze() error {
	spec, err := d.engine.Magnitudes(d.spectrum, d.carry)
	if err != nil {
		return err
	}
	d.spectrum = spec

	o, ok, err := d.tracker.Update(spec)
	if err != nil {
		return err
	}
	if ok {
		d.onsets = append(d.onsets, o)
	}
	return nil
}

// Onsets returns a copy of the onsets found so far, in timestamp order.
func (d *Detector) Onsets() []model.Onset {
	out := make([]model.Onset, len(d.onsets))
	copy(out, d.onsets)
	return out
}

// Windows is the number of complete windows analyzed.
func (d *Detector) Windows() int { return d.tracker.Windows() }

// Pending is the number of samples waiting for a window to fill.
func (d *Detector) Pending() int { return d.fill }

// State is the phase of the underlying flux tracker.
func (d *Detector) State() State { return d.tracker.State() }

// DetectOnsets runs a fresh detector over a fully materialized sample slice.
func DetectOnsets(cfg Config, samples []float64) ([]model.Onset, error) {
	d, err := NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Push(samples); err != nil {
		return nil, err
	}
	return d.Onsets(), nil
}
