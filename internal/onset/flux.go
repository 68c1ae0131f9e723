package onset

import (
	"fmt"
	"math"

	"github.com/himanishpuri/Rifft/internal/model"
)

// State is the phase of a Tracker. Phases only move forward.
type State int

const (
	// Priming: no spectrum seen yet, nothing to diff against.
	Priming State = iota
	// Accumulating: flux is being recorded but the ring buffer is not full.
	Accumulating
	// Detecting: the ring buffer is full and peaks are picked every window.
	Detecting
)

func (s State) String() string {
	switch s {
	case Priming:
		return "priming"
	case Accumulating:
		return "accumulating"
	case Detecting:
		return "detecting"
	default:
		return "unknown"
	}
}

// SpectralFlux is the mean over bins of the positive part of
// current[i] - previous[i]. Bins whose magnitude dropped contribute zero.
// Both spectra must have the same number of bins.
func SpectralFlux(previous, current []float64) (float64, error) {
	if len(previous) != len(current) {
		return 0, fmt.Errorf("%w: spectra have %d and %d bins", ErrWindowLength, len(previous), len(current))
	}
	if len(current) == 0 {
		return 0, nil
	}
	var sum float64
	for i, c := range current {
		if d := c - previous[i]; d > 0 {
			sum += d
		}
	}
	return sum / float64(len(current)), nil
}

// Tracker computes spectral flux over consecutive spectra, smooths it with a
// centered moving average and picks local maxima as onsets.
//
// The running sum always equals the sum of the ring contents; it is updated
// by adding the incoming value and subtracting the evicted one.
type Tracker struct {
	capacity       int
	scale          float64
	windowDuration float64

	ring []float64
	head int // next write position, also the oldest value once full
	sum  float64

	previous []float64
	index    int // windows consumed so far
	peaks    PeakHistory
}

// NewTracker returns a tracker for cfg. cfg must be valid.
func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		capacity:       cfg.SmoothingWindow,
		scale:          cfg.Sensitivity / float64(cfg.SmoothingWindow),
		windowDuration: cfg.WindowDuration(),
		ring:           make([]float64, cfg.SmoothingWindow),
	}, nil
}

// State reports the phase the next Update will run in.
func (t *Tracker) State() State {
	switch {
	case t.index == 0:
		return Priming
	case t.index < t.capacity:
		return Accumulating
	default:
		return Detecting
	}
}

// Windows is the number of spectra consumed.
func (t *Tracker) Windows() int { return t.index }

// RunningSum is the current sum of the smoothing ring.
func (t *Tracker) RunningSum() float64 { return t.sum }

// Update consumes the spectrum of the next window. It returns an onset and
// true when the adjusted peak one step back was a local maximum. Every
// spectrum must have the same length as the first one.
func (t *Tracker) Update(spectrum []float64) (model.Onset, bool, error) {
	if t.previous == nil {
		t.previous = make([]float64, len(spectrum))
	} else if len(spectrum) != len(t.previous) {
		return model.Onset{}, false, fmt.Errorf("%w: spectrum has %d bins, want %d",
			ErrWindowLength, len(spectrum), len(t.previous))
	}

	tick := t.index
	var (
		onset model.Onset
		found bool
	)

	if tick > 0 {
		flux, err := SpectralFlux(t.previous, spectrum)
		if err != nil {
			return model.Onset{}, false, err
		}

		t.sum += flux - t.ring[t.head]
		t.ring[t.head] = flux
		t.head++
		if t.head == t.capacity {
			t.head = 0
		}

		if tick >= t.capacity {
			mean := t.scale * t.sum
			center := t.head - t.capacity/2
			if center < 0 {
				center += t.capacity
			}
			adjusted := math.Max(0, t.ring[center]-mean)

			if t.peaks.Push(adjusted) {
				onset = model.Onset{
					Timestamp: float64(tick-t.capacity/2-1) * t.windowDuration,
				}
				found = true
			}
		}
	}

	copy(t.previous, spectrum)
	t.index++
	return onset, found, nil
}
