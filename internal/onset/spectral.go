package onset

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectralEngine turns fixed-size sample windows into magnitude spectra.
// The Hamming coefficients, FFT plan and scratch buffers are allocated once
// and reused, so a call to Magnitudes does not grow the heap when dst has
// enough capacity.
//
// A SpectralEngine is not safe for concurrent use.
type SpectralEngine struct {
	size   int
	window []float64
	fft    *fourier.FFT
	frame  []float64
	coeffs []complex128
}

// NewSpectralEngine builds an engine for windows of size samples.
func NewSpectralEngine(size int) (*SpectralEngine, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrWindowSize, size)
	}
	return &SpectralEngine{
		size:   size,
		window: window.Hamming(size),
		fft:    fourier.NewFFT(size),
		frame:  make([]float64, size),
		coeffs: make([]complex128, size/2+1),
	}, nil
}

// Size is the number of samples per window.
func (e *SpectralEngine) Size() int { return e.size }

// Bins is the number of magnitude values produced per window (DC through Nyquist).
func (e *SpectralEngine) Bins() int { return e.size/2 + 1 }

// Window returns the analysis window coefficients. The slice is shared with
// the engine and must not be modified.
func (e *SpectralEngine) Window() []float64 { return e.window }

// Magnitudes windows samples, runs a real FFT and writes the per-bin
// magnitudes into dst, which is grown only if it is too short. The returned
// slice has exactly Bins() elements. samples must have exactly Size()
// elements.
func (e *SpectralEngine) Magnitudes(dst, samples []float64) ([]float64, error) {
	if len(samples) != e.size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWindowLength, len(samples), e.size)
	}

	for i, s := range samples {
		e.frame[i] = s * e.window[i]
	}
	e.coeffs = e.fft.Coefficients(e.coeffs, e.frame)

	bins := e.Bins()
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	for i, c := range e.coeffs {
		dst[i] = cmplx.Abs(c)
	}
	return dst, nil
}
