package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/ftl/nbrx/core"
)

// Spectrum computes a smoothed power spectrum of fixed size and quantizes it into
// one byte per bin. Bins are ordered from the most negative to the most positive
// frequency, DC is at index size/2.
type Spectrum struct {
	size      int
	window    []float64
	smoothing float64
	dbRange   core.DBRange

	input     []complex128
	smoothed  []float64
	primed    bool
	anomalies int
}

// NewSpectrum returns a new spectrum of the given size. The smoothing factor is the
// weight of the previous value, the given dB range is mapped onto [0, 255].
func NewSpectrum(size int, smoothing float64, dbRange core.DBRange) *Spectrum {
	return &Spectrum{
		size:      size,
		window:    window.Hamming(size),
		smoothing: smoothing,
		dbRange:   dbRange.Normalized(),
		input:     make([]complex128, size),
		smoothed:  make([]float64, size),
	}
}

// Size of the spectrum in bins.
func (s *Spectrum) Size() int {
	return s.size
}

// Levels returns the current smoothed levels in dB.
func (s *Spectrum) Levels() []core.DB {
	result := make([]core.DB, s.size)
	for i, v := range s.smoothed {
		result[i] = core.DB(v)
	}
	return result
}

// Anomalies returns the number of non-finite samples in the last frame. They were
// replaced by zero.
func (s *Spectrum) Anomalies() int {
	return s.anomalies
}

// Process computes the spectrum of the given frame of exactly Size samples and writes
// the quantized values into out, which must have at least Size bytes.
func (s *Spectrum) Process(out []byte, frame []complex64) []byte {
	if len(frame) != s.size {
		panic("spectrum frame has wrong size")
	}
	s.anomalies = 0
	for i, v := range frame {
		if !finite(v) {
			s.anomalies++
			v = 0
		}
		s.input[i] = complex128(v) * complex(s.window[i], 0)
	}

	bins := fft.FFT(s.input)

	scale := 1.0 / float64(s.size*s.size)
	half := s.size / 2
	for i := range s.smoothed {
		v := bins[(i+half)%s.size]
		power := (real(v)*real(v) + imag(v)*imag(v)) * scale
		level := 10 * math.Log10(power+1e-20)
		switch {
		case math.IsNaN(level) || math.IsInf(level, 0):
			// keep the previous value
		case s.primed:
			s.smoothed[i] = level*(1-s.smoothing) + s.smoothed[i]*s.smoothing
		default:
			s.smoothed[i] = level
		}
		out[i] = s.dbRange.ToByte(core.DB(s.smoothed[i]))
	}
	s.primed = true

	return out[:s.size]
}

func finite(v complex64) bool {
	re, im := float64(real(v)), float64(imag(v))
	return !math.IsNaN(re) && !math.IsInf(re, 0) && !math.IsNaN(im) && !math.IsInf(im, 0)
}
