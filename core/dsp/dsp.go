// Package dsp contains the numerical building blocks of the receiver: oscillator
// mixing, FIR design and decimation, overlap-add filtering, gain control and the
// power spectrum.
package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/window"
)

// minOverlapAddOutput is the minimum number of fresh output samples per overlap-add block.
const minOverlapAddOutput = 200

// TapsLength returns the number of taps of a windowed-sinc filter with the given
// normalized transition bandwidth. The result is always odd.
func TapsLength(transitionBW float64) int {
	result := int(4.0/transitionBW + 1e-9)
	if result%2 == 0 {
		result++
	}
	return result
}

// Lowpass returns the taps of a Hamming windowed-sinc lowpass filter with the
// given normalized cutoff frequency. The taps are normalized to unity gain at DC.
func Lowpass(length int, cutoffRate float64) []float64 {
	if length%2 == 0 {
		panic("FIR length must be odd")
	}

	w := window.Hamming(length)
	middle := length / 2
	taps := make([]float64, length)
	sum := 0.0
	for i := range taps {
		t := float64(i - middle)
		taps[i] = 2 * cutoffRate * sinc(2*cutoffRate*t) * w[i]
		sum += taps[i]
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

// Bandpass returns the complex taps of a filter that passes [lowCut, highCut] of the
// normalized frequency range. It is a lowpass of half the passband width, shifted to
// the center of the passband.
func Bandpass(length int, lowCut, highCut float64) []complex128 {
	realTaps := Lowpass(length, (highCut-lowCut)/2)
	center := (highCut + lowCut) / 2

	result := make([]complex128, length)
	for i, t := range realTaps {
		sin, cos := math.Sincos(2 * math.Pi * center * float64(i))
		result[i] = complex(t*cos, t*sin)
	}
	return result
}

// overlapAddSize returns the FFT size for an overlap-add filter with the given number of taps.
func overlapAddSize(tapsLength int) int {
	result := dsputils.NextPowerOf2(tapsLength + 1)
	for result-tapsLength < minOverlapAddOutput || result-tapsLength+1 < tapsLength-1 {
		result <<= 1
	}
	return result
}

func toRate(frequency float64, sampleRate int) float64 {
	return frequency / float64(sampleRate)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
