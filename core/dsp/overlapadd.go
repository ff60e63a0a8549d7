package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// OverlapAdd is a complex FIR bandpass filter that works in the frequency domain.
// Each block of InputSize samples yields InputSize output samples; the tail of the
// previous block is added to the head of the current one.
type OverlapAdd struct {
	tapsLength int
	fftSize    int
	inputSize  int
	overlap    int

	fft      *fourier.CmplxFFT
	tapsFFT  []complex128
	work     []complex128
	outputs  [2][]complex128
	parity   int
	passband [2]float64
}

// NewOverlapAdd returns a new bandpass filter for the normalized passband [lowCut, highCut]
// with the given normalized transition bandwidth.
func NewOverlapAdd(lowCut, highCut, transitionBW float64) *OverlapAdd {
	tapsLength := TapsLength(transitionBW)
	fftSize := overlapAddSize(tapsLength)

	result := &OverlapAdd{
		tapsLength: tapsLength,
		fftSize:    fftSize,
		inputSize:  fftSize - tapsLength + 1,
		overlap:    tapsLength - 1,
		fft:        fourier.NewCmplxFFT(fftSize),
		tapsFFT:    make([]complex128, fftSize),
		work:       make([]complex128, fftSize),
		outputs:    [2][]complex128{make([]complex128, fftSize), make([]complex128, fftSize)},
	}
	result.SetPassband(lowCut, highCut)
	return result
}

// InputSize is the number of samples that must be passed to Filter.
func (f *OverlapAdd) InputSize() int {
	return f.inputSize
}

// FFTSize of the filter.
func (f *OverlapAdd) FFTSize() int {
	return f.fftSize
}

// TapsLength is the number of filter taps.
func (f *OverlapAdd) TapsLength() int {
	return f.tapsLength
}

// Passband returns the normalized passband of the filter.
func (f *OverlapAdd) Passband() (lowCut, highCut float64) {
	return f.passband[0], f.passband[1]
}

// SetPassband rebuilds the filter taps for the given normalized passband. It must not
// be called concurrently with Filter.
func (f *OverlapAdd) SetPassband(lowCut, highCut float64) {
	taps := Bandpass(f.tapsLength, lowCut, highCut)
	for i := range f.work {
		f.work[i] = 0
	}
	copy(f.work, taps)
	f.fft.Coefficients(f.tapsFFT, f.work)
	f.passband = [2]float64{lowCut, highCut}
}

// Filter the given block of exactly InputSize samples. The returned slice is owned by
// the filter and stays valid until the next but one call of Filter.
func (f *OverlapAdd) Filter(in []complex64) []complex128 {
	if len(in) != f.inputSize {
		panic("overlap-add input has wrong size")
	}

	for i, s := range in {
		f.work[i] = complex128(s)
	}
	for i := f.inputSize; i < f.fftSize; i++ {
		f.work[i] = 0
	}

	f.fft.Coefficients(f.work, f.work)
	for i, c := range f.tapsFFT {
		f.work[i] *= c
	}

	previous := f.outputs[f.parity^1]
	result := f.outputs[f.parity]
	f.fft.Sequence(result, f.work)

	scale := complex(1/float64(f.fftSize), 0)
	for i := range result {
		result[i] *= scale
	}
	for i, s := range previous[f.inputSize:] {
		result[i] += s
	}
	f.parity ^= 1

	return result[:f.inputSize]
}

// Reset the overlap from previous blocks.
func (f *OverlapAdd) Reset() {
	for _, output := range f.outputs {
		for i := range output {
			output[i] = 0
		}
	}
	f.parity = 0
}
