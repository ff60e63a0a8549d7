package dsp

// Decimator is a FIR lowpass filter that only computes every factor-th output sample.
// Input that is not yet consumed is carried to the next block, so the cumulative
// number of output samples is always ⌈cumulative input / factor⌉.
type Decimator struct {
	factor int
	taps   []float32
	re     []float32
	im     []float32
	next   int
}

// NewDecimator returns a new decimator with the given factor and filter taps.
func NewDecimator(factor int, taps []float64) *Decimator {
	if factor < 1 {
		panic("decimation factor must be positive")
	}
	result := &Decimator{
		factor: factor,
		taps:   make([]float32, len(taps)),
	}
	for i, t := range taps {
		result.taps[i] = float32(t)
	}
	result.Reset()
	return result
}

// Factor of the decimation.
func (d *Decimator) Factor() int {
	return d.factor
}

// Reset the filter history.
func (d *Decimator) Reset() {
	history := len(d.taps) - 1
	d.re = make([]float32, history)
	d.im = make([]float32, history)
	d.next = 0
}

// OutputSize returns the number of output samples the next call to Decimate will
// produce for the given number of input samples.
func (d *Decimator) OutputSize(inputSize int) int {
	available := len(d.re) + inputSize
	if d.next+len(d.taps) > available {
		return 0
	}
	return (available-len(d.taps)-d.next)/d.factor + 1
}

// Decimate filters the planar input and appends the decimated samples to out.
func (d *Decimator) Decimate(out []complex64, re, im []float32) []complex64 {
	history := len(d.taps) - 1
	d.re = append(d.re, re...)
	d.im = append(d.im, im[:len(re)]...)

	n := len(d.taps)
	start := d.next
	for ; start+n <= len(d.re); start += d.factor {
		wr := d.re[start : start+n]
		wi := d.im[start : start+n]
		var accRe, accIm float32
		for j, t := range d.taps {
			accRe += wr[j] * t
			accIm += wi[j] * t
		}
		out = append(out, complex(accRe, accIm))
	}
	d.next = start - len(re)

	copy(d.re, d.re[len(d.re)-history:])
	copy(d.im, d.im[len(d.im)-history:])
	d.re = d.re[:history]
	d.im = d.im[:history]

	return out
}
