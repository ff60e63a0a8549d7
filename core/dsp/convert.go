package dsp

import "math"

// RealPart extracts the real part of complex samples and replaces values that are
// not finite with the last finite value. The last value is carried across blocks.
type RealPart struct {
	last float32
}

// Extract writes the real parts of in to out and returns the number of replaced samples.
func (r *RealPart) Extract(out []float32, in []complex128) int {
	anomalies := 0
	for i, s := range in {
		v := real(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = r.last
			anomalies++
			continue
		}
		out[i] = float32(v)
		r.last = out[i]
	}
	return anomalies
}

// Limit all samples to [-1, 1], in place.
func Limit(samples []float32) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}

// ToInt16 converts samples in [-1, 1] to signed 16 bit PCM, truncating towards zero.
func ToInt16(out []int16, in []float32) []int16 {
	for i, s := range in {
		out[i] = int16(s * math.MaxInt16)
	}
	return out[:len(in)]
}
