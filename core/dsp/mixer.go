package dsp

import "math"

// Mixer is a numerically controlled oscillator that shifts a complex signal in frequency.
// The phase is carried from one block to the next.
type Mixer struct {
	phase float64 // at the start of the next block, in (-π, π]
}

// Shift multiplies the input with e^(j2π·rate·n) and writes the result into the
// planar re and im slices, which must be at least as long as the input.
// The rate is the shift frequency divided by the sample rate.
func (m *Mixer) Shift(re, im []float32, in []complex64, rate float64) {
	Δφ := 2 * math.Pi * rate
	dsin, dcos := math.Sincos(Δφ)
	sin, cos := math.Sincos(m.phase)

	for i, s := range in {
		sr, si := float64(real(s)), float64(imag(s))
		re[i] = float32(sr*cos - si*sin)
		im[i] = float32(sr*sin + si*cos)

		cos, sin = cos*dcos-sin*dsin, sin*dcos+cos*dsin
	}

	m.phase = normalizePhase(m.phase + Δφ*float64(len(in)))
}

// normalizePhase maps φ into (-π, π].
func normalizePhase(φ float64) float64 {
	φ = math.Mod(φ, 2*math.Pi)
	if φ > math.Pi {
		φ -= 2 * math.Pi
	} else if φ <= -math.Pi {
		φ += 2 * math.Pi
	}
	return φ
}
