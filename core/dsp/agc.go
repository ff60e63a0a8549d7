package dsp

import (
	"math"

	"github.com/ftl/nbrx/core"
)

// AGC is an automatic gain control with attack, decay and hang time. All state is
// carried from one block to the next.
type AGC struct {
	reference      float64
	attackRate     float64
	decayRate      float64
	maxGain        float64
	hangTime       int
	attackWaitTime int
	alpha          float64

	gain              float64
	appliedGain       float64
	lastPeak          float64
	hangCounter       int
	attackWaitCounter int
}

// NewAGC returns a new AGC with the given parameters.
func NewAGC(c core.AGCConfiguration) *AGC {
	result := &AGC{
		reference:      c.Reference,
		attackRate:     c.AttackRate,
		decayRate:      c.DecayRate,
		maxGain:        c.MaxGain,
		hangTime:       c.HangTime,
		attackWaitTime: c.AttackWaitTime,
		alpha:          c.GainFilterAlpha,
	}
	result.Reset()
	return result
}

// Reset the gain to 1.
func (a *AGC) Reset() {
	a.gain = 1
	a.appliedGain = 1
	a.lastPeak = a.reference
	a.hangCounter = 0
	a.attackWaitCounter = 0
}

// Gain that was applied to the last sample.
func (a *AGC) Gain() float64 {
	return a.appliedGain
}

// Process applies the gain control to the input and writes the result to out,
// which must be at least as long as the input.
func (a *AGC) Process(out, in []float32) {
	for i, s := range in {
		if s != 0 {
			a.update(math.Abs(float64(s)))
		}

		a.appliedGain += a.alpha * (a.gain - a.appliedGain)
		out[i] = float32(a.appliedGain * float64(s))
	}
}

func (a *AGC) update(amplitude float64) {
	var Δgain float64
	gainError := a.reference/amplitude - a.gain

	if gainError < 0 {
		if a.lastPeak < amplitude {
			a.attackWaitCounter = a.attackWaitTime
			a.lastPeak = amplitude
		}
		if a.attackWaitCounter > 0 {
			a.attackWaitCounter--
		} else {
			Δgain = gainError * a.attackRate
			a.hangCounter = a.hangTime
		}
	} else {
		if a.hangCounter > 0 {
			a.hangCounter--
		} else {
			Δgain = gainError * a.decayRate
			if a.gain > 0 {
				// the next peak above the level on target waits again
				a.lastPeak = a.reference / a.gain
			}
		}
	}

	a.gain = math.Max(0, math.Min(a.maxGain, a.gain+Δgain))
}
