// Package tuning holds the process-wide tuning parameters of the receiver.
//
// The parameters are written by one goroutine and read by all DSP stages
// without locking. A snapshot may mix values of two consecutive writes.
package tuning

import (
	"sync/atomic"

	"github.com/ftl/nbrx/core"
)

// Snapshot of the tuning parameters.
type Snapshot struct {
	RFCenter       core.Frequency
	LOFrequency    core.Frequency
	SelectedCenter core.Frequency
	SelectedSpan   core.Frequency
	RFSpan         core.Frequency
}

// IFCenter is the frequency the hardware is tuned to.
func (s Snapshot) IFCenter() core.Frequency {
	return s.RFCenter - s.LOFrequency
}

// RFRange is the range of frequencies covered by the hardware.
func (s Snapshot) RFRange() core.FrequencyRange {
	return core.RangeAround(s.RFCenter, s.RFSpan)
}

// SelectedRange is the range of frequencies covered by the narrow-band chain.
func (s Snapshot) SelectedRange() core.FrequencyRange {
	return core.RangeAround(s.SelectedCenter, s.SelectedSpan)
}

// Offset of the selected frequency relative to the RF center.
func (s Snapshot) Offset() core.Frequency {
	return s.SelectedCenter - s.RFCenter
}

// MixerRate is the normalized frequency of the oscillator that moves the
// selected frequency to baseband at the given sample rate.
func (s Snapshot) MixerRate(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(s.RFCenter-s.SelectedCenter) / float64(sampleRate)
}

// Parameters are the shared tuning values, stored in whole Hz.
type Parameters struct {
	rfCenter       atomic.Int64
	loFrequency    atomic.Int64
	selectedCenter atomic.Int64
	selectedSpan   atomic.Int64
	rfSpan         atomic.Int64
}

// New returns parameters initialized from the given configuration.
func New(config core.Configuration) *Parameters {
	result := &Parameters{}
	result.rfCenter.Store(hz(config.RFCenter))
	result.loFrequency.Store(hz(config.LOFrequency))
	result.rfSpan.Store(int64(config.SampleRate))
	result.selectedSpan.Store(int64(config.IFSampleRate()))
	result.SetSelected(config.SelectedFrequency)
	return result
}

func hz(f core.Frequency) int64 {
	if f < 0 {
		return int64(f - 0.5)
	}
	return int64(f + 0.5)
}

// Snapshot returns the current values.
func (p *Parameters) Snapshot() Snapshot {
	return Snapshot{
		RFCenter:       core.Frequency(p.rfCenter.Load()),
		LOFrequency:    core.Frequency(p.loFrequency.Load()),
		SelectedCenter: core.Frequency(p.selectedCenter.Load()),
		SelectedSpan:   core.Frequency(p.selectedSpan.Load()),
		RFSpan:         core.Frequency(p.rfSpan.Load()),
	}
}

// Selected returns the selected center frequency.
func (p *Parameters) Selected() core.Frequency {
	return core.Frequency(p.selectedCenter.Load())
}

// SetSelected sets the selected center frequency, clamped to the RF span.
// It returns the frequency that was actually set.
func (p *Parameters) SetSelected(f core.Frequency) core.Frequency {
	rfRange := core.RangeAround(core.Frequency(p.rfCenter.Load()), core.Frequency(p.rfSpan.Load()))
	value := hz(rfRange.Clamp(f))
	p.selectedCenter.Store(value)
	return core.Frequency(value)
}

// SetSelectedSpan sets the width of the selected range.
func (p *Parameters) SetSelectedSpan(span core.Frequency) {
	if span < 0 {
		span = 0
	}
	p.selectedSpan.Store(hz(span))
}

// SetRFCenter moves the hardware center frequency and re-clamps the selected frequency.
func (p *Parameters) SetRFCenter(f core.Frequency) {
	p.rfCenter.Store(hz(f))
	p.SetSelected(p.Selected())
}
