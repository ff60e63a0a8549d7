package core

import (
	"fmt"
	"time"
)

// Frequency represents a frequency in Hz.
type Frequency float64

func (f Frequency) String() string {
	return fmt.Sprintf("%.2fHz", f)
}

// FrequencyRange represents a range of frequencies.
type FrequencyRange struct {
	From, To Frequency
}

func (r FrequencyRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.From, r.To)
}

// Center frequency of this range.
func (r FrequencyRange) Center() Frequency {
	return r.From + (r.To-r.From)/2
}

// Width of the frequency range.
func (r FrequencyRange) Width() Frequency {
	return r.To - r.From
}

// Contains the given frequency.
func (r FrequencyRange) Contains(f Frequency) bool {
	return f >= r.From && f <= r.To
}

// Clamp the given frequency into this range.
func (r FrequencyRange) Clamp(f Frequency) Frequency {
	if f < r.From {
		return r.From
	}
	if f > r.To {
		return r.To
	}
	return f
}

// Shift the frequency by the given Δ.
func (r *FrequencyRange) Shift(Δ Frequency) {
	r.From += Δ
	r.To += Δ
}

// Expanded returns a new expanded range.
func (r FrequencyRange) Expanded(Δ Frequency) FrequencyRange {
	return FrequencyRange{From: r.From - Δ, To: r.To + Δ}
}

// RangeAround returns the range with the given center and width.
func RangeAround(center, width Frequency) FrequencyRange {
	return FrequencyRange{From: center - width/2, To: center + width/2}
}

// DB represents decibel (dB).
type DB float64

func (f DB) String() string {
	return fmt.Sprintf("%.2fdB", f)
}

// DBRange represents a range of dB.
type DBRange struct {
	From DB `yaml:"from"`
	To   DB `yaml:"to"`
}

func (r DBRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.From, r.To)
}

// Width of the dB range.
func (r DBRange) Width() DB {
	return r.To - r.From
}

// Contains the given value in dB.
func (r DBRange) Contains(value DB) bool {
	return value >= r.From && value <= r.To
}

// Normalized returns a range with From <= To.
func (r DBRange) Normalized() DBRange {
	if r.From > r.To {
		return DBRange{From: r.To, To: r.From}
	}
	return r
}

// Frct is a fraction of a range, 0.0 being the lower and 1.0 the upper bound.
type Frct float64

// ToDBFrct maps the given value into the given dB range. The result is not clamped.
func ToDBFrct(value DB, r DBRange) Frct {
	return Frct((value - r.From) / r.Width())
}

// ToByte maps the given value into the inclusive byte range [0,255], clamped.
func (r DBRange) ToByte(value DB) byte {
	scaled := float64(ToDBFrct(value, r)) * 255.0
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return byte(scaled)
	}
}

// AGCConfiguration holds the parameters of the automatic gain control.
type AGCConfiguration struct {
	Reference       float64 `yaml:"reference"`
	AttackRate      float64 `yaml:"attack_rate"`
	DecayRate       float64 `yaml:"decay_rate"`
	MaxGain         float64 `yaml:"max_gain"`
	HangTime        int     `yaml:"hang_time"`
	AttackWaitTime  int     `yaml:"attack_wait_time"`
	GainFilterAlpha float64 `yaml:"gain_filter_alpha"`
}

// Synthetic sources of the test mode.
const (
	TestSourceTone  = "tone"
	TestSourceNoise = "noise"
	TestSourceSweep = "sweep"
)

// Configuration parameters of the application.
type Configuration struct {
	LogLevel            string    `yaml:"log_level"`
	Testmode            bool      `yaml:"testmode"`
	TestSource          string    `yaml:"test_source"`
	TestTone            Frequency `yaml:"test_tone"`
	FrequencyCorrection int       `yaml:"frequency_correction"`
	VFOHost             string    `yaml:"vfo_host"`
	VFOOffset           Frequency `yaml:"vfo_offset"`
	ListenAddress       string    `yaml:"listen_address"`
	AudioEnabled        bool      `yaml:"audio_enabled"`
	RecordFile          string    `yaml:"record_file"`

	RFCenter          Frequency `yaml:"rf_center"`
	LOFrequency       Frequency `yaml:"lo_frequency"`
	SelectedFrequency Frequency `yaml:"selected_frequency"`

	SampleRate          int     `yaml:"sample_rate"`
	Decimation          int     `yaml:"decimation"`
	DecimatorTransition float64 `yaml:"decimator_transition"`
	InputBlockSize      int     `yaml:"input_block_size"`

	FFTPerSecond      int     `yaml:"fft_per_second"`
	MainFFTSize       int     `yaml:"main_fft_size"`
	IFFFTSize         int     `yaml:"if_fft_size"`
	SpectrumSmoothing float64 `yaml:"spectrum_smoothing"`
	DynamicRange      DBRange `yaml:"dynamic_range"`

	DemodLowCut     float64          `yaml:"demod_low_cut"`
	DemodHighCut    float64          `yaml:"demod_high_cut"`
	DemodTransition float64          `yaml:"demod_transition"`
	AGC             AGCConfiguration `yaml:"agc"`

	AudioPeriod         int `yaml:"audio_period"`
	AudioFlushThreshold int `yaml:"audio_flush_threshold"`

	MainBufferSize  int `yaml:"main_buffer_size"`
	IFBufferSize    int `yaml:"if_buffer_size"`
	AudioBufferSize int `yaml:"audio_buffer_size"`
}

// IFSampleRate is the sample rate after decimation.
func (c Configuration) IFSampleRate() int {
	if c.Decimation <= 0 {
		return c.SampleRate
	}
	return c.SampleRate / c.Decimation
}

// IFCenter is the frequency the hardware is actually tuned to.
func (c Configuration) IFCenter() Frequency {
	return c.RFCenter - c.LOFrequency
}

// FrameInterval is the minimum time between two spectrum frames.
func (c Configuration) FrameInterval() time.Duration {
	if c.FFTPerSecond <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FFTPerSecond)
}

// FrameAvailable is called when a new quantized spectrum frame is available.
type FrameAvailable func([]byte)

// View identifies one of the two spectral views.
type View byte

// All views.
const (
	MainView View = iota
	IFView
)

func (v View) String() string {
	switch v {
	case MainView:
		return "main"
	case IFView:
		return "if"
	default:
		return fmt.Sprintf("view(%d)", byte(v))
	}
}
