package cfg

import (
	"os"

	"github.com/ftl/hamradio/cfg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ftl/nbrx/core"
)

const (
	logLevel            cfg.Key = "nbrx.logLevel"
	testmode            cfg.Key = "nbrx.testmode"
	testSource          cfg.Key = "nbrx.testSource"
	frequencyCorrection cfg.Key = "nbrx.frequencyCorrection"
	vfoHost             cfg.Key = "nbrx.vfoHost"
	vfoOffset           cfg.Key = "nbrx.vfoOffset"
	listenAddress       cfg.Key = "nbrx.listenAddress"
	rfCenter            cfg.Key = "nbrx.rfCenter"
	loFrequency         cfg.Key = "nbrx.loFrequency"
	selectedFrequency   cfg.Key = "nbrx.selectedFrequency"
	fftPerSecond        cfg.Key = "nbrx.fftPerSecond"
	dynamicRangeFrom    cfg.Key = "nbrx.dynamicRange.from"
	dynamicRangeTo      cfg.Key = "nbrx.dynamicRange.to"
)

// Load the configuration from the shared hamradio configuration file, on top of the static defaults.
func Load() (core.Configuration, error) {
	configuration, err := cfg.LoadDefault()
	if err != nil {
		return core.Configuration{}, errors.Wrap(err, "cannot load the hamradio configuration")
	}

	result := Static()
	result.LogLevel = configuration.Get(logLevel, result.LogLevel).(string)
	result.Testmode = configuration.Get(testmode, result.Testmode).(bool)
	result.TestSource = configuration.Get(testSource, result.TestSource).(string)
	result.FrequencyCorrection = int(configuration.Get(frequencyCorrection, float64(result.FrequencyCorrection)).(float64))
	result.VFOHost = configuration.Get(vfoHost, result.VFOHost).(string)
	result.VFOOffset = core.Frequency(configuration.Get(vfoOffset, float64(result.VFOOffset)).(float64))
	result.ListenAddress = configuration.Get(listenAddress, result.ListenAddress).(string)
	result.RFCenter = core.Frequency(configuration.Get(rfCenter, float64(result.RFCenter)).(float64))
	result.LOFrequency = core.Frequency(configuration.Get(loFrequency, float64(result.LOFrequency)).(float64))
	result.SelectedFrequency = core.Frequency(configuration.Get(selectedFrequency, float64(result.SelectedFrequency)).(float64))
	result.FFTPerSecond = int(configuration.Get(fftPerSecond, float64(result.FFTPerSecond)).(float64))
	result.DynamicRange = core.DBRange{
		From: core.DB(configuration.Get(dynamicRangeFrom, float64(result.DynamicRange.From)).(float64)),
		To:   core.DB(configuration.Get(dynamicRangeTo, float64(result.DynamicRange.To)).(float64)),
	}.Normalized()

	return result, Validate(result)
}

// LoadFile reads the YAML file at the given path on top of the given configuration.
// Values that are missing in the file keep their current value.
func LoadFile(path string, base core.Configuration) (core.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, "cannot read configuration file %s", path)
	}
	result := base
	if err := yaml.Unmarshal(data, &result); err != nil {
		return base, errors.Wrapf(err, "cannot parse configuration file %s", path)
	}
	result.DynamicRange = result.DynamicRange.Normalized()

	return result, Validate(result)
}

// Static returns the built-in default configuration.
func Static() core.Configuration {
	return core.Configuration{
		LogLevel:      "info",
		TestSource:    core.TestSourceTone,
		TestTone:      1000,
		ListenAddress: "localhost:8073",
		AudioEnabled:  true,

		RFCenter:          10489750000,
		LOFrequency:       9750000000,
		SelectedFrequency: 10489499950,

		SampleRate:          1024000,
		Decimation:          100,
		DecimatorTransition: 0.05,
		InputBlockSize:      32768,

		FFTPerSecond:      30,
		MainFFTSize:       512,
		IFFFTSize:         256,
		SpectrumSmoothing: 0.4,
		DynamicRange:      core.DBRange{From: -100, To: -20},

		DemodLowCut:     0.02,
		DemodHighCut:    0.3,
		DemodTransition: 0.1,
		AGC: core.AGCConfiguration{
			Reference:       0.2,
			AttackRate:      0.01,
			DecayRate:       0.0001,
			MaxGain:         65536,
			HangTime:        200,
			AttackWaitTime:  0,
			GainFilterAlpha: 0.05,
		},

		AudioPeriod:         512,
		AudioFlushThreshold: 1024,

		MainBufferSize:  4096 * 1024,
		IFBufferSize:    64 * 1024,
		AudioBufferSize: 2 * 1024,
	}
}

// Validate the given configuration.
func Validate(c core.Configuration) error {
	switch {
	case c.SampleRate <= 0:
		return errors.Errorf("invalid sample rate %d", c.SampleRate)
	case c.Decimation <= 0 || c.Decimation > c.SampleRate:
		return errors.Errorf("invalid decimation factor %d", c.Decimation)
	case c.DecimatorTransition <= 0 || c.DecimatorTransition >= 0.5:
		return errors.Errorf("invalid decimator transition bandwidth %v", c.DecimatorTransition)
	case c.InputBlockSize <= 0:
		return errors.Errorf("invalid input block size %d", c.InputBlockSize)
	case c.MainFFTSize < 2 || c.IFFFTSize < 2:
		return errors.Errorf("invalid FFT size %d/%d", c.MainFFTSize, c.IFFFTSize)
	case c.InputBlockSize/c.Decimation < c.IFFFTSize:
		return errors.Errorf("input block size %d too small for IF FFT size %d at decimation %d", c.InputBlockSize, c.IFFFTSize, c.Decimation)
	case c.SpectrumSmoothing < 0 || c.SpectrumSmoothing >= 1:
		return errors.Errorf("invalid spectrum smoothing %v", c.SpectrumSmoothing)
	case c.DynamicRange.Width() <= 0:
		return errors.Errorf("invalid dynamic range %v", c.DynamicRange)
	case c.DemodLowCut >= c.DemodHighCut || c.DemodLowCut <= -0.5 || c.DemodHighCut >= 0.5:
		return errors.Errorf("invalid demodulator passband [%v,%v]", c.DemodLowCut, c.DemodHighCut)
	case c.DemodTransition <= 0 || c.DemodTransition >= 0.5:
		return errors.Errorf("invalid demodulator transition bandwidth %v", c.DemodTransition)
	case c.AGC.MaxGain <= 0 || c.AGC.Reference <= 0:
		return errors.Errorf("invalid AGC parameters %+v", c.AGC)
	case c.AGC.GainFilterAlpha <= 0 || c.AGC.GainFilterAlpha > 1:
		return errors.Errorf("invalid AGC gain filter alpha %v", c.AGC.GainFilterAlpha)
	case c.AudioPeriod <= 0:
		return errors.Errorf("invalid audio period %d", c.AudioPeriod)
	case !validTestSource(c.TestSource):
		return errors.Errorf("unknown test source %q", c.TestSource)
	}
	return nil
}

func validTestSource(source string) bool {
	switch source {
	case "", core.TestSourceTone, core.TestSourceNoise, core.TestSourceSweep:
		return true
	default:
		return false
	}
}
