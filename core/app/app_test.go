package app

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/cfg"
	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/ring"
	"github.com/ftl/nbrx/core/rx"
)

func testmodeConfig(t *testing.T) core.Configuration {
	config := cfg.Static()
	config.Testmode = true
	config.AudioEnabled = false
	config.ListenAddress = ""
	config.RecordFile = filepath.Join(t.TempDir(), "testmode.wav")
	return config
}

func TestNew_AllocationError(t *testing.T) {
	config := cfg.Static()
	config.IFBufferSize = 0

	controller, err := New(config)

	assert.Nil(t, controller)
	assert.Equal(t, ring.ErrAllocation, errors.Cause(err))
}

func TestNew_InvalidConfiguration(t *testing.T) {
	config := cfg.Static()
	config.Decimation = 0

	_, err := New(config)

	assert.Error(t, err)
}

func TestController_TestmodeStartupAndShutdown(t *testing.T) {
	config := testmodeConfig(t)
	var mainFrames, ifFrames, audioSamples atomic.Int64
	controller, err := New(config,
		WithFrameListener(core.MainView, func(frame []byte) {
			if len(frame) == config.MainFFTSize {
				mainFrames.Add(1)
			}
		}),
		WithFrameListener(core.IFView, func(frame []byte) {
			if len(frame) == config.IFFFTSize {
				ifFrames.Add(1)
			}
		}),
		WithAudioTap(func(samples []int16) {
			audioSamples.Add(int64(len(samples)))
		}),
	)
	require.NoError(t, err)

	require.NoError(t, controller.Startup())
	assert.Eventually(t, func() bool {
		return mainFrames.Load() > 0 && ifFrames.Load() > 0 && audioSamples.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	shutdownWithin(t, controller, 2*time.Second)

	file, err := os.Open(config.RecordFile)
	require.NoError(t, err)
	defer file.Close()
	decoder := wav.NewDecoder(file)
	require.True(t, decoder.IsValidFile())
	assert.Equal(t, uint32(config.IFSampleRate()), decoder.SampleRate)
}

func TestTestGenerator(t *testing.T) {
	tt := []struct {
		source   string
		expected dsp.Generator
	}{
		{"", &dsp.Tone{}},
		{core.TestSourceTone, &dsp.Tone{}},
		{core.TestSourceNoise, &dsp.Noise{}},
		{core.TestSourceSweep, &dsp.Sweep{}},
	}
	for _, tc := range tt {
		t.Run(tc.source, func(t *testing.T) {
			config := cfg.Static()
			config.TestSource = tc.source

			assert.IsType(t, tc.expected, testGenerator(config))
		})
	}
}

func TestTestGenerator_SweepCoversSelectedSpan(t *testing.T) {
	config := cfg.Static()
	config.TestSource = core.TestSourceSweep
	selectedOffset := float64(config.SelectedFrequency - config.RFCenter)

	sweep, ok := testGenerator(config).(*dsp.Sweep)
	require.True(t, ok)

	assert.Equal(t, selectedOffset-5120, sweep.Frequency())
	block := make([]complex64, 16)
	for i := 0; i < 50; i++ {
		sweep.Generate(block)
	}
	assert.InDelta(t, selectedOffset, sweep.Frequency(), 1e-3)
}

func TestController_TestmodeSources(t *testing.T) {
	for _, source := range []string{core.TestSourceNoise, core.TestSourceSweep} {
		t.Run(source, func(t *testing.T) {
			config := testmodeConfig(t)
			config.TestSource = source
			config.RecordFile = ""
			var frames atomic.Int64
			controller, err := New(config, WithFrameListener(core.MainView, func([]byte) {
				frames.Add(1)
			}))
			require.NoError(t, err)

			require.NoError(t, controller.Startup())
			assert.Eventually(t, func() bool { return frames.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

			shutdownWithin(t, controller, 2*time.Second)
		})
	}
}

func TestController_TuningFromOutside(t *testing.T) {
	config := testmodeConfig(t)
	config.RecordFile = ""
	blocks := new(sync.WaitGroup)
	blocks.Add(1)
	var once sync.Once
	controller, err := New(config, WithSource(func(deliver func([]complex64)) rx.Stage {
		return dsp.NewSource("test", config.InputBlockSize, config.SampleRate, dsp.NewNoise(0.1), func(block []complex64) {
			deliver(block)
			once.Do(blocks.Done)
		})
	}))
	require.NoError(t, err)
	require.NoError(t, controller.Startup())
	blocks.Wait()

	controller.TuneTo(10489700000)
	assert.Eventually(t, func() bool { return controller.Tuning().SelectedCenter == 10489700000 }, time.Second, time.Millisecond)

	controller.TuneBy(250)
	assert.Eventually(t, func() bool { return controller.Tuning().SelectedCenter == 10489700250 }, time.Second, time.Millisecond)

	controller.SetSpan(5000)
	assert.Eventually(t, func() bool { return controller.Tuning().SelectedSpan == 5000 }, time.Second, time.Millisecond)

	shutdownWithin(t, controller, 2*time.Second)
}

func TestController_ShutdownWithoutStartup(t *testing.T) {
	controller, err := New(testmodeConfig(t))
	require.NoError(t, err)

	shutdownWithin(t, controller, 100*time.Millisecond)
}

func shutdownWithin(t *testing.T, controller *Controller, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		controller.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		require.Fail(t, "shutdown took too long")
	}
}
