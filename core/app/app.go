// Package app wires the receiver chain, its adapters and the command loop together.
package app

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/audio"
	"github.com/ftl/nbrx/core/bandplan"
	"github.com/ftl/nbrx/core/cfg"
	"github.com/ftl/nbrx/core/display"
	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/metrics"
	"github.com/ftl/nbrx/core/ring"
	"github.com/ftl/nbrx/core/rtlsdr"
	"github.com/ftl/nbrx/core/rx"
	"github.com/ftl/nbrx/core/tuning"
	"github.com/ftl/nbrx/core/vfo"
)

const shutdownTimeout = 2 * time.Second

// Option of the controller.
type Option func(*Controller)

// WithFrameListener registers an additional listener for the frames of the given view.
func WithFrameListener(view core.View, listener core.FrameAvailable) Option {
	return func(c *Controller) {
		c.analyzer(view).OnFrameAvailable(listener)
	}
}

// WithAudioTap registers an additional tap for the demodulated audio.
func WithAudioTap(tap audio.Tap) Option {
	return func(c *Controller) {
		c.feeder.AddTap(tap)
	}
}

// WithSource replaces the hardware with the given source. The source delivers into the given function.
func WithSource(source func(deliver func([]complex64)) rx.Stage) Option {
	return func(c *Controller) {
		c.source = source(c.intake.Deliver)
	}
}

// Controller for the application.
type Controller struct {
	config     core.Configuration
	parameters *tuning.Parameters
	metrics    *metrics.Metrics

	mainBuffer  *ring.Buffer[complex64]
	ifBuffer    *ring.Buffer[complex64]
	audioBuffer *ring.Buffer[int16]

	intake       *rx.Intake
	decimator    *rx.Decimator
	mainAnalyzer *rx.Analyzer
	ifAnalyzer   *rx.Analyzer
	demodulator  *rx.Demodulator
	feeder       *audio.Feeder

	loop     *mainLoop
	hub      *display.Hub
	source   rx.Stage
	player   *audio.Player
	recorder *audio.Recorder
	server   *http.Server

	done         chan struct{}
	subProcesses *sync.WaitGroup
}

// New returns a new controller for the given configuration. All buffers are allocated here.
func New(config core.Configuration, options ...Option) (*Controller, error) {
	err := cfg.Validate(config)
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	c := &Controller{
		config:     config,
		parameters: tuning.New(config),
		metrics:    metrics.New(),
	}

	c.mainBuffer, err = ring.New[complex64](config.MainBufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "main buffer")
	}
	c.ifBuffer, err = ring.New[complex64](config.IFBufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "IF buffer")
	}
	c.audioBuffer, err = ring.New[int16](config.AudioBufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "audio buffer")
	}
	c.metrics.WatchBuffer("main", c.mainBuffer.Stats)
	c.metrics.WatchBuffer("if", c.ifBuffer.Stats)
	c.metrics.WatchBuffer("audio", c.audioBuffer.Stats)

	mainSlot := rx.NewSlot(config.MainFFTSize)
	ifSlot := rx.NewSlot(config.IFFFTSize)

	c.intake = rx.NewIntake(c.mainBuffer, mainSlot, c.metrics)
	c.decimator = rx.NewDecimator(config, c.parameters, c.mainBuffer, c.ifBuffer, ifSlot, c.metrics)
	c.mainAnalyzer = rx.NewAnalyzer(core.MainView, config.MainFFTSize, config, mainSlot, c.metrics)
	c.ifAnalyzer = rx.NewAnalyzer(core.IFView, config.IFFFTSize, config, ifSlot, c.metrics)
	c.demodulator = rx.NewDemodulator(config, c.ifBuffer, c.audioBuffer, c.metrics)
	c.feeder = audio.NewFeeder(c.audioBuffer, config.AudioPeriod, config.AudioFlushThreshold, c.metrics)

	c.loop = newMainLoop(c.parameters, c.demodulator, config.IFSampleRate())
	c.hub = display.NewHub(c)
	c.mainAnalyzer.OnFrameAvailable(c.hub.FrameAvailable(core.MainView))
	c.ifAnalyzer.OnFrameAvailable(c.hub.FrameAvailable(core.IFView))
	c.loop.OnTuningChanged(c.showStatus)

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *Controller) analyzer(view core.View) *rx.Analyzer {
	if view == core.IFView {
		return c.ifAnalyzer
	}
	return c.mainAnalyzer
}

// Startup the application.
func (c *Controller) Startup() error {
	c.done = make(chan struct{})
	c.subProcesses = new(sync.WaitGroup)

	snapshot := c.parameters.Snapshot()
	log.Infof("Frequency plan: RF center %v, LO %v, IF center %v, span %v", snapshot.RFCenter, snapshot.LOFrequency, snapshot.IFCenter(), snapshot.RFSpan)
	log.Infof("Narrow band: %d Hz after decimation by %d, selected %v", c.config.IFSampleRate(), c.decimator.Factor(), snapshot.SelectedCenter)
	log.Infof("Buffers: main %d, IF %d, audio %d samples", c.mainBuffer.Capacity(), c.ifBuffer.Capacity(), c.audioBuffer.Capacity())

	if c.source == nil {
		source, err := c.openSource()
		if err != nil {
			return err
		}
		c.source = source
	}

	if c.config.RecordFile != "" {
		recorder, err := audio.NewRecorder(c.config.RecordFile, c.config.IFSampleRate())
		if err != nil {
			log.Errorf("Recording disabled: %v", err)
		} else {
			c.recorder = recorder
			c.feeder.AddTap(recorder.Write)
		}
	}

	if c.config.VFOHost != "" {
		rig, err := vfo.Open(c.config.VFOHost)
		if err != nil {
			log.Errorf("VFO disabled: %v", err)
		} else {
			rig.OnFrequencyChange(c.loop.FollowVFO)
			c.loop.SetVFO(rig, c.config.VFOOffset)
			rig.Run(c.done, c.subProcesses)
		}
	}

	c.subProcesses.Add(1)
	go func() {
		defer c.subProcesses.Done()
		c.loop.Run(c.done)
	}()

	stages := []rx.Stage{c.demodulator, c.ifAnalyzer, c.mainAnalyzer, c.decimator}
	for _, stage := range stages {
		stage.Run(c.done, c.subProcesses)
	}
	c.startAudio()
	c.startServer()
	c.source.Run(c.done, c.subProcesses)

	return nil
}

func (c *Controller) openSource() (rx.Stage, error) {
	if !c.config.Testmode {
		dongle, err := rtlsdr.Open(c.config, c.intake.Deliver)
		if err != nil {
			return nil, err
		}
		return dongle, nil
	}

	generator := testGenerator(c.config)
	return dsp.NewSource("testmode", c.config.InputBlockSize, c.config.SampleRate, generator, c.intake.Deliver), nil
}

// testGenerator returns the synthetic source of the test mode. Tone and sweep are
// placed relative to the selected frequency.
func testGenerator(config core.Configuration) dsp.Generator {
	selectedOffset := float64(config.SelectedFrequency - config.RFCenter)
	switch config.TestSource {
	case core.TestSourceNoise:
		log.Infof("Testmode: white noise")
		return dsp.NewNoise(0.1)
	case core.TestSourceSweep:
		halfSpan := float64(config.IFSampleRate()) / 2
		log.Infof("Testmode: sweep over %v ± %.0f Hz", config.SelectedFrequency, halfSpan)
		return dsp.NewSweep(selectedOffset-halfSpan, selectedOffset+halfSpan, float64(config.IFSampleRate())/100, config.SampleRate, 0.5)
	default:
		log.Infof("Testmode: tone at %v, %v above the selected frequency", config.SelectedFrequency+config.TestTone, config.TestTone)
		return dsp.NewTone(selectedOffset+float64(config.TestTone), config.SampleRate, 0.5, 0.01)
	}
}

func (c *Controller) startAudio() {
	if c.config.AudioEnabled {
		player := audio.NewPlayer(c.config.IFSampleRate(), c.feeder)
		err := player.Start()
		if err == nil {
			c.player = player
			return
		}
		log.Errorf("Audio playback disabled: %v", err)
	}
	c.feeder.Run(c.done, c.subProcesses)
}

func (c *Controller) startServer() {
	if c.config.ListenAddress == "" {
		return
	}
	listener, err := net.Listen("tcp", c.config.ListenAddress)
	if err != nil {
		log.Errorf("Display disabled: %v", err)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", c.hub)
	mux.Handle("/metrics", c.metrics.Handler())
	c.server = &http.Server{Handler: mux}

	log.Infof("Listening on %s", listener.Addr())
	c.subProcesses.Add(2)
	go func() {
		defer c.subProcesses.Done()
		err := c.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server failed: %v", err)
		}
	}()
	go func() {
		defer c.subProcesses.Done()
		<-c.done
		c.hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.server.Shutdown(ctx)
	}()
}

// Shutdown the application. All stages are stopped before the adapters are released.
func (c *Controller) Shutdown() {
	if c.done == nil {
		return
	}
	close(c.done)
	c.mainBuffer.Close()
	c.ifBuffer.Close()
	c.audioBuffer.Close()
	c.subProcesses.Wait()

	if c.player != nil {
		err := c.player.Stop()
		if err != nil {
			log.Errorf("Cannot stop audio playback: %v", err)
		}
	}
	if c.recorder != nil {
		err := c.recorder.Close()
		if err != nil {
			log.Errorf("Cannot close recording: %v", err)
		}
	}
	c.hub.Close()
	log.Infof("Shutdown complete")
}

// Tuning returns the current tuning parameters.
func (c *Controller) Tuning() tuning.Snapshot {
	return c.parameters.Snapshot()
}

// Metrics returns the metrics of the receiver chain.
func (c *Controller) Metrics() *metrics.Metrics {
	return c.metrics
}

// TuneTo the given frequency.
func (c *Controller) TuneTo(f core.Frequency) {
	c.loop.TuneTo(f)
}

// TuneBy the given frequency.
func (c *Controller) TuneBy(Δf core.Frequency) {
	c.loop.TuneBy(Δf)
}

// TuneUp the selected frequency with dial acceleration.
func (c *Controller) TuneUp() {
	c.loop.TuneUp()
}

// TuneDown the selected frequency with dial acceleration.
func (c *Controller) TuneDown() {
	c.loop.TuneDown()
}

// SetSpan of the narrow-band view.
func (c *Controller) SetSpan(span core.Frequency) {
	c.loop.SetSpan(span)
}

// SetPassband of the demodulator in Hz.
func (c *Controller) SetPassband(lowCut, highCut core.Frequency) {
	c.loop.SetPassband(lowCut, highCut)
}

func (c *Controller) showStatus(snapshot tuning.Snapshot) {
	c.hub.ShowStatus(display.Status{
		RFCenter:     snapshot.RFCenter,
		RFSpan:       snapshot.RFSpan,
		Selected:     snapshot.SelectedCenter,
		SelectedSpan: snapshot.SelectedSpan,
		Segment:      string(bandplan.QO100.ByFrequency(snapshot.SelectedCenter).Name),
	})
}
