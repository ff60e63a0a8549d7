package rx

import (
	"sync"
	"time"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/log"
)

// Analyzer computes the spectrum of the latest samples in a slot and emits the
// quantized frames at a limited rate.
type Analyzer struct {
	view     core.View
	slot     *Slot
	spectrum *dsp.Spectrum
	interval time.Duration
	monitor  Monitor
	now      func() time.Time

	frame    []complex64
	out      []byte
	lastEmit time.Time

	frameAvailableCallbacks []core.FrameAvailable
}

// NewAnalyzer returns a new analyzer of the given size for the given view.
func NewAnalyzer(view core.View, size int, config core.Configuration, slot *Slot, monitor Monitor) *Analyzer {
	return &Analyzer{
		view:     view,
		slot:     slot,
		spectrum: dsp.NewSpectrum(size, config.SpectrumSmoothing, config.DynamicRange),
		interval: config.FrameInterval(),
		monitor:  monitorOrNop(monitor),
		now:      time.Now,

		frame: make([]complex64, size),
		out:   make([]byte, size),
	}
}

// View of this analyzer.
func (a *Analyzer) View() core.View {
	return a.view
}

// Size of the emitted frames.
func (a *Analyzer) Size() int {
	return a.spectrum.Size()
}

// OnFrameAvailable registers the given callback to be notified when a new frame is
// available. Callbacks must be registered before the analyzer is started; each
// callback gets its own copy of the frame.
func (a *Analyzer) OnFrameAvailable(f core.FrameAvailable) {
	a.frameAvailableCallbacks = append(a.frameAvailableCallbacks, f)
}

// Run the analyzer until stop is closed.
func (a *Analyzer) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer log.Infof("%s spectrum shutdown", a.view)

		for !stopped(stop) {
			a.step(slotTimeout)
		}
	}()
}

// step processes the next frame, if there is one within the timeout. It returns
// true if a frame was emitted.
func (a *Analyzer) step(timeout time.Duration) bool {
	if !a.slot.Take(a.frame, timeout) {
		return false
	}
	a.spectrum.Process(a.out, a.frame)
	if anomalies := a.spectrum.Anomalies(); anomalies > 0 {
		log.Debugf("%s spectrum: %d non-finite samples replaced", a.view, anomalies)
		a.monitor.Anomalies(a.view.String()+" spectrum", anomalies)
	}

	now := a.now()
	if now.Sub(a.lastEmit) < a.interval {
		return false
	}
	a.lastEmit = now

	for _, frameAvailable := range a.frameAvailableCallbacks {
		frame := make([]byte, len(a.out))
		copy(frame, a.out)
		frameAvailable(frame)
	}
	a.monitor.Frame(a.view)
	return true
}
