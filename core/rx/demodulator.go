package rx

import (
	"sync"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/ring"
)

// Demodulator filters the narrow-band signal, applies the gain control and produces
// 16 bit PCM audio.
type Demodulator struct {
	in      *ring.Buffer[complex64]
	out     *ring.Buffer[int16]
	monitor Monitor

	filter   *dsp.OverlapAdd
	realPart dsp.RealPart
	agc      *dsp.AGC
	passband chan [2]float64

	block   []complex64
	samples []float32
	gained  []float32
	pcm     []int16
}

// NewDemodulator returns a new demodulator stage.
func NewDemodulator(config core.Configuration, in *ring.Buffer[complex64], out *ring.Buffer[int16], monitor Monitor) *Demodulator {
	filter := dsp.NewOverlapAdd(config.DemodLowCut, config.DemodHighCut, config.DemodTransition)
	size := filter.InputSize()
	log.Debugf("Demodulator: fft size %d, taps %d, input size %d", filter.FFTSize(), filter.TapsLength(), size)

	return &Demodulator{
		in:      in,
		out:     out,
		monitor: monitorOrNop(monitor),

		filter:   filter,
		agc:      dsp.NewAGC(config.AGC),
		passband: make(chan [2]float64, 1),

		block:   make([]complex64, size),
		samples: make([]float32, size),
		gained:  make([]float32, size),
		pcm:     make([]int16, size),
	}
}

// InputSize is the number of samples the demodulator processes at once.
func (d *Demodulator) InputSize() int {
	return d.filter.InputSize()
}

// SetPassband requests a new normalized passband. It is applied before the next block.
func (d *Demodulator) SetPassband(lowCut, highCut float64) {
	select {
	case <-d.passband:
	default:
	}
	select {
	case d.passband <- [2]float64{lowCut, highCut}:
	default:
		log.Warnf("Demodulator: set passband hangs")
	}
}

// Passband returns the normalized passband that is currently applied.
func (d *Demodulator) Passband() (lowCut, highCut float64) {
	return d.filter.Passband()
}

// Run the demodulator until stop is closed or the input buffer is closed.
func (d *Demodulator) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer log.Infof("Demodulator shutdown")

		size := d.InputSize()
		for !stopped(stop) {
			n := d.in.WaitThresholdPop(size, d.block, waitTimeout)
			if n == 0 {
				select {
				case <-d.in.Closed():
					return
				default:
					continue
				}
			}
			if n != size {
				log.Warnf("Demodulator: input buffer returned wrong length (%d / %d)", n, size)
				d.monitor.Underrun("demodulator")
				continue
			}

			pcm := d.Process(d.block)
			rejected := d.out.Push(pcm)
			if rejected > 0 && !closed(d.out) {
				log.Warnf("Demodulator: push to audio buffer was lossy (%d / %d returned)", rejected, len(pcm))
				d.monitor.Overflow("audio", len(pcm), rejected)
			}
			d.monitor.Processed("demodulator", len(pcm))
		}
	}()
}

// Process one block of exactly InputSize samples. The returned slice is reused by the next call.
func (d *Demodulator) Process(block []complex64) []int16 {
	select {
	case passband := <-d.passband:
		d.filter.SetPassband(passband[0], passband[1])
		log.Infof("Demodulator: passband [%.3f,%.3f]", passband[0], passband[1])
	default:
	}

	filtered := d.filter.Filter(block)
	if anomalies := d.realPart.Extract(d.samples, filtered); anomalies > 0 {
		d.monitor.Anomalies("demodulator", anomalies)
	}
	d.agc.Process(d.gained, d.samples)
	d.monitor.Gain(d.agc.Gain())
	dsp.Limit(d.gained)

	return dsp.ToInt16(d.pcm, d.gained)
}
