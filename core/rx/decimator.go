package rx

import (
	"sync"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/ring"
	"github.com/ftl/nbrx/core/tuning"
)

// Decimator moves the selected frequency to baseband and reduces the sample rate.
type Decimator struct {
	in      *ring.Buffer[complex64]
	out     *ring.Buffer[complex64]
	slot    *Slot
	tuning  *tuning.Parameters
	monitor Monitor

	sampleRate int
	blockSize  int
	mixer      dsp.Mixer
	decimator  *dsp.Decimator

	block  []complex64
	re     []float32
	im     []float32
	output []complex64
}

// NewDecimator returns a new decimator stage.
func NewDecimator(config core.Configuration, parameters *tuning.Parameters, in, out *ring.Buffer[complex64], slot *Slot, monitor Monitor) *Decimator {
	taps := dsp.Lowpass(dsp.TapsLength(config.DecimatorTransition), 0.5/float64(config.Decimation))
	return &Decimator{
		in:      in,
		out:     out,
		slot:    slot,
		tuning:  parameters,
		monitor: monitorOrNop(monitor),

		sampleRate: config.SampleRate,
		blockSize:  config.InputBlockSize,
		decimator:  dsp.NewDecimator(config.Decimation, taps),

		block:  make([]complex64, config.InputBlockSize),
		re:     make([]float32, config.InputBlockSize),
		im:     make([]float32, config.InputBlockSize),
		output: make([]complex64, 0, config.InputBlockSize/config.Decimation+1),
	}
}

// Factor of the decimation.
func (d *Decimator) Factor() int {
	return d.decimator.Factor()
}

// Run the decimator until stop is closed or the input buffer is closed.
func (d *Decimator) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer log.Infof("Decimator shutdown")

		for !stopped(stop) {
			n := d.in.WaitThresholdPop(d.blockSize, d.block, waitTimeout)
			if n == 0 {
				select {
				case <-d.in.Closed():
					return
				default:
					continue
				}
			}
			if n != d.blockSize {
				log.Warnf("Decimator: input buffer returned wrong length (%d / %d)", n, d.blockSize)
				d.monitor.Underrun("decimator")
				continue
			}

			output := d.Process(d.block)
			if d.slot != nil {
				d.slot.Put(output)
			}
			rejected := d.out.Push(output)
			if rejected > 0 && !closed(d.out) {
				log.Warnf("Decimator: push to IF buffer was lossy (%d / %d returned)", rejected, len(output))
				d.monitor.Overflow("if", len(output), rejected)
			}
			d.monitor.Processed("decimator", len(output))
		}
	}()
}

// Process one block of wide-band samples and return the decimated samples. The
// returned slice is reused by the next call.
func (d *Decimator) Process(block []complex64) []complex64 {
	rate := d.tuning.Snapshot().MixerRate(d.sampleRate)
	if len(block) > len(d.re) {
		d.re = make([]float32, len(block))
		d.im = make([]float32, len(block))
	}
	re := d.re[:len(block)]
	im := d.im[:len(block)]

	d.mixer.Shift(re, im, block, rate)
	d.output = d.decimator.Decimate(d.output[:0], re, im)

	return d.output
}
