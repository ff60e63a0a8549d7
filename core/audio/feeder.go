// Package audio contains the sinks for the demodulated audio: playback through
// PortAudio and recording into a WAV file.
package audio

import (
	"sync"
	"time"

	"github.com/ftl/nbrx/core/dsp"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/ring"
)

const (
	waitTimeout   = 100 * time.Millisecond
	averageLength = 8
)

// Monitor is notified about audio underruns.
type Monitor interface {
	Underrun(stage string)
}

// Tap receives every period that was handed to the output, including silence.
type Tap func([]int16)

// Feeder pulls periods of samples out of the audio ring buffer.
type Feeder struct {
	in             *ring.Buffer[int16]
	period         int
	flushThreshold int
	occupancy      *dsp.SlidingAverage
	monitor        Monitor
	taps           []Tap

	starving bool
	buffer   []int16
}

// NewFeeder returns a new feeder that reads periods of the given size from the given buffer.
// The buffer is flushed when its average occupancy exceeds the flush threshold.
func NewFeeder(in *ring.Buffer[int16], period, flushThreshold int, monitor Monitor) *Feeder {
	if period < 1 {
		period = 1
	}
	return &Feeder{
		in:             in,
		period:         period,
		flushThreshold: flushThreshold,
		occupancy:      dsp.NewSlidingAverage(averageLength),
		monitor:        monitor,
		buffer:         make([]int16, period),
	}
}

// Period returns the number of samples per period.
func (f *Feeder) Period() int {
	return f.period
}

// AddTap adds a tap. Taps must be added before the feeder is started.
func (f *Feeder) AddTap(tap Tap) {
	f.taps = append(f.taps, tap)
}

// Fill the given output with the next samples from the buffer. If not enough samples are
// available, the output is filled with silence.
func (f *Feeder) Fill(out []int16) {
	n := f.in.ThresholdPop(len(out), out)
	if n < len(out) {
		clear(out[n:])
		f.underrun()
	} else if f.starving {
		log.Infof("Audio: buffer recovered")
		f.starving = false
	}

	for _, tap := range f.taps {
		tap(out)
	}

	f.checkOverrun()
}

// Run pulls the audio without a playback device and hands every period to the taps.
func (f *Feeder) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer log.Debugf("Audio feeder stopped")

		log.Debugf("Audio feeder started")
		for !stopped(stop) {
			n := f.in.WaitThresholdPop(f.period, f.buffer, waitTimeout)
			if n == 0 {
				select {
				case <-f.in.Closed():
					return
				default:
					continue
				}
			}
			for _, tap := range f.taps {
				tap(f.buffer[:n])
			}
		}
	}()
}

func (f *Feeder) underrun() {
	if !f.starving {
		log.Warnf("Audio: buffer underrun, playing silence")
		f.starving = true
	}
	if f.monitor != nil {
		f.monitor.Underrun("audio")
	}
}

func (f *Feeder) checkOverrun() {
	average := f.occupancy.Put(float64(f.in.Stats().Occupied))
	if f.flushThreshold <= 0 || average <= float64(f.flushThreshold) {
		return
	}
	log.Infof("Audio: flushing input buffer (%.0f samples on average)", average)
	f.in.Flush()
	f.occupancy.Reset()
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
