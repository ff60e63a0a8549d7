package rx

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/ring"
)

// Intake receives the blocks of the hardware and hands them to the decimator and the
// main spectrum.
type Intake struct {
	ring    *ring.Buffer[complex64]
	slot    *Slot
	monitor Monitor
}

// NewIntake returns a new intake that pushes into the given ring and puts every block into the given slot.
func NewIntake(out *ring.Buffer[complex64], slot *Slot, monitor Monitor) *Intake {
	return &Intake{
		ring:    out,
		slot:    slot,
		monitor: monitorOrNop(monitor),
	}
}

// Deliver the given block of samples. Deliver never blocks.
func (i *Intake) Deliver(block []complex64) {
	if len(block) == 0 {
		return
	}
	if i.slot != nil {
		i.slot.Put(block)
	}
	rejected := i.ring.Push(block)
	if rejected > 0 && !closed(i.ring) {
		log.Warnf("Intake: push to main buffer was lossy (%d / %d returned)", rejected, len(block))
		i.monitor.Overflow("main", len(block), rejected)
	}
	i.monitor.Processed("intake", len(block))
}

// ConvertIQ8 converts interleaved unsigned 8 bit I/Q samples into complex samples in
// [-1, 1] and writes them into out.
func ConvertIQ8(out []complex64, buf []byte) ([]complex64, error) {
	if len(buf)%2 != 0 {
		return out[:0], errors.New("number of 8-bit values must be even")
	}
	n := len(buf) / 2
	if len(out) < n {
		out = make([]complex64, n)
	}

	for i := 0; i < n; i++ {
		iSample := normalizeSampleUint8(buf[2*i])
		qSample := normalizeSampleUint8(buf[2*i+1])
		out[i] = complex(iSample, qSample)
	}

	return out[:n], nil
}

func normalizeSampleUint8(s byte) float32 {
	return (float32(s) - float32(math.MaxInt8)) / float32(math.MaxInt8)
}
