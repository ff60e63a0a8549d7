// Package rx contains the stages of the receiver chain. Every stage runs in its own
// goroutine and communicates with its neighbours only through ring buffers and slots.
package rx

import (
	"sync"
	"time"

	"github.com/ftl/nbrx/core"
)

// waitTimeout bounds every blocking wait on a ring buffer, so that the stages
// observe the stop signal in time.
const waitTimeout = 100 * time.Millisecond

// slotTimeout bounds every blocking wait on a slot.
const slotTimeout = 10 * time.Millisecond

// Monitor is notified about the events of the receiver stages.
type Monitor interface {
	Overflow(buffer string, offered, rejected int)
	Underrun(stage string)
	Anomalies(stage string, count int)
	Frame(view core.View)
	Gain(gain float64)
	Processed(stage string, samples int)
}

// NopMonitor ignores all events.
type NopMonitor struct{}

func (NopMonitor) Overflow(string, int, int) {}
func (NopMonitor) Underrun(string) {}
func (NopMonitor) Anomalies(string, int) {}
func (NopMonitor) Frame(core.View) {}
func (NopMonitor) Gain(float64) {}
func (NopMonitor) Processed(string, int) {}

// Stage of the receiver chain.
type Stage interface {
	Run(stop chan struct{}, wait *sync.WaitGroup)
}

func monitorOrNop(monitor Monitor) Monitor {
	if monitor == nil {
		return NopMonitor{}
	}
	return monitor
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func closed(buffer interface{ Closed() <-chan struct{} }) bool {
	select {
	case <-buffer.Closed():
		return true
	default:
		return false
	}
}
