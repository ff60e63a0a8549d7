// Package vfo follows the VFO of a transceiver through a hamlib rigctld.
package vfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ftl/rigproxy/pkg/protocol"
	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/log"
)

const requestTimeout = 2 * time.Second

// Open a connection to a hamlib VFO at the given network address. If address is empty, localhost:4532 is used.
func Open(address string) (*VFO, error) {
	if address == "" {
		address = "localhost:4532"
	}
	out, err := net.DialTimeout("tcp", address, requestTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open VFO connection")
	}

	trx := protocol.NewTransceiver(out)
	trx.WhenDone(func() {
		out.Close()
	})

	result := newVFO()
	result.trx = trx
	return result, nil
}

func newVFO() *VFO {
	return &VFO{
		pollingInterval: 500 * time.Millisecond,
		setFrequency:    make(chan core.Frequency, 10),
		frequencyLock:   new(sync.RWMutex),
	}
}

// VFO type.
type VFO struct {
	trx                       *protocol.Transceiver
	pollingInterval           time.Duration
	setFrequency              chan core.Frequency
	currentFrequency          core.Frequency
	frequencyLock             *sync.RWMutex
	frequencyChangedCallbacks []FrequencyChanged
}

// FrequencyChanged is called on frequency changes.
type FrequencyChanged func(f core.Frequency)

// Run the VFO.
func (v *VFO) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer v.shutdown()

		ticker := time.NewTicker(v.pollingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				v.pollFrequency()

			case f := <-v.setFrequency:
				v.sendFrequency(f)

			case <-stop:
				return
			}
		}
	}()
}

func (v *VFO) shutdown() {
	v.trx.Close()
	log.Infof("VFO shutdown")
}

func (v *VFO) pollFrequency() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	request := protocol.Request{Command: protocol.ShortCommand("f")}
	response, err := v.trx.Send(ctx, request)
	if err != nil {
		log.Warnf("Polling frequency failed: %v", err)
		return
	}
	if len(response.Data) == 0 {
		log.Warnf("Polling frequency: empty response")
		return
	}

	f, err := hamlibToF(response.Data[0])
	if err != nil {
		log.Warnf("Wrong frequency format %s: %v", response.Data[0], err)
		return
	}

	v.frequencyReceived(f)
}

func (v *VFO) frequencyReceived(f core.Frequency) {
	if !v.updateCurrentFrequency(f) {
		return
	}
	for _, frequencyChanged := range v.frequencyChangedCallbacks {
		frequencyChanged(f)
	}
}

func (v *VFO) updateCurrentFrequency(f core.Frequency) bool {
	v.frequencyLock.Lock()
	defer v.frequencyLock.Unlock()
	if int(f) == int(v.currentFrequency) {
		return false
	}

	v.currentFrequency = f
	return true
}

func (v *VFO) sendFrequency(f core.Frequency) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	request := protocol.Request{Command: protocol.ShortCommand("F"), Args: []string{fToHamlib(f)}}
	_, err := v.trx.Send(ctx, request)
	if err != nil {
		log.Warnf("Sending frequency failed: %v", err)
		return
	}
	v.updateCurrentFrequency(f)
}

// SetFrequency sets the given frequency on the VFO. Requests are dropped if the VFO is busy.
func (v *VFO) SetFrequency(f core.Frequency) {
	select {
	case v.setFrequency <- f:
	default:
		log.Warnf("VFO: dropping frequency %v, rig is busy", f)
	}
}

// CurrentFrequency returns the current frequency of the VFO.
func (v *VFO) CurrentFrequency() core.Frequency {
	v.frequencyLock.RLock()
	defer v.frequencyLock.RUnlock()
	return v.currentFrequency
}

// OnFrequencyChange registers the given callback to be notified if the current frequency changes.
func (v *VFO) OnFrequencyChange(f FrequencyChanged) {
	v.frequencyChangedCallbacks = append(v.frequencyChangedCallbacks, f)
}

func fToHamlib(f core.Frequency) string {
	return fmt.Sprintf("%d", int(f))
}

func hamlibToF(s string) (core.Frequency, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return core.Frequency(f), nil
}
