// Package rtlsdr reads the I/Q samples of an RTL-SDR dongle.
package rtlsdr

import (
	"sync"

	rtl "github.com/jpoirier/gortlsdr"
	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/rx"
)

// Deliver is called with every block of converted samples.
type Deliver func([]complex64)

// Open the RTL-SDR dongle and tune it to the IF center of the given configuration.
func Open(config core.Configuration, deliver Deliver) (*Dongle, error) {
	device, err := rtl.Open(0)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open RTL-SDR dongle")
	}

	err = device.SetSampleRate(config.SampleRate)
	if err != nil {
		device.Close()
		return nil, errors.Wrap(err, "SetSampleRate failed")
	}
	log.Infof("RTL-SDR: sample rate %d", device.GetSampleRate())

	err = device.SetCenterFreq(int(config.IFCenter()))
	if err != nil {
		device.Close()
		return nil, errors.Wrap(err, "SetCenterFreq failed")
	}

	if config.FrequencyCorrection != 0 {
		err = device.SetFreqCorrection(config.FrequencyCorrection)
		if err != nil {
			device.Close()
			return nil, errors.Wrap(err, "SetFreqCorrection failed")
		}
	}

	err = device.ResetBuffer()
	if err != nil {
		device.Close()
		return nil, errors.Wrap(err, "ResetBuffer failed")
	}

	return newDongle(device, config.InputBlockSize, deliver), nil
}

func newDongle(device *rtl.Context, blockSize int, deliver Deliver) *Dongle {
	return &Dongle{
		device:    device,
		blockSize: blockSize,
		deliver:   deliver,
		samples:   make([]complex64, blockSize),
	}
}

// Dongle represents the RTL-SDR dongle.
type Dongle struct {
	device    *rtl.Context
	blockSize int
	deliver   Deliver
	samples   []complex64
}

// Run reads the dongle asynchronously until stop is closed.
func (d *Dongle) Run(stop chan struct{}, wait *sync.WaitGroup) {
	asyncRead := new(sync.WaitGroup)
	asyncRead.Add(1)
	wait.Add(2)
	go func() {
		defer wait.Done()
		defer asyncRead.Done()
		// two bytes per sample
		err := d.device.ReadAsync(d.incomingData, nil, 0, 2*d.blockSize)
		if err != nil {
			log.Errorf("RTL-SDR: async read failed: %v", err)
		}
	}()
	go func() {
		defer wait.Done()
		defer log.Debugf("RTL-SDR shutdown")
		<-stop
		err := d.device.CancelAsync()
		if err != nil {
			log.Errorf("RTL-SDR: cannot cancel async read: %v", err)
		}
		asyncRead.Wait()
		err = d.device.Close()
		if err != nil {
			log.Errorf("RTL-SDR: cannot close dongle: %v", err)
		}
	}()
}

func (d *Dongle) incomingData(data []byte) {
	samples, err := rx.ConvertIQ8(d.samples, data)
	if err != nil {
		log.Warnf("RTL-SDR: dropping incoming data: %v", err)
		return
	}
	d.samples = samples
	d.deliver(samples)
}
