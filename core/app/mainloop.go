package app

import (
	"math"
	"time"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/bandplan"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/tuning"
)

func newMainLoop(parameters *tuning.Parameters, demodulator demodulatorType, ifSampleRate int) *mainLoop {
	return &mainLoop{
		parameters:   parameters,
		demodulator:  demodulator,
		ifSampleRate: ifSampleRate,
		command:      make(chan command, 10),
	}
}

type command func()

// mainLoop is the only writer of the tuning parameters.
type mainLoop struct {
	parameters   *tuning.Parameters
	demodulator  demodulatorType
	ifSampleRate int
	vfo          vfoType
	vfoOffset    core.Frequency
	tuner        tuner
	command      chan command

	tuningChanged []func(tuning.Snapshot)
}

type demodulatorType interface {
	SetPassband(lowCut, highCut float64)
}

type vfoType interface {
	SetFrequency(f core.Frequency)
}

func (m *mainLoop) Run(stop chan struct{}) {
	defer log.Infof("main loop shutdown")
	m.tuned()
	for {
		select {
		case command := <-m.command:
			command()
		case <-stop:
			return
		}
	}
}

func (m *mainLoop) q(cmd command) {
	select {
	case m.command <- cmd:
	default:
		log.Warnf("Mainloop.q hangs")
	}
}

// SetVFO connects the main loop with the given VFO. The VFO frequency is shifted by the given offset.
// Must be called before Run.
func (m *mainLoop) SetVFO(vfo vfoType, offset core.Frequency) {
	m.vfo = vfo
	m.vfoOffset = offset
}

// OnTuningChanged registers the given callback. Must be called before Run.
func (m *mainLoop) OnTuningChanged(f func(tuning.Snapshot)) {
	m.tuningChanged = append(m.tuningChanged, f)
}

// TuneTo the given frequency.
func (m *mainLoop) TuneTo(f core.Frequency) {
	m.q(func() {
		m.tuneTo(f)
		m.syncVFO()
	})
}

// TuneBy the given frequency.
func (m *mainLoop) TuneBy(Δf core.Frequency) {
	m.q(func() {
		m.tuneTo(m.parameters.Selected() + Δf)
		m.syncVFO()
	})
}

// TuneUp the selected frequency.
func (m *mainLoop) TuneUp() {
	m.q(func() {
		m.tuneTo(m.parameters.Selected() + m.tuner.dial())
		m.syncVFO()
	})
}

// TuneDown the selected frequency.
func (m *mainLoop) TuneDown() {
	m.q(func() {
		m.tuneTo(m.parameters.Selected() - m.tuner.dial())
		m.syncVFO()
	})
}

// FollowVFO tunes to the given VFO frequency, shifted by the VFO offset.
func (m *mainLoop) FollowVFO(f core.Frequency) {
	m.q(func() {
		m.tuneTo(f + m.vfoOffset)
	})
}

// SetSpan of the narrow-band view.
func (m *mainLoop) SetSpan(span core.Frequency) {
	m.q(func() {
		m.parameters.SetSelectedSpan(span)
		m.tuned()
	})
}

// SetPassband of the demodulator in Hz, relative to the selected frequency.
func (m *mainLoop) SetPassband(lowCut, highCut core.Frequency) {
	m.q(func() {
		if m.ifSampleRate <= 0 || lowCut >= highCut {
			log.Warnf("invalid passband %v - %v", lowCut, highCut)
			return
		}
		rate := core.Frequency(m.ifSampleRate)
		m.demodulator.SetPassband(float64(lowCut/rate), float64(highCut/rate))
		log.Infof("passband %v - %v", lowCut, highCut)
	})
}

func (m *mainLoop) tuneTo(f core.Frequency) {
	actual := m.parameters.SetSelected(f)
	if actual != f {
		log.Debugf("tuning clamped to %v", actual)
	}
	m.tuned()
}

func (m *mainLoop) tuned() {
	snapshot := m.parameters.Snapshot()
	segment := bandplan.QO100.ByFrequency(snapshot.SelectedCenter)
	log.Debugf("selected %v (%s), span %v", snapshot.SelectedCenter, segment.Name, snapshot.SelectedSpan)
	for _, tuningChanged := range m.tuningChanged {
		tuningChanged(snapshot)
	}
}

func (m *mainLoop) syncVFO() {
	if m.vfo == nil {
		return
	}
	m.vfo.SetFrequency(m.parameters.Selected() - m.vfoOffset)
}

type tuner struct {
	lastDial time.Time
}

func (t *tuner) dial() core.Frequency {
	now := time.Now()
	defer func() {
		t.lastDial = now
	}()
	rate := int(time.Second / max(now.Sub(t.lastDial), time.Millisecond))
	a := 0.1
	maxStep := 500.0
	return core.Frequency((int(math.Min(math.Pow(a*float64(rate), 2), maxStep))/10 + 1) * 10)
}
