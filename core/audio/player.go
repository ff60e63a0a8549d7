package audio

import (
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core/log"
)

// Player plays the audio on the default output device.
type Player struct {
	sampleRate int
	feeder     *Feeder
	stream     *portaudio.Stream
}

// NewPlayer returns a new player for the given sample rate.
func NewPlayer(sampleRate int, feeder *Feeder) *Player {
	return &Player{
		sampleRate: sampleRate,
		feeder:     feeder,
	}
}

// Start the playback.
func (p *Player) Start() error {
	if p.stream != nil {
		return nil
	}
	err := portaudio.Initialize()
	if err != nil {
		return errors.Wrap(err, "cannot initialize portaudio")
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.sampleRate), p.feeder.Period(), p.feeder.Fill)
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "cannot open audio output")
	}

	err = stream.Start()
	if err != nil {
		stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "cannot start audio output")
	}
	p.stream = stream

	info := stream.Info()
	log.Infof("Audio: playing %d Hz, %d samples per period, latency %v", p.sampleRate, p.feeder.Period(), info.OutputLatency)
	return nil
}

// Stop the playback and release the audio device.
func (p *Player) Stop() error {
	if p.stream == nil {
		return nil
	}
	defer portaudio.Terminate()

	stream := p.stream
	p.stream = nil
	err := stream.Stop()
	if err != nil {
		stream.Close()
		return errors.Wrap(err, "cannot stop audio output")
	}
	return errors.Wrap(stream.Close(), "cannot close audio output")
}
