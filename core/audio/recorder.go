package audio

import (
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/ftl/nbrx/core/log"
)

const (
	bitDepth  = 16
	channels  = 1
	pcmFormat = 1
)

// Recorder writes the audio into a 16 bit mono WAV file.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	buffer  *audio.IntBuffer
	written int
}

// NewRecorder creates the given file and returns a recorder that writes into it.
func NewRecorder(filename string, sampleRate int) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create recording %s", filename)
	}

	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, channels, pcmFormat),
		buffer: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write the given samples. Write can be used as Tap.
func (r *Recorder) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return
	}

	if cap(r.buffer.Data) < len(samples) {
		r.buffer.Data = make([]int, len(samples))
	}
	r.buffer.Data = r.buffer.Data[:len(samples)]
	for i, s := range samples {
		r.buffer.Data[i] = int(s)
	}

	err := r.encoder.Write(r.buffer)
	if err != nil {
		log.Errorf("Recorder: cannot write samples: %v", err)
		return
	}
	r.written += len(samples)
}

// Written returns the number of samples written so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Close finishes the WAV file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return nil
	}

	err := r.encoder.Close()
	r.encoder = nil
	if err != nil {
		r.file.Close()
		return errors.Wrap(err, "cannot finish recording")
	}
	log.Infof("Recorder: %d samples written to %s", r.written, r.file.Name())
	return errors.Wrap(r.file.Close(), "cannot close recording")
}
