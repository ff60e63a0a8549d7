package dsp

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ftl/nbrx/core/log"
)

// Deliver receives a block of complex samples. The block is reused once Deliver returns.
type Deliver func([]complex64)

// Generator fills a block with synthetic samples.
type Generator interface {
	Generate(block []complex64)
}

// Source produces blocks of synthetic samples at the pace of the given sample rate.
type Source struct {
	name       string
	blockSize  int
	sampleRate int
	generator  Generator
	deliver    Deliver
}

// NewSource returns a new source that feeds the output of the given generator into deliver.
func NewSource(name string, blockSize, sampleRate int, generator Generator, deliver Deliver) *Source {
	return &Source{
		name:       name,
		blockSize:  blockSize,
		sampleRate: sampleRate,
		generator:  generator,
		deliver:    deliver,
	}
}

// Run the source until stop is closed.
func (s *Source) Run(stop chan struct{}, wait *sync.WaitGroup) {
	interval := time.Duration(float64(s.blockSize) / float64(s.sampleRate) * float64(time.Second))
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer log.Infof("%s source shutdown", s.name)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		block := make([]complex64, s.blockSize)
		for {
			s.generator.Generate(block)
			s.deliver(block)

			select {
			case <-ticker.C:
			case <-stop:
				return
			}
		}
	}()
}

// Tone is a complex sine wave with optional white noise. The phase is continuous across blocks.
type Tone struct {
	mixer     Mixer
	rate      float64
	amplitude float32
	noise     float32
	random    *rand.Rand
}

// NewTone returns a new tone at the given offset frequency.
func NewTone(offset float64, sampleRate int, amplitude, noise float32) *Tone {
	return &Tone{
		rate:      toRate(offset, sampleRate),
		amplitude: amplitude,
		noise:     noise,
		random:    rand.New(rand.NewSource(1)),
	}
}

// Generate the next block.
func (t *Tone) Generate(block []complex64) {
	for i := range block {
		block[i] = complex(t.amplitude, 0)
	}
	re := make([]float32, len(block))
	im := make([]float32, len(block))
	t.mixer.Shift(re, im, block, t.rate)
	for i := range block {
		block[i] = complex(re[i], im[i])
		if t.noise != 0 {
			block[i] += complex(t.noise*float32(t.random.NormFloat64()), t.noise*float32(t.random.NormFloat64()))
		}
	}
}

// Noise is white gaussian noise.
type Noise struct {
	amplitude float32
	random    *rand.Rand
}

// NewNoise returns a new noise generator with the given standard deviation.
func NewNoise(amplitude float32) *Noise {
	return &Noise{
		amplitude: amplitude,
		random:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate the next block.
func (n *Noise) Generate(block []complex64) {
	for i := range block {
		block[i] = complex(n.amplitude*float32(n.random.NormFloat64()), n.amplitude*float32(n.random.NormFloat64()))
	}
}

// Sweep is a tone that moves from one offset frequency to another, one step per block.
type Sweep struct {
	tone       Tone
	sampleRate int
	from, to   float64
	step       float64
	current    float64
}

// NewSweep returns a new sweep generator.
func NewSweep(from, to, step float64, sampleRate int, amplitude float32) *Sweep {
	return &Sweep{
		tone:       Tone{amplitude: amplitude},
		sampleRate: sampleRate,
		from:       from,
		to:         to,
		step:       step,
		current:    from,
	}
}

// Generate the next block.
func (s *Sweep) Generate(block []complex64) {
	s.tone.rate = toRate(s.current, s.sampleRate)
	s.tone.Generate(block)
	s.current += s.step
	if s.current > s.to {
		s.current = s.from
	}
}

// Frequency of the tone in the next block.
func (s *Sweep) Frequency() float64 {
	return s.current
}
