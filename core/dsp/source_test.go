package dsp

import (
	"math/cmplx"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTone_PhaseContinuity(t *testing.T) {
	single := NewTone(1000, 10240, 0.5, 0)
	expected := make([]complex64, 300)
	single.Generate(expected)

	blockwise := NewTone(1000, 10240, 0.5, 0)
	actual := make([]complex64, 300)
	blockwise.Generate(actual[:100])
	blockwise.Generate(actual[100:])

	for i := range expected {
		assert.InDelta(t, real(expected[i]), real(actual[i]), 1e-5)
		assert.InDelta(t, imag(expected[i]), imag(actual[i]), 1e-5)
		assert.InDelta(t, 0.5, cmplx.Abs(complex128(actual[i])), 1e-5)
	}
}

func TestSweep_Wraps(t *testing.T) {
	sweep := NewSweep(-100, 100, 100, 1000, 1)
	block := make([]complex64, 10)

	frequencies := make([]float64, 0, 5)
	for i := 0; i < 5; i++ {
		frequencies = append(frequencies, sweep.Frequency())
		sweep.Generate(block)
	}

	assert.Equal(t, []float64{-100, 0, 100, -100, 0}, frequencies)
}

func TestSource_DeliversUntilStopped(t *testing.T) {
	blocks := make(chan []complex64, 100)
	source := NewSource("test", 100, 100000, NewNoise(0.1), func(block []complex64) {
		select {
		case blocks <- block:
		default:
		}
	})
	stop := make(chan struct{})
	wait := new(sync.WaitGroup)

	source.Run(stop, wait)

	select {
	case block := <-blocks:
		assert.Equal(t, 100, len(block))
	case <-time.After(time.Second):
		assert.Fail(t, "no block delivered")
	}

	close(stop)
	done := make(chan struct{})
	go func() {
		wait.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "source did not stop")
	}
}
