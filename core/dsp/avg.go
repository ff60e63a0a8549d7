package dsp

// SlidingAverage is the moving average over the last n values.
type SlidingAverage struct {
	length  int
	buffer  []float64
	index   int
	current float64
}

// NewSlidingAverage returns a new moving average over the given number of values.
func NewSlidingAverage(length int) *SlidingAverage {
	if length < 1 {
		length = 1
	}
	return &SlidingAverage{
		length: length,
		buffer: make([]float64, length),
	}
}

// Put the next value and return the current average.
func (w *SlidingAverage) Put(v float64) float64 {
	w.current += (v - w.buffer[w.index]) / float64(w.length)
	w.buffer[w.index] = v
	w.index = (w.index + 1) % w.length
	return w.current
}

// Reset the average to zero.
func (w *SlidingAverage) Reset() {
	for i := range w.buffer {
		w.buffer[i] = 0
	}
	w.index = 0
	w.current = 0
}
