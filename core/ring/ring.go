// Package ring implements the bounded sample buffers that connect the receiver stages.
//
// A Buffer has exactly one producer and one consumer. Pushing never blocks and
// rejects what does not fit; the consumer may wait for a minimum amount of data
// with a bounded timeout.
package ring

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MaxCapacity is the largest number of elements a single buffer may hold.
const MaxCapacity = 1 << 28

// ErrAllocation is returned when a buffer cannot be created.
var ErrAllocation = errors.New("ring buffer allocation failed")

// Stats is a snapshot of the buffer state.
type Stats struct {
	Head     int
	Tail     int
	Capacity int
	Occupied int
}

// Free space in the buffer.
func (s Stats) Free() int {
	return s.Capacity - s.Occupied
}

// Buffer is a bounded FIFO of elements of type T.
type Buffer[T any] struct {
	mu    sync.Mutex
	data  []T
	head  int
	tail  int
	count int

	available chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// New returns a new empty buffer with the given capacity.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, errors.Wrapf(ErrAllocation, "invalid capacity %d", capacity)
	}
	return &Buffer[T]{
		data:      make([]T, capacity),
		available: make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}, nil
}

// Capacity of the buffer.
func (b *Buffer[T]) Capacity() int {
	return len(b.data)
}

// Push copies as many of the given samples into the buffer as fit and returns
// the number of rejected samples. The oldest unread data is always kept.
func (b *Buffer[T]) Push(samples []T) int {
	if len(samples) == 0 {
		return 0
	}
	if b.isClosed() {
		return len(samples)
	}

	b.mu.Lock()
	n := min(len(samples), len(b.data)-b.count)
	first := min(n, len(b.data)-b.tail)
	copy(b.data[b.tail:], samples[:first])
	copy(b.data, samples[first:n])
	b.tail = (b.tail + n) % len(b.data)
	b.count += n
	b.mu.Unlock()

	if n > 0 {
		select {
		case b.available <- struct{}{}:
		default:
		}
	}
	return len(samples) - n
}

// Pop copies up to len(out) available samples into out and returns their number.
func (b *Buffer[T]) Pop(out []T) int {
	if b.isClosed() {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pop(out)
}

// ThresholdPop works like Pop, but returns data only if at least minCount samples are available.
func (b *Buffer[T]) ThresholdPop(minCount int, out []T) int {
	if b.isClosed() {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count < b.threshold(minCount, out) {
		return 0
	}
	return b.pop(out)
}

// WaitThresholdPop waits until at least minCount samples are available, then copies up
// to len(out) samples into out. It returns 0 if the timeout elapsed or the buffer
// was closed in the meantime.
func (b *Buffer[T]) WaitThresholdPop(minCount int, out []T, timeout time.Duration) int {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if b.isClosed() {
			return 0
		}
		b.mu.Lock()
		if b.count >= b.threshold(minCount, out) {
			n := b.pop(out)
			b.mu.Unlock()
			return n
		}
		b.mu.Unlock()

		select {
		case <-b.available:
		case <-b.closed:
			return 0
		case <-timer.C:
			return 0
		}
	}
}

// Flush discards all buffered samples.
func (b *Buffer[T]) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.tail = 0
	b.count = 0
}

// Stats returns a snapshot of the buffer state.
func (b *Buffer[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Head:     b.head,
		Tail:     b.tail,
		Capacity: len(b.data),
		Occupied: b.count,
	}
}

// Close the buffer. A waiting consumer returns immediately, all later pops
// return 0 and all later pushes are rejected.
func (b *Buffer[T]) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
	})
}

// Closed is closed when the buffer gets closed.
func (b *Buffer[T]) Closed() <-chan struct{} {
	return b.closed
}

func (b *Buffer[T]) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// threshold clamps minCount to what can ever be satisfied.
func (b *Buffer[T]) threshold(minCount int, out []T) int {
	return max(1, min(minCount, len(out), len(b.data)))
}

func (b *Buffer[T]) pop(out []T) int {
	n := min(len(out), b.count)
	first := min(n, len(b.data)-b.head)
	copy(out, b.data[b.head:b.head+first])
	copy(out[first:n], b.data[:n-first])
	b.head = (b.head + n) % len(b.data)
	b.count -= n
	return n
}
