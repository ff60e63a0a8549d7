package rx

import (
	"sync"
	"time"
)

// Slot hands the latest block of samples from a producer to a consumer that
// reads it frame by frame. A new block replaces the old one; each frame of a
// block is read at most once.
type Slot struct {
	mu        sync.Mutex
	data      []complex64
	index     int
	available chan struct{}
}

// NewSlot returns a new empty slot that holds at most capacity samples of a block.
func NewSlot(capacity int) *Slot {
	return &Slot{
		data:      make([]complex64, 0, capacity),
		available: make(chan struct{}, 1),
	}
}

// Put replaces the content of the slot with a copy of the given block.
func (s *Slot) Put(block []complex64) {
	s.mu.Lock()
	n := min(len(block), cap(s.data))
	s.data = append(s.data[:0], block[:n]...)
	s.index = 0
	s.mu.Unlock()

	select {
	case s.available <- struct{}{}:
	default:
	}
}

// Take copies the next unread frame of the latest block into frame. It waits at
// most for the given timeout and returns false if no unread frame became available.
func (s *Slot) Take(frame []complex64, timeout time.Duration) bool {
	if s.tryTake(frame) {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-s.available:
			if s.tryTake(frame) {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

func (s *Slot) tryTake(frame []complex64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := len(frame)
	if size == 0 || (s.index+1)*size > len(s.data) {
		return false
	}
	copy(frame, s.data[s.index*size:(s.index+1)*size])
	s.index++
	return true
}
