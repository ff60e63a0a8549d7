package rx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlot_FramesAreReadOnce(t *testing.T) {
	slot := NewSlot(100)
	frame := make([]complex64, 4)

	slot.Put([]complex64{1, 2, 3, 4, 5, 6, 7, 8, 9})

	assert.True(t, slot.Take(frame, 0))
	assert.Equal(t, []complex64{1, 2, 3, 4}, frame)
	assert.True(t, slot.Take(frame, 0))
	assert.Equal(t, []complex64{5, 6, 7, 8}, frame)
	assert.False(t, slot.Take(frame, 5*time.Millisecond), "incomplete frame")
}

func TestSlot_NewBlockSupersedesOld(t *testing.T) {
	slot := NewSlot(100)
	frame := make([]complex64, 2)

	slot.Put([]complex64{1, 2, 3, 4})
	assert.True(t, slot.Take(frame, 0))
	slot.Put([]complex64{5, 6, 7, 8})

	assert.True(t, slot.Take(frame, 0))
	assert.Equal(t, []complex64{5, 6}, frame)
}

func TestSlot_PutCopiesBlock(t *testing.T) {
	slot := NewSlot(100)
	frame := make([]complex64, 2)
	block := []complex64{1, 2}

	slot.Put(block)
	block[0] = 42

	assert.True(t, slot.Take(frame, 0))
	assert.Equal(t, []complex64{1, 2}, frame)
}

func TestSlot_PutTruncatesToCapacity(t *testing.T) {
	slot := NewSlot(3)
	frame := make([]complex64, 2)

	slot.Put([]complex64{1, 2, 3, 4, 5})

	assert.True(t, slot.Take(frame, 0))
	assert.False(t, slot.Take(frame, 0))
}

func TestSlot_TakeWaitsForPut(t *testing.T) {
	slot := NewSlot(100)
	frame := make([]complex64, 2)

	go func() {
		time.Sleep(10 * time.Millisecond)
		slot.Put([]complex64{1, 2})
	}()

	assert.True(t, slot.Take(frame, time.Second))
	assert.Equal(t, []complex64{1, 2}, frame)
}

func TestSlot_TakeTimeout(t *testing.T) {
	slot := NewSlot(100)
	frame := make([]complex64, 2)

	start := time.Now()
	assert.False(t, slot.Take(frame, 10*time.Millisecond))
	assert.True(t, time.Since(start) >= 10*time.Millisecond)
}
