// Package pointer maps pointer input on the spectral views to tuning operations.
package pointer

import (
	"time"

	"github.com/ftl/nbrx/core"
)

// Scroll speeds in Hz per scroll step.
const (
	ScrollSpeedSlow   core.Frequency = 50
	ScrollSpeedMedium core.Frequency = 500
	ScrollSpeedHigh   core.Frequency = 5000
)

// Maximum intervals between two scroll steps for the faster speeds.
const (
	ScrollTimeMedium = 80 * time.Millisecond
	ScrollTimeHigh   = 30 * time.Millisecond
)

// Direction of a scroll step.
type Direction int

// All directions.
const (
	Down Direction = -1
	Up   Direction = 1
)

// FrequencyAt returns the frequency at the horizontal position x of a view with the given width
// that shows the given frequency range.
func FrequencyAt(r core.FrequencyRange, x, width float64) core.Frequency {
	if width <= 0 {
		return r.Center()
	}
	x = max(0, min(x, width))
	return r.From + core.Frequency(x/width)*r.Width()
}

// DragDelta returns the tuning delta for a horizontal drag by dx on a view with the given width
// that shows the given frequency range. Dragging the spectrum to the right tunes down.
func DragDelta(r core.FrequencyRange, dx, width float64) core.Frequency {
	if width <= 0 {
		return 0
	}
	return -core.Frequency(dx/width) * r.Width()
}

// Pointer keeps track of the scroll rate.
type Pointer struct {
	lastScroll time.Time
	now        func() time.Time
}

// New returns a new pointer.
func New() *Pointer {
	return &Pointer{
		now: time.Now,
	}
}

// Scroll returns the tuning delta for one scroll step in the given direction. Faster scrolling
// results in larger steps.
func (p *Pointer) Scroll(direction Direction) core.Frequency {
	now := p.now()
	interval := now.Sub(p.lastScroll)
	p.lastScroll = now

	var speed core.Frequency
	switch {
	case interval < ScrollTimeHigh:
		speed = ScrollSpeedHigh
	case interval < ScrollTimeMedium:
		speed = ScrollSpeedMedium
	default:
		speed = ScrollSpeedSlow
	}

	switch {
	case direction > 0:
		return speed
	case direction < 0:
		return -speed
	default:
		return 0
	}
}
