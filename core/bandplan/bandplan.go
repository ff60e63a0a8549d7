// Package bandplan describes the segments of the QO-100 narrowband transponder.
package bandplan

import "github.com/ftl/nbrx/core"

// Segment represents a part of the transponder with a common usage.
type Segment struct {
	core.FrequencyRange
	Name SegmentName
	Mode Mode
}

// Contains indicates if the segment contains the given frequency. The upper bound is exclusive.
func (s Segment) Contains(f core.Frequency) bool {
	return f >= s.From && f < s.To
}

// UnknownSegment is the segment that contains no frequency.
var UnknownSegment = Segment{Name: SegmentUnknown}

// SegmentName is the name of a segment.
type SegmentName string

// All segments of the narrowband transponder.
const (
	SegmentUnknown       SegmentName = "Unknown"
	SegmentLowerBeacon   SegmentName = "Lower Beacon"
	SegmentCW            SegmentName = "CW"
	SegmentNarrowDigital SegmentName = "Narrow Digital"
	SegmentDigital       SegmentName = "Digital"
	SegmentSSB           SegmentName = "SSB"
	SegmentMiddleBeacon  SegmentName = "Middle Beacon"
	SegmentMixed         SegmentName = "Mixed"
	SegmentUpperBeacon   SegmentName = "Upper Beacon"
)

// Mode type
type Mode string

// All modes.
const (
	ModeCW      Mode = "CW"
	ModeSSB     Mode = "SSB"
	ModeDigital Mode = "Digital"
	ModeBeacon  Mode = "Beacon"
	ModeMixed   Mode = "Mixed"
)

// Bandplan is a list of segments, ordered by frequency.
type Bandplan []Segment

// ByFrequency returns the segment for the matching frequency.
func (p Bandplan) ByFrequency(f core.Frequency) Segment {
	for _, s := range p {
		if s.Contains(f) {
			return s
		}
	}
	return UnknownSegment
}

// Range returns the frequency range covered by the bandplan.
func (p Bandplan) Range() core.FrequencyRange {
	if len(p) == 0 {
		return core.FrequencyRange{}
	}
	return core.FrequencyRange{From: p[0].From, To: p[len(p)-1].To}
}

// QO100 is the downlink bandplan of the QO-100 narrowband transponder.
var QO100 = Bandplan{
	segment(SegmentLowerBeacon, ModeBeacon, 10489500000, 10489505000),
	segment(SegmentCW, ModeCW, 10489505000, 10489540000),
	segment(SegmentNarrowDigital, ModeDigital, 10489540000, 10489580000),
	segment(SegmentDigital, ModeDigital, 10489580000, 10489650000),
	segment(SegmentSSB, ModeSSB, 10489650000, 10489745000),
	segment(SegmentMiddleBeacon, ModeBeacon, 10489745000, 10489755000),
	segment(SegmentMixed, ModeMixed, 10489755000, 10489990000),
	segment(SegmentUpperBeacon, ModeBeacon, 10489990000, 10490000000),
}

func segment(name SegmentName, mode Mode, from, to core.Frequency) Segment {
	return Segment{
		Name:           name,
		Mode:           mode,
		FrequencyRange: core.FrequencyRange{From: from, To: to},
	}
}
