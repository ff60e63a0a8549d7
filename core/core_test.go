package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDBRange_Width(t *testing.T) {
	tt := []struct {
		from     DB
		to       DB
		expected DB
	}{
		{10, -180, -190},
		{-180, 10, 190},
		{-180, 0, 180},
		{0, 30, 30},
	}

	for i, tc := range tt {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			actual := DBRange{tc.from, tc.to}.Width()
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestDBRange_Normalized(t *testing.T) {
	assert.Equal(t, DBRange{-180, 10}, DBRange{10, -180}.Normalized())
	assert.Equal(t, DBRange{-180, 10}, DBRange{-180, 10}.Normalized())
}

func TestDBRange_ToFrct(t *testing.T) {
	tt := []struct {
		from     DB
		to       DB
		value    DB
		expected Frct
	}{
		{-80, 20, -90, -0.1},
		{-80, 20, -80, 0.0},
		{-80, 20, -60, 0.2},
		{-80, 20, 0, 0.8},
		{-80, 20, 30, 1.1},
	}

	for i, tc := range tt {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			actual := ToDBFrct(tc.value, DBRange{tc.from, tc.to})
			assert.InDelta(t, float64(tc.expected), float64(actual), 1e-9)
		})
	}
}

func TestDBRange_ToByte(t *testing.T) {
	r := DBRange{-100, -20}
	tt := []struct {
		value    DB
		expected byte
	}{
		{-200, 0},
		{-100, 0},
		{-60, 127},
		{-20, 255},
		{0, 255},
	}

	for _, tc := range tt {
		t.Run(tc.value.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, r.ToByte(tc.value))
		})
	}
}

func TestFrequencyRange_Clamp(t *testing.T) {
	r := RangeAround(1000, 200)

	assert.Equal(t, Frequency(900), r.From)
	assert.Equal(t, Frequency(1100), r.To)
	assert.Equal(t, Frequency(900), r.Clamp(10))
	assert.Equal(t, Frequency(1000), r.Clamp(1000))
	assert.Equal(t, Frequency(1100), r.Clamp(5000))
}

func TestConfiguration_Derived(t *testing.T) {
	c := Configuration{SampleRate: 1024000, Decimation: 100, RFCenter: 10489750000, LOFrequency: 9750000000, FFTPerSecond: 25}

	assert.Equal(t, 10240, c.IFSampleRate())
	assert.Equal(t, Frequency(739750000), c.IFCenter())
	assert.Equal(t, 40*time.Millisecond, c.FrameInterval())
}
