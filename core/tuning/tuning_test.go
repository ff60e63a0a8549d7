package tuning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ftl/nbrx/core"
)

func testConfig() core.Configuration {
	return core.Configuration{
		RFCenter:          10489750000,
		LOFrequency:       9750000000,
		SelectedFrequency: 10489499950,
		SampleRate:        1024000,
		Decimation:        100,
	}
}

func TestNew(t *testing.T) {
	p := New(testConfig())
	s := p.Snapshot()

	assert.Equal(t, core.Frequency(10489750000), s.RFCenter)
	assert.Equal(t, core.Frequency(739750000), s.IFCenter())
	assert.Equal(t, core.Frequency(10489499950), s.SelectedCenter)
	assert.Equal(t, core.Frequency(10240), s.SelectedSpan)
	assert.Equal(t, core.Frequency(1024000), s.RFSpan)
	assert.InDelta(t, 250050.0/1024000.0, s.MixerRate(1024000), 1e-12)
}

func TestSetSelected_Clamped(t *testing.T) {
	tt := []struct {
		desc     string
		value    core.Frequency
		expected core.Frequency
	}{
		{"inside", 10489600000, 10489600000},
		{"lower edge", 10489238000, 10489238000},
		{"below", 10489000000, 10489238000},
		{"upper edge", 10490262000, 10490262000},
		{"above", 10491000000, 10490262000},
		{"rounded", 10489600000.4, 10489600000},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			p := New(testConfig())
			actual := p.SetSelected(tc.value)
			assert.Equal(t, tc.expected, actual)
			assert.Equal(t, tc.expected, p.Selected())
		})
	}
}

func TestSetRFCenter_ReclampsSelected(t *testing.T) {
	p := New(testConfig())

	p.SetRFCenter(10490750000)

	s := p.Snapshot()
	assert.Equal(t, core.Frequency(10490750000), s.RFCenter)
	assert.Equal(t, core.Frequency(10490238000), s.SelectedCenter)
}

func TestConcurrentReadsSeeWrittenValues(t *testing.T) {
	p := New(testConfig())
	valid := map[core.Frequency]bool{10489499950: true, 10489500000: true, 10489600000: true}

	wg := new(sync.WaitGroup)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				p.SetSelected(10489500000)
			} else {
				p.SetSelected(10489600000)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			assert.True(t, valid[p.Snapshot().SelectedCenter])
		}
	}()
	wg.Wait()
}
