package display

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/pointer"
	"github.com/ftl/nbrx/core/tuning"
)

type fakeController struct {
	mu       sync.Mutex
	snapshot tuning.Snapshot
	tunedTo  []core.Frequency
	tunedBy  []core.Frequency
	dialed   []int
}

func (c *fakeController) TuneTo(f core.Frequency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tunedTo = append(c.tunedTo, f)
}

func (c *fakeController) TuneBy(Δf core.Frequency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tunedBy = append(c.tunedBy, Δf)
}

func (c *fakeController) TuneUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialed = append(c.dialed, 1)
}

func (c *fakeController) TuneDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialed = append(c.dialed, -1)
}

func (c *fakeController) dials() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int{}, c.dialed...)
}

func (c *fakeController) Tuning() tuning.Snapshot {
	return c.snapshot
}

func (c *fakeController) calls() ([]core.Frequency, []core.Frequency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frequency{}, c.tunedTo...), append([]core.Frequency{}, c.tunedBy...)
}

func newController() *fakeController {
	return &fakeController{
		snapshot: tuning.Snapshot{
			RFCenter:       10489750000,
			LOFrequency:    9750000000,
			SelectedCenter: 10489600000,
			SelectedSpan:   10240,
			RFSpan:         1024000,
		},
	}
}

func connect(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	return conn, func() {
		conn.Close()
		hub.Close()
		server.Close()
	}
}

func TestHub_BroadcastsFrames(t *testing.T) {
	hub := NewHub(newController())
	conn, closeAll := connect(t, hub)
	defer closeAll()

	hub.FrameAvailable(core.IFView)([]byte{10, 20, 30})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{1, 10, 20, 30}, data)

	hub.FrameAvailable(core.MainView)([]byte{40})

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 40}, data)
}

func TestHub_SendsStatus(t *testing.T) {
	hub := NewHub(newController())
	conn, closeAll := connect(t, hub)
	defer closeAll()

	hub.ShowStatus(Status{Selected: 10489600000, Segment: "Digital"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	var status Status
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, "status", status.Type)
	assert.Equal(t, core.Frequency(10489600000), status.Selected)
	assert.Equal(t, "Digital", status.Segment)
}

func TestHub_RoutesInput(t *testing.T) {
	controller := newController()
	hub := NewHub(controller)
	conn, closeAll := connect(t, hub)
	defer closeAll()

	inputs := []Input{
		{Type: InputTune, Frequency: 10489700000},
		{Type: InputTuneBy, Delta: -500},
		{Type: InputClick, View: core.MainView, X: 256, Width: 1024},
		{Type: InputClick, View: core.IFView, X: 0, Width: 1024},
		{Type: InputDrag, View: core.IFView, DX: 512, Width: 1024},
		{Type: InputScroll, Direction: pointer.Up},
		{Type: InputKey, Key: "ArrowRight"},
		{Type: InputKey, Key: "ArrowLeft"},
		{Type: InputKey, Key: "q"},
		{Type: "unknown"},
	}
	for _, input := range inputs {
		require.NoError(t, conn.WriteJSON(input))
	}

	require.Eventually(t, func() bool {
		tunedTo, tunedBy := controller.calls()
		return len(tunedTo) == 3 && len(tunedBy) == 3 && len(controller.dials()) == 2
	}, time.Second, 5*time.Millisecond)

	tunedTo, tunedBy := controller.calls()
	assert.Equal(t, []core.Frequency{10489700000, 10489494000, 10489594880}, tunedTo)
	assert.Equal(t, []core.Frequency{-500, -5120, pointer.ScrollSpeedSlow}, tunedBy)
	assert.Equal(t, []int{1, -1}, controller.dials())
}

func TestHub_ClientsAreRemovedOnDisconnect(t *testing.T) {
	hub := NewHub(newController())
	conn, closeAll := connect(t, hub)
	defer closeAll()

	conn.Close()

	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
	hub.FrameAvailable(core.MainView)([]byte{1})
}

func TestHub_RejectsClientsAfterClose(t *testing.T) {
	hub := NewHub(newController())
	hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}
