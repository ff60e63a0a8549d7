// Package display streams the spectral views to websocket clients and receives their pointer input.
package display

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/log"
	"github.com/ftl/nbrx/core/pointer"
	"github.com/ftl/nbrx/core/tuning"
)

const (
	writeTimeout = 10 * time.Second
	sendQueue    = 30
)

// Controller executes the tuning requests of the clients.
type Controller interface {
	TuneTo(f core.Frequency)
	TuneBy(Δf core.Frequency)
	TuneUp()
	TuneDown()
	Tuning() tuning.Snapshot
}

// Input message types.
const (
	InputTune   = "tune"
	InputTuneBy = "tuneBy"
	InputClick  = "click"
	InputDrag   = "drag"
	InputScroll = "scroll"
	InputKey    = "key"
)

// Input is a message sent by a client.
type Input struct {
	Type      string            `json:"type"`
	View      core.View         `json:"view"`
	Frequency core.Frequency    `json:"frequency,omitempty"`
	Delta     core.Frequency    `json:"delta,omitempty"`
	X         float64           `json:"x,omitempty"`
	DX        float64           `json:"dx,omitempty"`
	Width     float64           `json:"width,omitempty"`
	Direction pointer.Direction `json:"direction,omitempty"`
	Key       string            `json:"key,omitempty"`
}

// Status is sent to all clients as text message whenever the tuning changes.
type Status struct {
	Type         string         `json:"type"`
	RFCenter     core.Frequency `json:"rfCenter"`
	RFSpan       core.Frequency `json:"rfSpan"`
	Selected     core.Frequency `json:"selected"`
	SelectedSpan core.Frequency `json:"selectedSpan"`
	Segment      string         `json:"segment"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub keeps track of all connected clients.
type Hub struct {
	controller Controller

	pointerLock *sync.Mutex
	pointer     *pointer.Pointer
	keyboard    keyboard

	clientsLock *sync.RWMutex
	clients     map[uuid.UUID]*client
	closed      bool
}

type keyboard map[string]func()

type message struct {
	kind int
	data []byte
}

type client struct {
	id         uuid.UUID
	conn       *websocket.Conn
	send       chan message
	writerDone chan struct{}
}

// NewHub returns a new hub that forwards the input of the clients to the given controller.
func NewHub(controller Controller) *Hub {
	return &Hub{
		controller:  controller,
		pointerLock: new(sync.Mutex),
		pointer:     pointer.New(),
		keyboard: keyboard{
			"ArrowLeft":  controller.TuneDown,
			"ArrowRight": controller.TuneUp,
		},
		clientsLock: new(sync.RWMutex),
		clients:     make(map[uuid.UUID]*client),
	}
}

// ServeHTTP upgrades the connection to a websocket and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("Display: cannot upgrade connection from %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{
		id:         uuid.New(),
		conn:       conn,
		send:       make(chan message, sendQueue),
		writerDone: make(chan struct{}),
	}
	if !h.register(c) {
		conn.Close()
		return
	}
	log.Infof("Display: client %s connected from %s", c.id, r.RemoteAddr)

	go c.write()
	defer func() {
		h.unregister(c)
		<-c.writerDone
		conn.Close()
		log.Infof("Display: client %s disconnected", c.id)
	}()

	h.read(c)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	return len(h.clients)
}

// FrameAvailable returns a callback that broadcasts the frames of the given view.
func (h *Hub) FrameAvailable(view core.View) core.FrameAvailable {
	return func(frame []byte) {
		data := make([]byte, len(frame)+1)
		data[0] = byte(view)
		copy(data[1:], frame)
		h.broadcast(message{kind: websocket.BinaryMessage, data: data})
	}
}

// ShowStatus sends the given status to all clients.
func (h *Hub) ShowStatus(status Status) {
	status.Type = "status"
	data, err := json.Marshal(status)
	if err != nil {
		log.Errorf("Display: cannot marshal status: %v", err)
		return
	}
	h.broadcast(message{kind: websocket.TextMessage, data: data})
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	h.closed = true
	for _, c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) register(c *client) bool {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

func (h *Hub) broadcast(m message) {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- m:
		default:
			log.Debugf("Display: client %s is too slow, message dropped", c.id)
		}
	}
}

func (h *Hub) read(c *client) {
	for {
		var input Input
		err := c.conn.ReadJSON(&input)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("Display: client %s: %v", c.id, err)
			}
			return
		}
		h.handle(input)
	}
}

func (h *Hub) handle(input Input) {
	switch input.Type {
	case InputTune:
		h.controller.TuneTo(input.Frequency)
	case InputTuneBy:
		h.controller.TuneBy(input.Delta)
	case InputClick:
		r := viewRange(h.controller.Tuning(), input.View)
		h.controller.TuneTo(pointer.FrequencyAt(r, input.X, input.Width))
	case InputDrag:
		r := viewRange(h.controller.Tuning(), input.View)
		h.controller.TuneBy(pointer.DragDelta(r, input.DX, input.Width))
	case InputScroll:
		h.pointerLock.Lock()
		Δf := h.pointer.Scroll(input.Direction)
		h.pointerLock.Unlock()
		h.controller.TuneBy(Δf)
	case InputKey:
		if action, ok := h.keyboard[input.Key]; ok {
			action()
		}
	default:
		log.Debugf("Display: unknown input %q", input.Type)
	}
}

func viewRange(snapshot tuning.Snapshot, view core.View) core.FrequencyRange {
	if view == core.IFView {
		return snapshot.SelectedRange()
	}
	return snapshot.RFRange()
}

func (c *client) write() {
	defer close(c.writerDone)
	for m := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteMessage(m.kind, m.data)
		if err != nil {
			log.Debugf("Display: cannot write to client %s: %v", c.id, err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
