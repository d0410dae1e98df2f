// Package observer streams generation reports to websocket clients. It only
// reads what the simulator publishes and never touches simulator state.
package observer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/baldhumanity/ipd-go/ipd"
	"github.com/baldhumanity/ipd-go/ipd/logging"
)

// ClientBuffer is the number of pending reports a client may fall behind
// before it is dropped.
const ClientBuffer = 16

const writeTimeout = 5 * time.Second

type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]chan []byte
	last    []byte
	closed  bool
}

// NewHub returns a hub with no clients. A nil logger discards output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Publish broadcasts report to every connected client and remembers it for
// clients that connect later.
func (h *Hub) Publish(report *ipd.GenerationReport) error {
	if report == nil {
		return fmt.Errorf("publish: nil report")
	}
	msg, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("publish generation %d: %w", report.Generation, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for id, out := range h.clients {
		select {
		case out <- msg:
		default:
			delete(h.clients, id)
			close(out)
			h.log.Warn("observer dropped slow client", "client", id, "generation", report.Generation)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, out := range h.clients {
		delete(h.clients, id)
		close(out)
	}
}

func (h *Hub) register() (uint64, chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	id := h.nextID.Add(1)
	out := make(chan []byte, ClientBuffer)
	if h.last != nil {
		out <- h.last
	}
	h.clients[id] = out
	return id, out, true
}

func (h *Hub) unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if out, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(out)
	}
}

// Handler upgrades the request to a websocket and streams reports as text
// messages until either side goes away. Incoming messages are ignored.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, ok := h.register()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		h.log.Debug("observer connected", "client", id, "remote", r.RemoteAddr)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					_ = conn.Close()
					return
				}
			}
			// Dropped or hub closed.
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.unregister(id)
		<-done
		h.log.Debug("observer disconnected", "client", id)
	}
}
