package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-inventory-ledger/internal/events"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// broadcastBuffer is how many events may wait for the hub loop before new
// ones are dropped.
const broadcastBuffer = 256

// Hub fans ledger events out to connected websocket clients.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the channels until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.logger.Debug("websocket client connected", zap.Int("clients", h.ClientCount()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Serve registers conn and reads until the client goes away or ctx ends.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) {
	select {
	case h.Register <- conn:
	case <-h.done:
		return
	}
	defer func() {
		select {
		case h.Unregister <- conn:
		case <-h.done:
		}
	}()

	for ctx.Err() == nil {
		// Keep alive loop
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish implements events.Publisher. Events are queued in call order and
// never block the request that committed the change; when the queue is full
// the event is dropped.
func (h *Hub) Publish(_ context.Context, event events.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize websocket event", zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", zap.String("action", string(event.Action)))
	}
}
