package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/khaledhikmat/vision-go/service/lgr"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the Run goroutine touches the client set.
type Hub struct {
	name string

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	count int
}

func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then hands already queued
// broadcasts to the clients and disconnects them. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			h.flush()
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			lgr.Logger.Debug(
				"websocket client connected",
				slog.String("hub", h.name),
				slog.Int("clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount(len(h.clients))
			lgr.Logger.Debug(
				"websocket client disconnected",
				slog.String("hub", h.name),
				slog.Int("clients", len(h.clients)),
			)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message Message) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client's buffer is full, they're too slow
			close(client.send)
			delete(h.clients, client)
			lgr.Logger.Warn(
				"dropped slow websocket client",
				slog.String("hub", h.name),
			)
		}
	}
	h.setCount(len(h.clients))
}

// flush delivers what is already queued, so a last error reaches the viewers.
func (h *Hub) flush() {
	for {
		select {
		case message := <-h.broadcast:
			h.deliver(message)
		default:
			return
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Broadcast queues msg for every client. Messages are dropped when the hub is
// saturated.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		lgr.Logger.Debug(
			"broadcast channel full, dropping message",
			slog.String("hub", h.name),
		)
	}
}

func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
