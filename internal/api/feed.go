package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lumen-display/lumen/internal/domain"
)

// FeedHub broadcasts every refresh rate decision to connected
// websocket clients. Decisions a slow client cannot take are dropped
// for that client rather than blocking the selection path.
type FeedHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan domain.Selection
	logger  *slog.Logger

	upgrader websocket.Upgrader
}

// NewFeedHub creates a feed hub.
func NewFeedHub(logger *slog.Logger) *FeedHub {
	return &FeedHub{
		clients: make(map[*websocket.Conn]chan domain.Selection),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleFeed upgrades the connection and streams decisions until the
// client disconnects.
func (h *FeedHub) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("feed upgrade", "error", err)
		return
	}

	ch := make(chan domain.Selection, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain reads so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case sel, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(sel); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// Broadcast fans a decision out to every connected client. Clients
// whose buffer is full miss this decision.
func (h *FeedHub) Broadcast(sel domain.Selection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- sel:
		default:
		}
	}
}

// Clients returns the number of connected feed clients.
func (h *FeedHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
