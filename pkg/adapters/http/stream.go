package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
)

const streamBuffer = 16

// StreamManager fans committed transitions out to SSE clients.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

// StreamOption configures the StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets a custom structured logger.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a client. The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, streamBuffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Len returns the number of connected clients.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every client, dropping it for clients that fall behind.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

// Publish broadcasts a transition record as JSON. Its signature matches a
// transition subscription callback.
func (sm *StreamManager) Publish(rec domain.TransitionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		sm.logger.Error("failed to encode transition", "error", err)
		return
	}
	sm.Broadcast(string(data))
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: transition\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
