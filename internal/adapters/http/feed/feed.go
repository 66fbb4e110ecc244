// Package feed pushes committed snapshots to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/logger"
	"github.com/okian/dancefloor/pkg/metrics"
)

const (
	defaultBuffer       = 16
	defaultWriteTimeout = 5 * time.Second
)

// Message is the frame written to subscribers.
type Message struct {
	Type     string         `json:"type"` // always "snapshot"
	Action   string         `json:"action"`
	Snapshot model.Snapshot `json:"snapshot"`
}

type subscriber struct {
	send   chan []byte
	cancel context.CancelFunc
}

// Hub fans snapshot events out to connected subscribers. A subscriber whose
// buffer is full is disconnected instead of slowing the others down.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	last   []byte
	closed bool

	buffer         int
	writeTimeout   time.Duration
	originPatterns []string
	logger         logger.Logger
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:         map[*subscriber]struct{}{},
		buffer:       defaultBuffer,
		writeTimeout: defaultWriteTimeout,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Broadcast implements worker.Broadcaster.
func (h *Hub) Broadcast(_ context.Context, e model.SnapshotEvent) (int, error) {
	payload, err := json.Marshal(Message{Type: "snapshot", Action: e.Action, Snapshot: e.Snapshot})
	if err != nil {
		return 0, fmt.Errorf("feed.broadcast: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = payload

	delivered := 0
	for s := range h.subs {
		select {
		case s.send <- payload:
			delivered++
		default:
			h.evictLocked(s)
			metrics.RecordFeedEvicted()
		}
	}
	metrics.RecordFeedBroadcast(delivered)
	metrics.UpdateFeedSubscribers(len(h.subs))
	return delivered, nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		h.evictLocked(s)
	}
	metrics.UpdateFeedSubscribers(0)
}

// register adds a subscriber primed with the latest snapshot.
func (h *Hub) register(cancel context.CancelFunc) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	s := &subscriber{send: make(chan []byte, h.buffer), cancel: cancel}
	if h.last != nil {
		s.send <- h.last
	}
	h.subs[s] = struct{}{}
	metrics.UpdateFeedSubscribers(len(h.subs))
	return s, true
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		h.evictLocked(s)
		metrics.UpdateFeedSubscribers(len(h.subs))
	}
}

func (h *Hub) evictLocked(s *subscriber) {
	delete(h.subs, s)
	close(s.send)
	s.cancel()
}

// ServeHTTP upgrades the request to a websocket and streams snapshots
// until the client leaves or falls behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// The feed is write-only; CloseRead handles control frames and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, ok := h.register(cancel)
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "feed closed")
		return
	}
	defer h.unregister(s)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "feed subscriber dropped")
			return
		case msg, ok := <-s.send:
			if !ok {
				_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			wcancel()
			if err != nil {
				h.logger.Debug(ctx, "feed write failed", logger.Error(err))
				return
			}
		}
	}
}
