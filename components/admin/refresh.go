package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EntityEvent describes a change to an admin resource.
type EntityEvent struct {
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	Reason     string    `json:"reason"`
	Entity     any       `json:"entity,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RefreshHook is notified after every successful mutation.
type RefreshHook interface {
	EntityChanged(ctx context.Context, event EntityEvent) error
}

type noopRefreshHook struct{}

func (noopRefreshHook) EntityChanged(context.Context, EntityEvent) error { return nil }

// BroadcastHook fans out entity events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan EntityEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]chan EntityEvent)}
}

// EntityChanged satisfies RefreshHook. Slow subscribers miss events rather
// than block the mutation.
func (h *BroadcastHook) EntityChanged(_ context.Context, event EntityEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of entity events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan EntityEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan EntityEvent, 16)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of active subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams entity events as JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams entity events as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe()
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("event: " + event.Kind + "\ndata: ")); err != nil {
				return
			}
			if err := encoder.Encode(event); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// MultiRefreshHook notifies every hook in order and stops at the first error.
type MultiRefreshHook []RefreshHook

// EntityChanged satisfies RefreshHook.
func (m MultiRefreshHook) EntityChanged(ctx context.Context, event EntityEvent) error {
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.EntityChanged(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
