package sse

import (
	"encoding/json"
	"sync"
)

// Event represents a server-sent event.
type Event struct {
	Type string // e.g. "state"
	Data string // JSON payload
}

// JobTopic is the topic job state changes are published on.
func JobTopic(jobID string) string {
	return "job:" + jobID
}

// Hub is an in-memory pub/sub hub for SSE events.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[chan Event]struct{}
}

func New() *Hub {
	return &Hub{
		clients: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a listener on the given topic. The returned
// function removes it and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[chan Event]struct{})
	}
	h.clients[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients[topic], ch)
			if len(h.clients[topic]) == 0 {
				delete(h.clients, topic)
			}
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, unsub
}

// Subscribers returns the number of listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[topic])
}

// Publish sends an event to all subscribers on the given topic.
// Slow clients are skipped.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Sends happen under the lock so unsubscribe cannot close a channel
	// mid-send. They never block.
	for ch := range h.clients[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishJSON marshals payload and publishes it as eventType.
func (h *Hub) PublishJSON(topic, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	h.Publish(topic, Event{Type: eventType, Data: string(data)})
	return nil
}
