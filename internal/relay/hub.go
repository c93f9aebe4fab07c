package relay

import (
	"sync"

	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/domain"
)

// subscriberBuffer bounds per-client delivery queues; a client that cannot
// keep up drops entries rather than blocking the broadcast path.
const subscriberBuffer = 64

// Hub fans appended activity entries out to the websocket subscribers of
// each topic.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*subscriber]struct{}
	log    *zap.Logger
}

type subscriber struct {
	send chan domain.ActivityLogEntry
}

// NewHub creates an empty hub. A nil logger disables logging.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		topics: make(map[string]map[*subscriber]struct{}),
		log:    log,
	}
}

// subscribe registers a new subscriber for topic.
func (h *Hub) subscribe(topic string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{send: make(chan domain.ActivityLogEntry, subscriberBuffer)}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	return sub
}

// unsubscribe removes a subscriber and closes its delivery channel.
func (h *Hub) unsubscribe(topic string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	close(sub.send)
}

// Broadcast delivers an entry to every subscriber of topic. Slow
// subscribers lose the entry; their next reconnect re-seeds from the store.
func (h *Hub) Broadcast(topic string, e domain.ActivityLogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.topics[topic] {
		select {
		case sub.send <- e:
		default:
			h.log.Warn("subscriber queue full, dropping entry",
				zap.String("topic", topic), zap.String("entry_id", e.ID))
		}
	}
}

// Subscribers returns the subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
