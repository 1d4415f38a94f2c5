package kafka

import (
	"sort"

	"stencil/internal/logging"
)

// Registry maps topics to their handlers. Matching is exact; there is no
// wildcard or prefix routing. Registration happens while the service wires
// itself up, before the consumer loop runs, so lookups are lock-free.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds h to its topic. Registering a second handler for the same
// topic replaces the first; last write wins.
func (r *Registry) Register(h Handler) {
	topic := h.Topic()
	if _, ok := r.handlers[topic]; ok {
		logging.L().Warn("kafka: replacing handler for topic", "topic", topic)
	}
	r.handlers[topic] = h
	logging.L().Info("kafka: registered handler", "topic", topic)
}

// Lookup returns the handler for topic, or nil when none is registered.
func (r *Registry) Lookup(topic string) Handler {
	return r.handlers[topic]
}

// Topics returns every registered topic in sorted order. The consumer
// subscribes to exactly this set.
func (r *Registry) Topics() []string {
	out := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}
