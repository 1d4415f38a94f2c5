// Package handlers ships the reference message handlers wired into the
// template binary. Services keep the wiring and replace these with their
// own.
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"stencil/internal/logging"
	"stencil/kafka"
)

// UserEvent is the JSON payload carried on the user events topic.
type UserEvent struct {
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

const (
	maxEventAge  = 30 * 24 * time.Hour
	maxClockSkew = time.Minute
)

var validEventTypes = map[string]bool{
	"login":    true,
	"logout":   true,
	"signup":   true,
	"purchase": true,
}

// UserEventHandler demonstrates all three verdicts on a JSON topic:
// unparseable or expired events are rejected, future-dated events are
// skipped until the clock catches up, everything else is consumed.
type UserEventHandler struct {
	topic string
	now   func() time.Time
}

func NewUserEventHandler(topic string) *UserEventHandler {
	return &UserEventHandler{topic: topic, now: time.Now}
}

func (h *UserEventHandler) Topic() string { return h.topic }

func (h *UserEventHandler) Handle(ctx context.Context, msg *kafka.Message) (kafka.MessageAction, error) {
	log := logging.WithRecord(msg.Topic, msg.Partition, msg.Offset)

	var event UserEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("handlers: unparseable user event, rejecting", "err", err)
		return kafka.ActionReject, nil
	}

	age := h.now().Sub(time.Unix(event.Timestamp, 0))
	if age < -maxClockSkew {
		// Future-dated events are usually producer clock skew; retry
		// until the timestamp becomes plausible.
		log.Warn("handlers: user event is future-dated, skipping for now", "user_id", event.UserID)
		return kafka.ActionSkip, nil
	}
	if age > maxEventAge {
		log.Warn("handlers: user event expired, rejecting", "user_id", event.UserID, "age_days", int(age.Hours()/24))
		return kafka.ActionReject, nil
	}
	if !validEventTypes[event.EventType] {
		log.Warn("handlers: unknown user event type, rejecting", "event_type", event.EventType)
		return kafka.ActionReject, nil
	}

	log.Info("handlers: user event processed", "user_id", event.UserID, "event_type", event.EventType)
	return kafka.ActionConsume, nil
}
