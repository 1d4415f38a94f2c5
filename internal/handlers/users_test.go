package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stencil/kafka"
)

func userEventPayload(t *testing.T, userID, eventType string, ts time.Time) []byte {
	t.Helper()
	raw, err := json.Marshal(UserEvent{UserID: userID, EventType: eventType, Timestamp: ts.Unix()})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return raw
}

func TestUserEventHandlerVerdicts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := NewUserEventHandler("user-events")
	h.now = func() time.Time { return now }

	if h.Topic() != "user-events" {
		t.Fatalf("Topic() = %q, want user-events", h.Topic())
	}

	cases := []struct {
		name    string
		payload []byte
		want    kafka.MessageAction
	}{
		{"valid login", userEventPayload(t, "u1", "login", now.Add(-time.Hour)), kafka.ActionConsume},
		{"valid purchase", userEventPayload(t, "u2", "purchase", now), kafka.ActionConsume},
		{"malformed json", []byte("{not json"), kafka.ActionReject},
		{"unknown event type", userEventPayload(t, "u3", "password_reset", now), kafka.ActionReject},
		{"expired event", userEventPayload(t, "u4", "login", now.Add(-31*24*time.Hour)), kafka.ActionReject},
		{"future-dated event", userEventPayload(t, "u5", "login", now.Add(time.Hour)), kafka.ActionSkip},
		{"slight clock skew is tolerated", userEventPayload(t, "u6", "login", now.Add(30*time.Second)), kafka.ActionConsume},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, err := h.Handle(context.Background(), &kafka.Message{Topic: "user-events", Value: tc.payload})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if action != tc.want {
				t.Fatalf("Handle = %v, want %v", action, tc.want)
			}
		})
	}
}
