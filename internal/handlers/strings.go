package handlers

import (
	"bytes"
	"context"
	"unicode/utf8"

	"stencil/internal/logging"
	"stencil/kafka"
)

// StringHandler logs plain text payloads. It doubles as the template's
// Transform example: surrounding whitespace is stripped before Handle runs.
type StringHandler struct {
	topic string
}

func NewStringHandler(topic string) *StringHandler {
	return &StringHandler{topic: topic}
}

func (h *StringHandler) Topic() string { return h.topic }

// Transform trims the payload so Handle only ever sees the message body.
func (h *StringHandler) Transform(value []byte) ([]byte, error) {
	return bytes.TrimSpace(value), nil
}

func (h *StringHandler) Handle(ctx context.Context, msg *kafka.Message) (kafka.MessageAction, error) {
	log := logging.WithRecord(msg.Topic, msg.Partition, msg.Offset)

	if !utf8.Valid(msg.Value) {
		log.Warn("handlers: payload is not valid UTF-8, rejecting")
		return kafka.ActionReject, nil
	}
	if len(msg.Value) == 0 {
		log.Warn("handlers: blank message, rejecting")
		return kafka.ActionReject, nil
	}

	log.Info("handlers: received text message", "body", string(msg.Value))
	return kafka.ActionConsume, nil
}
