package kafka

import "context"

// Message is one Kafka record as handed to a handler. Value is nil for
// tombstone records; aside from an optional Transform step the engine
// delivers records exactly as the broker stored them.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// MessageAction is a handler's verdict on one message. The verdict drives
// the commit decision for the record's partition; it is not an error
// channel. Handlers return a non-nil error only for faults worth
// redelivering.
type MessageAction int

const (
	// ActionConsume marks the message processed; its offset is committed.
	ActionConsume MessageAction = iota
	// ActionSkip holds the offset so the same record is delivered again.
	ActionSkip
	// ActionReject discards the message permanently; its offset is
	// committed just like a consumed one.
	ActionReject
)

func (a MessageAction) String() string {
	switch a {
	case ActionConsume:
		return "consume"
	case ActionSkip:
		return "skip"
	case ActionReject:
		return "reject"
	default:
		return "invalid"
	}
}

// Handler processes the messages of a single topic.
//
// Records of one partition arrive strictly in order, one Handle call at a
// time. Partitions dispatch concurrently, so implementations shared across
// partitions must be safe for concurrent use.
type Handler interface {
	// Topic returns the exact topic this handler subscribes to.
	Topic() string
	// Handle processes one message. A non-nil error triggers redelivery
	// regardless of the returned action, bounded by the commit policy.
	Handle(ctx context.Context, msg *Message) (MessageAction, error)
}

// Transformer is optional; handlers that implement it get Transform applied
// to the record value before Handle sees it. A Transform error follows the
// handler-error path. The dispatch loop wires it up when present.
type Transformer interface {
	Transform(value []byte) ([]byte, error)
}
