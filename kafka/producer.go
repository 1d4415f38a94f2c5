package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"stencil/internal/logging"
	"stencil/internal/telemetry"
)

// DeliveryReceipt records where the broker placed a produced message.
type DeliveryReceipt struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Producer publishes messages and waits for the broker's acknowledgement,
// so every call returns either a receipt or the actual delivery error.
type Producer struct {
	client sarama.SyncProducer
}

func newProducer(client sarama.SyncProducer) *Producer {
	return &Producer{client: client}
}

// Send publishes one message. key may be nil for unkeyed records and value
// may be nil to produce a tombstone.
func (p *Producer) Send(topic string, key, value []byte) (*DeliveryReceipt, error) {
	if topic == "" {
		return nil, errors.New("kafka: message topic is required")
	}
	msg := &sarama.ProducerMessage{Topic: topic}
	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}
	if value != nil {
		msg.Value = sarama.ByteEncoder(value)
	}
	partition, offset, err := p.client.SendMessage(msg)
	if err != nil {
		telemetry.ProducerErrors.WithLabelValues(topic).Inc()
		return nil, fmt.Errorf("kafka: send to %s: %w", topic, err)
	}
	telemetry.MessagesProduced.WithLabelValues(topic).Inc()
	logging.L().Info("kafka: message sent", "topic", topic, "partition", partition, "offset", offset)
	return &DeliveryReceipt{Topic: topic, Partition: partition, Offset: offset}, nil
}

// SendJSON marshals value and publishes it via Send. Marshalling errors are
// returned before anything reaches the broker.
func (p *Producer) SendJSON(topic string, key []byte, value any) (*DeliveryReceipt, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("kafka: marshal message for %s: %w", topic, err)
	}
	return p.Send(topic, key, payload)
}

// Close flushes and releases the underlying client. Idempotent callers
// should drop the Producer afterwards.
func (p *Producer) Close() error {
	return p.client.Close()
}
