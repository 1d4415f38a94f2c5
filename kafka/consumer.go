package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"stencil/internal/logging"
	"stencil/internal/telemetry"
)

// consumerLoop runs the poll → dispatch → commit cycle for every registered
// topic inside one consumer group membership. It is created by the Manager
// and driven through a ConsumerTask.
type consumerLoop struct {
	group         sarama.ConsumerGroup
	registry      *Registry
	topics        []string
	policy        CommitPolicy
	retryInterval time.Duration
}

func newConsumer(cfg Config, reg *Registry, group sarama.ConsumerGroup) *consumerLoop {
	return &consumerLoop{
		group:         group,
		registry:      reg,
		topics:        reg.Topics(),
		policy:        CommitPolicy{MaxRedeliveries: cfg.MaxRedeliveries},
		retryInterval: cfg.retryInterval(),
	}
}

// run blocks until ctx is canceled or the group is closed. Broker-level
// session failures are logged and retried; they never decide offsets.
func (c *consumerLoop) run(ctx context.Context) error {
	logging.L().Info("kafka: consumer loop starting", "topics", c.topics)
	go c.drainErrors(ctx)

	handler := &groupHandler{
		registry:      c.registry,
		policy:        c.policy,
		retryInterval: c.retryInterval,
	}
	for {
		err := c.group.Consume(ctx, c.topics, handler)
		if ctx.Err() != nil || errors.Is(err, sarama.ErrClosedConsumerGroup) {
			logging.L().Info("kafka: consumer loop stopped")
			return nil
		}
		if err != nil {
			logging.L().Warn("kafka: consume session failed, retrying", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryInterval):
			}
			continue
		}
		// nil error with a live context is a rebalance; rejoin.
	}
}

func (c *consumerLoop) drainErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			logging.L().Warn("kafka: broker error", "err", err)
		}
	}
}

type groupHandler struct {
	registry      *Registry
	policy        CommitPolicy
	retryInterval time.Duration
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	logging.L().Info("kafka: partitions assigned", "claims", sess.Claims())
	return nil
}

// Cleanup flushes marked offsets before the session's partitions move away
// in a rebalance or shutdown.
func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	sess.Commit()
	return nil
}

// ConsumeClaim is the per-partition dispatch lane. sarama runs one call per
// assigned partition, which keeps each partition strictly ordered with at
// most one handler invocation in flight. Cancellation is observed between
// records, never mid-dispatch.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.processMessage(sess, msg)
		}
	}
}

// processMessage dispatches one record and applies the commit policy,
// redelivering in place until the policy advances the offset or the session
// ends. Leaving without marking keeps the record owed to the next session.
func (h *groupHandler) processMessage(sess sarama.ConsumerGroupSession, raw *sarama.ConsumerMessage) {
	log := logging.WithRecord(raw.Topic, raw.Partition, raw.Offset)

	handler := h.registry.Lookup(raw.Topic)
	if handler == nil {
		// Unroutable records are committed so they can never block the
		// partition; at-least-once delivery does not extend to them.
		log.Warn("kafka: no handler registered for topic, discarding message")
		telemetry.MessagesConsumed.WithLabelValues(raw.Topic, "unrouted").Inc()
		sess.MarkMessage(raw, "")
		return
	}

	msg := &Message{
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    raw.Offset,
		Key:       raw.Key,
		Value:     raw.Value,
	}

	for attempt := 1; ; attempt++ {
		action, err := dispatch(sess.Context(), handler, msg)

		if h.policy.Decide(action, err, attempt) == AdvanceOffset {
			switch {
			case err != nil:
				log.Error("kafka: handler kept failing, discarding message", "err", err, "deliveries", attempt)
				telemetry.MessagesConsumed.WithLabelValues(raw.Topic, "discarded").Inc()
			case action == ActionReject:
				log.Info("kafka: message rejected by handler")
				telemetry.MessagesConsumed.WithLabelValues(raw.Topic, action.String()).Inc()
			case action == ActionConsume:
				log.Info("kafka: message consumed")
				telemetry.MessagesConsumed.WithLabelValues(raw.Topic, action.String()).Inc()
			default:
				log.Warn("kafka: handler returned unknown action, committing", "action", int(action))
				telemetry.MessagesConsumed.WithLabelValues(raw.Topic, action.String()).Inc()
			}
			sess.MarkMessage(raw, "")
			return
		}

		if err != nil {
			log.Warn("kafka: handler failed, message will be redelivered", "err", err, "attempt", attempt)
		} else {
			log.Info("kafka: message skipped by handler, holding offset")
		}
		telemetry.Redeliveries.WithLabelValues(raw.Topic).Inc()
		if !h.pause(sess.Context()) {
			return
		}
	}
}

// dispatch applies the handler's optional Transform and invokes Handle. The
// claim's record stays untouched; a transformed value rides on a copy.
func dispatch(ctx context.Context, handler Handler, msg *Message) (MessageAction, error) {
	if t, ok := handler.(Transformer); ok {
		value, err := t.Transform(msg.Value)
		if err != nil {
			return ActionSkip, fmt.Errorf("transform: %w", err)
		}
		clone := *msg
		clone.Value = value
		msg = &clone
	}
	return handler.Handle(ctx, msg)
}

// pause waits the retry interval before a redelivery. Returns false when
// the session ended first.
func (h *groupHandler) pause(ctx context.Context) bool {
	timer := time.NewTimer(h.retryInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
