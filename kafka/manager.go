package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"stencil/internal/logging"
)

// ErrConsumerStarted is returned by operations that are only valid before
// StartConsumer has been called.
var ErrConsumerStarted = errors.New("kafka: consumer already started")

// GroupFactory opens a consumer group client. Swapped out in tests.
type GroupFactory func(brokers []string, groupID string, cfg *sarama.Config) (sarama.ConsumerGroup, error)

// ProducerFactory opens a sync producer client. Swapped out in tests.
type ProducerFactory func(brokers []string, cfg *sarama.Config) (sarama.SyncProducer, error)

type ManagerOption func(*Manager)

func WithGroupFactory(f GroupFactory) ManagerOption {
	return func(m *Manager) { m.newGroup = f }
}

func WithProducerFactory(f ProducerFactory) ManagerOption {
	return func(m *Manager) { m.newProducer = f }
}

// Manager owns the service's Kafka footprint: handler registration, the
// consumer loop lifecycle and a lazily opened producer. With Enabled=false
// every method degrades to a no-op so the service runs without any broker.
type Manager struct {
	cfg      Config
	registry *Registry

	newGroup    GroupFactory
	newProducer ProducerFactory

	mu       sync.Mutex
	started  bool
	producer *Producer
}

// NewManager validates cfg (after filling defaults) and returns an inert
// manager when Kafka is disabled.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	applyDefaults(&cfg)
	m := &Manager{
		cfg:         cfg,
		registry:    NewRegistry(),
		newGroup:    sarama.NewConsumerGroup,
		newProducer: sarama.NewSyncProducer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !cfg.Enabled {
		logging.L().Info("kafka: disabled, manager is inert")
		return m, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.L().Info("kafka: manager initialized", "brokers", cfg.Brokers, "group_id", cfg.GroupID)
	return m, nil
}

// Enabled reports whether the manager talks to a broker at all.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// RegisterHandler binds h to its topic. Only valid before StartConsumer;
// when Kafka is disabled the registration is dropped with a warning.
func (m *Manager) RegisterHandler(h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.Enabled {
		logging.L().Warn("kafka: disabled, handler not registered", "topic", h.Topic())
		return nil
	}
	if m.started {
		return ErrConsumerStarted
	}
	m.registry.Register(h)
	return nil
}

// StartConsumer joins the consumer group and starts the dispatch loop in
// its own goroutine. It returns a nil task when Kafka is disabled or no
// handlers are registered; calling it twice is an error. Canceling ctx
// stops the loop.
func (m *Manager) StartConsumer(ctx context.Context) (*ConsumerTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.Enabled {
		logging.L().Info("kafka: disabled, consumer not started")
		return nil, nil
	}
	if m.started {
		return nil, ErrConsumerStarted
	}
	topics := m.registry.Topics()
	if len(topics) == 0 {
		logging.L().Warn("kafka: no handlers registered, consumer not started")
		return nil, nil
	}
	sc, err := m.cfg.consumerConfig()
	if err != nil {
		return nil, err
	}
	group, err := m.newGroup(m.cfg.Brokers, m.cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka: open consumer group: %w", err)
	}
	m.started = true

	loop := newConsumer(m.cfg, m.registry, group)
	runCtx, cancel := context.WithCancel(ctx)
	task := &ConsumerTask{cancel: cancel, done: make(chan error, 1)}
	go func() {
		defer cancel()
		err := loop.run(runCtx)
		if cerr := group.Close(); cerr != nil && err == nil {
			err = cerr
		}
		task.done <- err
		close(task.done)
	}()
	return task, nil
}

// Producer returns the lazily opened producer, or nil when the manager is
// disabled. The first call dials the cluster; later calls reuse the client.
func (m *Manager) Producer() (*Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.Enabled {
		return nil, nil
	}
	if m.producer != nil {
		return m.producer, nil
	}
	sc, err := m.cfg.saramaConfig()
	if err != nil {
		return nil, err
	}
	client, err := m.newProducer(m.cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka: open producer: %w", err)
	}
	m.producer = newProducer(client)
	return m.producer, nil
}

// Close releases the producer client if one was opened. The consumer loop
// is owned by its ConsumerTask and stops with it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.producer == nil {
		return nil
	}
	err := m.producer.Close()
	m.producer = nil
	return err
}

// ConsumerTask is the handle for a running consumer loop.
type ConsumerTask struct {
	cancel context.CancelFunc
	done   chan error
}

// Done reports loop termination. It yields the exit error (nil on clean
// shutdown) and is closed afterwards.
func (t *ConsumerTask) Done() <-chan error {
	return t.done
}

// Stop cancels the loop and waits for it to finish the in-flight record and
// flush offsets.
func (t *ConsumerTask) Stop() error {
	t.cancel()
	return <-t.done
}
