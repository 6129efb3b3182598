// Package events publishes question bank changes for downstream consumers
// such as search indexing and the reporting service.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// KafkaPublisher writes events to one topic. Messages are keyed by scope so
// every change to a bank lands on the same partition, in order.
type KafkaPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topic     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

func partitionByScope(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get("scope"), nil
}

func NewKafkaPublisher(config KafkaConfig) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   config.Brokers,
		Marshaler: kafka.NewWithPartitioningMarshaler(partitionByScope),
	}, watermill.NewSlogLogger(config.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topic:     config.Topic,
	}, nil
}

// toMessage encodes the envelope as the payload and copies the routing
// fields into metadata.
func toMessage(ctx context.Context, event *Event) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("scope", event.Scope)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))
	return msg, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	msg, err := toMessage(ctx, event)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", event.Type, event.Scope, err)
	}

	p.logger.Debug("Published event", "event_id", event.ID, "event_type", event.Type, "scope", event.Scope)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// MemoryPublisher keeps events in process. It backs local runs with
// publishing disabled, and tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger

	// Err, when set, fails every Publish.
	Err error
}

func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	return &MemoryPublisher{logger: logger}
}

func (m *MemoryPublisher) Publish(_ context.Context, event *Event) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.events = append(m.events, *event)
	m.mu.Unlock()

	m.logger.Debug("Recorded event", "event_id", event.ID, "event_type", event.Type, "scope", event.Scope)
	return nil
}

func (m *MemoryPublisher) Close() error {
	return nil
}

// Published returns a copy of everything recorded so far.
func (m *MemoryPublisher) Published() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *MemoryPublisher) OfType(eventType EventType) []Event {
	var out []Event
	for _, e := range m.Published() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryPublisher) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
