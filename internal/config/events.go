package config

import (
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/question-bank-service/internal/events"
)

const (
	PublisherKafka  = "kafka"
	PublisherMemory = "memory"
)

// EventConfig selects where question bank events go. With publishing
// disabled events are kept in memory and dropped on exit.
type EventConfig struct {
	Enabled   bool
	Publisher string
	Brokers   []string
	Topic     string
}

func (c EventConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Publisher {
	case PublisherKafka:
		if len(c.Brokers) == 0 || c.Topic == "" {
			return fmt.Errorf("KAFKA_BROKERS and EVENTS_TOPIC are required for the %s publisher", PublisherKafka)
		}
	case PublisherMemory:
	default:
		return fmt.Errorf("EVENTS_PUBLISHER must be %q or %q, got %q", PublisherKafka, PublisherMemory, c.Publisher)
	}
	return nil
}

// NewPublisher builds the configured publisher.
func (c EventConfig) NewPublisher(logger *slog.Logger) (events.Publisher, error) {
	if !c.Enabled || c.Publisher == PublisherMemory {
		logger.Info("Events kept in memory", "enabled", c.Enabled)
		return events.NewMemoryPublisher(logger), nil
	}

	logger.Info("Publishing events to Kafka", "brokers", c.Brokers, "topic", c.Topic)
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: c.Brokers,
		Topic:   c.Topic,
		Logger:  logger,
	})
}
