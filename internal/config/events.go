package config

import (
	"log/slog"
	"strings"

	"github.com/brightpath/attempt-service/internal/events"
)

// EventConfig holds configuration for lifecycle event publishing
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka or nop
	KafkaBrokers string
	Topic        string
}

func loadEventConfig() EventConfig {
	return EventConfig{
		Enabled:      getEnv("EVENTS_ENABLED", "true") == "true",
		Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		Topic:        getEnv("ATTEMPT_EVENTS_TOPIC", "attempt-events"),
	}
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.Publisher, error) {
	if !c.Enabled || c.Publisher != "kafka" {
		logger.Info("Event publishing disabled")
		return events.NopPublisher{}, nil
	}

	logger.Info("Creating Kafka event publisher",
		"brokers", c.KafkaBrokers,
		"topic", c.Topic)

	return events.NewKafkaPublisher(events.KafkaPublisherConfig{
		Brokers: c.GetKafkaBrokers(),
		Topic:   c.Topic,
		Logger:  logger,
	})
}
