// Package broker publishes JSON messages to Kafka or RabbitMQ.
package broker

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Publisher interface {
	// Publish sends message as JSON. key groups related messages (partitioning, routing).
	Publish(ctx context.Context, key string, message interface{}) error
	Close() error
}

// LogPublisher stands in when no broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (LogPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	logrus.WithFields(logrus.Fields{
		"key":     key,
		"message": message,
	}).Debug("No broker configured, event logged only")
	return nil
}

func (LogPublisher) Close() error {
	return nil
}
