package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer hashes message keys onto partitions so that all events of
// one submission stay in order.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logrus.WithFields(logrus.Fields{
		"brokers": brokers,
		"topic":   topic,
	}).Info("Kafka producer configured")

	return &KafkaProducer{writer: writer}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, message interface{}) error {
	msg, err := newKafkaMessage(key, message, time.Now())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func newKafkaMessage(key string, message interface{}, now time.Time) (kafka.Message, error) {
	value, err := json.Marshal(message)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
	}, nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
