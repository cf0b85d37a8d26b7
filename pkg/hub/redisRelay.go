package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRelay spreads broadcasts over a redis pub/sub channel so that every
// instance delivers to its own local subscribers.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

type envelope struct {
	Email   string          `json:"email"`
	Payload json.RawMessage `json:"payload"`
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub}
}

func (r *RedisRelay) Broadcast(ctx context.Context, email string, payload []byte) error {
	data, err := json.Marshal(envelope{Email: email, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}
	return nil
}

// Run forwards relayed payloads to the local hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	logrus.WithField("channel", r.channel).Info("Notification relay started")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Notification relay stopped")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("Dropping malformed relay message")
				continue
			}
			_ = r.hub.Broadcast(ctx, env.Email, env.Payload)
		}
	}
}
