package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "notifications:"

	// generationTTL outlives any cached entry it guards.
	generationTTL = 24 * time.Hour
)

var errStaleFill = errors.New("cache generation moved")

type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) database.NotificationCache {
	return &CacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func listKey(email string) string {
	return keyPrefix + email + ":list"
}

func unreadKey(email string) string {
	return keyPrefix + email + ":unread"
}

func generationKey(email string) string {
	return keyPrefix + email + ":gen"
}

func encodeList(notifications []*entity.Notification) ([]byte, error) {
	if notifications == nil {
		notifications = []*entity.Notification{}
	}
	data, err := json.Marshal(notifications)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notifications: %w", err)
	}
	return data, nil
}

func decodeList(data []byte) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	if err := json.Unmarshal(data, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode cached notifications: %w", err)
	}
	return notifications, nil
}

func decodeCount(value string) (int64, error) {
	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cached unread count %q: %w", value, err)
	}
	return count, nil
}

func (r *CacheRepository) Generation(ctx context.Context, email string) (int64, error) {
	generation, err := r.client.Get(ctx, generationKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return generation, nil
}

func (r *CacheRepository) GetList(ctx context.Context, email string) ([]*entity.Notification, bool, error) {
	data, err := r.client.Get(ctx, listKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached notifications: %w", err)
	}

	notifications, err := decodeList(data)
	if err != nil {
		return nil, false, err
	}
	return notifications, true, nil
}

func (r *CacheRepository) SetList(ctx context.Context, email string, generation int64, notifications []*entity.Notification) error {
	data, err := encodeList(notifications)
	if err != nil {
		return err
	}
	return r.fill(ctx, email, generation, listKey(email), data)
}

func (r *CacheRepository) GetUnreadCount(ctx context.Context, email string) (int64, bool, error) {
	value, err := r.client.Get(ctx, unreadKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cached unread count: %w", err)
	}

	count, err := decodeCount(value)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (r *CacheRepository) SetUnreadCount(ctx context.Context, email string, generation int64, count int64) error {
	return r.fill(ctx, email, generation, unreadKey(email), count)
}

// Invalidate bumps the generation and drops both entries in one transaction.
func (r *CacheRepository) Invalidate(ctx context.Context, email string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(email))
		pipe.Expire(ctx, generationKey(email), generationTTL)
		pipe.Del(ctx, listKey(email), unreadKey(email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate notification cache: %w", err)
	}
	return nil
}

// fill writes key only while the generation is still the one the caller read.
// A lost race is not an error: the entry is simply left empty.
func (r *CacheRepository) fill(ctx context.Context, email string, generation int64, key string, value interface{}) error {
	genKey := generationKey(email)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleFill
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, r.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fill notification cache: %w", err)
	}
	return nil
}
