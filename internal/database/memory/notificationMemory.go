package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/google/uuid"
)

// NotificationRepository mirrors the notifications table with its unique idempotency key.
type NotificationRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*entity.Notification
	byKey map[string]uuid.UUID
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		byID:  make(map[uuid.UUID]*entity.Notification),
		byKey: make(map[string]uuid.UUID),
	}
}

func (r *NotificationRepository) CreateIfAbsent(ctx context.Context, n *entity.Notification) (*entity.Notification, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byKey[n.IdempotencyKey]; exists {
		return cloneNotification(r.byID[id]), false, nil
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	r.byID[n.ID] = cloneNotification(n)
	r.byKey[n.IdempotencyKey] = n.ID
	return cloneNotification(n), true, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, email string, limit int) ([]*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Notification, 0)
	for _, n := range r.byID {
		if n.RecipientEmail == email {
			result = append(result, cloneNotification(n))
		}
	}

	sortNewestFirst(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, email string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.byID {
		if n.RecipientEmail == email && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.RecipientEmail != email {
		return entity.ErrNotificationNotFound
	}
	if !n.IsRead {
		now := time.Now().UTC()
		n.IsRead = true
		n.ReadAt = &now
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var updated int64
	for _, n := range r.byID {
		if n.RecipientEmail == email && !n.IsRead {
			n.IsRead = true
			readAt := now
			n.ReadAt = &readAt
			updated++
		}
	}
	return updated, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.RecipientEmail != email {
		return entity.ErrNotificationNotFound
	}
	delete(r.byKey, n.IdempotencyKey)
	delete(r.byID, id)
	return nil
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, n := range r.byID {
		if n.IsRead && n.CreatedAt.Before(before) {
			delete(r.byKey, n.IdempotencyKey)
			delete(r.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// All returns every stored notification, newest first.
func (r *NotificationRepository) All() []*entity.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Notification, 0, len(r.byID))
	for _, n := range r.byID {
		result = append(result, cloneNotification(n))
	}
	sortNewestFirst(result)
	return result
}

// sortNewestFirst matches ORDER BY created_at DESC, id DESC. A uuid's string
// form sorts like its bytes.
func sortNewestFirst(notifications []*entity.Notification) {
	sort.Slice(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
}

func cloneNotification(n *entity.Notification) *entity.Notification {
	c := *n
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	return &c
}
