package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/mailer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxPageSize bounds every notification listing.
const MaxPageSize = 50

type notificationService struct {
	repo         database.NotificationRepository
	cache        database.NotificationCache
	mailer       mailer.Mailer
	broadcaster  Broadcaster
	emailTimeout time.Duration
	pageSize     int
}

// NewNotificationService wires the dispatcher. cache and broadcaster may be nil.
func NewNotificationService(
	repo database.NotificationRepository,
	cache database.NotificationCache,
	m mailer.Mailer,
	broadcaster Broadcaster,
	emailTimeout time.Duration,
	pageSize int,
) NotificationService {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if emailTimeout <= 0 {
		emailTimeout = 5 * time.Second
	}
	if m == nil {
		m = mailer.NewLogMailer()
	}
	return &notificationService{
		repo:         repo,
		cache:        cache,
		mailer:       m,
		broadcaster:  broadcaster,
		emailTimeout: emailTimeout,
		pageSize:     pageSize,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, req *NotificationRequest) (*entity.Notification, bool, error) {
	email := normalizeEmail(req.RecipientEmail)
	if email == "" {
		return nil, false, fmt.Errorf("%w: notification recipient is empty", entity.ErrInvalidInput)
	}

	notification := &entity.Notification{
		RecipientEmail: email,
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		RelatedID:      req.RelatedID,
		IdempotencyKey: IdempotencyKey(email, req.Type, req.RelatedID, req.StatusToken, req.Revision),
	}

	stored, created, err := s.repo.CreateIfAbsent(ctx, notification)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store notification: %w", err)
	}

	fields := logrus.Fields{
		"notification_id": stored.ID,
		"recipient":       email,
		"related_id":      req.RelatedID,
		"status":          req.StatusToken,
	}
	if !created {
		logrus.WithFields(fields).Debug("Notification already dispatched")
		return stored, false, nil
	}
	logrus.WithFields(fields).Info("Notification created")

	s.invalidate(ctx, email)
	s.broadcast(ctx, stored)

	if req.EmailHTML != "" {
		s.sendEmail(mailer.Message{
			To:       email,
			ToName:   req.RecipientName,
			Subject:  req.EmailSubject,
			HTMLBody: req.EmailHTML,
		})
	}

	return stored, true, nil
}

// sendEmail is fire and forget: the send is bounded by emailTimeout and a
// failure only reaches the log.
func (s *notificationService) sendEmail(msg mailer.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.emailTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"recipient": msg.To,
				"subject":   msg.Subject,
			}).Error("Failed to send email")
			return
		}
		logrus.WithField("recipient", msg.To).Debug("Email sent")
	}()
}

func (s *notificationService) broadcast(ctx context.Context, n *entity.Notification) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode notification for live push")
		return
	}
	if err := s.broadcaster.Broadcast(ctx, n.RecipientEmail, payload); err != nil {
		logrus.WithError(err).WithField("recipient", n.RecipientEmail).Warn("Failed to push notification")
	}
}

func (s *notificationService) invalidate(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, email); err != nil {
		logrus.WithError(err).WithField("recipient", email).Warn("Failed to invalidate notification cache")
	}
}

func (s *notificationService) List(ctx context.Context, email string, limit int) ([]*entity.Notification, error) {
	email = normalizeEmail(email)
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}

	// Only full pages are cached.
	var (
		generation int64
		fill       bool
	)
	if s.cache != nil && limit == s.pageSize {
		cached, ok, err := s.cache.GetList(ctx, email)
		if err != nil {
			logrus.WithError(err).Warn("Notification cache read failed")
		} else if ok {
			return cached, nil
		}
		generation, fill = s.cacheGeneration(ctx, email)
	}

	notifications, err := s.repo.ListByRecipient(ctx, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	if fill {
		if err := s.cache.SetList(ctx, email, generation, notifications); err != nil {
			logrus.WithError(err).Warn("Notification cache write failed")
		}
	}
	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, email string) (int64, error) {
	email = normalizeEmail(email)

	var (
		generation int64
		fill       bool
	)
	if s.cache != nil {
		count, ok, err := s.cache.GetUnreadCount(ctx, email)
		if err != nil {
			logrus.WithError(err).Warn("Notification cache read failed")
		} else if ok {
			return count, nil
		}
		generation, fill = s.cacheGeneration(ctx, email)
	}

	count, err := s.repo.CountUnread(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if fill {
		if err := s.cache.SetUnreadCount(ctx, email, generation, count); err != nil {
			logrus.WithError(err).Warn("Notification cache write failed")
		}
	}
	return count, nil
}

// cacheGeneration must be read before the repository query it guards.
func (s *notificationService) cacheGeneration(ctx context.Context, email string) (int64, bool) {
	generation, err := s.cache.Generation(ctx, email)
	if err != nil {
		logrus.WithError(err).Warn("Notification cache read failed")
		return 0, false
	}
	return generation, true
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	email = normalizeEmail(email)
	if err := s.repo.MarkRead(ctx, id, email); err != nil {
		return err
	}
	s.invalidate(ctx, email)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, email string) (int64, error) {
	email = normalizeEmail(email)
	updated, err := s.repo.MarkAllRead(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.invalidate(ctx, email)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, id uuid.UUID, email string) error {
	email = normalizeEmail(email)
	if err := s.repo.Delete(ctx, id, email); err != nil {
		return err
	}
	s.invalidate(ctx, email)
	return nil
}

// PurgeRead leaves caches to expire on their own TTL.
func (s *notificationService) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.repo.DeleteReadBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge read notifications: %w", err)
	}
	return deleted, nil
}
