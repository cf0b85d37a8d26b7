package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/service"

	"github.com/sirupsen/logrus"
)

// NotificationRetentionWorker periodically deletes read notifications older
// than the retention period. Unread notifications are never touched.
type NotificationRetentionWorker struct {
	notifications service.NotificationService
	retention     time.Duration
	interval      time.Duration
	now           func() time.Time
}

func NewNotificationRetentionWorker(notifications service.NotificationService, retention, interval time.Duration) *NotificationRetentionWorker {
	return &NotificationRetentionWorker{
		notifications: notifications,
		retention:     retention,
		interval:      interval,
		now:           time.Now,
	}
}

func (w *NotificationRetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"retention": w.retention,
		"interval":  w.interval,
	}).Info("Notification retention worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Notification retention worker stopped")
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *NotificationRetentionWorker) purge(ctx context.Context) int64 {
	cutoff := w.now().Add(-w.retention)

	deleted, err := w.notifications.PurgeRead(ctx, cutoff)
	if err != nil {
		logrus.Errorf("Failed to purge read notifications: %v", err)
		return 0
	}

	if deleted == 0 {
		logrus.Debug("No read notifications past retention")
		return 0
	}
	logrus.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff,
	}).Info("Read notifications purged")
	return deleted
}
