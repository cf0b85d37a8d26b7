package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/google/uuid"
)

const notificationColumns = `
	id, recipient_email, title, message, type, related_id,
	idempotency_key, is_read, read_at, created_at
`

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) database.NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateIfAbsent leans on notifications_idempotency_key_key: the loser of a
// concurrent insert gets no row back and reads the winner's record instead.
func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *entity.Notification) (*entity.Notification, bool, error) {
	query := `
		INSERT INTO notifications (
			id, recipient_email, title, message, type, related_id,
			idempotency_key, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING ` + notificationColumns

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	stored, err := scanNotification(r.db.QueryRowContext(ctx, query,
		n.ID,
		n.RecipientEmail,
		n.Title,
		n.Message,
		n.Type,
		n.RelatedID,
		n.IdempotencyKey,
		n.CreatedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create notification: %w", err)
	}

	existing, err := scanNotification(r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE idempotency_key = $1`,
		n.IdempotencyKey,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing notification: %w", err)
	}
	return existing, false, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, email string, limit int) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*entity.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, email string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_email = $1 AND NOT is_read`
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, now())
		WHERE id = $1 AND recipient_email = $2
	`
	return r.execOne(ctx, "mark notification as read", query, id, email)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, email string) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE recipient_email = $1 AND NOT is_read
	`
	result, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID, email string) error {
	query := `DELETE FROM notifications WHERE id = $1 AND recipient_email = $2`
	return r.execOne(ctx, "delete notification", query, id, email)
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE is_read AND created_at < $1`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var (
		n      entity.Notification
		readAt sql.NullTime
	)

	err := row.Scan(
		&n.ID,
		&n.RecipientEmail,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.RelatedID,
		&n.IdempotencyKey,
		&n.IsRead,
		&readAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}
