package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationsCollection = "notifications"

type notificationDocument struct {
	ID             string     `bson:"_id"`
	RecipientEmail string     `bson:"recipientEmail"`
	Title          string     `bson:"title"`
	Message        string     `bson:"message"`
	Type           string     `bson:"type"`
	RelatedID      int64      `bson:"relatedId"`
	IdempotencyKey string     `bson:"idempotencyKey"`
	IsRead         bool       `bson:"isRead"`
	ReadAt         *time.Time `bson:"readAt,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt"`
}

type notificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository stores notifications in MongoDB. Call EnsureIndexes
// once at startup; the unique idempotencyKey index is what enforces dedup.
func NewNotificationRepository(db *mongo.Database) database.NotificationRepository {
	return &notificationRepository{collection: db.Collection(notificationsCollection)}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("notifications_idempotency_key"),
		},
		{
			Keys:    bson.D{{Key: "recipientEmail", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("notifications_recipient_created"),
		},
	}

	if _, err := db.Collection(notificationsCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *entity.Notification) (*entity.Notification, bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, toDocument(n))
	if err == nil {
		return n, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to create notification: %w", err)
	}

	var existing notificationDocument
	if err := r.collection.FindOne(ctx, bson.M{"idempotencyKey": n.IdempotencyKey}).Decode(&existing); err != nil {
		return nil, false, fmt.Errorf("failed to load existing notification: %w", err)
	}

	stored, err := existing.toEntity()
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, email string, limit int) ([]*entity.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"recipientEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]*entity.Notification, 0)
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		n, err := doc.toEntity()
		if err != nil {
			logrus.WithError(err).WithField("id", doc.ID).Warn("Skipping notification with malformed id")
			continue
		}
		notifications = append(notifications, n)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, email string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"recipientEmail": email, "isRead": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "recipientEmail": email},
		bson.M{"$set": bson.M{"isRead": true, "readAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, email string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipientEmail": email, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID, email string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String(), "recipientEmail": email})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return entity.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"isRead":    true,
		"createdAt": bson.M{"$lt": before},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return result.DeletedCount, nil
}

func toDocument(n *entity.Notification) notificationDocument {
	return notificationDocument{
		ID:             n.ID.String(),
		RecipientEmail: n.RecipientEmail,
		Title:          n.Title,
		Message:        n.Message,
		Type:           string(n.Type),
		RelatedID:      n.RelatedID,
		IdempotencyKey: n.IdempotencyKey,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}

func (d notificationDocument) toEntity() (*entity.Notification, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("invalid notification id %q", d.ID), err)
	}

	return &entity.Notification{
		ID:             id,
		RecipientEmail: d.RecipientEmail,
		Title:          d.Title,
		Message:        d.Message,
		Type:           entity.NotificationType(d.Type),
		RelatedID:      d.RelatedID,
		IdempotencyKey: d.IdempotencyKey,
		IsRead:         d.IsRead,
		ReadAt:         d.ReadAt,
		CreatedAt:      d.CreatedAt,
	}, nil
}
