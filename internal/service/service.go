package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/google/uuid"
)

// OwnershipService finds the posting behind a reference together with its owner.
type OwnershipService interface {
	// ResolveOwner returns entity.ErrPostingNotFound when nothing matches.
	// A posting without an owner is returned with Owner == nil.
	ResolveOwner(ctx context.Context, ref entity.PostingRef) (*entity.Posting, error)
}

// LifecycleService drives one submission kind (applications or registrations).
type LifecycleService interface {
	Kind() entity.SubmissionKind

	// Student side
	Create(ctx context.Context, actor entity.Actor, req *CreateSubmissionRequest) (*entity.Submission, error)
	Check(ctx context.Context, actor entity.Actor, postingID int64) (*entity.Submission, bool, error)
	Cancel(ctx context.Context, actor entity.Actor, postingID int64) error
	ListMine(ctx context.Context, actor entity.Actor) ([]*entity.Submission, error)

	// Owner side
	ListOwned(ctx context.Context, actor entity.Actor, req *ListOwnedRequest) ([]*entity.Submission, error)
	Transition(ctx context.Context, actor entity.Actor, submissionID int64, req *TransitionRequest) (*entity.Submission, error)
	Delete(ctx context.Context, actor entity.Actor, submissionID int64) error
}

type NotificationService interface {
	// Dispatch stores at most one notification per idempotency key. Email,
	// live push and cache invalidation happen only for a newly created record.
	Dispatch(ctx context.Context, req *NotificationRequest) (*entity.Notification, bool, error)

	List(ctx context.Context, email string, limit int) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, email string) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, email string) error
	MarkAllRead(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, email string) error

	// PurgeRead removes read notifications created before the cutoff.
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}

// EventPublisher receives lifecycle events after a mutation is persisted.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.LifecycleEvent) error
}

// Broadcaster pushes a serialized notification to live subscribers of email.
type Broadcaster interface {
	Broadcast(ctx context.Context, email string, payload []byte) error
}

type CreateSubmissionRequest struct {
	PostingID int64
	Details   json.RawMessage
}

type TransitionRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message" binding:"max=2000"`
}

type ListOwnedRequest struct {
	// OwnerID is only honoured for admins; zero means the caller.
	OwnerID  int64
	Statuses []string
}

// NotificationRequest describes one in-app notification and its optional email.
type NotificationRequest struct {
	RecipientEmail string
	RecipientName  string

	Title     string
	Message   string
	Type      entity.NotificationType
	RelatedID int64

	// StatusToken and Revision identify the triggering event for deduplication.
	StatusToken string
	Revision    int64

	EmailSubject string
	EmailHTML    string
}
