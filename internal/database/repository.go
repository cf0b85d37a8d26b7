package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/google/uuid"
)

// PostingRepository reads postings. All lookups return entity.ErrPostingNotFound when absent.
type PostingRepository interface {
	GetAdminJob(ctx context.Context, id int64) (*entity.Posting, error)
	GetJob(ctx context.Context, id int64) (*entity.Posting, error)
	GetHackathon(ctx context.Context, id int64) (*entity.Posting, error)
}

type SubmissionFilter struct {
	Statuses []entity.SubmissionStatus
}

type SubmissionRepository interface {
	// Create returns entity.ErrAlreadySubmitted when (kind, submitter, posting) already exists.
	Create(ctx context.Context, submission *entity.Submission) error
	GetByID(ctx context.Context, kind entity.SubmissionKind, id int64) (*entity.Submission, error)
	GetBySubmitterAndPosting(ctx context.Context, kind entity.SubmissionKind, submitterID, postingID int64) (*entity.Submission, error)
	ListBySubmitter(ctx context.Context, kind entity.SubmissionKind, submitterID int64) ([]*entity.Submission, error)
	ListByOwner(ctx context.Context, kind entity.SubmissionKind, ownerID int64, filter SubmissionFilter) ([]*entity.Submission, error)
	// UpdateStatus sets the status atomically and bumps StatusRevision only when the value changes.
	UpdateStatus(ctx context.Context, kind entity.SubmissionKind, id int64, status entity.SubmissionStatus) (*entity.Submission, error)
	Delete(ctx context.Context, kind entity.SubmissionKind, id int64) error
}

type NotificationRepository interface {
	// CreateIfAbsent inserts unless a record with the same idempotency key exists,
	// in which case the stored record is returned with created=false.
	CreateIfAbsent(ctx context.Context, notification *entity.Notification) (stored *entity.Notification, created bool, err error)
	ListByRecipient(ctx context.Context, email string, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, email string) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, email string) error
	MarkAllRead(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, email string) error
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// NotificationCache fronts the read side of NotificationRepository.
//
// Every Invalidate bumps a per-recipient generation. A fill carries the
// generation read before the repository query and is dropped when the two
// differ, so a read racing a write cannot cache what the write replaced.
type NotificationCache interface {
	Generation(ctx context.Context, email string) (int64, error)
	GetList(ctx context.Context, email string) ([]*entity.Notification, bool, error)
	SetList(ctx context.Context, email string, generation int64, notifications []*entity.Notification) error
	GetUnreadCount(ctx context.Context, email string) (int64, bool, error)
	SetUnreadCount(ctx context.Context, email string, generation int64, count int64) error
	Invalidate(ctx context.Context, email string) error
}
