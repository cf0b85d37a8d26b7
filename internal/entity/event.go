package entity

import (
	"time"

	"github.com/google/uuid"
)

type LifecycleEventType string

const (
	EventSubmissionCreated       LifecycleEventType = "submission.created"
	EventSubmissionStatusChanged LifecycleEventType = "submission.status_changed"
	EventSubmissionDeleted       LifecycleEventType = "submission.deleted"
)

// LifecycleEvent is published after a submission mutation is persisted.
type LifecycleEvent struct {
	ID           uuid.UUID          `json:"id"`
	Type         LifecycleEventType `json:"type"`
	Kind         SubmissionKind     `json:"kind"`
	SubmissionID int64              `json:"submission_id"`
	PostingID    int64              `json:"posting_id"`
	SubmitterID  int64              `json:"submitter_id"`
	OwnerID      *int64             `json:"owner_id,omitempty"`
	Status       SubmissionStatus   `json:"status"`
	ActorID      int64              `json:"actor_id"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

func NewLifecycleEvent(t LifecycleEventType, s *Submission, actorID int64) LifecycleEvent {
	return LifecycleEvent{
		ID:           uuid.New(),
		Type:         t,
		Kind:         s.Kind,
		SubmissionID: s.ID,
		PostingID:    s.PostingID,
		SubmitterID:  s.SubmitterID,
		OwnerID:      s.OwnerID,
		Status:       s.Status,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
	}
}
