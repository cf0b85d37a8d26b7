package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"
)

type submissionKey struct {
	kind        entity.SubmissionKind
	submitterID int64
	postingID   int64
}

// SubmissionRepository mirrors the submissions table, including its unique
// (kind, submitter_id, posting_id) constraint.
type SubmissionRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*entity.Submission
	unique map[submissionKey]int64
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		byID:   make(map[int64]*entity.Submission),
		unique: make(map[submissionKey]int64),
	}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *entity.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := submissionKey{kind: s.Kind, submitterID: s.SubmitterID, postingID: s.PostingID}
	if _, exists := r.unique[key]; exists {
		return entity.ErrAlreadySubmitted
	}

	now := time.Now().UTC()
	r.nextID++
	s.ID = r.nextID
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = now
	}
	if s.StatusRevision == 0 {
		s.StatusRevision = 1
	}
	s.CreatedAt = now
	s.UpdatedAt = now

	r.byID[s.ID] = cloneSubmission(s)
	r.unique[key] = s.ID
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, kind entity.SubmissionKind, id int64) (*entity.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok || s.Kind != kind {
		return nil, entity.ErrSubmissionNotFound
	}
	return cloneSubmission(s), nil
}

func (r *SubmissionRepository) GetBySubmitterAndPosting(ctx context.Context, kind entity.SubmissionKind, submitterID, postingID int64) (*entity.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.unique[submissionKey{kind: kind, submitterID: submitterID, postingID: postingID}]
	if !ok {
		return nil, entity.ErrSubmissionNotFound
	}
	return cloneSubmission(r.byID[id]), nil
}

func (r *SubmissionRepository) ListBySubmitter(ctx context.Context, kind entity.SubmissionKind, submitterID int64) ([]*entity.Submission, error) {
	return r.filter(func(s *entity.Submission) bool {
		return s.Kind == kind && s.SubmitterID == submitterID
	}), nil
}

func (r *SubmissionRepository) ListByOwner(ctx context.Context, kind entity.SubmissionKind, ownerID int64, filter database.SubmissionFilter) ([]*entity.Submission, error) {
	return r.filter(func(s *entity.Submission) bool {
		if s.Kind != kind || !s.OwnedBy(ownerID) {
			return false
		}
		if len(filter.Statuses) == 0 {
			return true
		}
		for _, status := range filter.Statuses {
			if s.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, kind entity.SubmissionKind, id int64, status entity.SubmissionStatus) (*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Kind != kind {
		return nil, entity.ErrSubmissionNotFound
	}

	if s.Status != status {
		s.Status = status
		s.StatusRevision++
		s.UpdatedAt = time.Now().UTC()
	}
	return cloneSubmission(s), nil
}

func (r *SubmissionRepository) Delete(ctx context.Context, kind entity.SubmissionKind, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Kind != kind {
		return entity.ErrSubmissionNotFound
	}

	delete(r.unique, submissionKey{kind: s.Kind, submitterID: s.SubmitterID, postingID: s.PostingID})
	delete(r.byID, id)
	return nil
}

// Count reports how many submissions are stored.
func (r *SubmissionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// filter returns matches newest first, like the SQL listings.
func (r *SubmissionRepository) filter(match func(*entity.Submission) bool) []*entity.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Submission, 0)
	for _, s := range r.byID {
		if match(s) {
			result = append(result, cloneSubmission(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func cloneSubmission(s *entity.Submission) *entity.Submission {
	c := *s
	if s.OwnerID != nil {
		id := *s.OwnerID
		c.OwnerID = &id
	}
	if s.Details != nil {
		c.Details = append([]byte(nil), s.Details...)
	}
	return &c
}
