package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplication(submitterID, postingID int64) *entity.Submission {
	return &entity.Submission{
		Kind:           entity.KindApplication,
		PostingID:      postingID,
		PostingKind:    entity.PostingKindJob,
		SubmitterID:    submitterID,
		SubmitterEmail: "student@example.com",
		Status:         entity.StatusPending,
	}
}

func TestSubmissionRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	first := newApplication(1, 10)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, int64(1), first.StatusRevision)

	err := repo.Create(ctx, newApplication(1, 10))
	assert.ErrorIs(t, err, entity.ErrAlreadySubmitted)

	// same pair under the other kind is a different record
	registration := newApplication(1, 10)
	registration.Kind = entity.KindRegistration
	registration.PostingKind = entity.PostingKindHackathon
	require.NoError(t, repo.Create(ctx, registration))

	assert.Equal(t, 2, repo.Count())
}

func TestSubmissionRepository_ConcurrentCreate(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newApplication(7, 42))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, entity.ErrAlreadySubmitted) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, 1, repo.Count())
}

func TestSubmissionRepository_UpdateStatusRevision(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	s := newApplication(1, 10)
	require.NoError(t, repo.Create(ctx, s))

	tests := []struct {
		name         string
		status       entity.SubmissionStatus
		wantRevision int64
	}{
		{name: "change bumps revision", status: entity.StatusShortlisted, wantRevision: 2},
		{name: "repeat keeps revision", status: entity.StatusShortlisted, wantRevision: 2},
		{name: "move back", status: entity.StatusPending, wantRevision: 3},
		{name: "return to earlier status", status: entity.StatusShortlisted, wantRevision: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := repo.UpdateStatus(ctx, entity.KindApplication, s.ID, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.status, updated.Status)
			assert.Equal(t, tt.wantRevision, updated.StatusRevision)
		})
	}
}

func TestSubmissionRepository_KindScoping(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	s := newApplication(1, 10)
	require.NoError(t, repo.Create(ctx, s))

	_, err := repo.GetByID(ctx, entity.KindRegistration, s.ID)
	assert.ErrorIs(t, err, entity.ErrSubmissionNotFound)

	_, err = repo.UpdateStatus(ctx, entity.KindRegistration, s.ID, entity.StatusApproved)
	assert.ErrorIs(t, err, entity.ErrSubmissionNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, entity.KindRegistration, s.ID), entity.ErrSubmissionNotFound)
	require.NoError(t, repo.Delete(ctx, entity.KindApplication, s.ID))
	assert.ErrorIs(t, repo.Delete(ctx, entity.KindApplication, s.ID), entity.ErrSubmissionNotFound)

	// the pair is free again once the record is gone
	require.NoError(t, repo.Create(ctx, newApplication(1, 10)))
}

func TestSubmissionRepository_ListByOwner(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	ownerID := int64(99)
	for i := int64(1); i <= 3; i++ {
		s := newApplication(i, 10)
		s.OwnerID = &ownerID
		s.OwnerEmail = "owner@example.com"
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Create(ctx, newApplication(4, 11)))

	_, err := repo.UpdateStatus(ctx, entity.KindApplication, 2, entity.StatusInterview)
	require.NoError(t, err)

	all, err := repo.ListByOwner(ctx, entity.KindApplication, ownerID, database.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	filtered, err := repo.ListByOwner(ctx, entity.KindApplication, ownerID, database.SubmissionFilter{
		Statuses: []entity.SubmissionStatus{entity.StatusInterview},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].ID)
}
