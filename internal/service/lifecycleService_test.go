package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, f *fixture, actor entity.Actor, postingID int64) *entity.Submission {
	t.Helper()
	details, _ := json.Marshal(entity.ApplicationDetails{CoverLetter: "Hello", ResumeURL: "https://cv.example.com/asha"})
	sub, err := f.applications.Create(context.Background(), actor, &CreateSubmissionRequest{PostingID: postingID, Details: details})
	require.NoError(t, err)
	return sub
}

func register(t *testing.T, f *fixture, actor entity.Actor) *entity.Submission {
	t.Helper()
	details, _ := json.Marshal(entity.RegistrationDetails{TeamName: "Gophers", TeamMembers: []string{"Asha", "Dev"}})
	sub, err := f.registrations.Create(context.Background(), actor, &CreateSubmissionRequest{PostingID: hackathonID, Details: details})
	require.NoError(t, err)
	return sub
}

func TestLifecycle_ApplyNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := apply(t, f, student, jobID)
	assert.Equal(t, entity.StatusPending, sub.Status)
	assert.Equal(t, int64(1), sub.StatusRevision)
	assert.Equal(t, "Backend Engineer", sub.PostingTitle)
	require.NotNil(t, sub.OwnerID)
	assert.Equal(t, instructor.ID, *sub.OwnerID)
	assert.Equal(t, "ravi@example.com", sub.OwnerEmail)

	inbox := f.notificationsFor(t, "ravi@example.com")
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Title, "Backend Engineer")
	assert.Equal(t, entity.NotificationJobApplication, inbox[0].Type)
	assert.Equal(t, sub.ID, inbox[0].RelatedID)

	assert.Eventually(t, func() bool {
		return f.mailer.SentTo("ravi@example.com") == 1
	}, time.Second, 10*time.Millisecond)

	_, err := f.applications.Create(ctx, student, &CreateSubmissionRequest{PostingID: jobID})
	assert.ErrorIs(t, err, entity.ErrAlreadySubmitted)
	assert.Len(t, f.notificationsFor(t, "ravi@example.com"), 1)
}

func TestLifecycle_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		actor   entity.Actor
		req     *CreateSubmissionRequest
		wantErr error
	}{
		{
			name:    "missing posting",
			actor:   student,
			req:     &CreateSubmissionRequest{PostingID: 999},
			wantErr: entity.ErrPostingNotFound,
		},
		{
			name:    "non positive posting id",
			actor:   student,
			req:     &CreateSubmissionRequest{PostingID: 0},
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "malformed details",
			actor:   student,
			req:     &CreateSubmissionRequest{PostingID: jobID, Details: json.RawMessage(`{"cover_letter":`)},
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "anonymous actor",
			actor:   entity.Actor{},
			req:     &CreateSubmissionRequest{PostingID: jobID},
			wantErr: entity.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.applications.Create(context.Background(), tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, f.submissions.Count())
}

func TestLifecycle_AdminJobIsResolvedFirst(t *testing.T) {
	f := newFixture(t)

	sub := apply(t, f, student, adminJobID)
	assert.Equal(t, "Platform Lead", sub.PostingTitle)
	assert.Equal(t, entity.PostingKindJob, sub.PostingKind)
}

func TestLifecycle_ConcurrentApplyPersistsOnce(t *testing.T) {
	f := newFixture(t)
	const n = 25

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.applications.Create(context.Background(), student, &CreateSubmissionRequest{PostingID: jobID})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, entity.ErrAlreadySubmitted):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 1, f.submissions.Count())
	assert.Len(t, f.notificationsFor(t, "ravi@example.com"), 1)
}

func TestLifecycle_TransitionNotifiesSubmitterOnly(t *testing.T) {
	f := newFixture(t)
	sub := apply(t, f, student, jobID)

	updated, err := f.applications.Transition(context.Background(), ownerActor, sub.ID, &TransitionRequest{
		Status:  "shortlisted",
		Message: "Great fit",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShortlisted, updated.Status)
	assert.Equal(t, int64(2), updated.StatusRevision)
	assert.Equal(t, student.Name, updated.SubmitterName)

	inbox := f.notificationsFor(t, student.Email)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "shortlisted")
	assert.Contains(t, inbox[0].Message, "Great fit")

	// the owner only ever got the "new application" notice
	assert.Len(t, f.notificationsFor(t, "ravi@example.com"), 1)

	assert.Eventually(t, func() bool {
		return f.mailer.SentTo(student.Email) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLifecycle_ConcurrentTransitionNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	sub := apply(t, f, student, jobID)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.applications.Transition(context.Background(), ownerActor, sub.ID, &TransitionRequest{Status: "interview"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	inbox := f.notificationsFor(t, student.Email)
	require.Len(t, inbox, 1)
	assert.Equal(t, IdempotencyKey(student.Email, entity.NotificationJobApplication, sub.ID, "interview", 2), inbox[0].IdempotencyKey)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.mailer.SentTo(student.Email))
}

func TestLifecycle_ReturningToAStatusNotifiesAgain(t *testing.T) {
	f := newFixture(t)
	sub := apply(t, f, student, jobID)
	ctx := context.Background()

	for _, status := range []string{"shortlisted", "reviewed", " Shortlisted "} {
		_, err := f.applications.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: status})
		require.NoError(t, err)
	}

	assert.Len(t, f.notificationsFor(t, student.Email), 3)
}

func TestLifecycle_AnyStatusReachableFromAnyOther(t *testing.T) {
	kinds := []entity.SubmissionKind{entity.KindApplication, entity.KindRegistration}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			svc := f.applications
			var sub *entity.Submission
			if kind == entity.KindRegistration {
				svc = f.registrations
				sub = register(t, f, student)
			} else {
				sub = apply(t, f, student, jobID)
			}

			for _, from := range kind.Statuses() {
				for _, to := range kind.Statuses() {
					_, err := svc.Transition(context.Background(), adminActor, sub.ID, &TransitionRequest{Status: string(from)})
					require.NoError(t, err)

					updated, err := svc.Transition(context.Background(), adminActor, sub.ID, &TransitionRequest{Status: string(to)})
					require.NoError(t, err, "%s -> %s", from, to)
					assert.Equal(t, to, updated.Status)
				}
			}
		})
	}
}

func TestLifecycle_TransitionErrors(t *testing.T) {
	f := newFixture(t)
	application := apply(t, f, student, jobID)
	registration := register(t, f, student)

	tests := []struct {
		name    string
		svc     LifecycleService
		actor   entity.Actor
		id      int64
		status  string
		wantErr error
	}{
		{"unknown submission", f.applications, ownerActor, 9999, "reviewed", entity.ErrSubmissionNotFound},
		{"status of the other kind", f.applications, ownerActor, application.ID, "approved", entity.ErrInvalidStatus},
		{"unknown status", f.registrations, ownerActor, registration.ID, "hired", entity.ErrInvalidStatus},
		{"empty status", f.applications, ownerActor, application.ID, "  ", entity.ErrInvalidStatus},
		{"instructor of another posting", f.applications, strangerActor, application.ID, "reviewed", entity.ErrForbidden},
		{"student", f.applications, student, application.ID, "accepted", entity.ErrForbidden},
		{"id of the other kind", f.registrations, ownerActor, application.ID, "approved", entity.ErrSubmissionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Transition(context.Background(), tt.actor, tt.id, &TransitionRequest{Status: tt.status})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := f.submissions.GetByID(context.Background(), entity.KindApplication, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Empty(t, f.notificationsFor(t, student.Email))
}

func TestLifecycle_PublicPostingSkipsNotification(t *testing.T) {
	f := newFixture(t)

	sub := apply(t, f, student, publicJobID)
	assert.Equal(t, entity.StatusPending, sub.Status)
	assert.Nil(t, sub.OwnerID)
	assert.False(t, sub.HasOwner())

	assert.Empty(t, f.notifications.All())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.mailer.Sent())
}

func TestLifecycle_ConcurrentRegistrationPersistsOnce(t *testing.T) {
	f := newFixture(t)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.registrations.Create(context.Background(), student, &CreateSubmissionRequest{PostingID: hackathonID})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, entity.ErrAlreadySubmitted)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	mine, err := f.registrations.ListMine(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestLifecycle_DeleteNotifiesSubmitter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := register(t, f, student)

	require.NoError(t, f.registrations.Delete(ctx, ownerActor, sub.ID))

	inbox := f.notificationsFor(t, student.Email)
	require.Len(t, inbox, 1)
	assert.Equal(t, entity.NotificationHackathonRegistration, inbox[0].Type)
	assert.Contains(t, inbox[0].Message, "removed")

	owned, err := f.registrations.ListOwned(ctx, ownerActor, &ListOwnedRequest{})
	require.NoError(t, err)
	assert.Empty(t, owned)

	mine, err := f.registrations.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, mine)

	assert.ErrorIs(t, f.registrations.Delete(ctx, ownerActor, sub.ID), entity.ErrSubmissionNotFound)
}

func TestLifecycle_DeleteSurvivesDispatchFailure(t *testing.T) {
	f := newFixture(t)
	sub := apply(t, f, student, jobID)

	failing := &failingNotifications{submissions: f.submissions, kind: entity.KindApplication}
	svc := NewLifecycleService(entity.KindApplication, NewOwnershipService(f.postings), f.submissions, failing, nil, time.Second)

	require.NoError(t, svc.Delete(context.Background(), adminActor, sub.ID))

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, []bool{true}, failing.existedAtCalls, "dispatch must run before the record is removed")
	assert.Zero(t, f.submissions.Count())
}

func TestLifecycle_CreateSurvivesDispatchFailure(t *testing.T) {
	f := newFixture(t)
	failing := &failingNotifications{submissions: f.submissions, kind: entity.KindApplication}
	svc := NewLifecycleService(entity.KindApplication, NewOwnershipService(f.postings), f.submissions, failing, nil, time.Second)

	sub, err := svc.Create(context.Background(), student, &CreateSubmissionRequest{PostingID: jobID})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, sub.Status)
	assert.Equal(t, 1, failing.calls)
}

func TestLifecycle_OwnerSnapshotIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := register(t, f, student)

	newOwner := otherOwner
	require.True(t, f.postings.SetOwner(entity.PostingKindHackathon, hackathonID, &newOwner))

	// later registrations pick up the new owner
	later := register(t, f, otherStudent)
	require.NotNil(t, later.OwnerID)
	assert.Equal(t, otherOwner.ID, *later.OwnerID)

	// the original owner keeps authority over the old registration
	_, err := f.registrations.Transition(ctx, strangerActor, sub.ID, &TransitionRequest{Status: "approved"})
	assert.ErrorIs(t, err, entity.ErrForbidden)
	_, err = f.registrations.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "approved"})
	require.NoError(t, err)

	// and is the one told when the student withdraws
	require.NoError(t, f.registrations.Cancel(ctx, student, hackathonID))

	ownerInbox := f.notificationsFor(t, "ravi@example.com")
	require.Len(t, ownerInbox, 2)
	assert.Contains(t, ownerInbox[0].Title+ownerInbox[1].Title, "withdrawn")

	for _, n := range f.notificationsFor(t, otherOwner.Email) {
		assert.NotEqual(t, sub.ID, n.RelatedID)
	}
}

func TestLifecycle_CheckAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, found, err := f.registrations.Check(ctx, student, hackathonID)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, f.registrations.Cancel(ctx, student, hackathonID), entity.ErrSubmissionNotFound)

	sub := register(t, f, student)
	got, found, err := f.registrations.Check(ctx, student, hackathonID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sub.ID, got.ID)

	require.NoError(t, f.registrations.Cancel(ctx, student, hackathonID))
	_, found, err = f.registrations.Check(ctx, student, hackathonID)
	require.NoError(t, err)
	assert.False(t, found)

	// a fresh registration after withdrawing is allowed
	register(t, f, student)
}

func TestLifecycle_ListOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := apply(t, f, student, jobID)
	apply(t, f, otherStudent, jobID)
	apply(t, f, student, publicJobID)

	_, err := f.applications.Transition(ctx, ownerActor, first.ID, &TransitionRequest{Status: "rejected"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   entity.Actor
		req     *ListOwnedRequest
		want    int
		wantErr error
	}{
		{name: "all owned", actor: ownerActor, req: &ListOwnedRequest{}, want: 2},
		{name: "filtered", actor: ownerActor, req: &ListOwnedRequest{Statuses: []string{"rejected"}}, want: 1},
		{name: "several statuses", actor: ownerActor, req: &ListOwnedRequest{Statuses: []string{"pending", "REJECTED"}}, want: 2},
		{name: "bad filter", actor: ownerActor, req: &ListOwnedRequest{Statuses: []string{"approved"}}, wantErr: entity.ErrInvalidStatus},
		{name: "nothing owned", actor: strangerActor, req: &ListOwnedRequest{}, want: 0},
		{name: "admin on behalf of owner", actor: adminActor, req: &ListOwnedRequest{OwnerID: instructor.ID}, want: 2},
		{name: "instructor on behalf of another", actor: strangerActor, req: &ListOwnedRequest{OwnerID: instructor.ID}, wantErr: entity.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.applications.ListOwned(ctx, tt.actor, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLifecycle_PublishesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := apply(t, f, student, jobID)
	_, err := f.applications.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "accepted"})
	require.NoError(t, err)
	require.NoError(t, f.applications.Delete(ctx, ownerActor, sub.ID))

	assert.Eventually(t, func() bool {
		return len(f.publisher.Types()) == 3
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []entity.LifecycleEventType{
		entity.EventSubmissionCreated,
		entity.EventSubmissionStatusChanged,
		entity.EventSubmissionDeleted,
	}, f.publisher.Types())
}

func TestLifecycle_NotificationMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := register(t, f, student)
	_, err := f.registrations.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "further_round"})
	require.NoError(t, err)

	inbox := f.notificationsFor(t, student.Email)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Registration status updated", inbox[0].Title)
	assert.Equal(t, "Your registration for Campus Hack 2026 is now further round.", inbox[0].Message)
	assert.False(t, strings.Contains(inbox[0].Message, "instructor"))
}

func TestLifecycle_SameStatusIsNotNotified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := apply(t, f, student, jobID)

	updated, err := f.applications.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status)
	assert.Equal(t, sub.StatusRevision, updated.StatusRevision)
	assert.Empty(t, f.notificationsFor(t, student.Email))

	_, err = f.applications.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "reviewed"})
	require.NoError(t, err)
	_, err = f.applications.Transition(ctx, ownerActor, sub.ID, &TransitionRequest{Status: "Reviewed"})
	require.NoError(t, err)
	assert.Len(t, f.notificationsFor(t, student.Email), 1)

	assert.Eventually(t, func() bool {
		return len(f.publisher.Types()) == 2
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.ElementsMatch(t, []entity.LifecycleEventType{
		entity.EventSubmissionCreated,
		entity.EventSubmissionStatusChanged,
	}, f.publisher.Types())
}

func TestLifecycle_LongPostingTitleStillNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const longJobID, longHackathonID int64 = 150, 250
	title := strings.Repeat("t", 255)
	owner := instructor
	f.postings.AddJob(longJobID, title, &owner)
	f.postings.AddHackathon(longHackathonID, title, &owner)

	app := apply(t, f, student, longJobID)
	reg, err := f.registrations.Create(ctx, student, &CreateSubmissionRequest{PostingID: longHackathonID})
	require.NoError(t, err)

	inbox := f.notificationsFor(t, "ravi@example.com")
	require.Len(t, inbox, 2)
	for _, n := range inbox {
		assert.Greater(t, len(n.Title), 255)
		assert.True(t, strings.HasSuffix(n.Title, title))
	}
	assert.ElementsMatch(t, []int64{app.ID, reg.ID}, []int64{inbox[0].RelatedID, inbox[1].RelatedID})

	assert.Eventually(t, func() bool {
		return f.mailer.SentTo("ravi@example.com") == 2
	}, time.Second, 10*time.Millisecond)
	for _, msg := range f.mailer.Sent() {
		assert.True(t, strings.HasSuffix(msg.Subject, title))
	}
}
