package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database/memory"
	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/mailer"

	"github.com/sirupsen/logrus"
)

const (
	jobID       int64 = 101
	publicJobID int64 = 102
	adminJobID  int64 = 103
	hackathonID int64 = 201
)

var (
	instructor = entity.Owner{ID: 10, Email: "Ravi@Example.com", Name: "Ravi Kumar"}
	otherOwner = entity.Owner{ID: 11, Email: "meera@example.com", Name: "Meera Shah"}

	student       = entity.Actor{ID: 1, Email: "asha@example.com", Name: "Asha Verma", Role: entity.RoleStudent}
	otherStudent  = entity.Actor{ID: 2, Email: "dev@example.com", Name: "Dev Patel", Role: entity.RoleStudent}
	ownerActor    = entity.Actor{ID: instructor.ID, Email: "ravi@example.com", Name: instructor.Name, Role: entity.RoleInstructor}
	strangerActor = entity.Actor{ID: otherOwner.ID, Email: otherOwner.Email, Name: otherOwner.Name, Role: entity.RoleInstructor}
	adminActor    = entity.Actor{ID: 99, Email: "admin@example.com", Name: "Admin", Role: entity.RoleAdmin}
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func (m *recordingMailer) SentTo(email string) int {
	count := 0
	for _, msg := range m.Sent() {
		if msg.To == email {
			count++
		}
	}
	return count
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.LifecycleEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event entity.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Types() []entity.LifecycleEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]entity.LifecycleEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, email string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.payloads == nil {
		b.payloads = make(map[string][][]byte)
	}
	b.payloads[email] = append(b.payloads[email], payload)
	return nil
}

func (b *recordingBroadcaster) Count(email string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads[email])
}

// failingNotifications fails every dispatch and records whether the related
// submission was still stored at that moment.
type failingNotifications struct {
	NotificationService
	submissions *memory.SubmissionRepository
	kind        entity.SubmissionKind

	mu             sync.Mutex
	calls          int
	existedAtCalls []bool
}

func (f *failingNotifications) Dispatch(ctx context.Context, req *NotificationRequest) (*entity.Notification, bool, error) {
	_, err := f.submissions.GetByID(ctx, f.kind, req.RelatedID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.existedAtCalls = append(f.existedAtCalls, err == nil)
	return nil, false, errors.New("notification store unavailable")
}

type fixture struct {
	postings      *memory.PostingRepository
	submissions   *memory.SubmissionRepository
	notifications *memory.NotificationRepository
	mailer        *recordingMailer
	publisher     *recordingPublisher
	broadcaster   *recordingBroadcaster

	dispatcher    NotificationService
	applications  LifecycleService
	registrations LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logrus.SetLevel(logrus.PanicLevel)

	f := &fixture{
		postings:      memory.NewPostingRepository(),
		submissions:   memory.NewSubmissionRepository(),
		notifications: memory.NewNotificationRepository(),
		mailer:        &recordingMailer{},
		publisher:     &recordingPublisher{},
		broadcaster:   &recordingBroadcaster{},
	}

	owner := instructor
	f.postings.AddJob(jobID, "Backend Engineer", &owner)
	f.postings.AddJob(publicJobID, "Open Internship", nil)
	f.postings.AddAdminJob(adminJobID, "Platform Lead", &owner)
	f.postings.AddHackathon(hackathonID, "Campus Hack 2026", &owner)

	f.dispatcher = NewNotificationService(f.notifications, nil, f.mailer, f.broadcaster, time.Second, MaxPageSize)
	ownership := NewOwnershipService(f.postings)
	f.applications = NewLifecycleService(entity.KindApplication, ownership, f.submissions, f.dispatcher, f.publisher, time.Second)
	f.registrations = NewLifecycleService(entity.KindRegistration, ownership, f.submissions, f.dispatcher, f.publisher, time.Second)
	return f
}

// notificationsFor lists what the recipient would see in their inbox.
func (f *fixture) notificationsFor(t *testing.T, email string) []*entity.Notification {
	t.Helper()
	list, err := f.dispatcher.List(context.Background(), email, MaxPageSize)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}
