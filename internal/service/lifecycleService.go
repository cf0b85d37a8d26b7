package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/sirupsen/logrus"
)

// wording holds the nouns that differ between applications and registrations.
type wording struct {
	noun             string // "application"
	title            string // "Application"
	submittedVerb    string // "applied to"
	notificationType entity.NotificationType
}

var wordings = map[entity.SubmissionKind]wording{
	entity.KindApplication: {
		noun:             "application",
		title:            "Application",
		submittedVerb:    "applied to",
		notificationType: entity.NotificationJobApplication,
	},
	entity.KindRegistration: {
		noun:             "registration",
		title:            "Registration",
		submittedVerb:    "registered for",
		notificationType: entity.NotificationHackathonRegistration,
	},
}

type lifecycleService struct {
	kind           entity.SubmissionKind
	words          wording
	ownership      OwnershipService
	submissions    database.SubmissionRepository
	notifications  NotificationService
	events         EventPublisher
	publishTimeout time.Duration
}

// NewLifecycleService builds the engine for one submission kind. events may be nil.
func NewLifecycleService(
	kind entity.SubmissionKind,
	ownership OwnershipService,
	submissions database.SubmissionRepository,
	notifications NotificationService,
	events EventPublisher,
	publishTimeout time.Duration,
) LifecycleService {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &lifecycleService{
		kind:           kind,
		words:          wordings[kind],
		ownership:      ownership,
		submissions:    submissions,
		notifications:  notifications,
		events:         events,
		publishTimeout: publishTimeout,
	}
}

func (s *lifecycleService) Kind() entity.SubmissionKind {
	return s.kind
}

func (s *lifecycleService) Create(ctx context.Context, actor entity.Actor, req *CreateSubmissionRequest) (*entity.Submission, error) {
	if actor.ID <= 0 || actor.Email == "" {
		return nil, entity.ErrUnauthorized
	}
	if req.PostingID <= 0 {
		return nil, fmt.Errorf("%w: posting id must be positive", entity.ErrInvalidInput)
	}
	if len(req.Details) > 0 && !json.Valid(req.Details) {
		return nil, fmt.Errorf("%w: details must be valid JSON", entity.ErrInvalidInput)
	}

	posting, err := s.ownership.ResolveOwner(ctx, entity.PostingRef{Kind: s.kind.PostingKind(), ID: req.PostingID})
	if err != nil {
		return nil, err
	}

	submission := &entity.Submission{
		Kind:           s.kind,
		PostingID:      posting.Ref.ID,
		PostingKind:    posting.Ref.Kind,
		PostingTitle:   posting.Title,
		SubmitterID:    actor.ID,
		SubmitterEmail: normalizeEmail(actor.Email),
		SubmitterName:  actor.Name,
		Status:         entity.StatusPending,
		StatusRevision: 1,
		Details:        req.Details,
	}
	if posting.Owner != nil {
		ownerID := posting.Owner.ID
		submission.OwnerID = &ownerID
		submission.OwnerEmail = normalizeEmail(posting.Owner.Email)
		submission.OwnerName = posting.Owner.Name
	}

	if err := s.submissions.Create(ctx, submission); err != nil {
		if errors.Is(err, entity.ErrAlreadySubmitted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create %s: %w", s.words.noun, err)
	}

	log := s.logger(submission)
	log.Info("Submission created")

	if submission.HasOwner() {
		s.dispatch(ctx, log, s.submittedNotification(submission))
	} else {
		log.WithField("posting_id", submission.PostingID).Warn("Posting has no owner, nobody to notify")
	}

	s.publish(entity.EventSubmissionCreated, submission, actor.ID)
	return submission, nil
}

func (s *lifecycleService) Check(ctx context.Context, actor entity.Actor, postingID int64) (*entity.Submission, bool, error) {
	submission, err := s.submissions.GetBySubmitterAndPosting(ctx, s.kind, actor.ID, postingID)
	if err != nil {
		if errors.Is(err, entity.ErrSubmissionNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to check %s: %w", s.words.noun, err)
	}
	return submission, true, nil
}

// Cancel lets a student withdraw their own submission; the owner is told.
func (s *lifecycleService) Cancel(ctx context.Context, actor entity.Actor, postingID int64) error {
	submission, err := s.submissions.GetBySubmitterAndPosting(ctx, s.kind, actor.ID, postingID)
	if err != nil {
		return err
	}

	log := s.logger(submission)
	if submission.HasOwner() {
		s.dispatch(ctx, log, s.withdrawnNotification(submission))
	}

	if err := s.submissions.Delete(ctx, s.kind, submission.ID); err != nil {
		return err
	}
	log.Info("Submission withdrawn by submitter")

	s.publish(entity.EventSubmissionDeleted, submission, actor.ID)
	return nil
}

func (s *lifecycleService) ListMine(ctx context.Context, actor entity.Actor) ([]*entity.Submission, error) {
	submissions, err := s.submissions.ListBySubmitter(ctx, s.kind, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", s.words.noun, err)
	}
	return submissions, nil
}

func (s *lifecycleService) ListOwned(ctx context.Context, actor entity.Actor, req *ListOwnedRequest) ([]*entity.Submission, error) {
	ownerID := actor.ID
	if req.OwnerID != 0 && req.OwnerID != actor.ID {
		if !actor.IsAdmin() {
			return nil, entity.ErrForbidden
		}
		ownerID = req.OwnerID
	}

	var filter database.SubmissionFilter
	for _, raw := range req.Statuses {
		status, err := s.kind.ParseStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	submissions, err := s.submissions.ListByOwner(ctx, s.kind, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", s.words.noun, err)
	}
	return submissions, nil
}

// Transition accepts any status of the kind from any other; there is no
// transition graph. Re-setting the current status is a no-op.
func (s *lifecycleService) Transition(ctx context.Context, actor entity.Actor, submissionID int64, req *TransitionRequest) (*entity.Submission, error) {
	current, err := s.submissions.GetByID(ctx, s.kind, submissionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, current); err != nil {
		return nil, err
	}

	status, err := s.kind.ParseStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Status)
	}

	updated, err := s.submissions.UpdateStatus(ctx, s.kind, submissionID, status)
	if err != nil {
		return nil, err
	}

	log := s.logger(updated).WithFields(logrus.Fields{
		"previous_status": current.Status,
		"revision":        updated.StatusRevision,
		"actor_id":        actor.ID,
	})

	// Same status again: the revision did not move, so nobody is told.
	if updated.StatusRevision == current.StatusRevision {
		log.Debug("Submission status unchanged")
		return updated, nil
	}
	log.Info("Submission status updated")

	s.dispatch(ctx, log, s.statusNotification(updated, req.Message))
	s.publish(entity.EventSubmissionStatusChanged, updated, actor.ID)
	return updated, nil
}

// Delete notifies the submitter first and removes the record whatever the
// dispatch outcome.
func (s *lifecycleService) Delete(ctx context.Context, actor entity.Actor, submissionID int64) error {
	submission, err := s.submissions.GetByID(ctx, s.kind, submissionID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actor, submission); err != nil {
		return err
	}

	log := s.logger(submission).WithField("actor_id", actor.ID)
	s.dispatch(ctx, log, s.removedNotification(submission))

	if err := s.submissions.Delete(ctx, s.kind, submissionID); err != nil {
		return err
	}
	log.Info("Submission deleted")

	s.publish(entity.EventSubmissionDeleted, submission, actor.ID)
	return nil
}

// authorizeOwner limits instructors to submissions snapshotted onto them.
func authorizeOwner(actor entity.Actor, submission *entity.Submission) error {
	switch actor.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleInstructor:
		if submission.OwnedBy(actor.ID) {
			return nil
		}
	}
	return entity.ErrForbidden
}

func (s *lifecycleService) dispatch(ctx context.Context, log *logrus.Entry, req *NotificationRequest) {
	if _, _, err := s.notifications.Dispatch(ctx, req); err != nil {
		log.WithError(err).WithField("recipient", req.RecipientEmail).Error("Failed to dispatch notification")
	}
}

func (s *lifecycleService) publish(t entity.LifecycleEventType, submission *entity.Submission, actorID int64) {
	if s.events == nil {
		return
	}
	event := entity.NewLifecycleEvent(t, submission, actorID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
		defer cancel()

		if err := s.events.Publish(ctx, event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event":         event.Type,
				"submission_id": event.SubmissionID,
			}).Error("Failed to publish lifecycle event")
		}
	}()
}

func (s *lifecycleService) logger(submission *entity.Submission) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"submission_id": submission.ID,
		"kind":          submission.Kind,
		"status":        submission.Status,
	})
}

func (s *lifecycleService) submittedNotification(sub *entity.Submission) *NotificationRequest {
	submitter := displayName(sub.SubmitterName, sub.SubmitterEmail)
	req := &NotificationRequest{
		RecipientEmail: sub.OwnerEmail,
		RecipientName:  sub.OwnerName,
		Title:          fmt.Sprintf("New %s for %s", s.words.noun, sub.PostingTitle),
		Message:        fmt.Sprintf("%s %s %s.", submitter, s.words.submittedVerb, sub.PostingTitle),
		Type:           s.words.notificationType,
		RelatedID:      sub.ID,
		StatusToken:    tokenSubmitted,
		Revision:       sub.StatusRevision,
	}
	s.attachEmail(req, sub, emailData{
		RecipientName: displayName(sub.OwnerName, sub.OwnerEmail),
		Heading:       fmt.Sprintf("New %s received", s.words.noun),
		Intro:         req.Message,
		PostingTitle:  sub.PostingTitle,
	})
	return req
}

func (s *lifecycleService) statusNotification(sub *entity.Submission, instructorMessage string) *NotificationRequest {
	message := fmt.Sprintf("Your %s for %s is now %s.", s.words.noun, sub.PostingTitle, sub.Status.Label())
	if instructorMessage != "" {
		message += " Message from the instructor: " + instructorMessage
	}
	req := &NotificationRequest{
		RecipientEmail: sub.SubmitterEmail,
		RecipientName:  sub.SubmitterName,
		Title:          fmt.Sprintf("%s status updated", s.words.title),
		Message:        message,
		Type:           s.words.notificationType,
		RelatedID:      sub.ID,
		StatusToken:    string(sub.Status),
		Revision:       sub.StatusRevision,
	}
	s.attachEmail(req, sub, emailData{
		RecipientName: displayName(sub.SubmitterName, sub.SubmitterEmail),
		Heading:       fmt.Sprintf("Your %s status has changed", s.words.noun),
		Intro:         fmt.Sprintf("There is an update on your %s.", s.words.noun),
		PostingTitle:  sub.PostingTitle,
		Status:        displayStatus(sub.Status),
		Message:       instructorMessage,
	})
	return req
}

func (s *lifecycleService) removedNotification(sub *entity.Submission) *NotificationRequest {
	req := &NotificationRequest{
		RecipientEmail: sub.SubmitterEmail,
		RecipientName:  sub.SubmitterName,
		Title:          fmt.Sprintf("%s removed", s.words.title),
		Message:        fmt.Sprintf("Your %s for %s has been removed.", s.words.noun, sub.PostingTitle),
		Type:           s.words.notificationType,
		RelatedID:      sub.ID,
		StatusToken:    tokenRemoved,
		Revision:       sub.StatusRevision,
	}
	s.attachEmail(req, sub, emailData{
		RecipientName: displayName(sub.SubmitterName, sub.SubmitterEmail),
		Heading:       fmt.Sprintf("Your %s was removed", s.words.noun),
		Intro:         req.Message,
		PostingTitle:  sub.PostingTitle,
	})
	return req
}

func (s *lifecycleService) withdrawnNotification(sub *entity.Submission) *NotificationRequest {
	submitter := displayName(sub.SubmitterName, sub.SubmitterEmail)
	req := &NotificationRequest{
		RecipientEmail: sub.OwnerEmail,
		RecipientName:  sub.OwnerName,
		Title:          fmt.Sprintf("%s withdrawn", s.words.title),
		Message:        fmt.Sprintf("%s withdrew their %s for %s.", submitter, s.words.noun, sub.PostingTitle),
		Type:           s.words.notificationType,
		RelatedID:      sub.ID,
		StatusToken:    tokenWithdrawn,
		Revision:       sub.StatusRevision,
	}
	s.attachEmail(req, sub, emailData{
		RecipientName: displayName(sub.OwnerName, sub.OwnerEmail),
		Heading:       fmt.Sprintf("%s withdrawn", s.words.title),
		Intro:         req.Message,
		PostingTitle:  sub.PostingTitle,
	})
	return req
}

// attachEmail renders the email body; a rendering failure drops only the email.
func (s *lifecycleService) attachEmail(req *NotificationRequest, sub *entity.Submission, data emailData) {
	body, err := renderEmail(data)
	if err != nil {
		s.logger(sub).WithError(err).Error("Failed to render email")
		return
	}
	req.EmailSubject = req.Title
	req.EmailHTML = body
}
