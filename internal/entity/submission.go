package entity

import (
	"encoding/json"
	"strings"
	"time"
)

type SubmissionKind string

const (
	KindApplication  SubmissionKind = "application"
	KindRegistration SubmissionKind = "registration"
)

type SubmissionStatus string

const (
	StatusPending      SubmissionStatus = "pending"
	StatusReviewed     SubmissionStatus = "reviewed"
	StatusShortlisted  SubmissionStatus = "shortlisted"
	StatusInterview    SubmissionStatus = "interview"
	StatusFurtherRound SubmissionStatus = "further_round"
	StatusWaitlisted   SubmissionStatus = "waitlisted"
	StatusApproved     SubmissionStatus = "approved"
	StatusRejected     SubmissionStatus = "rejected"
	StatusAccepted     SubmissionStatus = "accepted"
)

// Persisted values; the order matches the stored enumerations.
var (
	ApplicationStatuses = []SubmissionStatus{
		StatusPending, StatusReviewed, StatusShortlisted, StatusInterview,
		StatusRejected, StatusAccepted, StatusFurtherRound,
	}
	RegistrationStatuses = []SubmissionStatus{
		StatusPending, StatusApproved, StatusRejected,
		StatusWaitlisted, StatusShortlisted, StatusFurtherRound,
	}
)

// PostingKind is the posting family a submission of this kind points at.
func (k SubmissionKind) PostingKind() PostingKind {
	if k == KindRegistration {
		return PostingKindHackathon
	}
	return PostingKindJob
}

func (k SubmissionKind) Statuses() []SubmissionStatus {
	if k == KindRegistration {
		return RegistrationStatuses
	}
	return ApplicationStatuses
}

// ParseStatus trims and lower-cases raw and checks it against the kind's set.
func (k SubmissionKind) ParseStatus(raw string) (SubmissionStatus, error) {
	candidate := SubmissionStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range k.Statuses() {
		if s == candidate {
			return candidate, nil
		}
	}
	return "", ErrInvalidStatus
}

// Label is the status as shown to people: "further_round" becomes "further round".
func (s SubmissionStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Submission is a student's application to a job or registration for a hackathon.
// Owner fields are a snapshot taken at creation and never re-resolved.
type Submission struct {
	ID   int64          `json:"id"`
	Kind SubmissionKind `json:"kind"`

	PostingID    int64       `json:"posting_id"`
	PostingKind  PostingKind `json:"posting_kind"`
	PostingTitle string      `json:"posting_title"`

	SubmitterID    int64  `json:"submitter_id"`
	SubmitterEmail string `json:"submitter_email"`
	SubmitterName  string `json:"submitter_name"`

	OwnerID    *int64 `json:"owner_id,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`

	Status         SubmissionStatus `json:"status"`
	StatusRevision int64            `json:"status_revision"`
	Details        json.RawMessage  `json:"details,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Submission) HasOwner() bool {
	return s.OwnerID != nil && s.OwnerEmail != ""
}

func (s *Submission) OwnedBy(actorID int64) bool {
	return s.OwnerID != nil && *s.OwnerID == actorID
}

// ApplicationDetails is the opaque payload of a job application.
type ApplicationDetails struct {
	CoverLetter string `json:"cover_letter,omitempty"`
	ResumeURL   string `json:"resume_url,omitempty"`
}

// RegistrationDetails is the opaque payload of a hackathon registration.
type RegistrationDetails struct {
	TeamName           string   `json:"team_name,omitempty"`
	TeamMembers        []string `json:"team_members,omitempty"`
	ProjectDescription string   `json:"project_description,omitempty"`
}
