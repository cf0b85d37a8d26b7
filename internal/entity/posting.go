package entity

import "fmt"

// PostingKind tags which family of postings a reference points into.
type PostingKind string

const (
	PostingKindJob       PostingKind = "job"
	PostingKindHackathon PostingKind = "hackathon"
)

func (k PostingKind) Valid() bool {
	return k == PostingKindJob || k == PostingKindHackathon
}

// PostingSource is the table a posting was found in.
type PostingSource string

const (
	PostingSourceAdminJobs  PostingSource = "admin_jobs"
	PostingSourceJobs       PostingSource = "jobs"
	PostingSourceHackathons PostingSource = "hackathons"
)

type PostingRef struct {
	Kind PostingKind `json:"kind"`
	ID   int64       `json:"id"`
}

func (r PostingRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Owner is the instructor identity responsible for a posting.
type Owner struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Posting is read-only here. Owner is nil for postings nobody was assigned to.
type Posting struct {
	Ref    PostingRef    `json:"ref"`
	Source PostingSource `json:"source"`
	Title  string        `json:"title"`
	Owner  *Owner        `json:"owner,omitempty"`
}

func (p *Posting) HasOwner() bool {
	return p.Owner != nil
}
