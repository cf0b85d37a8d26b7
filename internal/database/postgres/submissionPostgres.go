package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"

	"github.com/lib/pq"
)

const submissionColumns = `
	id, kind, posting_id, posting_kind, posting_title,
	submitter_id, submitter_email, submitter_name,
	owner_id, owner_email, owner_name,
	status, status_revision, details,
	submitted_at, created_at, updated_at
`

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) database.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create relies on submissions_kind_submitter_posting_key, so concurrent
// duplicates are rejected by the database rather than by a prior lookup.
func (r *submissionRepository) Create(ctx context.Context, s *entity.Submission) error {
	query := `
		INSERT INTO submissions (
			kind, posting_id, posting_kind, posting_title,
			submitter_id, submitter_email, submitter_name,
			owner_id, owner_email, owner_name,
			status, status_revision, details,
			submitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	now := time.Now().UTC()
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = now
	}
	if s.StatusRevision == 0 {
		s.StatusRevision = 1
	}
	details := s.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	err := r.db.QueryRowContext(ctx, query,
		s.Kind,
		s.PostingID,
		s.PostingKind,
		s.PostingTitle,
		s.SubmitterID,
		s.SubmitterEmail,
		s.SubmitterName,
		nullInt64(s.OwnerID),
		nullString(s.OwnerEmail),
		nullString(s.OwnerName),
		s.Status,
		s.StatusRevision,
		[]byte(details),
		s.SubmittedAt,
		now,
		now,
	).Scan(&s.ID)
	if isUniqueViolation(err, "submissions_kind_submitter_posting_key") {
		return entity.ErrAlreadySubmitted
	}
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, kind entity.SubmissionKind, id int64) (*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 AND kind = $2`

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id, kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

func (r *submissionRepository) GetBySubmitterAndPosting(ctx context.Context, kind entity.SubmissionKind, submitterID, postingID int64) (*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE kind = $1 AND submitter_id = $2 AND posting_id = $3
	`

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, kind, submitterID, postingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission by submitter and posting: %w", err)
	}
	return s, nil
}

func (r *submissionRepository) ListBySubmitter(ctx context.Context, kind entity.SubmissionKind, submitterID int64) ([]*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE kind = $1 AND submitter_id = $2
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, kind, submitterID)
}

func (r *submissionRepository) ListByOwner(ctx context.Context, kind entity.SubmissionKind, ownerID int64, filter database.SubmissionFilter) ([]*entity.Submission, error) {
	if len(filter.Statuses) == 0 {
		query := `SELECT ` + submissionColumns + `
			FROM submissions
			WHERE kind = $1 AND owner_id = $2
			ORDER BY created_at DESC, id DESC
		`
		return r.list(ctx, query, kind, ownerID)
	}

	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE kind = $1 AND owner_id = $2 AND status = ANY($3)
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, kind, ownerID, pq.Array(statuses))
}

// UpdateStatus is a single statement: every SET expression sees the pre-update
// row, so the revision only moves when the stored status actually changes.
func (r *submissionRepository) UpdateStatus(ctx context.Context, kind entity.SubmissionKind, id int64, status entity.SubmissionStatus) (*entity.Submission, error) {
	query := `
		UPDATE submissions
		SET status = $3,
			status_revision = status_revision + CASE WHEN status <> $3 THEN 1 ELSE 0 END,
			updated_at = CASE WHEN status <> $3 THEN now() ELSE updated_at END
		WHERE id = $1 AND kind = $2
		RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id, kind, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update submission status: %w", err)
	}
	return s, nil
}

func (r *submissionRepository) Delete(ctx context.Context, kind entity.SubmissionKind, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1 AND kind = $2`, id, kind)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrSubmissionNotFound
	}
	return nil
}

func (r *submissionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*entity.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return submissions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*entity.Submission, error) {
	var (
		s          entity.Submission
		ownerID    sql.NullInt64
		ownerEmail sql.NullString
		ownerName  sql.NullString
		details    []byte
	)

	err := row.Scan(
		&s.ID,
		&s.Kind,
		&s.PostingID,
		&s.PostingKind,
		&s.PostingTitle,
		&s.SubmitterID,
		&s.SubmitterEmail,
		&s.SubmitterName,
		&ownerID,
		&ownerEmail,
		&ownerName,
		&s.Status,
		&s.StatusRevision,
		&details,
		&s.SubmittedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		id := ownerID.Int64
		s.OwnerID = &id
	}
	s.OwnerEmail = ownerEmail.String
	s.OwnerName = ownerName.String
	s.Details = details

	return &s, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
