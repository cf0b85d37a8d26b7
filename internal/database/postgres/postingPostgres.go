package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"
)

type postingRepository struct {
	db *sql.DB
}

func NewPostingRepository(db *sql.DB) database.PostingRepository {
	return &postingRepository{db: db}
}

func (r *postingRepository) GetAdminJob(ctx context.Context, id int64) (*entity.Posting, error) {
	query := `
		SELECT j.id, j.title, i.id, i.email, i.name
		FROM admin_jobs j
		LEFT JOIN instructors i ON i.id = j.posted_by
		WHERE j.id = $1
	`
	return r.get(ctx, query, id, entity.PostingKindJob, entity.PostingSourceAdminJobs)
}

func (r *postingRepository) GetJob(ctx context.Context, id int64) (*entity.Posting, error) {
	query := `
		SELECT j.id, j.title, i.id, i.email, i.name
		FROM jobs j
		LEFT JOIN instructors i ON i.id = j.posted_by
		WHERE j.id = $1
	`
	return r.get(ctx, query, id, entity.PostingKindJob, entity.PostingSourceJobs)
}

func (r *postingRepository) GetHackathon(ctx context.Context, id int64) (*entity.Posting, error) {
	query := `
		SELECT h.id, h.title, i.id, i.email, i.name
		FROM hackathons h
		LEFT JOIN instructors i ON i.id = h.created_by
		WHERE h.id = $1
	`
	return r.get(ctx, query, id, entity.PostingKindHackathon, entity.PostingSourceHackathons)
}

func (r *postingRepository) get(ctx context.Context, query string, id int64, kind entity.PostingKind, source entity.PostingSource) (*entity.Posting, error) {
	var (
		posting    = entity.Posting{Source: source}
		ownerID    sql.NullInt64
		ownerEmail sql.NullString
		ownerName  sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&posting.Ref.ID,
		&posting.Title,
		&ownerID,
		&ownerEmail,
		&ownerName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPostingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting from %s: %w", source, err)
	}

	posting.Ref.Kind = kind
	if ownerID.Valid {
		posting.Owner = &entity.Owner{
			ID:    ownerID.Int64,
			Email: ownerEmail.String,
			Name:  ownerName.String,
		}
	}

	return &posting, nil
}
