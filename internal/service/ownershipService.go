package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/entity"
)

type ownershipService struct {
	postings database.PostingRepository
}

func NewOwnershipService(postings database.PostingRepository) OwnershipService {
	return &ownershipService{postings: postings}
}

// ResolveOwner probes admin jobs before general jobs. Both tables draw ids from
// one sequence, so at most one of them can match.
func (s *ownershipService) ResolveOwner(ctx context.Context, ref entity.PostingRef) (*entity.Posting, error) {
	switch ref.Kind {
	case entity.PostingKindJob:
		posting, err := s.postings.GetAdminJob(ctx, ref.ID)
		if err == nil {
			return posting, nil
		}
		if !errors.Is(err, entity.ErrPostingNotFound) {
			return nil, fmt.Errorf("failed to look up admin job %d: %w", ref.ID, err)
		}

		posting, err = s.postings.GetJob(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, entity.ErrPostingNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to look up job %d: %w", ref.ID, err)
		}
		return posting, nil

	case entity.PostingKindHackathon:
		posting, err := s.postings.GetHackathon(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, entity.ErrPostingNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to look up hackathon %d: %w", ref.ID, err)
		}
		return posting, nil

	default:
		return nil, fmt.Errorf("%w: unknown posting kind %q", entity.ErrInvalidInput, ref.Kind)
	}
}
