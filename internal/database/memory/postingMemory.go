package memory

import (
	"context"
	"sync"

	"github.com/ds124wfegd/eshikshan/internal/entity"
)

// PostingRepository keeps postings per source table. Seeding methods stand in
// for the admin flows that own postings in production.
type PostingRepository struct {
	mu      sync.RWMutex
	sources map[entity.PostingSource]map[int64]entity.Posting
}

func NewPostingRepository() *PostingRepository {
	return &PostingRepository{
		sources: map[entity.PostingSource]map[int64]entity.Posting{
			entity.PostingSourceAdminJobs:  {},
			entity.PostingSourceJobs:       {},
			entity.PostingSourceHackathons: {},
		},
	}
}

func (r *PostingRepository) AddAdminJob(id int64, title string, owner *entity.Owner) {
	r.put(entity.PostingSourceAdminJobs, entity.PostingKindJob, id, title, owner)
}

func (r *PostingRepository) AddJob(id int64, title string, owner *entity.Owner) {
	r.put(entity.PostingSourceJobs, entity.PostingKindJob, id, title, owner)
}

func (r *PostingRepository) AddHackathon(id int64, title string, owner *entity.Owner) {
	r.put(entity.PostingSourceHackathons, entity.PostingKindHackathon, id, title, owner)
}

// SetOwner reassigns an existing posting wherever it is stored.
func (r *PostingRepository) SetOwner(kind entity.PostingKind, id int64, owner *entity.Owner) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for source, postings := range r.sources {
		p, ok := postings[id]
		if !ok || p.Ref.Kind != kind {
			continue
		}
		p.Owner = copyOwner(owner)
		r.sources[source][id] = p
		return true
	}
	return false
}

func (r *PostingRepository) GetAdminJob(ctx context.Context, id int64) (*entity.Posting, error) {
	return r.get(entity.PostingSourceAdminJobs, id)
}

func (r *PostingRepository) GetJob(ctx context.Context, id int64) (*entity.Posting, error) {
	return r.get(entity.PostingSourceJobs, id)
}

func (r *PostingRepository) GetHackathon(ctx context.Context, id int64) (*entity.Posting, error) {
	return r.get(entity.PostingSourceHackathons, id)
}

func (r *PostingRepository) put(source entity.PostingSource, kind entity.PostingKind, id int64, title string, owner *entity.Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[source][id] = entity.Posting{
		Ref:    entity.PostingRef{Kind: kind, ID: id},
		Source: source,
		Title:  title,
		Owner:  copyOwner(owner),
	}
}

func (r *PostingRepository) get(source entity.PostingSource, id int64) (*entity.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.sources[source][id]
	if !ok {
		return nil, entity.ErrPostingNotFound
	}
	p.Owner = copyOwner(p.Owner)
	return &p, nil
}

func copyOwner(o *entity.Owner) *entity.Owner {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
