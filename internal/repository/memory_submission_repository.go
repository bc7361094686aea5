package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/networkhq/network-intake/internal/domain"
)

// MemorySubmissionRepository keeps records in process memory. Used for local
// development and tests.
type MemorySubmissionRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Submission
	writes  int
}

// NewMemorySubmissionRepository returns an empty store.
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{records: make(map[string]domain.Submission)}
}

func (r *MemorySubmissionRepository) Exists(_ context.Context, kind domain.SubmissionKind, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[(&domain.Submission{Kind: kind, Email: email}).Key()]
	return ok, nil
}

func (r *MemorySubmissionRepository) Create(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sub.Key()
	if _, ok := r.records[key]; ok {
		return ErrDuplicate
	}
	r.records[key] = *sub
	r.writes++
	return nil
}

func (r *MemorySubmissionRepository) List(_ context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	r.mu.RLock()
	items := make([]domain.Submission, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		items = append(items, rec)
	}
	r.mu.RUnlock()

	sortNewestFirst(items)
	return page(items, filter), nil
}

func (r *MemorySubmissionRepository) Ping(context.Context) error { return nil }

// Writes reports how many records were successfully created.
func (r *MemorySubmissionRepository) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writes
}

func sortNewestFirst(items []domain.Submission) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Key() < items[j].Key()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
