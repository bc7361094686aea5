package repository

import (
	"context"
	"errors"

	"github.com/networkhq/network-intake/internal/domain"
)

// ErrDuplicate is returned by Create when a record with the same kind and
// email already exists. Implementations detect it with an atomic conditional
// write, never a separate read.
var ErrDuplicate = errors.New("submission already exists")

// SubmissionFilter narrows List results.
type SubmissionFilter struct {
	Kind   domain.SubmissionKind
	Limit  int
	Offset int
}

// SubmissionRepository persists intake records.
type SubmissionRepository interface {
	Exists(ctx context.Context, kind domain.SubmissionKind, email string) (bool, error)
	Create(ctx context.Context, sub *domain.Submission) error
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error)
	Ping(ctx context.Context) error
}

const defaultListLimit = 50

// EffectiveLimit is the page size List applies: Limit, or the default when
// unset or out of range.
func (f SubmissionFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return defaultListLimit
	}
	return f.Limit
}

// EffectiveOffset is Offset clamped to zero.
func (f SubmissionFilter) EffectiveOffset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

func page(items []domain.Submission, filter SubmissionFilter) []domain.Submission {
	off := filter.EffectiveOffset()
	if off >= len(items) {
		return []domain.Submission{}
	}
	end := off + filter.EffectiveLimit()
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}
