package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

var errBoom = errors.New("connection refused")

var fixedNow = time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() Option {
	return WithClock(func() time.Time { return fixedNow })
}

// flakyRepo wraps a repository and can inject failures per call.
type flakyRepo struct {
	inner interface {
		Create(ctx context.Context, poll *domain.Poll) error
		GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
		ReplaceResponses(ctx context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error)
	}
	getErr     error
	replaceErr error
	// beforeReplace runs between the service's read and its write.
	beforeReplace func()
	replaced      int
}

func (r *flakyRepo) Create(ctx context.Context, poll *domain.Poll) error {
	return r.inner.Create(ctx, poll)
}

func (r *flakyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.inner.GetByID(ctx, id)
}

func (r *flakyRepo) ReplaceResponses(ctx context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error) {
	if r.beforeReplace != nil {
		r.beforeReplace()
	}
	if r.replaceErr != nil {
		return 0, r.replaceErr
	}
	r.replaced++
	return r.inner.ReplaceResponses(ctx, id, version, responses)
}
