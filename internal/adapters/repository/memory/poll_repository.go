package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

// PollRepository keeps polls in process memory. It is meant for local runs
// and tests; nothing survives a restart.
type PollRepository struct {
	mu    sync.Mutex
	polls map[uuid.UUID]domain.Poll
}

func NewPollRepository() *PollRepository {
	return &PollRepository{
		polls: make(map[uuid.UUID]domain.Poll),
	}
}

func (r *PollRepository) Create(_ context.Context, poll *domain.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.polls[poll.ID]; ok {
		return fmt.Errorf("poll %s already exists", poll.ID)
	}
	stored := *poll
	stored.Responses = domain.CloneResponses(poll.Responses)
	r.polls[poll.ID] = stored
	return nil
}

func (r *PollRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	poll := stored
	poll.Responses = domain.CloneResponses(stored.Responses)
	if poll.Responses == nil {
		poll.Responses = []domain.Response{}
	}
	return &poll, nil
}

func (r *PollRepository) ReplaceResponses(_ context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[id]
	if !ok {
		return 0, domain.ErrPollNotFound
	}
	if stored.Version != version {
		return 0, domain.ErrConflict
	}
	stored.Responses = domain.CloneResponses(responses)
	stored.Version++
	r.polls[id] = stored
	return stored.Version, nil
}
