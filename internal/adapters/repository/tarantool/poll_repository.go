package tarantool

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

const (
	pollSpace = "polls"
)

// PollRepository keeps each poll as one tuple and replaces the whole tuple on
// every responses write. The version check is serialised by mu, so it only
// holds across writers sharing this process.
type PollRepository struct {
	conn *tarantool.Connection
	mu   sync.Mutex
}

func NewPollRepository(conn *tarantool.Connection) *PollRepository {
	return &PollRepository{
		conn: conn,
	}
}

func (r *PollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	if _, err := r.conn.Do(
		tarantool.NewInsertRequest(pollSpace).
			Context(ctx).
			Tuple(NewPollModel(poll)),
	).Get(); err != nil {
		return fmt.Errorf("could not insert poll in tarantool: %w", err)
	}
	return nil
}

func (r *PollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	var res []PollModel
	if err := r.conn.Do(
		tarantool.NewSelectRequest(pollSpace).
			Context(ctx).
			Index("primary").
			Limit(1).
			Iterator(tarantool.IterEq).
			Key(tarantool.StringKey{S: id.String()}),
	).GetTyped(&res); err != nil {
		return nil, fmt.Errorf("could not select typed poll in tarantool: %w", err)
	}
	if len(res) == 0 {
		return nil, domain.ErrPollNotFound
	}
	return res[0].ToPoll()
}

func (r *PollRepository) ReplaceResponses(ctx context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	poll, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if poll.Version != version {
		return 0, domain.ErrConflict
	}

	poll.Responses = responses
	poll.Version++
	if _, err = r.conn.Do(
		tarantool.NewReplaceRequest(pollSpace).
			Context(ctx).
			Tuple(NewPollModel(poll)),
	).Get(); err != nil {
		return 0, fmt.Errorf("could not replace in tarantool: %w", err)
	}
	return poll.Version, nil
}
