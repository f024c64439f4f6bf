package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/consensus"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// ReplaceResponses overwrites the whole response list if the stored
	// version still equals version, and returns the new version.
	ReplaceResponses(ctx context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error)
}

type CreatePollInput struct {
	Name      string
	ExpiresAt *time.Time
}

type PollResults struct {
	Poll      *domain.Poll
	Status    domain.PollStatus
	Consensus *consensus.Consensus
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	GetResults(ctx context.Context, id string) (*PollResults, error)
}
