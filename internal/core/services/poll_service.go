package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/consensus"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type pollService struct {
	repo ports.PollRepository
	clock
}

func NewPollService(repo ports.PollRepository, opts ...Option) ports.PollService {
	return &pollService{
		repo:  repo,
		clock: newClock(opts),
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	now := s.now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiration must be in the future", domain.ErrInvalidInput)
	}

	poll := &domain.Poll{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		ExpiresAt: input.ExpiresAt,
		Responses: []domain.Response{},
	}

	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, classify(fmt.Errorf("failed to create poll: %w", err))
	}
	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := parsePollID(id)
	if err != nil {
		return nil, err
	}

	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		return nil, classify(err)
	}
	return poll, nil
}

func (s *pollService) GetResults(ctx context.Context, id string) (*ports.PollResults, error) {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ports.PollResults{
		Poll:      poll,
		Status:    poll.Status(s.now()),
		Consensus: consensus.Aggregate(poll.Responses),
	}, nil
}
