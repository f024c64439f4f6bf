package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/kwickslot/internal/core/consensus"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type responseService struct {
	repo ports.PollRepository
	clock
}

func NewResponseService(repo ports.PollRepository, opts ...Option) ports.ResponseService {
	return &responseService{
		repo:  repo,
		clock: newClock(opts),
	}
}

// Submit reads the latest poll, applies the lifecycle guard, merges the draft
// and writes the whole response list back. A concurrent write between the
// read and the write yields domain.ErrConflict; it is not retried here.
func (s *responseService) Submit(ctx context.Context, input ports.SubmitInput) (*domain.Poll, error) {
	name := strings.TrimSpace(input.Draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	pollID, err := parsePollID(input.PollID)
	if err != nil {
		return nil, err
	}

	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		return nil, classify(err)
	}

	if err := consensus.CheckSubmission(poll, name, s.now()); err != nil {
		return nil, err
	}

	merged, err := consensus.Merge(poll.Responses, input.Draft)
	if err != nil {
		return nil, err
	}

	version, err := s.repo.ReplaceResponses(ctx, poll.ID, poll.Version, merged)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to replace responses: %w", err))
	}

	poll.Responses = merged
	poll.Version = version
	return poll, nil
}

func (s *responseService) GetResponse(ctx context.Context, pollID, name string) (*domain.Response, error) {
	id, err := parsePollID(pollID)
	if err != nil {
		return nil, err
	}

	poll, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	resp, ok := poll.FindResponse(name)
	if !ok {
		return nil, nil
	}
	return resp, nil
}
