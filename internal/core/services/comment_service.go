package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type commentService struct {
	pollRepo    ports.PollRepository
	commentRepo ports.CommentRepository
	clock
}

func NewCommentService(pollRepo ports.PollRepository, commentRepo ports.CommentRepository, opts ...Option) ports.CommentService {
	return &commentService{
		pollRepo:    pollRepo,
		commentRepo: commentRepo,
		clock:       newClock(opts),
	}
}

func (s *commentService) Post(ctx context.Context, input ports.PostCommentInput) (*domain.Comment, error) {
	name := strings.TrimSpace(input.Name)
	message := strings.TrimSpace(input.Message)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	poll, err := s.lookup(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if poll.IsExpired(now) {
		return nil, fmt.Errorf("%w: comments are closed", domain.ErrPollExpired)
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PollID:    poll.ID,
		Name:      name,
		Message:   message,
		Timestamp: now,
	}
	if err := s.commentRepo.Append(ctx, comment); err != nil {
		return nil, classify(fmt.Errorf("failed to append comment: %w", err))
	}
	return comment, nil
}

func (s *commentService) List(ctx context.Context, pollID string) ([]domain.Comment, error) {
	poll, err := s.lookup(ctx, pollID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.List(ctx, poll.ID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list comments: %w", err))
	}
	return comments, nil
}

// Watch replays the comment backlog and then follows new comments until ctx
// is done. The subscription is opened before the backlog is read so nothing
// posted in between is lost; overlaps are dropped by ID.
func (s *commentService) Watch(ctx context.Context, pollID string) (<-chan domain.Comment, error) {
	poll, err := s.lookup(ctx, pollID)
	if err != nil {
		return nil, err
	}

	live, err := s.commentRepo.Subscribe(ctx, poll.ID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to subscribe to comments: %w", err))
	}

	backlog, err := s.commentRepo.List(ctx, poll.ID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list comments: %w", err))
	}

	out := make(chan domain.Comment)
	go func() {
		defer close(out)

		seen := make(map[uuid.UUID]struct{}, len(backlog))
		send := func(c domain.Comment) bool {
			if _, dup := seen[c.ID]; dup {
				return true
			}
			seen[c.ID] = struct{}{}
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, c := range backlog {
			if !send(c) {
				return
			}
		}
		for c := range live {
			if !send(c) {
				return
			}
		}
	}()

	return out, nil
}

func (s *commentService) lookup(ctx context.Context, pollID string) (*domain.Poll, error) {
	id, err := parsePollID(pollID)
	if err != nil {
		return nil, err
	}
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return poll, nil
}
