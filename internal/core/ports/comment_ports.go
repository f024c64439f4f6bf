package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type CommentRepository interface {
	Append(ctx context.Context, comment *domain.Comment) error
	// List returns comments ascending by timestamp.
	List(ctx context.Context, pollID uuid.UUID) ([]domain.Comment, error)
	// Subscribe delivers comments appended after the call returns. The channel
	// is closed when ctx is done or the subscriber falls too far behind.
	Subscribe(ctx context.Context, pollID uuid.UUID) (<-chan domain.Comment, error)
}

type PostCommentInput struct {
	PollID  string
	Name    string
	Message string
}

type CommentService interface {
	Post(ctx context.Context, input PostCommentInput) (*domain.Comment, error)
	List(ctx context.Context, pollID string) ([]domain.Comment, error)
	Watch(ctx context.Context, pollID string) (<-chan domain.Comment, error)
}
