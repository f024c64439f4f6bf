package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/adapters/pubsub"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type CommentRepository struct {
	mu       sync.Mutex
	comments map[uuid.UUID][]domain.Comment
	hub      *pubsub.Hub[domain.Comment]
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[uuid.UUID][]domain.Comment),
		hub:      pubsub.NewHub[domain.Comment](pubsub.DefaultBuffer),
	}
}

func (r *CommentRepository) Append(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	list := append(r.comments[comment.PollID], *comment)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	r.comments[comment.PollID] = list
	r.mu.Unlock()

	r.hub.Publish(comment.PollID.String(), *comment)
	return nil
}

func (r *CommentRepository) List(_ context.Context, pollID uuid.UUID) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.Comment{}, r.comments[pollID]...), nil
}

func (r *CommentRepository) Subscribe(ctx context.Context, pollID uuid.UUID) (<-chan domain.Comment, error) {
	return r.hub.Subscribe(ctx, pollID.String()), nil
}

func (r *CommentRepository) Close() error {
	r.hub.Close()
	return nil
}
