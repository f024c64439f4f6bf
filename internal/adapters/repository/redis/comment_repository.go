package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/adapters/pubsub"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

const (
	readBlock = 2 * time.Second
	readCount = 32
)

// CommentRepository keeps one stream per poll. The stream is both the
// history and the live feed.
type CommentRepository struct {
	client *redis.Client
	buffer int
}

func NewCommentRepository(client *redis.Client) *CommentRepository {
	return &CommentRepository{client: client, buffer: pubsub.DefaultBuffer}
}

func streamKey(pollID uuid.UUID) string {
	return fmt.Sprintf("poll:%s:comments", pollID)
}

func (r *CommentRepository) Append(ctx context.Context, comment *domain.Comment) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(comment.PollID),
		Values: map[string]interface{}{
			"id":        comment.ID.String(),
			"poll_id":   comment.PollID.String(),
			"name":      comment.Name,
			"message":   comment.Message,
			"timestamp": comment.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) List(ctx context.Context, pollID uuid.UUID) ([]domain.Comment, error) {
	msgs, err := r.client.XRange(ctx, streamKey(pollID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(msgs))
	for _, msg := range msgs {
		c, err := decodeComment(msg)
		if err != nil {
			slog.Warn("skipping malformed comment entry", "stream", streamKey(pollID), "entry", msg.ID, "error", err)
			continue
		}
		comments = append(comments, c)
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Timestamp.Before(comments[j].Timestamp) })
	return comments, nil
}

func (r *CommentRepository) Subscribe(ctx context.Context, pollID uuid.UUID) (<-chan domain.Comment, error) {
	key := streamKey(pollID)

	// The starting entry is resolved before returning so nothing appended after
	// this call can be missed.
	last := "0-0"
	tail, err := r.client.XRevRangeN(ctx, key, "+", "-", 1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(tail) > 0 {
		last = tail[0].ID
	}

	out := make(chan domain.Comment, r.buffer)
	go r.follow(ctx, key, last, out)
	return out, nil
}

func (r *CommentRepository) follow(ctx context.Context, key, last string, out chan<- domain.Comment) {
	defer close(out)

	for ctx.Err() == nil {
		streams, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{key, last},
			Count:   readCount,
			Block:   readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("comment stream read failed", "stream", key, "error", err)
			}
			return
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				last = msg.ID
				c, err := decodeComment(msg)
				if err != nil {
					slog.Warn("skipping malformed comment entry", "stream", key, "entry", msg.ID, "error", err)
					continue
				}
				select {
				case out <- c:
				default:
					slog.Warn("dropping slow comment subscriber", "stream", key)
					return
				}
			}
		}
	}
}

func decodeComment(msg redis.XMessage) (domain.Comment, error) {
	field := func(name string) string {
		s, _ := msg.Values[name].(string)
		return s
	}

	id, err := uuid.Parse(field("id"))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("bad id: %w", err)
	}
	pollID, err := uuid.Parse(field("poll_id"))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("bad poll_id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, field("timestamp"))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("bad timestamp: %w", err)
	}
	return domain.Comment{
		ID:        id,
		PollID:    pollID,
		Name:      field("name"),
		Message:   field("message"),
		Timestamp: ts,
	}, nil
}
