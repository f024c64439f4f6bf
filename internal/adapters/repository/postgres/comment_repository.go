package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/kwickslot/internal/adapters/pubsub"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

const (
	commentChannel      = "poll_comments"
	listenerMinInterval = 10 * time.Second
	listenerMaxInterval = time.Minute
	listenerPing        = 90 * time.Second
)

type commentNotification struct {
	ID     uuid.UUID `json:"id"`
	PollID uuid.UUID `json:"poll_id"`
}

// CommentRepository stores comments in poll_comments and relays new rows to
// subscribers through LISTEN/NOTIFY, so every server instance sees every
// append.
type CommentRepository struct {
	db       *sql.DB
	listener *pq.Listener
	hub      *pubsub.Hub[domain.Comment]
}

func NewCommentRepository(db *sql.DB, connStr string) *CommentRepository {
	listener := pq.NewListener(connStr, listenerMinInterval, listenerMaxInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("comment listener event", "event", ev, "error", err)
		}
	})
	return &CommentRepository{
		db:       db,
		listener: listener,
		hub:      pubsub.NewHub[domain.Comment](pubsub.DefaultBuffer),
	}
}

func (r *CommentRepository) Append(ctx context.Context, comment *domain.Comment) error {
	payload, err := json.Marshal(commentNotification{ID: comment.ID, PollID: comment.PollID})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO poll_comments (id, poll_id, name, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, comment.ID, comment.PollID, comment.Name, comment.Message, comment.Timestamp); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	// Delivered to listeners on commit.
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, commentChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *CommentRepository) List(ctx context.Context, pollID uuid.UUID) ([]domain.Comment, error) {
	query := `
		SELECT id, poll_id, name, message, created_at
		FROM poll_comments
		WHERE poll_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PollID, &c.Name, &c.Message, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) Subscribe(ctx context.Context, pollID uuid.UUID) (<-chan domain.Comment, error) {
	return r.hub.Subscribe(ctx, pollID.String()), nil
}

// Listen relays notifications to subscribers until ctx is done. After a
// connection loss every subscriber is dropped, since notifications sent while
// disconnected are gone; clients reconnect and replay the backlog.
func (r *CommentRepository) Listen(ctx context.Context) error {
	if err := r.listener.Listen(commentChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", commentChannel, err)
	}
	defer r.listener.Close()
	defer r.hub.Close()

	ticker := time.NewTicker(listenerPing)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-r.listener.Notify:
			if n == nil {
				slog.Warn("comment listener reconnected, dropping subscribers")
				r.hub.Close()
				continue
			}
			r.relay(ctx, n.Extra)
		case <-ticker.C:
			go func() {
				if err := r.listener.Ping(); err != nil {
					slog.Warn("comment listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (r *CommentRepository) relay(ctx context.Context, payload string) {
	var n commentNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		slog.Error("malformed comment notification", "payload", payload, "error", err)
		return
	}

	topic := n.PollID.String()
	if r.hub.Subscribers(topic) == 0 {
		return
	}

	comment, err := r.getByID(ctx, n.ID)
	if err != nil {
		slog.Error("failed to load notified comment", "comment_id", n.ID, "error", err)
		return
	}
	r.hub.Publish(topic, *comment)
}

func (r *CommentRepository) getByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := `
		SELECT id, poll_id, name, message, created_at
		FROM poll_comments
		WHERE id = $1
	`
	var c domain.Comment
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PollID, &c.Name, &c.Message, &c.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %s vanished", id)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}
