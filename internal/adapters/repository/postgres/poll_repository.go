package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	responses, err := encodeResponses(poll.Responses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO polls (id, name, created_at, expires_at, responses, version)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, poll.ID, poll.Name, poll.CreatedAt, poll.ExpiresAt, responses, poll.Version)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `
		SELECT id, name, created_at, expires_at, responses, version
		FROM polls
		WHERE id = $1
	`

	var (
		poll      domain.Poll
		expiresAt sql.NullTime
		raw       []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&poll.ID, &poll.Name, &poll.CreatedAt, &expiresAt, &raw, &poll.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if expiresAt.Valid {
		poll.ExpiresAt = &expiresAt.Time
	}
	if err := json.Unmarshal(raw, &poll.Responses); err != nil {
		return nil, fmt.Errorf("failed to decode responses of poll %s: %w", id, err)
	}
	if poll.Responses == nil {
		poll.Responses = []domain.Response{}
	}

	return &poll, nil
}

func (r *pollRepository) ReplaceResponses(ctx context.Context, id uuid.UUID, version int64, responses []domain.Response) (int64, error) {
	raw, err := encodeResponses(responses)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE polls
		SET responses = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	var newVersion int64
	err = r.db.QueryRowContext(ctx, query, raw, id, version).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to replace responses: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check poll: %w", err)
	}
	if !exists {
		return 0, domain.ErrPollNotFound
	}
	return 0, domain.ErrConflict
}

func encodeResponses(responses []domain.Response) ([]byte, error) {
	if responses == nil {
		responses = []domain.Response{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}
	return raw, nil
}
