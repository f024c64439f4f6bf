package ports

import (
	"context"

	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type SubmitInput struct {
	PollID string
	Draft  domain.Draft
}

type ResponseService interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.Poll, error)
	GetResponse(ctx context.Context, pollID, name string) (*domain.Response, error)
}
