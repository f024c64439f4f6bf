package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type Option func(*clock)

type clock struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clock) {
		c.now = now
	}
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func parsePollID(id string) (uuid.UUID, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", domain.ErrPollNotFound, id)
	}
	return pollID, nil
}

// classify tags adapter failures that are not domain outcomes as store errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domain.ErrInvalidInput,
		domain.ErrPollNotFound,
		domain.ErrPollExpired,
		domain.ErrPollFull,
		domain.ErrConflict,
		domain.ErrStore,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStore, err)
}
