package consensus

import (
	"fmt"
	"time"

	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

// CheckSubmission decides whether name may submit to poll at now. Callers
// must pass the most recently read poll.
func CheckSubmission(poll *domain.Poll, name string, now time.Time) error {
	if poll.IsExpired(now) {
		return fmt.Errorf("%w: poll closed at %s", domain.ErrPollExpired, poll.ExpiresAt.Format(time.RFC3339))
	}
	if poll.IsFull() && !poll.HasRespondent(name) {
		return fmt.Errorf("%w: %d responses already recorded", domain.ErrPollFull, len(poll.Responses))
	}
	return nil
}
