package consensus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

// Merge returns the response list that results from submitting draft on top
// of existing. Any entry with the same trimmed name is replaced by a new one
// appended at the end. existing is never modified.
func Merge(existing []domain.Response, draft domain.Draft) ([]domain.Response, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	availability, err := normalizeAvailability(draft.Availability)
	if err != nil {
		return nil, err
	}
	if len(availability) == 0 {
		return nil, fmt.Errorf("%w: select at least one date and time", domain.ErrInvalidInput)
	}

	merged := make([]domain.Response, 0, len(existing)+1)
	for _, r := range domain.CloneResponses(existing) {
		if strings.TrimSpace(r.Name) == name {
			continue
		}
		merged = append(merged, r)
	}

	return append(merged, domain.Response{Name: name, Availability: availability}), nil
}

// normalizeAvailability drops dates without slots, collapses duplicate slots
// into catalog order and sorts the dates ascending.
func normalizeAvailability(in map[domain.Date][]domain.Slot) ([]domain.DateAvailability, error) {
	out := make([]domain.DateAvailability, 0, len(in))
	for rawDate, slots := range in {
		if len(slots) == 0 {
			continue
		}

		date, err := domain.ParseDate(string(rawDate))
		if err != nil {
			return nil, err
		}

		var marked [3]bool
		for _, s := range slots {
			idx := s.Index()
			if idx < 0 {
				return nil, fmt.Errorf("%w: unknown slot %q", domain.ErrInvalidInput, s)
			}
			marked[idx] = true
		}

		times := make([]domain.Slot, 0, len(marked))
		for i, slot := range domain.Slots() {
			if marked[i] {
				times = append(times, slot)
			}
		}
		out = append(out, domain.DateAvailability{Date: date, Times: times})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
