package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxResponses caps distinct respondents per poll.
const MaxResponses = 50

type PollStatus string

const (
	StatusOpen    PollStatus = "open"
	StatusFull    PollStatus = "full"
	StatusExpired PollStatus = "expired"
)

type Poll struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Responses []Response `json:"responses"`
	// Version is bumped by the store on every responses replacement.
	Version int64 `json:"version"`
}

type Response struct {
	Name         string             `json:"name"`
	Availability []DateAvailability `json:"availability"`
}

type DateAvailability struct {
	Date  Date   `json:"date"`
	Times []Slot `json:"times"`
}

// Draft is a respondent's complete intended availability, owned by the caller
// until it is merged.
type Draft struct {
	Name         string
	Availability map[Date][]Slot
}

func (p *Poll) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

func (p *Poll) IsFull() bool {
	return len(p.Responses) >= MaxResponses
}

// Status evaluates the lifecycle at now. Expired wins over full.
func (p *Poll) Status(now time.Time) PollStatus {
	switch {
	case p.IsExpired(now):
		return StatusExpired
	case p.IsFull():
		return StatusFull
	default:
		return StatusOpen
	}
}

// FindResponse looks up a response by its trimmed name.
func (p *Poll) FindResponse(name string) (*Response, bool) {
	name = strings.TrimSpace(name)
	for i := range p.Responses {
		if strings.TrimSpace(p.Responses[i].Name) == name {
			return &p.Responses[i], true
		}
	}
	return nil, false
}

func (p *Poll) HasRespondent(name string) bool {
	_, ok := p.FindResponse(name)
	return ok
}

// CloneResponses deep-copies a response list so stores never share backing
// arrays with callers.
func CloneResponses(in []Response) []Response {
	if in == nil {
		return nil
	}
	out := make([]Response, len(in))
	for i, r := range in {
		out[i].Name = r.Name
		out[i].Availability = make([]DateAvailability, len(r.Availability))
		for j, da := range r.Availability {
			out[i].Availability[j] = DateAvailability{
				Date:  da.Date,
				Times: append([]Slot(nil), da.Times...),
			}
		}
	}
	return out
}
