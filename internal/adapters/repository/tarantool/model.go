package tarantool

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

// PollModel is the tuple stored in the polls space:
// [id, name, created_at, expires_at|nil, version, responses].
type PollModel struct {
	ID        string
	Name      string
	CreatedAt int64
	ExpiresAt *int64
	Version   int64
	Responses []ResponseModel
}

type ResponseModel struct {
	Name         string                  `msgpack:"name"`
	Availability []DateAvailabilityModel `msgpack:"availability"`
}

type DateAvailabilityModel struct {
	Date  string   `msgpack:"date"`
	Times []string `msgpack:"times"`
}

const pollModelFields = 6

func NewPollModel(poll *domain.Poll) *PollModel {
	m := &PollModel{
		ID:        poll.ID.String(),
		Name:      poll.Name,
		CreatedAt: poll.CreatedAt.UnixNano(),
		Version:   poll.Version,
		Responses: newResponseModels(poll.Responses),
	}
	if poll.ExpiresAt != nil {
		exp := poll.ExpiresAt.UnixNano()
		m.ExpiresAt = &exp
	}
	return m
}

func newResponseModels(responses []domain.Response) []ResponseModel {
	out := make([]ResponseModel, 0, len(responses))
	for _, r := range responses {
		rm := ResponseModel{Name: r.Name, Availability: make([]DateAvailabilityModel, 0, len(r.Availability))}
		for _, da := range r.Availability {
			times := make([]string, 0, len(da.Times))
			for _, s := range da.Times {
				times = append(times, string(s))
			}
			rm.Availability = append(rm.Availability, DateAvailabilityModel{Date: string(da.Date), Times: times})
		}
		out = append(out, rm)
	}
	return out
}

func (p *PollModel) ToPoll() (*domain.Poll, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("stored poll has malformed id %q: %w", p.ID, err)
	}

	poll := &domain.Poll{
		ID:        id,
		Name:      p.Name,
		CreatedAt: time.Unix(0, p.CreatedAt).UTC(),
		Version:   p.Version,
		Responses: make([]domain.Response, 0, len(p.Responses)),
	}
	if p.ExpiresAt != nil {
		exp := time.Unix(0, *p.ExpiresAt).UTC()
		poll.ExpiresAt = &exp
	}
	for _, rm := range p.Responses {
		r := domain.Response{Name: rm.Name, Availability: make([]domain.DateAvailability, 0, len(rm.Availability))}
		for _, dm := range rm.Availability {
			times := make([]domain.Slot, 0, len(dm.Times))
			for _, s := range dm.Times {
				times = append(times, domain.Slot(s))
			}
			r.Availability = append(r.Availability, domain.DateAvailability{Date: domain.Date(dm.Date), Times: times})
		}
		poll.Responses = append(poll.Responses, r)
	}
	return poll, nil
}

func (p *PollModel) EncodeMsgpack(e *msgpack.Encoder) error {
	if err := e.EncodeArrayLen(pollModelFields); err != nil {
		return err
	}
	if err := e.EncodeString(p.ID); err != nil {
		return err
	}
	if err := e.EncodeString(p.Name); err != nil {
		return err
	}
	if err := e.EncodeInt(p.CreatedAt); err != nil {
		return err
	}
	if p.ExpiresAt == nil {
		if err := e.EncodeNil(); err != nil {
			return err
		}
	} else if err := e.EncodeInt(*p.ExpiresAt); err != nil {
		return err
	}
	if err := e.EncodeInt(p.Version); err != nil {
		return err
	}
	return e.Encode(p.Responses)
}

func (p *PollModel) DecodeMsgpack(d *msgpack.Decoder) error {
	var err error
	var l int
	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l != pollModelFields {
		return fmt.Errorf("array len doesn't match: %d", l)
	}
	if p.ID, err = d.DecodeString(); err != nil {
		return err
	}
	if p.Name, err = d.DecodeString(); err != nil {
		return err
	}
	if p.CreatedAt, err = d.DecodeInt64(); err != nil {
		return err
	}

	code, err := d.PeekCode()
	if err != nil {
		return err
	}
	if code == msgpcode.Nil {
		if err = d.DecodeNil(); err != nil {
			return err
		}
		p.ExpiresAt = nil
	} else {
		exp, err := d.DecodeInt64()
		if err != nil {
			return err
		}
		p.ExpiresAt = &exp
	}

	if p.Version, err = d.DecodeInt64(); err != nil {
		return err
	}

	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l < 0 {
		p.Responses = nil
		return nil
	}
	p.Responses = make([]ResponseModel, l)
	for i := 0; i < l; i++ {
		if err = d.Decode(&p.Responses[i]); err != nil {
			return err
		}
	}
	return nil
}
