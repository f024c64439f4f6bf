package consensus

import (
	"sort"

	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
)

type Level string

const (
	LevelNone    Level = "none"
	LevelPartial Level = "partial"
	LevelFull    Level = "full"
)

// Consensus is the derived availability grid of a poll. It is recomputed on
// every read and never stored.
type Consensus struct {
	Grid        map[domain.Date]map[domain.Slot][]string
	Headcount   map[domain.Date]int
	BestDates   []domain.Date
	Dates       []domain.Date
	Respondents int
}

type SlotCell struct {
	Slot  domain.Slot `json:"slot"`
	Names []string    `json:"names"`
	Count int         `json:"count"`
	Level Level       `json:"level"`
}

type Row struct {
	Date      domain.Date `json:"date"`
	Label     string      `json:"label"`
	Headcount int         `json:"headcount"`
	Best      bool        `json:"best"`
	Slots     []SlotCell  `json:"slots"`
}

// Aggregate folds a response list into per-date, per-slot name lists.
// Names keep the order of responses.
func Aggregate(responses []domain.Response) *Consensus {
	c := &Consensus{
		Grid:        make(map[domain.Date]map[domain.Slot][]string),
		Headcount:   make(map[domain.Date]int),
		BestDates:   []domain.Date{},
		Dates:       []domain.Date{},
		Respondents: len(responses),
	}

	for _, resp := range responses {
		// A response may repeat a date or a slot in stored data; it still
		// counts once per date and once per slot.
		seenDate := make(map[domain.Date]bool)
		seenSlot := make(map[domain.Date]map[domain.Slot]bool)

		for _, da := range resp.Availability {
			for _, slot := range da.Times {
				if slot.Index() < 0 {
					continue
				}
				if seenSlot[da.Date] == nil {
					seenSlot[da.Date] = make(map[domain.Slot]bool)
				}
				if seenSlot[da.Date][slot] {
					continue
				}
				seenSlot[da.Date][slot] = true

				if c.Grid[da.Date] == nil {
					c.Grid[da.Date] = make(map[domain.Slot][]string)
				}
				c.Grid[da.Date][slot] = append(c.Grid[da.Date][slot], resp.Name)

				if !seenDate[da.Date] {
					seenDate[da.Date] = true
					c.Headcount[da.Date]++
				}
			}
		}
	}

	for date := range c.Grid {
		c.Dates = append(c.Dates, date)
	}
	sort.Slice(c.Dates, func(i, j int) bool { return c.Dates[i] < c.Dates[j] })

	if c.Respondents == 0 {
		return c
	}
	for _, date := range c.Dates {
		for _, names := range c.Grid[date] {
			if len(names) == c.Respondents {
				c.BestDates = append(c.BestDates, date)
				break
			}
		}
	}
	return c
}

// IsBest reports whether every respondent shares a slot on date.
func (c *Consensus) IsBest(date domain.Date) bool {
	for _, d := range c.BestDates {
		if d == date {
			return true
		}
	}
	return false
}

// Rows lays the grid out for display: dates ascending, every catalog slot
// present in catalog order.
func (c *Consensus) Rows() []Row {
	rows := make([]Row, 0, len(c.Dates))
	for _, date := range c.Dates {
		row := Row{
			Date:      date,
			Label:     date.Label(),
			Headcount: c.Headcount[date],
			Best:      c.IsBest(date),
			Slots:     make([]SlotCell, 0, len(domain.Slots())),
		}
		for _, slot := range domain.Slots() {
			names := append([]string{}, c.Grid[date][slot]...)
			row.Slots = append(row.Slots, SlotCell{
				Slot:  slot,
				Names: names,
				Count: len(names),
				Level: c.level(len(names)),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func (c *Consensus) level(count int) Level {
	switch {
	case count == 0:
		return LevelNone
	case count == c.Respondents:
		return LevelFull
	default:
		return LevelPartial
	}
}
