package domain

import "fmt"

// Slot is a time of day attachable to a calendar date.
type Slot string

const (
	Morning   Slot = "Morning"
	Afternoon Slot = "Afternoon"
	Evening   Slot = "Evening"
)

var slotOrder = map[Slot]int{
	Morning:   0,
	Afternoon: 1,
	Evening:   2,
}

// Slots returns the catalog in display order.
func Slots() []Slot {
	return []Slot{Morning, Afternoon, Evening}
}

func ParseSlot(s string) (Slot, error) {
	slot := Slot(s)
	if _, ok := slotOrder[slot]; !ok {
		return "", fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, s)
	}
	return slot, nil
}

// Index reports the slot's position in the catalog, or -1 if it is not part of it.
func (s Slot) Index() int {
	i, ok := slotOrder[s]
	if !ok {
		return -1
	}
	return i
}
