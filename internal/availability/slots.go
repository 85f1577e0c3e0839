package availability

import (
	"sort"

	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// NormalizeSlot validates a slot's times, zero-pads them, and defaults the
// status to available.
func NormalizeSlot(s Slot) (Slot, error) {
	start, err := clock.Parse(s.Start)
	if err != nil {
		return Slot{}, ErrInvalidTime
	}
	end, err := clock.Parse(s.End)
	if err != nil {
		return Slot{}, ErrInvalidTime
	}
	if end <= start {
		return Slot{}, ErrInvalidRange
	}

	s.Start = start.String()
	s.End = end.String()
	if s.Status == "" {
		s.Status = SlotAvailable
	}
	return s, nil
}

// SortSlots orders slots by start time in place. Times are normalized, so
// lexicographic order is chronological order.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start < slots[j].Start
	})
}

// ValidateDisjoint checks the day invariant: no two slots in the list may
// overlap. Given slots sorted by start, every adjacent pair must satisfy
// next.start >= current.end.
func ValidateDisjoint(slots []Slot) error {
	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	SortSlots(sorted)

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i+1].Start < sorted[i].End {
			return ErrSlotOverlap
		}
	}
	return nil
}

// MergeKeepingBooked merges caller-supplied slots into the current list while
// preserving booked slots verbatim: a bulk edit can never silently remove a
// booked slot. Incoming slots that exactly match a booked slot's bounds are
// dropped in favour of the booked entry. The merged result must satisfy the
// disjointness invariant.
func MergeKeepingBooked(current, incoming []Slot) ([]Slot, error) {
	var booked []Slot
	for _, s := range current {
		if s.Status == SlotBooked {
			booked = append(booked, s)
		}
	}

	merged := make([]Slot, 0, len(booked)+len(incoming))
	merged = append(merged, booked...)

	for _, in := range incoming {
		s, err := NormalizeSlot(in)
		if err != nil {
			return nil, err
		}
		shadowed := false
		for _, b := range booked {
			if b.Start == s.Start && b.End == s.End {
				shadowed = true
				break
			}
		}
		if !shadowed {
			merged = append(merged, s)
		}
	}

	if err := ValidateDisjoint(merged); err != nil {
		return nil, err
	}

	SortSlots(merged)
	return merged, nil
}

// findSlot returns the index of the slot with exactly the given bounds, or -1.
func findSlot(slots []Slot, start, end string) int {
	for i, s := range slots {
		if s.Start == start && s.End == end {
			return i
		}
	}
	return -1
}
