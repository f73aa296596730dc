package workforce

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// TimeSlot is a (date, time-of-day) pair. Both parts are zero-padded so
// lexicographic order is chronological order. No timezone or duration.
type TimeSlot struct {
	Date  string `json:"date"`
	Clock string `json:"time"`
}

func ParseTimeSlot(date, clock string) (TimeSlot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return TimeSlot{}, fmt.Errorf("%w: date %q: %v", ErrInvalidSlot, date, err)
	}
	if _, err := time.Parse(clockLayout, clock); err != nil {
		return TimeSlot{}, fmt.Errorf("%w: time %q: %v", ErrInvalidSlot, clock, err)
	}
	return TimeSlot{Date: date, Clock: clock}, nil
}

func MustTimeSlot(date, clock string) TimeSlot {
	slot, err := ParseTimeSlot(date, clock)
	if err != nil {
		panic(err)
	}
	return slot
}

// Display is the string offered to the caller, e.g. "2025-08-21 at 16:00".
func (s TimeSlot) Display() string {
	return s.Date + " at " + s.Clock
}

func (s TimeSlot) String() string {
	return s.Date + " " + s.Clock
}

func (s TimeSlot) Less(o TimeSlot) bool {
	if s.Date != o.Date {
		return s.Date < o.Date
	}
	return s.Clock < o.Clock
}

func DisplayAll(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Display())
	}
	return out
}

// FindByDisplay returns the slot whose display string equals text exactly.
func FindByDisplay(slots []TimeSlot, text string) (TimeSlot, bool) {
	for _, s := range slots {
		if s.Display() == text {
			return s, true
		}
	}
	return TimeSlot{}, false
}

func JoinDisplay(slots []TimeSlot) string {
	return strings.Join(DisplayAll(slots), ", ")
}
