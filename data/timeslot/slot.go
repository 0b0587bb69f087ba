package timeslot

import (
	"fmt"
	"time"
)

// first label on the grid is 6:00 AM
const firstHour = 6

const slotLength = 30 * time.Minute

// Slot is a code on the grid, weekday offset plus table offset.
type Slot int

func (s Slot) Valid() bool {
	return s >= 0 && s < Weekdays*Span
}

func (s Slot) Weekday() time.Weekday {
	return time.Monday + time.Weekday(int(s)/Span)
}

// Letter is the weekday letter used in raw sections.
func (s Slot) Letter() byte {
	return weekdayLetters[int(s)/Span]
}

// Clock is the 24 hour wall clock time the slot starts at.
func (s Slot) Clock() (hour int, minute int) {
	inDay := int(s) % Span
	return firstHour + inDay/2, (inDay % 2) * 30
}

// SinceMidnight is the offset of the start of the slot into its day.
func (s Slot) SinceMidnight() time.Duration {
	hour, minute := s.Clock()
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
}

func (s Slot) String() string {
	hour, minute := s.Clock()
	return fmt.Sprintf("%s %02d:%02d", s.Weekday().String()[:3], hour, minute)
}

func (m Meeting) Slot() Slot {
	return Slot(m.Start)
}

func (m Meeting) Length() time.Duration {
	return time.Duration(m.Duration) * slotLength
}
