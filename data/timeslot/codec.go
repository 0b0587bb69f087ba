package timeslot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// a weekday/label pair that is in neither candidate table
	ErrTimeslotNotFound = errors.New("timeslot not found")

	// the end of a range is not after its start, the source data is wrong
	ErrInvertedRange = errors.New("inverted range")

	// wrong group arity, bad pm flag or a label that is not a number
	ErrMalformedSection = errors.New("malformed section string")
)

// a meeting given as a single label lasts one hour
const DefaultDuration = 2

const pmMarker = " PM"

var labelPattern = regexp.MustCompile(`^\d+(\.\d{2})?$`)

// Meeting is one weekly occurrence: the code of its first slot and its length
// in half hours.
type Meeting struct {
	Start    int
	Duration int
}

// Resolution records how the tables were picked for a range.
type Resolution int

const (
	// both labels were found in the table the evening flag selected
	ResolvedSameTable Resolution = iota
	// the start was read as daytime and the end as evening after the
	// selected table failed, this is a guess about AM/PM
	ResolvedCrossTable
)

func (r Resolution) String() string {
	switch r {
	case ResolvedSameTable:
		return "same-table"
	case ResolvedCrossTable:
		return "cross-table"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// Encode turns a weekday letter and a range such as "10-11.30" or "11" into a
// Meeting. evening selects the table for the whole range. A range written with
// a trailing " PM" must also be flagged as evening.
func Encode(weekday string, rangeText string, evening bool) (Meeting, Resolution, error) {
	var meeting Meeting
	if len(weekday) != 1 {
		return meeting, ResolvedSameTable, fmt.Errorf(
			"%w weekday `%s` must be a single letter",
			ErrTimeslotNotFound,
			weekday,
		)
	}
	day, ok := days[weekday[0]]
	if !ok {
		return meeting, ResolvedSameTable, fmt.Errorf(
			"%w weekday `%s` is not on the grid",
			ErrTimeslotNotFound,
			weekday,
		)
	}

	slot := strings.TrimSpace(rangeText)
	if strings.HasSuffix(slot, pmMarker) {
		if !evening {
			return meeting, ResolvedSameTable, fmt.Errorf(
				"%w range `%s` is marked PM but not flagged as evening",
				ErrMalformedSection,
				rangeText,
			)
		}
		slot = strings.TrimSuffix(slot, pmMarker)
	}

	if !strings.Contains(slot, "-") {
		if err := checkLabel(slot); err != nil {
			return meeting, ResolvedSameTable, err
		}
		start, err := lookup(weekday, day, slot, evening)
		if err != nil {
			return meeting, ResolvedSameTable, err
		}
		return Meeting{Start: start, Duration: DefaultDuration}, ResolvedSameTable, nil
	}

	bounds := strings.Split(slot, "-")
	if len(bounds) != 2 {
		return meeting, ResolvedSameTable, fmt.Errorf(
			"%w range `%s` must have one start and one end",
			ErrMalformedSection,
			rangeText,
		)
	}
	startLabel, endLabel := bounds[0], bounds[1]
	if err := checkLabel(startLabel); err != nil {
		return meeting, ResolvedSameTable, err
	}
	if err := checkLabel(endLabel); err != nil {
		return meeting, ResolvedSameTable, err
	}

	resolution := ResolvedSameTable
	start, startErr := lookup(weekday, day, startLabel, evening)
	end, endErr := lookup(weekday, day, endLabel, evening)
	if startErr != nil || endErr != nil {
		// maybe the start is in the morning and the end in the evening
		resolution = ResolvedCrossTable
		start, startErr = lookup(weekday, day, startLabel, false)
		end, endErr = lookup(weekday, day, endLabel, true)
		if err := errors.Join(startErr, endErr); err != nil {
			return meeting, resolution, err
		}
	}

	if end <= start {
		return meeting, resolution, fmt.Errorf(
			"%w %s `%s` ends at %d which is not after %d",
			ErrInvertedRange,
			weekday,
			rangeText,
			end,
			start,
		)
	}
	return Meeting{Start: start, Duration: end - start}, resolution, nil
}

// EncodeMany encodes the same range on each weekday letter of weekdays,
// dropping Saturday.
func EncodeMany(weekdays string, rangeText string, evening bool) ([]Meeting, error) {
	meetings := make([]Meeting, 0, len(weekdays))
	for _, letter := range weekdays {
		if letter == saturday {
			continue
		}
		meeting, _, err := Encode(string(letter), rangeText, evening)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

func checkLabel(label string) error {
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w label `%s` is not a clock label", ErrMalformedSection, label)
	}
	return nil
}

func lookup(weekday string, day int, label string, evening bool) (int, error) {
	offset, ok := table(evening)[label]
	if !ok {
		return 0, fmt.Errorf(
			"%w %s `%s` (evening %t)",
			ErrTimeslotNotFound,
			weekday,
			label,
			evening,
		)
	}
	return day + offset, nil
}
