package timeslot

// The grid every snapshot is encoded against. The front end decodes slot
// numbers with the same grid (34 half hour slots a day starting at 6 AM), so
// changing anything here silently changes every code in every snapshot.
const (
	GridVersion = "half-hour-34"

	// number of labels in a single weekday
	Span = 34

	// Monday through Friday
	Weekdays = 5
)

// weekday letter to the offset of its first slot
var days = map[byte]int{
	'M': 0,
	'T': Span,
	'W': Span * 2,
	'R': Span * 3,
	'F': Span * 4,
}

// Saturday shows up in source data but the grid has no room for it
const saturday = 'S'

var weekdayLetters = [Weekdays]byte{'M', 'T', 'W', 'R', 'F'}

// morning and early afternoon labels, 6 AM through 5:30 PM
var daytimeTimes = map[string]int{
	"6":     0,
	"6.30":  1,
	"7":     2,
	"7.30":  3,
	"8":     4,
	"8.30":  5,
	"9":     6,
	"9.30":  7,
	"10":    8,
	"10.30": 9,
	"11":    10,
	"11.30": 11,
	"12":    12,
	"12.30": 13,
	"1":     14,
	"1.30":  15,
	"2":     16,
	"2.30":  17,
	"3":     18,
	"3.30":  19,
	"4":     20,
	"4.30":  21,
	"5":     22,
	"5.30":  23,
}

// noon through 10:30 PM
var eveningTimes = map[string]int{
	"12":    12,
	"12.30": 13,
	"1":     14,
	"1.30":  15,
	"2":     16,
	"2.30":  17,
	"3":     18,
	"3.30":  19,
	"4":     20,
	"4.30":  21,
	"5":     22,
	"5.30":  23,
	"6":     24,
	"6.30":  25,
	"7":     26,
	"7.30":  27,
	"8":     28,
	"8.30":  29,
	"9":     30,
	"9.30":  31,
	"10":    32,
	"10.30": 33,
}

func table(evening bool) map[string]int {
	if evening {
		return eveningTimes
	}
	return daytimeTimes
}

// offset of 12 in both tables
const noon = 12

// IsMorningLabel reports whether label reads as a time before noon in the
// daytime table.
func IsMorningLabel(label string) bool {
	offset, ok := daytimeTimes[label]
	return ok && offset < noon
}
