package fireroad

import (
	"strconv"
	"strings"

	classentry "github.com/sipb/hydrant/data/class-entry"
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// decodeQuarterDate reads "4/4" or "apr 4"
func decodeQuarterDate(date string) *classentry.MonthDay {
	var month, day string
	if m, d, ok := strings.Cut(date, "/"); ok {
		month, day = m, d
	} else if fields := strings.Fields(date); len(fields) == 2 {
		n, ok := months[strings.ToLower(fields[0])]
		if !ok {
			return nil
		}
		month, day = strconv.Itoa(n), fields[1]
	} else {
		return nil
	}

	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return nil
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return nil
	}
	return &classentry.MonthDay{m, d}
}

// quarterInfo reads Fireroad's quarter_information:
//
//	0,apr 14       ends on Apr 14
//	1,4/4          begins on 4/4
//	2,4/9 to 5/9   meets from 4/9 to 5/9
func quarterInfo(info string) *classentry.QuarterInfo {
	kind, dates, ok := strings.Cut(info, ",")
	if !ok {
		return nil
	}
	switch kind {
	case "0":
		if end := decodeQuarterDate(dates); end != nil {
			return &classentry.QuarterInfo{End: end}
		}
	case "1":
		if start := decodeQuarterDate(dates); start != nil {
			return &classentry.QuarterInfo{Start: start}
		}
	case "2":
		from, to, ok := strings.Cut(dates, " to ")
		if !ok {
			return nil
		}
		start, end := decodeQuarterDate(from), decodeQuarterDate(to)
		if start != nil && end != nil {
			return &classentry.QuarterInfo{Start: start, End: end}
		}
	}
	return nil
}
