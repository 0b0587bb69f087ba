package eecs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sipb/hydrant/data/timeslot"
)

var (
	courseNumber = regexp.MustCompile(`\b(6\.S\d{3})\b`)
	whitespace   = regexp.MustCompile(`\s+`)

	// "Lectures: TR2:30-4, room 34-101", "Thursdays 7-10pm, room 2-131"
	scheduleLine = regexp.MustCompile(`(?i)^(?:(?:Lecture|Lectures|Recitation|Recitations|Lab|Labs):\s*)?` +
		`(?P<days>(?:[MTWRF]+)|(?:Mondays|Monday|Tuesdays|Tuesday|Wednesdays|Wednesday|Thursdays|Thursday|Fridays|Friday))\s*` +
		`(?P<start>[0-9]+(?:[.:][0-9]{2})?)(?:\s*(?P<startampm>am|pm|a|p))?\s*-\s*` +
		`(?P<end>[0-9]+(?:[.:][0-9]{2})?)(?:\s*(?P<endampm>am|pm|a|p))?` +
		`\s*,\s*room\s+(?P<room>[A-Za-z0-9-]+)(?:\s+.*)?$`)

	dayWords = map[string]string{
		"monday":    "M",
		"tuesday":   "T",
		"wednesday": "W",
		"thursday":  "R",
		"friday":    "F",
	}
)

// clean flattens the typography of the page: non breaking spaces, en and em
// dashes, runs of whitespace and stray section signs.
func clean(text string) string {
	text = strings.NewReplacer("\u00a0", " ", "\u2013", "-", "\u2014", "-").Replace(text)
	return strings.Trim(whitespace.ReplaceAllString(text, " "), "§ ")
}

func parseHeader(text string) (number string, title string, ok bool) {
	text = clean(text)
	number = courseNumber.FindString(text)
	if number == "" {
		return "", "", false
	}
	title = clean(strings.Replace(text, number, "", 1))
	title = strings.TrimLeft(title, " :-\u2013\u2014\t")
	return number, title, true
}

func normalizeDays(text string) (string, error) {
	text = clean(text)
	if text == "" {
		return "", fmt.Errorf("empty day string")
	}
	if strings.ToUpper(text) == text {
		if strings.Trim(text, "MTWRF") != "" {
			return "", fmt.Errorf("unknown days `%s`", text)
		}
		return text, nil
	}
	letter, ok := dayWords[strings.TrimRight(strings.ToLower(text), "s")]
	if !ok {
		return "", fmt.Errorf("unknown day `%s`", text)
	}
	return letter, nil
}

// meeting is the first meeting pattern of a schedule line
type meeting struct {
	days    string
	start   string
	end     string
	room    string
	evening bool
}

// parseSchedule reads the first chunk of a schedule line, later chunks are
// recitations fireroad already knows.
func parseSchedule(line string) (meeting, error) {
	var m meeting
	text := clean(line)
	if text == "" || text == "TBD" {
		return m, fmt.Errorf("no schedule in `%s`", line)
	}
	chunk, _, _ := strings.Cut(text, ";")
	chunk = clean(chunk)

	match := scheduleLine.FindStringSubmatch(chunk)
	if match == nil {
		return m, fmt.Errorf("%w `%s` is not a schedule line", timeslot.ErrMalformedSection, chunk)
	}
	group := func(name string) string { return match[scheduleLine.SubexpIndex(name)] }

	days, err := normalizeDays(group("days"))
	if err != nil {
		return m, fmt.Errorf("%w %w", timeslot.ErrMalformedSection, err)
	}
	m.days = days
	m.room = clean(group("room"))
	m.start = strings.ReplaceAll(group("start"), ":", ".")
	m.end = strings.ReplaceAll(group("end"), ":", ".")

	dayErr := fitsTable(m.start+"-"+m.end, false)
	eveErr := fitsTable(m.start+"-"+m.end+" PM", true)
	daytime, evening := dayErr == nil, eveErr == nil
	if !daytime && !evening {
		return m, fmt.Errorf("%s-%s fits neither table: %w", m.start, m.end, errors.Join(dayErr, eveErr))
	}
	// the tables agree from noon on, so daytime wins unless an explicit pm
	// moves a morning reading into the evening
	pm := strings.HasPrefix(strings.ToLower(group("startampm")), "p") ||
		strings.HasPrefix(strings.ToLower(group("endampm")), "p")
	m.evening = evening && (!daytime || (pm && timeslot.IsMorningLabel(m.start)))
	return m, nil
}

// fitsTable checks the whole range reads forwards in a single table
func fitsTable(rangeText string, evening bool) error {
	_, resolution, err := timeslot.Encode("M", rangeText, evening)
	if err != nil {
		return err
	}
	if resolution != timeslot.ResolvedSameTable {
		return fmt.Errorf("%w `%s` spans both tables", timeslot.ErrTimeslotNotFound, rangeText)
	}
	return nil
}

func (m meeting) slot() string {
	slot := m.start + "-" + m.end
	if m.evening {
		slot += " PM"
	}
	return slot
}

// build writes the raw section and checks it decodes to the meetings it
// was built from.
func (m meeting) build() (string, timeslot.Section, error) {
	group := timeslot.RawGroup{Days: m.days, Evening: m.evening, Range: m.slot()}
	meetings, err := group.Meetings()
	if err != nil {
		return "", timeslot.Section{}, err
	}
	section := timeslot.Section{Meetings: meetings, Room: m.room}
	raw := timeslot.BuildRawSection(m.room, group)
	if err := timeslot.CheckRoundTrip(raw, section); err != nil {
		return "", timeslot.Section{}, err
	}
	return raw, section, nil
}

type units struct {
	lecture, lab, preparation int
	variable                  bool
}

// parseUnits reads "3-0-9", "12" or "Arranged".
func parseUnits(text string) (units, bool) {
	text = clean(text)
	if strings.Contains(strings.ToLower(text), "arranged") {
		return units{variable: true}, true
	}
	if parts := strings.Split(text, "-"); len(parts) == 3 {
		var values [3]int
		for i, part := range parts {
			value, err := strconv.Atoi(part)
			if err != nil {
				return units{}, false
			}
			values[i] = value
		}
		return units{lecture: values[0], lab: values[1], preparation: values[2]}, true
	}
	total, err := strconv.Atoi(text)
	if err != nil || total < 0 {
		return units{}, false
	}
	if total == 12 {
		return units{lecture: 3, preparation: 9}, true
	}
	// a third in class is a guess, overrides can say otherwise
	lecture := total / 3
	return units{lecture: lecture, preparation: total - lecture}, true
}

// parseLevel is "G" only for subjects that are graduate and not also
// undergraduate.
func parseLevel(text string) string {
	text = strings.ToLower(clean(text))
	if strings.Contains(text, "graduate") && !strings.Contains(text, "undergrad") {
		return "G"
	}
	return "U"
}
