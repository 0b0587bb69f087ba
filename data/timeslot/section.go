package timeslot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// a decoded raw section no longer matches the meetings it was built from
var ErrRoundTrip = errors.New("raw section does not round trip")

// fields per weekday group: days, pm flag, range
const groupSize = 3

// Section is one offering of a lecture, recitation, lab or design: where it
// is and when it meets.
type Section struct {
	Meetings []Meeting
	Room     string
}

// RawGroup is a run of weekdays sharing one range, the unit a raw section
// string is made of.
type RawGroup struct {
	Days    string
	Evening bool
	Range   string
}

func (g RawGroup) String() string {
	flag := "0"
	if g.Evening {
		flag = "1"
	}
	return g.Days + "/" + flag + "/" + g.Range
}

// Meetings encodes the group on each of its weekdays.
func (g RawGroup) Meetings() ([]Meeting, error) {
	return EncodeMany(g.Days, g.Range, g.Evening)
}

// DecodeSection reads a raw section such as "32-123/TR/0/11/F/0/2".
// Callers handle the "TBA" sentinel before getting here.
func DecodeSection(raw string) (Section, error) {
	place, infos, _ := strings.Cut(raw, "/")
	section := Section{Meetings: []Meeting{}, Room: place}
	if infos == "" {
		return section, nil
	}

	fields := strings.Split(infos, "/")
	if len(fields)%groupSize != 0 {
		return section, fmt.Errorf(
			"%w `%s` has %d fields after the room, expected a multiple of %d",
			ErrMalformedSection,
			raw,
			len(fields),
			groupSize,
		)
	}

	for i := 0; i < len(fields); i += groupSize {
		group, err := parseGroup(fields[i], fields[i+1], fields[i+2])
		if err != nil {
			return section, fmt.Errorf("section `%s`: %w", raw, err)
		}
		meetings, err := group.Meetings()
		if err != nil {
			return section, fmt.Errorf("section `%s`: %w", raw, err)
		}
		section.Meetings = append(section.Meetings, meetings...)
	}
	return section, nil
}

func parseGroup(weekdays, pmFlag, slot string) (RawGroup, error) {
	var group RawGroup
	switch pmFlag {
	case "0":
	case "1":
		group.Evening = true
	default:
		return group, fmt.Errorf("%w pm flag `%s` must be 0 or 1", ErrMalformedSection, pmFlag)
	}
	group.Days = weekdays
	group.Range = slot
	return group, nil
}

// BuildRawSection is the inverse of DecodeSection used by override generators.
func BuildRawSection(room string, groups ...RawGroup) string {
	var b strings.Builder
	b.WriteString(room)
	for _, g := range groups {
		b.WriteByte('/')
		b.WriteString(g.String())
	}
	return b.String()
}

// CheckRoundTrip decodes raw and compares it with the section it was built
// from. Every generator that writes raw sections runs this.
func CheckRoundTrip(raw string, want Section) error {
	got, err := DecodeSection(raw)
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return fmt.Errorf("%w `%s`: decoded %v, built %v", ErrRoundTrip, raw, got, want)
	}
	return nil
}

// Equal compares room and meetings in order.
func (s Section) Equal(other Section) bool {
	if s.Room != other.Room || len(s.Meetings) != len(other.Meetings) {
		return false
	}
	for i := range s.Meetings {
		if s.Meetings[i] != other.Meetings[i] {
			return false
		}
	}
	return true
}

// the front end reads meetings as [start, duration]
func (m Meeting) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{m.Start, m.Duration})
}

func (m *Meeting) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w meeting must be [start, duration] got %s", ErrMalformedSection, data)
	}
	m.Start, m.Duration = pair[0], pair[1]
	return nil
}

// sections are [[meeting, ...], room]
func (s Section) MarshalJSON() ([]byte, error) {
	meetings := s.Meetings
	if meetings == nil {
		meetings = []Meeting{}
	}
	return json.Marshal([]any{meetings, s.Room})
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w section must be [meetings, room] got %s", ErrMalformedSection, data)
	}
	if err := json.Unmarshal(pair[0], &s.Meetings); err != nil {
		return err
	}
	if s.Meetings == nil {
		s.Meetings = []Meeting{}
	}
	return json.Unmarshal(pair[1], &s.Room)
}
