// Package calendar turns packaged classes into a weekly repeating
// iCalendar file.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	classentry "github.com/sipb/hydrant/data/class-entry"
	"github.com/sipb/hydrant/data/schedule"
	"github.com/sipb/hydrant/data/timeslot"
)

const Timezone = "America/New_York"

const (
	dateLayout  = "2006-01-02"
	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
)

// Class is a class as the front end package has it, the catalog half is
// needed to know which part of the term it meets.
type Class struct {
	classentry.RawClass
	Half classentry.Half `json:"half"`
}

// Selection picks sections of a class. An empty Kind means the first
// section of every kind.
type Selection struct {
	Number  string
	Kind    schedule.Kind
	Section int
}

// ParseSelection reads "6.1010" or "6.1010/recitation/2".
func ParseSelection(text string) (Selection, error) {
	parts := strings.Split(text, "/")
	switch len(parts) {
	case 1:
		return Selection{Number: parts[0]}, nil
	case 3:
		kind := schedule.Kind(strings.ToLower(parts[1]))
		known := false
		for _, k := range schedule.Kinds {
			known = known || k == kind
		}
		if !known {
			return Selection{}, fmt.Errorf("unknown section kind `%s` in `%s`", parts[1], text)
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil || index < 0 {
			return Selection{}, fmt.Errorf("invalid section index in `%s`", text)
		}
		return Selection{Number: parts[0], Kind: kind, Section: index}, nil
	}
	return Selection{}, fmt.Errorf("selection must be NUMBER or NUMBER/KIND/INDEX got `%s`", text)
}

type termDates struct {
	start, end     time.Time
	h1End, h2Start *time.Time
	mondaySchedule *time.Time
	holidays       []time.Time
}

type Exporter struct {
	term      termDates
	buildings map[string]classentry.BuildingInfo
	location  *time.Location
	now       time.Time
}

func NewExporter(info classentry.TermInfo, buildings map[string]classentry.BuildingInfo) (*Exporter, error) {
	location, err := time.LoadLocation(Timezone)
	if err != nil {
		return nil, fmt.Errorf("could not load timezone: %w", err)
	}
	e := &Exporter{buildings: buildings, location: location, now: time.Now()}
	if e.term, err = e.parseTerm(info); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exporter) date(text string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, text, e.location)
}

func (e *Exporter) optionalDate(text string) (*time.Time, error) {
	if text == "" {
		return nil, nil
	}
	d, err := e.date(text)
	return &d, err
}

func (e *Exporter) parseTerm(info classentry.TermInfo) (termDates, error) {
	var dates termDates
	var err error
	if dates.start, err = e.date(info.StartDate); err != nil {
		return dates, fmt.Errorf("bad start date for %s: %w", info.UrlName, err)
	}
	if dates.end, err = e.date(info.EndDate); err != nil {
		return dates, fmt.Errorf("bad end date for %s: %w", info.UrlName, err)
	}
	if dates.h1End, err = e.optionalDate(info.H1EndDate); err != nil {
		return dates, err
	}
	if dates.h2Start, err = e.optionalDate(info.H2StartDate); err != nil {
		return dates, err
	}
	if dates.mondaySchedule, err = e.optionalDate(info.MondayScheduleDate); err != nil {
		return dates, err
	}
	for _, holiday := range info.HolidayDates {
		d, err := e.date(holiday)
		if err != nil {
			return dates, fmt.Errorf("bad holiday %s: %w", holiday, err)
		}
		dates.holidays = append(dates.holidays, d)
	}
	return dates, nil
}

// span is the first and last day a class can meet.
func (e *Exporter) span(class Class) (time.Time, time.Time) {
	start, end := e.term.start, e.term.end
	if class.Half == classentry.FirstHalf && e.term.h1End != nil {
		end = *e.term.h1End
	}
	if class.Half == classentry.SecondHalf && e.term.h2Start != nil {
		start = *e.term.h2Start
	}
	if q := class.QuarterInfo; q != nil {
		if q.Start != nil {
			start = time.Date(start.Year(), time.Month(q.Start[0]), q.Start[1], 0, 0, 0, 0, e.location)
		}
		if q.End != nil {
			end = time.Date(end.Year(), time.Month(q.End[0]), q.End[1], 0, 0, 0, 0, e.location)
		}
	}
	return start, end
}

// Calendar has one weekly event per meeting of every selected section.
func (e *Exporter) Calendar(classes map[string]Class, selections []Selection) (*ics.Calendar, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SIPB//Hydrant//EN")

	for _, sel := range selections {
		class, ok := classes[sel.Number]
		if !ok {
			return nil, fmt.Errorf("no class %s this term", sel.Number)
		}
		sections := class.Sections()
		kinds := class.SectionKinds
		if sel.Kind != "" {
			kinds = []schedule.Kind{sel.Kind}
		}
		for _, kind := range kinds {
			if sel.Section >= len(sections[kind]) {
				if sel.Kind == "" {
					// every kind was asked for and this one is TBA
					continue
				}
				return nil, fmt.Errorf("%s has %d %s sections", sel.Number, len(sections[kind]), kind)
			}
			section := sections[kind][sel.Section]
			for _, meeting := range section.Meetings {
				e.addMeeting(cal, class, kind, sel.Section, section.Room, meeting)
			}
		}
	}
	return cal, nil
}

func (e *Exporter) at(day time.Time, slot timeslot.Slot) time.Time {
	hour, minute := slot.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, e.location)
}

func (e *Exporter) addMeeting(
	cal *ics.Calendar,
	class Class,
	kind schedule.Kind,
	index int,
	room string,
	meeting timeslot.Meeting,
) {
	slot := meeting.Slot()
	start, end := e.span(class)
	first := start
	for first.Weekday() != slot.Weekday() {
		first = first.AddDate(0, 0, 1)
	}
	if first.After(end) {
		return
	}
	begin := e.at(first, slot)
	until := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, e.location)
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{Timezone}}

	event := cal.AddEvent(fmt.Sprintf("%s-%s-%d-%d@hydrant", class.Number, kind, index, slot))
	event.SetDtStampTime(e.now)
	event.SetProperty(ics.ComponentPropertyDtStart, begin.Format(localLayout), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, begin.Add(meeting.Length()).Format(localLayout), tzid)
	event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;UNTIL="+until.UTC().Format(utcLayout))
	event.SetSummary(fmt.Sprintf("%s %s", class.Number, kindLabel(kind)))
	if class.Name != "" {
		event.SetDescription(class.Name)
	}
	if room != "" {
		event.SetLocation(room)
		if building, ok := e.buildings[buildingOf(room)]; ok {
			event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%f;%f", building.Lat, building.Long))
		}
	}

	inTerm := func(d time.Time) bool {
		return !d.Before(first) && !d.After(end)
	}
	for _, holiday := range e.term.holidays {
		if holiday.Weekday() == slot.Weekday() && inTerm(holiday) {
			event.AddProperty(ics.ComponentPropertyExdate, e.at(holiday, slot).Format(localLayout), tzid)
		}
	}
	// the registrar moves one day to a Monday schedule
	if d := e.term.mondaySchedule; d != nil && inTerm(*d) {
		if d.Weekday() == slot.Weekday() {
			event.AddProperty(ics.ComponentPropertyExdate, e.at(*d, slot).Format(localLayout), tzid)
		}
		if slot.Weekday() == time.Monday {
			event.AddProperty(ics.ComponentPropertyRdate, e.at(*d, slot).Format(localLayout), tzid)
		}
	}
}

func kindLabel(kind schedule.Kind) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(string(kind[:1])) + string(kind[1:])
}

// buildingOf is the building part of a room such as 32-123.
func buildingOf(room string) string {
	building, _, _ := strings.Cut(room, "-")
	return strings.TrimSpace(building)
}

func Write(w io.Writer, cal *ics.Calendar) error {
	return cal.SerializeTo(w)
}
