package schedule

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

func testLogger() (*log.Entry, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	return log.NewEntry(logger), &buf
}

func TestParseLectureAndRecitation(t *testing.T) {
	logger, _ := testLogger()
	s, err := Parse(logger, "Lecture,32-123/TR/0/11/F/0/2;Recitation,2-147/MW/0/10,2-142/MW/0/11")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]Kind{KindLecture, KindRecitation}, s.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	if s.TBA {
		t.Fatal("schedule should be fully scheduled")
	}

	expectedLecture := []timeslot.Section{{
		Meetings: []timeslot.Meeting{{Start: 44, Duration: 2}, {Start: 112, Duration: 2}, {Start: 152, Duration: 2}},
		Room:     "32-123",
	}}
	if diff := cmp.Diff(expectedLecture, s.Sections[KindLecture]); diff != "" {
		t.Fatal(diff)
	}
	expectedRecitation := []timeslot.Section{
		{Meetings: []timeslot.Meeting{{Start: 8, Duration: 2}, {Start: 76, Duration: 2}}, Room: "2-147"},
		{Meetings: []timeslot.Meeting{{Start: 10, Duration: 2}, {Start: 78, Duration: 2}}, Room: "2-142"},
	}
	if diff := cmp.Diff(expectedRecitation, s.Sections[KindRecitation]); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"2-147/MW/0/10", "2-142/MW/0/11"}, s.RawSections[KindRecitation]); diff != "" {
		t.Fatal(diff)
	}
	if len(s.Sections[KindLab]) != 0 || len(s.Sections[KindDesign]) != 0 {
		t.Fatal("kinds missing from the string should stay empty")
	}
}

func TestParseTBA(t *testing.T) {
	logger, _ := testLogger()
	s, err := Parse(logger, "Lecture,TBA")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Kind{KindLecture}, s.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	if !s.TBA {
		t.Fatal("expected tba")
	}
	if len(s.Sections[KindLecture]) != 0 {
		t.Fatalf("no section should be produced for TBA, got %v", s.Sections[KindLecture])
	}
	if diff := cmp.Diff([]string{"TBA"}, s.RawSections[KindLecture]); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseMixedTBA(t *testing.T) {
	logger, _ := testLogger()
	s, err := Parse(logger, "Lecture,10-250/MWF/0/10;Lab,TBA,4-402/T/1/7-10 PM")
	if err != nil {
		t.Fatal(err)
	}
	if !s.TBA {
		t.Fatal("expected tba")
	}
	if len(s.Sections[KindLab]) != 1 || s.Sections[KindLab][0].Room != "4-402" {
		t.Fatalf("lab sections %v", s.Sections[KindLab])
	}
}

func TestParseUnknownKindIsDropped(t *testing.T) {
	logger, logs := testLogger()
	s, err := Parse(logger, "Seminar,1-190/M/0/3;Lecture,32-123/TR/0/11;Design,TBA")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Kind{KindLecture, KindDesign}, s.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	if len(s.Sections[KindLecture]) != 1 {
		t.Fatalf("lecture sections %v", s.Sections[KindLecture])
	}
	if !strings.Contains(logs.String(), "Seminar") {
		t.Fatalf("unknown kind was not logged: %s", logs.String())
	}
}

func TestParseRepeatedKindKeepsLast(t *testing.T) {
	logger, _ := testLogger()
	s, err := Parse(logger, "Lecture,32-123/TR/0/11;Recitation,2-147/MW/0/10;Lecture,10-250/F/0/2")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Kind{KindLecture, KindRecitation}, s.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	if !s.Has(KindLecture) || s.Has(KindLab) {
		t.Fatalf("unexpected kinds %v", s.SectionKinds)
	}
	if diff := cmp.Diff([]string{"10-250/F/0/2"}, s.RawSections[KindLecture]); diff != "" {
		t.Fatal(diff)
	}
	expected := []timeslot.Section{{Meetings: []timeslot.Meeting{{Start: 152, Duration: 2}}, Room: "10-250"}}
	if diff := cmp.Diff(expected, s.Sections[KindLecture]); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseKindLabelsAreCaseSensitive(t *testing.T) {
	logger, _ := testLogger()
	s, err := Parse(logger, "lecture,32-123/TR/0/11")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.SectionKinds) != 0 {
		t.Fatalf("lower case label should be dropped, got %v", s.SectionKinds)
	}
}

func TestParseFailsFast(t *testing.T) {
	logger, _ := testLogger()
	_, err := Parse(logger, "Lecture,32-123/TR/0/11;Recitation,2-147/MW/0/10,2-142/MW/0")
	if !errors.Is(err, timeslot.ErrMalformedSection) {
		t.Fatalf("expected malformed section got %v", err)
	}

	_, err = Parse(logger, "Lecture,32-123/TR/0/13")
	if !errors.Is(err, timeslot.ErrTimeslotNotFound) {
		t.Fatalf("expected timeslot not found got %v", err)
	}
}

func TestUnscheduled(t *testing.T) {
	s := Unscheduled()
	if s.TBA || len(s.SectionKinds) != 0 {
		t.Fatalf("unexpected %v", s)
	}
	for _, kind := range Kinds {
		sections, ok := s.Sections[kind]
		if !ok || sections == nil {
			t.Fatalf("kind %s is not initialised", kind)
		}
		raws, ok := s.RawSections[kind]
		if !ok || raws == nil {
			t.Fatalf("raw kind %s is not initialised", kind)
		}
	}
}
