package fireroad_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/collection/services/fireroad"
	"github.com/sipb/hydrant/collection/services/testservice"
	classentry "github.com/sipb/hydrant/data/class-entry"
	"github.com/sipb/hydrant/data/schedule"
	"github.com/sipb/hydrant/data/timeslot"
)

func target(urlName string, kind services.TermKind) services.Target {
	term, err := classentry.ParseUrlName(urlName)
	if err != nil {
		panic(err)
	}
	return services.Target{Kind: kind, Info: classentry.TermInfo{UrlName: urlName}, Term: term}
}

func collect(t *testing.T, urlName string) (map[string]classentry.RawClass, services.Report, string) {
	t.Helper()
	logger, logs := testservice.NewLogger()
	server := testservice.NewMockServer(t, logger,
		testservice.File(t, "GET /courses/all", "application/json", filepath.Join("testdata", "courses.json")),
	)
	f := fireroad.New(testservice.NewClient(logger), server.URL+"/courses/all?full=true")

	snapshots, report, err := f.Collect(logger, context.Background(), target(urlName, services.Semester))
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 || snapshots[0].Name != "fireroad-sem.json" {
		t.Fatalf("unexpected snapshots %v", snapshots)
	}
	return snapshots[0].Data.(map[string]classentry.RawClass), report, logs.String()
}

func TestCollectFall(t *testing.T) {
	classes, report, logs := collect(t, "f25")

	// 18.06 is spring only, 6.S898 has no schedule but is kept, 8.01 can't be
	// scheduled but is kept, 2.001 has no units
	if report.Collected != 4 || report.Skipped != 2 {
		t.Fatalf("report %+v", report)
	}
	if _, ok := classes["18.06"]; ok {
		t.Fatal("18.06 is not offered in the fall")
	}
	if _, ok := classes["2.001"]; ok {
		t.Fatal("2.001 is missing units")
	}
	if !strings.Contains(logs, "2.001") {
		t.Fatalf("skipped course was not logged: %s", logs)
	}

	programming := classes["6.1010"]
	if programming.Course != "6" || programming.Subject != "1010" || programming.OldNumber != "6.009" {
		t.Fatalf("numbers %+v", programming)
	}
	if programming.Prereqs != "6.100A and (Physics I (GIR) or 6.1200)" {
		t.Fatalf("prereqs %q", programming.Prereqs)
	}
	if diff := cmp.Diff([]string{"FA", "SP"}, programming.Terms); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]schedule.Kind{schedule.KindLecture, schedule.KindRecitation}, programming.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	expectedLecture := []timeslot.Section{{
		Meetings: []timeslot.Meeting{{Start: 44, Duration: 2}, {Start: 112, Duration: 2}, {Start: 152, Duration: 2}},
		Room:     "32-123",
	}}
	if diff := cmp.Diff(expectedLecture, programming.LectureSections); diff != "" {
		t.Fatal(diff)
	}
	if programming.InCharge != "A. Hartz,S. Devadas" || programming.Meets != "6.1011" || programming.Same != "" {
		t.Fatalf("people %+v", programming)
	}
	if programming.Hours != 14.5 || programming.Size != 380 || programming.Rating != 5.6 {
		t.Fatalf("evaluations %+v", programming)
	}
	expectedQuarter := &classentry.QuarterInfo{Start: &classentry.MonthDay{4, 9}, End: &classentry.MonthDay{5, 9}}
	if diff := cmp.Diff(expectedQuarter, programming.QuarterInfo); diff != "" {
		t.Fatal(diff)
	}

	revolution := classes["21H.001"]
	if !revolution.HassH || !revolution.CIH || revolution.HassA {
		t.Fatalf("attributes %+v", revolution.Attributes)
	}
	if revolution.Prereqs != "None" {
		t.Fatalf("prereqs %q", revolution.Prereqs)
	}
	expectedEvening := []timeslot.Section{{
		Meetings: []timeslot.Meeting{{Start: 26, Duration: 3}, {Start: 94, Duration: 3}},
		Room:     "4-149",
	}}
	if diff := cmp.Diff(expectedEvening, revolution.LectureSections); diff != "" {
		t.Fatal(diff)
	}

	physics := classes["8.01"]
	if len(physics.SectionKinds) != 0 || len(physics.LectureSections) != 0 || physics.TBA {
		t.Fatalf("unparseable schedule should leave the course unscheduled: %+v", physics)
	}
	if !strings.Contains(logs, "Can't parse schedule 8.01") {
		t.Fatalf("schedule failure was not logged: %s", logs)
	}

	special := classes["6.S898"]
	if !special.IsVariableUnits || special.LectureSections == nil {
		t.Fatalf("special subject %+v", special)
	}
}

func TestCollectSpringUsesTermSchedule(t *testing.T) {
	classes, _, _ := collect(t, "s26")

	programming := classes["6.1010"]
	if diff := cmp.Diff([]schedule.Kind{schedule.KindLecture}, programming.SectionKinds); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"10-250/MWF/0/10"}, programming.LectureRaw); diff != "" {
		t.Fatal(diff)
	}
	if _, ok := classes["18.06"]; !ok {
		t.Fatal("18.06 is offered in the spring")
	}
}

func TestCollectNetworkFailure(t *testing.T) {
	logger := testservice.DiscardLogger()
	server := testservice.NewMockServer(t, logger, testservice.Status("GET /courses/all", http.StatusBadGateway))
	f := fireroad.New(testservice.NewClient(logger), server.URL+"/courses/all")

	_, _, err := f.Collect(logger, context.Background(), target("f25", services.Semester))
	if !errors.Is(err, services.ErrTemporaryNetworkFailure) {
		t.Fatalf("expected a network failure got %v", err)
	}
}

func TestCollectBadPayload(t *testing.T) {
	logger := testservice.DiscardLogger()
	server := testservice.NewMockServer(t, logger, testservice.JSON("GET /courses/all", `{"not": "a list"}`))
	f := fireroad.New(testservice.NewClient(logger), server.URL+"/courses/all")

	_, _, err := f.Collect(logger, context.Background(), target("f25", services.Semester))
	if !errors.Is(err, services.ErrIncorrectAssumption) {
		t.Fatalf("expected an incorrect assumption got %v", err)
	}
}
