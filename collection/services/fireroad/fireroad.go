// Package fireroad collects the bulk of class data from the Fireroad API,
// which is refreshed every few minutes and always carries the latest term.
package fireroad

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	"github.com/sipb/hydrant/data/schedule"
	log "github.com/sirupsen/logrus"
)

const URL = "https://fireroad.mit.edu/courses/all?full=true"

var girRewrite = strings.NewReplacer(
	"GIR:CAL1", "Calculus I (GIR)",
	"GIR:CAL2", "Calculus II (GIR)",
	"GIR:PHY1", "Physics I (GIR)",
	"GIR:PHY2", "Physics II (GIR)",
	"GIR:CHEM", "Chemistry (GIR)",
	"GIR:BIOL", "Biology (GIR)",
)

// course is one entry of the Fireroad response, units and level are
// pointers since a course missing them is skipped
type course struct {
	SubjectID                string   `json:"subject_id"`
	OldID                    string   `json:"old_id"`
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	Instructors              []string `json:"instructors"`
	VirtualStatus            string   `json:"virtual_status"`
	OfferedFall              bool     `json:"offered_fall"`
	OfferedIAP               bool     `json:"offered_IAP"`
	OfferedSpring            bool     `json:"offered_spring"`
	OfferedSummer            bool     `json:"offered_summer"`
	Prerequisites            string   `json:"prerequisites"`
	HassAttribute            string   `json:"hass_attribute"`
	CommunicationRequirement string   `json:"communication_requirement"`
	GirAttribute             string   `json:"gir_attribute"`
	QuarterInformation       string   `json:"quarter_information"`
	JointSubjects            []string `json:"joint_subjects"`
	MeetsWithSubjects        []string `json:"meets_with_subjects"`

	Schedule       *string `json:"schedule"`
	ScheduleFall   *string `json:"schedule_fall"`
	ScheduleIAP    *string `json:"schedule_IAP"`
	ScheduleSpring *string `json:"schedule_spring"`

	LectureUnits     *float64 `json:"lecture_units"`
	LabUnits         *float64 `json:"lab_units"`
	PreparationUnits *float64 `json:"preparation_units"`
	Level            *string  `json:"level"`
	IsVariableUnits  *bool    `json:"is_variable_units"`

	Rating           float64 `json:"rating"`
	InClassHours     float64 `json:"in_class_hours"`
	OutOfClassHours  float64 `json:"out_of_class_hours"`
	EnrollmentNumber float64 `json:"enrollment_number"`
}

type Fireroad struct {
	client *resty.Client
	url    string
}

func New(client *resty.Client, url string) *Fireroad {
	if url == "" {
		url = URL
	}
	return &Fireroad{client: client, url: url}
}

func (f *Fireroad) GetName() string { return "fireroad" }

func (f *Fireroad) Outputs(target services.Target) []string {
	return []string{OutputName(target.Kind)}
}

func OutputName(kind services.TermKind) string {
	return fmt.Sprintf("fireroad-%s.json", kind)
}

func (f *Fireroad) Collect(
	logger *log.Entry,
	ctx context.Context,
	target services.Target,
) ([]services.Snapshot, services.Report, error) {
	var report services.Report

	body, _, err := services.Get(ctx, f.client, f.url)
	if err != nil {
		return nil, report, err
	}
	var courses []course
	if err := json.Unmarshal(body, &courses); err != nil {
		return nil, report, fmt.Errorf("%w decoding fireroad courses: %w", services.ErrIncorrectAssumption, err)
	}

	classes := make(map[string]classentry.RawClass, len(courses))
	notOffered := 0
	for _, c := range courses {
		class, ok := rawClass(logger, c, target.Term.Season)
		if !ok {
			notOffered++
			continue
		}
		classes[class.Number] = class
	}
	report.Collected = len(classes)
	report.Skipped = notOffered

	logger.Infof("Got %d courses", len(classes))
	logger.Infof("Skipped %d courses that are not offered in the %s term", notOffered, target.Term.Season.Name())

	return []services.Snapshot{{Name: OutputName(target.Kind), Data: classes}}, report, nil
}

// rawClass converts one course, reporting false when it is skipped
func rawClass(logger *log.Entry, c course, season classentry.SeasonEnum) (classentry.RawClass, bool) {
	var class classentry.RawClass
	number, subject, ok := strings.Cut(c.SubjectID, ".")
	if !ok {
		logginghelpers.Skipped(logger).Warnf("Can't parse subject id `%s`", c.SubjectID)
		return class, false
	}
	class.Number = c.SubjectID
	class.Course = number
	class.Subject = subject

	class.Terms = terms(c)
	class.Prereqs = prereqs(c.Prerequisites)
	if !offeredIn(class.Terms, season) {
		return class, false
	}

	class.SetSchedule(courseSchedule(logger, c, season))
	class.Attributes = attributes(c)

	if c.LectureUnits == nil || c.LabUnits == nil || c.PreparationUnits == nil ||
		c.Level == nil || c.IsVariableUnits == nil {
		logginghelpers.Skipped(logger).Warnf("Can't parse %s: missing units or level", c.SubjectID)
		return class, false
	}
	class.LectureUnits = *c.LectureUnits
	class.LabUnits = *c.LabUnits
	class.PreparationUnits = *c.PreparationUnits
	class.Level = *c.Level
	class.IsVariableUnits = *c.IsVariableUnits
	class.Same = strings.Join(c.JointSubjects, ", ")
	class.Meets = strings.Join(c.MeetsWithSubjects, ", ")

	if class.IsVariableUnits && (class.LectureUnits != 0 || class.LabUnits != 0 || class.PreparationUnits != 0) {
		logginghelpers.Skipped(logger).Warnf("Can't parse %s: variable units course lists fixed units", c.SubjectID)
		return class, false
	}

	class.QuarterInfo = quarterInfo(c.QuarterInformation)

	class.Description = c.Description
	class.Name = c.Title
	class.InCharge = strings.Join(c.Instructors, ",")
	class.VirtualStatus = c.VirtualStatus == "Virtual"
	class.OldNumber = c.OldID

	class.Rating = c.Rating
	class.Hours = c.InClassHours + c.OutOfClassHours
	class.Size = c.EnrollmentNumber

	return class, true
}

// the term specific schedule wins over the generic one, a schedule that
// can't be parsed leaves the course unscheduled
func courseSchedule(logger *log.Entry, c course, season classentry.SeasonEnum) schedule.Schedule {
	if c.Schedule == nil {
		return schedule.Unscheduled()
	}
	text := *c.Schedule
	switch {
	case season == classentry.SeasonEnumFall && c.ScheduleFall != nil:
		text = *c.ScheduleFall
	case season == classentry.SeasonEnumIAP && c.ScheduleIAP != nil:
		text = *c.ScheduleIAP
	case season == classentry.SeasonEnumSpring && c.ScheduleSpring != nil:
		text = *c.ScheduleSpring
	}

	s, err := schedule.Parse(logger.WithField("course", c.SubjectID), text)
	if err != nil {
		logger.Warnf("Can't parse schedule %s: %v", c.SubjectID, err)
		return schedule.Unscheduled()
	}
	return s
}

func terms(c course) []string {
	terms := []string{}
	for _, offered := range []struct {
		season classentry.SeasonEnum
		ok     bool
	}{
		{classentry.SeasonEnumFall, c.OfferedFall},
		{classentry.SeasonEnumIAP, c.OfferedIAP},
		{classentry.SeasonEnumSpring, c.OfferedSpring},
		{classentry.SeasonEnumSummer, c.OfferedSummer},
	} {
		if offered.ok {
			terms = append(terms, string(offered.season))
		}
	}
	return terms
}

func offeredIn(terms []string, season classentry.SeasonEnum) bool {
	for _, term := range terms {
		if term == string(season) {
			return true
		}
	}
	return false
}

func prereqs(prerequisites string) string {
	prerequisites = girRewrite.Replace(prerequisites)
	if prerequisites == "" {
		return "None"
	}
	return prerequisites
}

func attributes(c course) classentry.Attributes {
	var hass byte = 'X'
	if c.HassAttribute != "" {
		hass = c.HassAttribute[len(c.HassAttribute)-1]
	}
	return classentry.Attributes{
		HassH:   hass == 'H',
		HassA:   hass == 'A',
		HassS:   hass == 'S',
		HassE:   hass == 'E',
		CIH:     c.CommunicationRequirement == "CI-H",
		CIHW:    c.CommunicationRequirement == "CI-HW",
		Rest:    c.GirAttribute == "REST",
		Lab:     c.GirAttribute == "LAB",
		PartLab: c.GirAttribute == "LAB2",
	}
}
