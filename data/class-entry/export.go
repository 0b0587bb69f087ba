package classentry

import (
	"encoding/json"
	"fmt"

	"github.com/sipb/hydrant/data/schedule"
	"github.com/sipb/hydrant/data/timeslot"
)

// RawClass is one class as written to the fireroad snapshot. Catalog and
// CI-M fields are merged in later by packaging.
type RawClass struct {
	Number    string `json:"number"`
	OldNumber string `json:"oldNumber,omitempty"`
	Course    string `json:"course"`
	Subject   string `json:"subject"`

	TBA                bool               `json:"tba"`
	SectionKinds       []schedule.Kind    `json:"sectionKinds"`
	LectureSections    []timeslot.Section `json:"lectureSections"`
	RecitationSections []timeslot.Section `json:"recitationSections"`
	LabSections        []timeslot.Section `json:"labSections"`
	DesignSections     []timeslot.Section `json:"designSections"`
	LectureRaw         []string           `json:"lectureRawSections"`
	RecitationRaw      []string           `json:"recitationRawSections"`
	LabRaw             []string           `json:"labRawSections"`
	DesignRaw          []string           `json:"designRawSections"`

	Attributes

	LectureUnits     float64 `json:"lectureUnits"`
	LabUnits         float64 `json:"labUnits"`
	PreparationUnits float64 `json:"preparationUnits"`
	IsVariableUnits  bool    `json:"isVariableUnits"`
	Level            string  `json:"level"`
	Same             string  `json:"same"`
	Meets            string  `json:"meets"`

	Terms   []string `json:"terms"`
	Prereqs string   `json:"prereqs"`

	QuarterInfo *QuarterInfo `json:"quarterInfo,omitempty"`

	Description   string `json:"description"`
	Name          string `json:"name"`
	InCharge      string `json:"inCharge"`
	VirtualStatus bool   `json:"virtualStatus"`

	Rating float64 `json:"rating"`
	Hours  float64 `json:"hours"`
	Size   float64 `json:"size"`
}

// SetSchedule copies every kind of a parsed schedule onto the class.
func (c *RawClass) SetSchedule(s schedule.Schedule) {
	c.TBA = s.TBA
	c.SectionKinds = s.SectionKinds
	c.LectureSections = nonNil(s.Sections[schedule.KindLecture])
	c.RecitationSections = nonNil(s.Sections[schedule.KindRecitation])
	c.LabSections = nonNil(s.Sections[schedule.KindLab])
	c.DesignSections = nonNil(s.Sections[schedule.KindDesign])
	c.LectureRaw = nonNil(s.RawSections[schedule.KindLecture])
	c.RecitationRaw = nonNil(s.RawSections[schedule.KindRecitation])
	c.LabRaw = nonNil(s.RawSections[schedule.KindLab])
	c.DesignRaw = nonNil(s.RawSections[schedule.KindDesign])
}

// Sections is every section of the class by kind.
func (c *RawClass) Sections() map[schedule.Kind][]timeslot.Section {
	return map[schedule.Kind][]timeslot.Section{
		schedule.KindLecture:    c.LectureSections,
		schedule.KindRecitation: c.RecitationSections,
		schedule.KindLab:        c.LabSections,
		schedule.KindDesign:     c.DesignSections,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type Attributes struct {
	HassH   bool `json:"hassH"`
	HassA   bool `json:"hassA"`
	HassS   bool `json:"hassS"`
	HassE   bool `json:"hassE"`
	CIH     bool `json:"cih"`
	CIHW    bool `json:"cihw"`
	Rest    bool `json:"rest"`
	Lab     bool `json:"lab"`
	PartLab bool `json:"partLab"`
}

// MonthDay is written as [month, day].
type MonthDay [2]int

type QuarterInfo struct {
	Start *MonthDay `json:"start,omitempty"`
	End   *MonthDay `json:"end,omitempty"`
}

// Half is false for a full term class, otherwise 1 or 2.
type Half int

const (
	FullTerm Half = iota
	FirstHalf
	SecondHalf
)

func (h Half) MarshalJSON() ([]byte, error) {
	if h == FullTerm {
		return []byte("false"), nil
	}
	return json.Marshal(int(h))
}

func (h *Half) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false":
		*h = FullTerm
	case "1":
		*h = FirstHalf
	case "2":
		*h = SecondHalf
	default:
		return fmt.Errorf("half must be false, 1 or 2 got %s", data)
	}
	return nil
}

// CatalogEntry is what the catalog knows that fireroad does not.
type CatalogEntry struct {
	Nonext  bool   `json:"nonext"`
	Repeat  bool   `json:"repeat"`
	URL     string `json:"url"`
	Final   bool   `json:"final"`
	Half    Half   `json:"half"`
	Limited bool   `json:"limited"`
}

type CIMEntry struct {
	CIM []string `json:"cim"`
}

type BuildingInfo struct {
	Number string  `json:"number"`
	Lat    float64 `json:"lat"`
	Long   float64 `json:"long"`
}

// PEClass is one PE&W subject with all of its sections for a quarter.
type PEClass struct {
	Number         string             `json:"number"`
	Name           string             `json:"name"`
	SectionNumbers []string           `json:"sectionNumbers"`
	Sections       []timeslot.Section `json:"sections"`
	RawSections    []string           `json:"rawSections"`
	ClassSize      int                `json:"classSize"`
	StartDate      string             `json:"startDate"`
	EndDate        string             `json:"endDate"`
	Points         int                `json:"points"`
	Wellness       bool               `json:"wellness"`
	Pirate         bool               `json:"pirate"`
	SwimGIR        bool               `json:"swimGIR"`
	Prereqs        string             `json:"prereqs"`
	Equipment      string             `json:"equipment"`
	Fee            string             `json:"fee"`
	Description    string             `json:"description"`
	Quarter        int                `json:"quarter"`
}

// Override is a partial class keyed by raw class field names, later
// datasets win field by field.
type Override map[string]any

// Overrides maps class numbers to their overrides.
type Overrides map[string]Override
