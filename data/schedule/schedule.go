// Package schedule splits a schedule string such as
//
//	Lecture,32-123/TR/0/11/F/0/2;Recitation,2-147/MW/0/10,2-142/MW/0/11
//
// into its meeting kinds and decodes every section with the timeslot codec.
package schedule

import (
	"fmt"
	"strings"

	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

// a section that has not been scheduled yet
const TBA = "TBA"

type Kind string

const (
	KindLecture    Kind = "lecture"
	KindRecitation Kind = "recitation"
	KindLab        Kind = "lab"
	KindDesign     Kind = "design"
)

// the order the front end lists kinds in
var Kinds = []Kind{KindLecture, KindRecitation, KindLab, KindDesign}

// labels as they appear in schedule strings
var labels = map[string]Kind{
	"Lecture":    KindLecture,
	"Recitation": KindRecitation,
	"Lab":        KindLab,
	"Design":     KindDesign,
}

type Schedule struct {
	// kinds in the order they were seen
	SectionKinds []Kind
	// true if some section is not scheduled yet
	TBA         bool
	Sections    map[Kind][]timeslot.Section
	RawSections map[Kind][]string
}

// Unscheduled is what a course gets when it has no usable schedule.
func Unscheduled() Schedule {
	s := Schedule{
		SectionKinds: []Kind{},
		Sections:     make(map[Kind][]timeslot.Section, len(Kinds)),
		RawSections:  make(map[Kind][]string, len(Kinds)),
	}
	for _, kind := range Kinds {
		s.Sections[kind] = []timeslot.Section{}
		s.RawSections[kind] = []string{}
	}
	return s
}

// Parse decodes a whole schedule string. Chunks with an unknown kind are
// logged and dropped. A single bad section fails the whole schedule so a
// course is never half scheduled.
func Parse(logger *log.Entry, text string) (Schedule, error) {
	s := Unscheduled()

	for _, chunk := range strings.Split(text, ";") {
		name, rest, _ := strings.Cut(chunk, ",")
		kind, ok := labels[name]
		if !ok {
			logger.Warnf("Unknown section kind: %s", name)
			continue
		}
		// a repeated kind replaces the earlier chunk
		if !s.Has(kind) {
			s.SectionKinds = append(s.SectionKinds, kind)
		}

		raws := []string{}
		if rest != "" {
			raws = strings.Split(rest, ",")
		}
		s.RawSections[kind] = raws
		s.Sections[kind] = []timeslot.Section{}

		for _, raw := range raws {
			if raw == TBA {
				s.TBA = true
				continue
			}
			section, err := timeslot.DecodeSection(raw)
			if err != nil {
				return Schedule{}, fmt.Errorf("%s section: %w", kind, err)
			}
			s.Sections[kind] = append(s.Sections[kind], section)
		}
	}

	return s, nil
}

// Has reports whether kind appeared in the schedule string.
func (s Schedule) Has(kind Kind) bool {
	for _, k := range s.SectionKinds {
		if k == kind {
			return true
		}
	}
	return false
}
