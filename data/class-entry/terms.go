package classentry

import (
	"fmt"
	"strconv"
)

type SeasonEnum string

const (
	SeasonEnumFall   SeasonEnum = "FA"
	SeasonEnumIAP    SeasonEnum = "JA"
	SeasonEnumSpring SeasonEnum = "SP"
	SeasonEnumSummer SeasonEnum = "SU"
)

func (s SeasonEnum) Name() string {
	switch s {
	case SeasonEnumFall:
		return "fall"
	case SeasonEnumIAP:
		return "IAP"
	case SeasonEnumSpring:
		return "spring"
	case SeasonEnumSummer:
		return "summer"
	}
	return string(s)
}

// TermInfo is one entry of latestTerm.json.
type TermInfo struct {
	UrlName            string   `json:"urlName"`
	StartDate          string   `json:"startDate"`
	H1EndDate          string   `json:"h1EndDate,omitempty"`
	H2StartDate        string   `json:"h2StartDate,omitempty"`
	EndDate            string   `json:"endDate"`
	MondayScheduleDate string   `json:"mondayScheduleDate,omitempty"`
	HolidayDates       []string `json:"holidayDates,omitempty"`
}

// LatestTerm is the whole of latestTerm.json.
type LatestTerm struct {
	Semester    TermInfo `json:"semester"`
	PreSemester TermInfo `json:"preSemester"`
}

// Term is a season of an academic year, written as a url name like "f24".
type Term struct {
	Season SeasonEnum
	Year   int
}

// ParseUrlName reads a url name such as "f24" or "i25".
func ParseUrlName(urlName string) (Term, error) {
	var term Term
	if len(urlName) < 2 {
		return term, fmt.Errorf("invalid term `%s`", urlName)
	}
	switch urlName[0] {
	case 'f':
		term.Season = SeasonEnumFall
	case 'i':
		term.Season = SeasonEnumIAP
	case 's':
		term.Season = SeasonEnumSpring
	case 'm':
		term.Season = SeasonEnumSummer
	default:
		return term, fmt.Errorf("invalid term `%c` in `%s`", urlName[0], urlName)
	}
	year, err := strconv.Atoi(urlName[1:])
	if err != nil {
		return term, fmt.Errorf("invalid year in term `%s`: %w", urlName, err)
	}
	term.Year = 2000 + year
	return term, nil
}

func (t Term) UrlName() string {
	var prefix string
	switch t.Season {
	case SeasonEnumFall:
		prefix = "f"
	case SeasonEnumIAP:
		prefix = "i"
	case SeasonEnumSpring:
		prefix = "s"
	case SeasonEnumSummer:
		prefix = "m"
	}
	return fmt.Sprintf("%s%02d", prefix, t.Year%100)
}

func (t Term) String() string {
	return fmt.Sprintf("%s %d", t.Season.Name(), t.Year)
}
