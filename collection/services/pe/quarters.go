package pe

import (
	"fmt"
	"strconv"

	classentry "github.com/sipb/hydrant/data/class-entry"
)

type quarter struct {
	season classentry.SeasonEnum
	// half of the semester, zero for IAP
	half int
}

// DAPER numbers quarters through the academic year, summer isn't listed
var quarters = map[int]quarter{
	1: {classentry.SeasonEnumFall, 1},
	2: {classentry.SeasonEnumFall, 2},
	3: {classentry.SeasonEnumSpring, 1},
	4: {classentry.SeasonEnumSpring, 2},
	5: {classentry.SeasonEnumIAP, 0},
}

// Quarters are the DAPER quarters that fall in a term.
func Quarters(term classentry.Term) []int {
	switch term.Season {
	case classentry.SeasonEnumFall:
		return []int{1, 2}
	case classentry.SeasonEnumSpring:
		return []int{3, 4}
	case classentry.SeasonEnumIAP:
		return []int{5}
	}
	return nil
}

// parseYearQuarter reads terms such as "2026Q2".
func parseYearQuarter(text string) (year int, q int, err error) {
	if len(text) != 6 || text[4] != 'Q' {
		return 0, 0, fmt.Errorf("invalid term string format: %s", text)
	}
	q, err = strconv.Atoi(text[5:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid term string format: %s", text)
	}
	if _, ok := quarters[q]; !ok {
		return 0, 0, fmt.Errorf("invalid quarter in %s", text)
	}
	year, err = strconv.Atoi(text[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in %s", text)
	}
	return year, q, nil
}

// termOf is the term a quarter belongs to, fall quarters are labelled with
// the year the academic year ends in.
func termOf(text string) (classentry.Term, int, error) {
	year, q, err := parseYearQuarter(text)
	if err != nil {
		return classentry.Term{}, 0, err
	}
	info := quarters[q]
	if info.season == classentry.SeasonEnumFall {
		year--
	}
	return classentry.Term{Season: info.season, Year: year}, q, nil
}
