package services

import (
	"fmt"

	classentry "github.com/sipb/hydrant/data/class-entry"
)

// which of the two terms in latestTerm.json a collection is for
type TermKind string

const (
	// fall or spring
	Semester TermKind = "sem"
	// IAP or summer
	PreSemester TermKind = "presem"
)

func ParseTermKind(s string) (TermKind, error) {
	switch TermKind(s) {
	case Semester, PreSemester:
		return TermKind(s), nil
	}
	return "", fmt.Errorf("term must be %s or %s got `%s`", Semester, PreSemester, s)
}

type Target struct {
	Kind TermKind
	Info classentry.TermInfo
	Term classentry.Term
}

// NewTarget picks the term of the given kind out of latestTerm.json.
func NewTarget(latest classentry.LatestTerm, kind TermKind) (Target, error) {
	info := latest.Semester
	if kind == PreSemester {
		info = latest.PreSemester
	}
	term, err := classentry.ParseUrlName(info.UrlName)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: kind, Info: info, Term: term}, nil
}

// Snapshot is one json file a service produced.
type Snapshot struct {
	Name string
	Data any
}

type Report struct {
	Collected int
	Skipped   int
}
