// Package eecs builds overrides for the Course 6 special subjects from the
// EECS subject updates listing, which fireroad learns about late.
package eecs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

// The WordPress page loads its subject list from this fragment, fetching the
// page itself mostly returns navigation.
const (
	fragmentURL = "https://eecsis.mit.edu/plugins/subj_%d%s.html"
	frontendURL = "https://www.eecs.mit.edu/academics/subject-updates/subject-updates-%s-%d/"
)

type EECS struct {
	client   *resty.Client
	url      string
	frontend string
}

// New targets the listing for term, url replaces the fragment address.
func New(client *resty.Client, term classentry.Term, url string) (*EECS, error) {
	if term.Season != classentry.SeasonEnumFall && term.Season != classentry.SeasonEnumSpring {
		return nil, fmt.Errorf("EECS only lists subject updates for semesters, not %s", term)
	}
	if url == "" {
		url = fmt.Sprintf(fragmentURL, term.Year, term.Season)
	}
	return &EECS{
		client:   client,
		url:      url,
		frontend: fmt.Sprintf(frontendURL, term.Season.Name(), term.Year),
	}, nil
}

func (e *EECS) GetName() string { return "eecs" }

func (e *EECS) Generate(logger *log.Entry, ctx context.Context) (classentry.Overrides, error) {
	body, _, err := services.Get(ctx, e.client, e.url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w parsing subject updates: %w", services.ErrIncorrectAssumption, err)
	}
	if !courseNumber.MatchString(joinedText(doc.Selection)) {
		return nil, fmt.Errorf("%w no 6.S### subjects on %s", services.ErrIncorrectAssumption, e.url)
	}
	headers := doc.Find("h6")
	if headers.Length() == 0 {
		return nil, fmt.Errorf("%w no subject headings on %s", services.ErrIncorrectAssumption, e.url)
	}

	overrides := classentry.Overrides{}
	var rowErr error
	headers.EachWithBreak(func(_ int, header *goquery.Selection) bool {
		number, override, err := e.parseSubject(logger, header)
		if err != nil {
			rowErr = err
			return false
		}
		if override != nil {
			overrides[number] = override
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	logger.Infof("Generated %d EECS overrides", len(overrides))
	return overrides, nil
}

// parseSubject reads one subject laid out as
//
//	<h6>number and title</h6> <table>metadata</table> <div>description</div>
//
// with rules in between.
func (e *EECS) parseSubject(logger *log.Entry, header *goquery.Selection) (string, classentry.Override, error) {
	number, title, ok := parseHeader(joinedText(header))
	if !ok {
		logger.Debugf("Heading %q is not a subject", joinedText(header))
		return "", nil, nil
	}
	override := classentry.Override{
		"url": e.frontend + "#" + strings.Replace(number, ".", "_", 1),
	}
	if title != "" {
		override["name"] = title
	}

	table := header.NextAllFiltered("table").First()
	if table.Length() == 0 {
		return "", nil, fmt.Errorf("%w missing metadata table for %s", services.ErrIncorrectAssumption, number)
	}
	meta := map[string]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() != 2 {
			return
		}
		key := strings.TrimRight(clean(joinedText(cells.Eq(0))), ":")
		value := clean(joinedText(cells.Eq(1)))
		if key != "" && value != "" {
			meta[key] = value
		}
	})

	if level, ok := meta["Level"]; ok {
		override["level"] = parseLevel(level)
	}
	if text, ok := meta["Units"]; ok {
		if u, ok := parseUnits(text); ok {
			override["lectureUnits"] = u.lecture
			override["labUnits"] = u.lab
			override["preparationUnits"] = u.preparation
			override["isVariableUnits"] = u.variable
		}
	}
	if instructors, ok := meta["Instructors"]; ok {
		override["inCharge"] = instructors
	}
	if prereqs, ok := meta["Prereqs"]; ok {
		override["prereqs"] = prereqs
	}
	if line, ok := meta["Schedule"]; ok && line != "TBD" {
		m, err := parseSchedule(line)
		if err != nil {
			logginghelpers.Skipped(logger).Warnf("Can't parse schedule for %s: %v", number, err)
			return "", nil, nil
		}
		raw, section, err := m.build()
		if err != nil {
			// built from our own parse, anything off here is a bug
			return "", nil, fmt.Errorf("%s: %w", number, err)
		}
		override["lectureRawSections"] = []string{raw}
		override["lectureSections"] = []timeslot.Section{section}
	}

	description := table.NextAllFiltered("div").First()
	if description.Length() == 0 {
		return "", nil, fmt.Errorf("%w missing description for %s", services.ErrIncorrectAssumption, number)
	}
	override["description"] = clean(joinedText(description))
	return number, override, nil
}

// joinedText is the trimmed text nodes under sel joined by single spaces
func joinedText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if text := strings.TrimSpace(child.Text()); text != "" {
				parts = append(parts, text)
			}
			return
		}
		if text := joinedText(child); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
