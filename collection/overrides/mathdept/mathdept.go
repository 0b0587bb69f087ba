// Package mathdept builds lecture overrides from the math department's
// class list when fireroad has the math schedules wrong.
package mathdept

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

const URL = "https://math.mit.edu/academics/classes.html"

type MathDept struct {
	client *resty.Client
	url    string
}

func New(client *resty.Client, url string) *MathDept {
	if url == "" {
		url = URL
	}
	return &MathDept{client: client, url: url}
}

func (m *MathDept) GetName() string { return "math" }

func (m *MathDept) Generate(logger *log.Entry, ctx context.Context) (classentry.Overrides, error) {
	body, _, err := services.Get(ctx, m.client, m.url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w parsing math classes: %w", services.ErrIncorrectAssumption, err)
	}
	rows := doc.Find("ul.course-list > li")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w no course list on the math classes page", services.ErrIncorrectAssumption)
	}

	overrides := classentry.Overrides{}
	var rowErr error
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rowOverrides, err := parseRow(logger, row)
		if err != nil {
			rowErr = err
			return false
		}
		for number, override := range rowOverrides {
			overrides[number] = override
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	logger.Infof("Generated %d math overrides", len(overrides))
	return overrides, nil
}

func parseRow(logger *log.Entry, row *goquery.Selection) (classentry.Overrides, error) {
	subjectRow := row.Find("div.subject-row").First()
	if subjectRow.Length() == 0 {
		return nil, fmt.Errorf("%w math row without a subject", services.ErrIncorrectAssumption)
	}
	subjects, err := parseSubject(strings.TrimSpace(subjectRow.Text()))
	if err != nil {
		return nil, err
	}

	parts := row.Find("div.where-when").First().ChildrenFiltered("div")
	if parts.Length() != 2 {
		return nil, fmt.Errorf("%w %s has %d where/when parts",
			services.ErrIncorrectAssumption, subjects[0], parts.Length())
	}
	when := strings.TrimSpace(parts.Eq(0).Text())
	where := strings.TrimSpace(parts.Eq(1).Text())
	// several meeting patterns, the calculus classes are already right
	if strings.Contains(when, ";") {
		logger.Debugf("Leaving %s alone: %s", subjects[0], when)
		return nil, nil
	}

	// the room is the first field of the raw section
	if strings.ContainsAny(where, "/,") {
		logginghelpers.Skipped(logger).Warnf("Can't use room %q for %s", where, subjects[0])
		return nil, nil
	}

	days, times, err := parseWhen(when)
	if err != nil {
		logginghelpers.Skipped(logger).Warnf("Can't parse when %q for %s: %v", when, subjects[0], err)
		return nil, nil
	}
	meetings, err := timeslot.EncodeMany(days, times, false)
	if err != nil {
		logginghelpers.Skipped(logger).Warnf("Can't encode %s for %s: %v", when, subjects[0], err)
		return nil, nil
	}
	section := timeslot.Section{Meetings: meetings, Room: where}
	raw := timeslot.BuildRawSection(where, timeslot.RawGroup{Days: days, Range: times})
	if err := timeslot.CheckRoundTrip(raw, section); err != nil {
		logginghelpers.Skipped(logger).Warnf("Dropping %s: %v", subjects[0], err)
		return nil, nil
	}

	overrides := classentry.Overrides{}
	for _, subject := range subjects {
		overrides[subject] = classentry.Override{
			"lectureRawSections": []string{raw},
			"lectureSections":    []timeslot.Section{section},
		}
	}
	return overrides, nil
}

// parseWhen splits "F10:30-12" into "F" and "10.30-12".
func parseWhen(when string) (days string, times string, err error) {
	split := strings.IndexFunc(when, unicode.IsDigit)
	if split < 1 || split > 3 {
		return "", "", fmt.Errorf("%w no days before the time in `%s`", timeslot.ErrMalformedSection, when)
	}
	return when[:split], strings.ReplaceAll(when[split:], ":", "."), nil
}

// parseSubject strips the joint marker, "18.100 / 18.1001" style listings
// also give the graduate version ending in 1.
func parseSubject(subject string) ([]string, error) {
	subject = strings.ReplaceAll(subject, "J", "")
	subjects := []string{subject}
	if before, _, ok := strings.Cut(subject, " / "); ok {
		subjects = []string{before, before + "1"}
	}
	for _, s := range subjects {
		if s == "" || strings.Contains(s, "/") {
			return nil, fmt.Errorf("%w can't read math subject `%s`", services.ErrIncorrectAssumption, subject)
		}
	}
	return subjects, nil
}
