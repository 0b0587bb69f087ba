// Package cim scrapes the Registrar's list of communication intensive
// subjects in the major.
package cim

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	log "github.com/sirupsen/logrus"
)

const (
	URL = "https://registrar.mit.edu/registration-academics/" +
		"academic-requirements/communication-requirement/ci-m-subjects/subject"
	OutputName = "cim.json"
)

type CIM struct {
	client *resty.Client
	url    string
}

func New(client *resty.Client, url string) *CIM {
	if url == "" {
		url = URL
	}
	return &CIM{client: client, url: url}
}

func (c *CIM) GetName() string { return "cim" }

func (c *CIM) Outputs(services.Target) []string { return []string{OutputName} }

// course is a major with the subjects that satisfy its CI-M requirement
type course struct {
	title    string
	subjects []string
}

func (c *CIM) Collect(
	logger *log.Entry,
	ctx context.Context,
	_ services.Target,
) ([]services.Snapshot, services.Report, error) {
	var report services.Report
	body, _, err := services.Get(ctx, c.client, c.url)
	if err != nil {
		return nil, report, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, report, fmt.Errorf("%w parsing ci-m page: %w", services.ErrIncorrectAssumption, err)
	}

	var courses []course
	seen := map[string]bool{}
	var sectionErr error
	doc.Find("[data-accordion-item]").
		FilterFunction(func(_ int, item *goquery.Selection) bool {
			return item.Find(".ci-m__section").Length() > 0
		}).
		EachWithBreak(func(_ int, item *goquery.Selection) bool {
			sectionCourses, err := sectionCourses(item)
			if err != nil {
				sectionErr = err
				return false
			}
			// a major listed in two accordion sections is ambiguous
			for _, sc := range sectionCourses {
				if seen[sc.title] {
					sectionErr = fmt.Errorf("%w course %s is listed in more than one section",
						services.ErrIncorrectAssumption, sc.title)
					return false
				}
				seen[sc.title] = true
			}
			courses = append(courses, sectionCourses...)
			return true
		})
	if sectionErr != nil {
		return nil, report, sectionErr
	}

	subjects := map[string]classentry.CIMEntry{}
	for _, co := range courses {
		for _, text := range co.subjects {
			for _, number := range strings.Split(strings.ReplaceAll(text, "J", ""), "/") {
				entry := subjects[number]
				if len(entry.CIM) > 0 && entry.CIM[len(entry.CIM)-1] == co.title {
					continue
				}
				entry.CIM = append(entry.CIM, co.title)
				subjects[number] = entry
			}
		}
	}
	report.Collected = len(subjects)
	logger.Infof("Found %d CI-M subjects", len(subjects))

	return []services.Snapshot{{Name: OutputName, Data: subjects}}, report, nil
}

// sectionCourses reads every subsection of an accordion item, a subsection
// without a title continues the one before it
func sectionCourses(item *goquery.Selection) ([]course, error) {
	var courses []course
	var err error
	item.Find(".ci-m__section").EachWithBreak(func(_ int, sub *goquery.Selection) bool {
		titleSel := sub.Find(".ci-m__section-title").First()
		if titleSel.Length() == 0 {
			err = fmt.Errorf("%w ci-m section without a title element", services.ErrIncorrectAssumption)
			return false
		}
		title := strings.ReplaceAll(strings.TrimSpace(titleSel.Text()), "*", "")

		if title != "" {
			courses = append(courses, course{title: title})
		} else if len(courses) == 0 {
			err = fmt.Errorf("%w untitled ci-m section with nothing to continue", services.ErrIncorrectAssumption)
			return false
		}
		last := &courses[len(courses)-1]
		sub.Find(".ci-m__subject-number").Each(func(_ int, number *goquery.Selection) {
			text := strings.TrimSpace(number.Text())
			for _, existing := range last.subjects {
				if existing == text {
					return
				}
			}
			last.subjects = append(last.subjects, text)
		})
		return true
	})
	return courses, err
}
