// Package pe reads the PE&W section listings DAPER hands out as CSV files
// and groups them into subjects per quarter.
package pe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

const CatalogURL = "https://physicaleducationandwellness.mit.edu/options-for-points/course-catalog/"

var (
	wellnessPrefixes = []string{"PE.05", "PE.4"}
	// classes that count towards the pirate certificate
	pirateClasses = []string{"Archery", "Fencing", "Pistol", "Air Pistol", "Rifle", "Sailing"}
	// building names DAPER uses instead of numbers
	buildings = []struct{ prefix, number string }{
		{"Du Pont", "W35"},
		{"Zesiger", "W35"},
		{"Rockwell", "W35"},
		{"Johnson", "W35"},
	}
)

// row is a section as DAPER lists it
type row struct {
	Term          string `csv:"Term"`
	Section       string `csv:"Section"`
	Title         string `csv:"Title"`
	Capacity      string `csv:"Capacity"`
	Day           string `csv:"Day"`
	Time          string `csv:"Time"`
	Location      string `csv:"Location"`
	StartDate     string `csv:"Start Date"`
	EndDate       string `csv:"End Date"`
	Prerequisites string `csv:"Prerequisites"`
	Equipment     string `csv:"Equipment"`
	GIRPoints     string `csv:"GIR Points"`
	SwimGIR       string `csv:"Swim GIR"`
	FeeAmount     string `csv:"Fee Amount"`
}

var columns = []string{
	"Term", "Section", "Title", "Capacity", "Day", "Time", "Location", "Start Date",
	"End Date", "Prerequisites", "Equipment", "GIR Points", "Swim GIR", "Fee Amount",
}

type PE struct {
	client     *resty.Client
	dir        string
	catalogURL string
}

func New(client *resty.Client, dir string, catalogURL string) *PE {
	if catalogURL == "" {
		catalogURL = CatalogURL
	}
	return &PE{client: client, dir: dir, catalogURL: catalogURL}
}

func (p *PE) GetName() string { return "pe" }

func OutputName(q int) string { return fmt.Sprintf("pe-q%d.json", q) }

func (p *PE) Outputs(target services.Target) []string {
	var names []string
	for _, q := range Quarters(target.Term) {
		names = append(names, OutputName(q))
	}
	return names
}

func (p *PE) Collect(
	logger *log.Entry,
	ctx context.Context,
	target services.Target,
) ([]services.Snapshot, services.Report, error) {
	var report services.Report
	rows, err := p.readRows(logger)
	if err != nil {
		return nil, report, err
	}

	descriptions, err := p.descriptions(ctx)
	if err != nil {
		// descriptions are nice to have, the sections still go out
		logger.Warnf("Could not get PE descriptions: %v", err)
		descriptions = map[string]string{}
	}

	wanted := map[int]bool{}
	byQuarter := map[int]map[string]*classentry.PEClass{}
	for _, q := range Quarters(target.Term) {
		wanted[q] = true
		byQuarter[q] = map[string]*classentry.PEClass{}
	}

	for _, r := range rows {
		term, q, err := termOf(r.Term)
		if err != nil {
			return nil, report, fmt.Errorf("%w section %s: %w", services.ErrIncorrectAssumption, r.Section, err)
		}
		if !wanted[q] || term != target.Term {
			logger.Debugf("Section %s is for %s, not %s", r.Section, r.Term, target.Term)
			continue
		}

		class, err := parseRow(r, q, descriptions)
		if err != nil {
			logginghelpers.Skipped(logger).Warnf("Can't parse PE section %s: %v", r.Section, err)
			report.Skipped++
			continue
		}
		classes := byQuarter[q]
		current, ok := classes[class.Number]
		if !ok {
			classes[class.Number] = &class
			continue
		}
		if err := mergeSection(current, class); err != nil {
			return nil, report, err
		}
	}

	var snapshots []services.Snapshot
	for _, q := range Quarters(target.Term) {
		classes := make(map[string]classentry.PEClass, len(byQuarter[q]))
		for number, class := range byQuarter[q] {
			classes[number] = *class
		}
		logger.Infof("Processed PE data for quarter %d: %d subjects", q, len(classes))
		report.Collected += len(classes)
		snapshots = append(snapshots, services.Snapshot{Name: OutputName(q), Data: classes})
	}
	return snapshots, report, nil
}

func (p *PE) readRows(logger *log.Entry) ([]row, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("reading pe directory: %w", err)
	}
	var rows []row
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var fileRows []row
		if err := services.UnmarshalCSV(data, &fileRows, columns...); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debugf("Read %d sections from %s", len(fileRows), entry.Name())
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

// descriptions maps subject numbers to the blurb on the PE catalog
func (p *PE) descriptions(ctx context.Context) (map[string]string, error) {
	body, _, err := services.Get(ctx, p.client, p.catalogURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	descriptions := map[string]string{}
	doc.Find("div.accordion").Each(func(_ int, accordion *goquery.Selection) {
		number := strings.TrimSpace(accordion.Find(".header small").First().Text())
		// sic
		description := strings.TrimSpace(accordion.Find(".accoridon-content p").First().Text())
		if number != "" {
			descriptions[number] = description
		}
	})
	return descriptions, nil
}

func parseRow(r row, q int, descriptions map[string]string) (classentry.PEClass, error) {
	var class classentry.PEClass
	number, sectionNumber, ok := cutLast(r.Section, "-")
	if !ok {
		return class, fmt.Errorf("invalid section code format: %s", r.Section)
	}
	raw, err := rawSection(r.Time, r.Day, augmentLocation(r.Location))
	if err != nil {
		return class, err
	}
	section, err := timeslot.DecodeSection(raw)
	if err != nil {
		return class, err
	}

	capacity, err := strconv.Atoi(r.Capacity)
	if err != nil {
		return class, fmt.Errorf("capacity: %w", err)
	}
	points, err := strconv.Atoi(r.GIRPoints)
	if err != nil {
		return class, fmt.Errorf("points: %w", err)
	}
	swim, err := parseBool(r.SwimGIR)
	if err != nil {
		return class, err
	}
	start, err := isoDate(r.StartDate)
	if err != nil {
		return class, err
	}
	end, err := isoDate(r.EndDate)
	if err != nil {
		return class, err
	}
	prereqs := r.Prerequisites
	if prereqs == "" {
		prereqs = "None"
	}

	return classentry.PEClass{
		Number:         number,
		Name:           r.Title,
		SectionNumbers: []string{sectionNumber},
		Sections:       []timeslot.Section{section},
		RawSections:    []string{raw},
		ClassSize:      capacity,
		StartDate:      start,
		EndDate:        end,
		Points:         points,
		Wellness:       hasAnyPrefix(number, wellnessPrefixes),
		Pirate:         hasAnyPrefix(r.Title, pirateClasses),
		SwimGIR:        swim,
		Prereqs:        prereqs,
		Equipment:      r.Equipment,
		Fee:            r.FeeAmount,
		Description:    descriptions[number],
		Quarter:        q,
	}, nil
}

// mergeSection adds another section of the same subject, everything but
// the section itself has to agree.
func mergeSection(current *classentry.PEClass, next classentry.PEClass) error {
	mismatch := func(field string) error {
		return fmt.Errorf("%w sections of %s disagree on %s",
			services.ErrIncorrectAssumption, current.Number, field)
	}
	switch {
	case current.Name != next.Name:
		return mismatch("name")
	case current.ClassSize != next.ClassSize:
		return mismatch("class size")
	case current.Points != next.Points:
		return mismatch("points")
	case current.SwimGIR != next.SwimGIR:
		return mismatch("swim GIR")
	case current.Prereqs != next.Prereqs:
		return mismatch("prerequisites")
	case current.Equipment != next.Equipment:
		return mismatch("equipment")
	case current.Fee != next.Fee:
		return mismatch("fee")
	}
	current.SectionNumbers = append(current.SectionNumbers, next.SectionNumbers...)
	current.RawSections = append(current.RawSections, next.RawSections...)
	current.Sections = append(current.Sections, next.Sections...)
	return nil
}

// earliest start and latest end label on the grid
var (
	dayStart = timeslot.Slot(0).SinceMidnight()
	dayEnd   = timeslot.Slot(timeslot.Span - 1).SinceMidnight()
)

// rawSection writes a DAPER meeting the way fireroad would. Meetings are
// taken to be an hour, overrides fix the ones that aren't.
func rawSection(startTime string, days string, location string) (string, error) {
	start, err := time.Parse("3:04 PM", strings.TrimSpace(startTime))
	if err != nil {
		return "", fmt.Errorf("start time: %w", err)
	}
	since := time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute
	if since < dayStart || (since+time.Hour).Truncate(30*time.Minute) > dayEnd {
		return "", fmt.Errorf("%w start time %s is off the grid", timeslot.ErrTimeslotNotFound, startTime)
	}
	end := start.Add(time.Hour)

	evening := end.Hour() >= 17
	flag := "0"
	endLabel := clockLabel(end)
	if evening {
		flag = "1"
		endLabel += " PM"
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s", location, days, flag, clockLabel(start), endLabel), nil
}

// clockLabel is the twelve hour label such as "9" or "4.30"
func clockLabel(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	label := strconv.Itoa(hour)
	if t.Minute() > 29 {
		label += ".30"
	}
	return label
}

// augmentLocation puts the building number in front of the athletic
// facilities DAPER names. A location naming more than one place is left to
// overrides.
func augmentLocation(location string) string {
	if strings.Contains(location, " and ") {
		return location
	}
	for _, b := range buildings {
		if strings.HasPrefix(location, b.prefix) {
			return b.number + " - " + location
		}
	}
	return location
}

func parseBool(value string) (bool, error) {
	switch strings.ToUpper(value) {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", value)
}

func isoDate(text string) (string, error) {
	date, err := time.Parse("1/2/2006", text)
	if err != nil {
		return "", err
	}
	return date.Format(time.DateOnly), nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
