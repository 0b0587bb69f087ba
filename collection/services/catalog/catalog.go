// Package catalog scrapes the subject listings of the MIT catalog for the
// flags Fireroad doesn't carry: nonext, repeat, url, final, half and limited.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

const (
	BaseURL    = "http://student.mit.edu/catalog"
	OutputName = "catalog.json"
	// pages fetched at once
	pageWorkers = 4
)

type Catalog struct {
	client  *resty.Client
	baseURL string
}

func New(client *resty.Client, baseURL string) *Catalog {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Catalog{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Catalog) GetName() string { return "catalog" }

func (c *Catalog) Outputs(services.Target) []string { return []string{OutputName} }

func (c *Catalog) Collect(
	logger *log.Entry,
	ctx context.Context,
	_ services.Target,
) ([]services.Snapshot, services.Report, error) {
	var report services.Report

	homeHrefs, err := c.homeLinks(ctx)
	if err != nil {
		return nil, report, err
	}
	hrefs, err := c.allLinks(ctx, homeHrefs)
	if err != nil {
		return nil, report, err
	}

	// pages are fetched in parallel but merged in page order so a subject
	// listed twice always ends up with the later page's data
	pages := make([]page, len(hrefs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(pageWorkers)
	for i, href := range hrefs {
		eg.Go(func() error {
			logger.Debugf("Scraping page: %s", href)
			doc, err := c.fetch(egCtx, href)
			if err != nil {
				return err
			}
			p, err := scrapePage(doc)
			if err != nil {
				return fmt.Errorf("page %s: %w", href, err)
			}
			pages[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, report, err
	}

	courses := map[string]classentry.CatalogEntry{}
	notOffered := map[string]bool{}
	for _, p := range pages {
		for _, s := range p.subjects {
			for _, number := range s.numbers {
				courses[number] = s.entry
			}
		}
		for _, number := range p.notOffered {
			notOffered[number] = true
		}
	}
	report.Collected = len(courses)
	report.Skipped = len(notOffered)
	logger.Infof("Got %d courses", len(courses))

	return []services.Snapshot{{Name: OutputName, Data: courses}}, report, nil
}

func (c *Catalog) fetch(ctx context.Context, href string) (*goquery.Document, error) {
	body, contentType, err := services.Get(ctx, c.client, c.baseURL+"/"+strings.TrimPrefix(href, "/"))
	if err != nil {
		return nil, err
	}
	// the catalog is served as latin-1 more often than not
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w decoding %s: %w", services.ErrIncorrectAssumption, href, err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w parsing %s: %w", services.ErrIncorrectAssumption, href, err)
	}
	return doc, nil
}

// homeLinks are the department pages linked from the catalog index
func (c *Catalog) homeLinks(ctx context.Context) ([]string, error) {
	doc, err := c.fetch(ctx, "index.cgi")
	if err != nil {
		return nil, err
	}
	list := doc.Find("td[valign=top][align=left] > ul").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w no department list on the catalog index", services.ErrIncorrectAssumption)
	}
	return list.Find("a[href]").Map(func(_ int, a *goquery.Selection) string {
		href, _ := a.Attr("href")
		return href
	}), nil
}

// allLinks adds the extra pages some departments split their subjects into,
// linked from the table heading the first page
func (c *Catalog) allLinks(ctx context.Context, homeHrefs []string) ([]string, error) {
	var hrefs []string
	for _, homeHref := range homeHrefs {
		doc, err := c.fetch(ctx, homeHref)
		if err != nil {
			return nil, err
		}
		hrefs = append(hrefs, homeHref)
		doc.Find("div#contentmini table a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			hrefs = append(hrefs, href)
		})
	}
	return hrefs, nil
}

type subject struct {
	// a subject range such as 11.S196-11.S199 shares one description
	numbers []string
	entry   classentry.CatalogEntry
}

type page struct {
	subjects   []subject
	notOffered []string
}

var subjectName = regexp.MustCompile(`^\w+\.\w+`)

// subjectAnchors are the name anchors that start a subject, either the node
// itself or anchors nested inside it
func subjectAnchors(node *html.Node) []string {
	if node.Type != html.ElementNode {
		return nil
	}
	sel := goquery.NewDocumentFromNode(node).Selection
	var anchors *goquery.Selection
	if sel.Is("a") {
		if _, hasHref := sel.Attr("href"); hasHref {
			return nil
		}
		anchors = sel
	} else {
		anchors = sel.Find("a:not([href])")
	}

	var names []string
	anchors.Each(func(_ int, a *goquery.Selection) {
		// there are anchors with names such as "PIP"
		name, _ := a.Attr("name")
		if subjectName.MatchString(name) {
			names = append(names, name)
		}
	})
	return names
}

func scrapePage(doc *goquery.Document) (page, error) {
	var p page
	content := doc.Find(`table[width="100%"][border="0"]`).First().Find("td").First()
	if content.Length() == 0 {
		return p, fmt.Errorf("%w no subject table", services.ErrIncorrectAssumption)
	}

	var numbers [][]string
	var contents [][]*html.Node
	for node := content.Nodes[0].FirstChild; node != nil; node = node.NextSibling {
		names := subjectAnchors(node)
		if len(names) > 0 {
			// a range: the previous subject has no content yet
			if len(contents) > 0 && len(contents[len(contents)-1]) == 0 {
				numbers[len(numbers)-1] = append(numbers[len(numbers)-1], names...)
				continue
			}
			numbers = append(numbers, names)
			contents = append(contents, nil)
			continue
		}
		if len(numbers) == 0 {
			continue
		}
		contents[len(contents)-1] = append(contents[len(contents)-1], node)
	}

	for i, nodes := range contents {
		b := newBlock(nodes)
		if b.notOfferedThisYear() {
			p.notOffered = append(p.notOffered, numbers[i]...)
			continue
		}
		p.subjects = append(p.subjects, subject{numbers: numbers[i], entry: b.entry()})
	}
	return p, nil
}
