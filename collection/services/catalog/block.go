package catalog

import (
	"regexp"
	"strings"

	classentry "github.com/sipb/hydrant/data/class-entry"
	"golang.org/x/net/html"
)

// limitedEnrollment matches the many ways a description says enrollment is
// limited, restricted or by application.
var limitedEnrollment = regexp.MustCompile(`` +
	`[Ee]nrollment (|is |may be |will be )(limited|restricted|by application)` +
	`|([Ll]imited|[Rr]estricted) (enrollment|by lottery|number|\d+|to \d+)` +
	`|([Ll]imited|[Rr]estricted|([Pp]reference|[Pp]riority)( given| is given)?)` +
	` to ([A-Za-z0-9' -]+)?` +
	`(students?|freshmen|sophomores|juniors|seniors|majors|minors` +
	`|concentrators|[Ff]ellows|MBAs?|undergraduates|candidates)` +
	`|required prior to enrollment` +
	`|have priority`)

var (
	notOfferedRegularly = regexp.MustCompile(`(?i)not offered regularly; consult department`)
	urlText             = regexp.MustCompile(`https?://`)
)

// block is the html listed under one subject heading
type block struct {
	texts []string
	icons map[string]bool
}

func newBlock(nodes []*html.Node) block {
	b := block{icons: map[string]bool{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.texts = append(b.texts, n.Data)
		case html.ElementNode:
			for _, attr := range n.Attr {
				if attr.Key == "src" {
					b.icons[attr.Val] = true
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b
}

// findText is the first text node matching re
func (b block) findText(re *regexp.Regexp) (string, bool) {
	for _, text := range b.texts {
		if re.MatchString(text) {
			return text, true
		}
	}
	return "", false
}

func (b block) hasText(re *regexp.Regexp) bool {
	_, ok := b.findText(re)
	return ok
}

func (b block) notOfferedThisYear() bool {
	return b.icons["/icns/nooffer.gif"] || b.hasText(notOfferedRegularly)
}

// url is the first text node holding a link that isn't to a room on whereis
func (b block) url() string {
	for _, text := range b.texts {
		for _, loc := range urlText.FindAllStringIndex(text, -1) {
			if !strings.HasPrefix(text[loc[1]:], "whereis") {
				return text
			}
		}
	}
	return ""
}

func (b block) hasFinal() bool {
	for _, text := range b.texts {
		if text == "+final" {
			return true
		}
	}
	return false
}

func (b block) half() classentry.Half {
	for _, text := range b.texts {
		if strings.Contains(text, "first half of term") {
			return classentry.FirstHalf
		}
	}
	for _, text := range b.texts {
		if strings.Contains(text, "second half of term") {
			return classentry.SecondHalf
		}
	}
	return classentry.FullTerm
}

func (b block) entry() classentry.CatalogEntry {
	return classentry.CatalogEntry{
		Nonext:  b.icons["/icns/nonext.gif"],
		Repeat:  b.icons["/icns/repeat.gif"],
		URL:     b.url(),
		Final:   b.hasFinal(),
		Half:    b.half(),
		Limited: b.hasText(limitedEnrollment),
	}
}
