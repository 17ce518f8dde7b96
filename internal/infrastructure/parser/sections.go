package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MCNews/internal/domain"
)

// Per-category caps on raw list items, applied before filtering.
const (
	maxNewFeatures      = 10
	maxChanges          = 10
	maxBugFixes         = 15
	maxTechnicalChanges = 5
)

var ticketExpr = regexp.MustCompile(`\bMC-\d+\b`)

// SectionState tells whether a heading was present and produced items.
type SectionState int

const (
	SectionMissing SectionState = iota
	SectionEmpty
	SectionFound
)

func (s SectionState) String() string {
	switch s {
	case SectionFound:
		return "found"
	case SectionEmpty:
		return "empty"
	default:
		return "missing"
	}
}

// Section is the tagged extraction result of one category.
type Section struct {
	State SectionState
	Items []string
}

// Sections groups the four changelog categories.
type Sections struct {
	NewFeatures      Section
	Changes          Section
	BugFixes         Section
	TechnicalChanges Section
}

// Content flattens the tagged sections into domain content.
func (s Sections) Content() domain.VersionContent {
	return domain.VersionContent{
		NewFeatures:      s.NewFeatures.Items,
		Changes:          s.Changes.Items,
		BugFixes:         s.BugFixes.Items,
		TechnicalChanges: s.TechnicalChanges.Items,
	}
}

type category int

const (
	catNone category = iota
	catNewFeatures
	catChanges
	catBugFixes
	catTechnical
)

func classifyHeading(text string) category {
	switch text {
	case "New Features":
		return catNewFeatures
	case "Changes":
		return catChanges
	case "Technical Changes":
		return catTechnical
	}
	if strings.HasPrefix(strings.ToLower(text), "fixed bugs") {
		return catBugFixes
	}
	return catNone
}

// ParseSections reads an article page and extracts the changelog categories.
func ParseSections(r io.Reader) (Sections, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Sections{}, fmt.Errorf("parse document: %w", err)
	}
	return extractSections(doc), nil
}

// extractSections walks <h2> and <li> in document order. A section runs
// from its heading to the next <h2> or the end of the document; the first
// heading of each category wins.
func extractSections(doc *goquery.Document) Sections {
	raw := map[category][]string{}
	seen := map[category]bool{}
	current := catNone

	doc.Find("h2, li").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "h2" {
			cat := classifyHeading(cleanText(sel.Text()))
			if cat != catNone && seen[cat] {
				cat = catNone
			}
			if cat != catNone {
				seen[cat] = true
				raw[cat] = []string{}
			}
			current = cat
			return
		}
		if current == catNone {
			return
		}
		// nested items are folded into their top-level <li>
		if sel.ParentsFiltered("li").Length() > 0 {
			return
		}
		raw[current] = append(raw[current], cleanText(sel.Text()))
	})

	return Sections{
		NewFeatures:      buildSection(raw, seen, catNewFeatures, maxNewFeatures, plainItem),
		Changes:          buildSection(raw, seen, catChanges, maxChanges, plainItem),
		BugFixes:         buildSection(raw, seen, catBugFixes, maxBugFixes, bugItem),
		TechnicalChanges: buildSection(raw, seen, catTechnical, maxTechnicalChanges, plainItem),
	}
}

func buildSection(raw map[category][]string, seen map[category]bool, cat category, limit int, keep func(string) (string, bool)) Section {
	if !seen[cat] {
		return Section{State: SectionMissing, Items: []string{}}
	}

	items := raw[cat]
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := keep(item); ok {
			out = append(out, text)
		}
	}

	if len(out) == 0 {
		return Section{State: SectionEmpty, Items: out}
	}
	return Section{State: SectionFound, Items: out}
}

func plainItem(text string) (string, bool) {
	return text, len([]rune(text)) > 3
}

// bugItem renders "<ticket>: <description>", the description being the text
// after the first " - " separator when present.
func bugItem(text string) (string, bool) {
	ticket := ticketExpr.FindString(text)
	if ticket == "" {
		return plainItem(text)
	}
	desc := text
	if _, after, ok := strings.Cut(text, " - "); ok {
		desc = after
	}
	return ticket + ": " + desc, true
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
