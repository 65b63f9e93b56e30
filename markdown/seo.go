package markdown

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DescriptionLimit is the maximum length of SEOInfo.Description in runes.
const DescriptionLimit = 160

// SEOInfo is the page metadata derived from a Markdown body.
type SEOInfo struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Headings    []Heading `json:"headings"`
}

// ExtractSEOInfo returns the first heading as title, the first prose line as
// description and every heading, using the same anchors as the renderer.
func ExtractSEOInfo(src string) SEOInfo {
	return extractSEO(Lines(src))
}

// GenerateTableOfContents returns the table of contents entries for src.
func GenerateTableOfContents(src string) []Heading {
	return tocEntries(Lines(src))
}

func scanHeadings(lines []string) []Heading {
	var out []Heading
	inCode := false
	for i, line := range lines {
		if isFence(line) {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if h, _, ok := headingLine(line, i); ok {
			out = append(out, h)
		}
	}
	return out
}

func tocEntries(lines []string) []Heading {
	hs := scanHeadings(lines)
	if hs == nil {
		return []Heading{}
	}
	return hs
}

func extractSEO(lines []string) SEOInfo {
	info := SEOInfo{Headings: tocEntries(lines)}
	if len(info.Headings) > 0 {
		info.Title = info.Headings[0].Text
	}
	inCode := false
	for i, line := range lines {
		if isFence(line) {
			inCode = !inCode
			continue
		}
		if inCode || strings.TrimSpace(line) == "" {
			continue
		}
		if _, _, ok := calloutMarker(line); ok {
			continue
		}
		if _, _, ok := headingLine(line, i); ok {
			continue
		}
		if d := describe(line); d != "" {
			info.Description = truncate(d, DescriptionLimit)
			break
		}
	}
	return info
}

// describe strips block punctuation and inline markup from a prose line.
func describe(line string) string {
	s := strings.TrimSpace(line)
	if m := reQuote.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if m := reUnordered.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if m := reOrdered.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(PlainText(s))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// TOCNode builds the table of contents navigation for entries. An empty
// list yields an empty fragment.
func TOCNode(entries []Heading) *html.Node {
	frag := newFragment()
	if len(entries) == 0 {
		return frag
	}
	nav := element(atom.Nav, attr("class", "toc"), attr("aria-label", "目录"))
	ul := element(atom.Ul, attr("class", "toc-list"))
	for _, h := range entries {
		li := element(atom.Li, attr("class", "toc-item toc-level-"+strconv.Itoa(h.Level)))
		a := element(atom.A, attr("href", "#"+h.AnchorID))
		a.AppendChild(text(h.Text))
		li.AppendChild(a)
		ul.AppendChild(li)
	}
	nav.AppendChild(ul)
	frag.AppendChild(nav)
	return frag
}
