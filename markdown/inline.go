package markdown

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type spanKind int

const (
	spanBoldItalic spanKind = iota
	spanBold
	spanItalic
	spanCode
	spanLink
	spanImage
)

// spanRules are listed in precedence order: bold+italic, bold, italic,
// code, link, image. The earliest match in the text wins and equal start
// offsets go to the rule listed first. Italic spans may enclose bold spans
// and link labels may enclose an image, so an outer span is never split by
// the markers of the span nested in it.
var spanRules = []struct {
	kind spanKind
	re   *regexp.Regexp
}{
	{spanBoldItalic, regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)},
	{spanBold, regexp.MustCompile(`\*\*(.+?)\*\*`)},
	{spanItalic, regexp.MustCompile(`\*((?:\*\*[^*]+\*\*|[^*])+)\*`)},
	{spanCode, regexp.MustCompile("`([^`]+)`")},
	{spanLink, regexp.MustCompile(`\[((?:!\[[^\]]*\]\([^)\s]*\)|[^\]])*)\]\(([^)\s]*)\)`)},
	{spanImage, regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]*)\)`)},
}

// maxInlineDepth bounds recursion into nested spans.
const maxInlineDepth = 8

// Inline parses one line of inline Markdown into nodes. Nothing in s is
// ever interpreted as HTML.
func Inline(s string) []*html.Node {
	return parseInline(s, 0)
}

func parseInline(s string, depth int) []*html.Node {
	if depth > maxInlineDepth {
		return []*html.Node{text(s)}
	}
	var out []*html.Node
	for len(s) > 0 {
		best := -1
		var loc []int
		for i, r := range spanRules {
			m := r.re.FindStringSubmatchIndex(s)
			if m == nil {
				continue
			}
			if best < 0 || m[0] < loc[0] {
				best, loc = i, m
			}
		}
		if best < 0 {
			out = append(out, text(s))
			break
		}
		if loc[0] > 0 {
			out = append(out, text(s[:loc[0]]))
		}
		out = append(out, buildSpan(spanRules[best].kind, s, loc, depth)...)
		s = s[loc[1]:]
	}
	return out
}

func buildSpan(kind spanKind, s string, loc []int, depth int) []*html.Node {
	group := func(i int) string { return s[loc[2*i]:loc[2*i+1]] }
	switch kind {
	case spanBoldItalic:
		strong := element(atom.Strong)
		em := element(atom.Em)
		appendAll(em, parseInline(group(1), depth+1))
		strong.AppendChild(em)
		return []*html.Node{strong}
	case spanBold:
		strong := element(atom.Strong)
		appendAll(strong, parseInline(group(1), depth+1))
		return []*html.Node{strong}
	case spanItalic:
		em := element(atom.Em)
		appendAll(em, parseInline(group(1), depth+1))
		return []*html.Node{em}
	case spanCode:
		code := element(atom.Code)
		code.AppendChild(text(group(1)))
		return []*html.Node{code}
	case spanLink:
		label := parseInline(group(1), depth+1)
		href := SafeURL(group(2))
		if href == "" {
			return label
		}
		a := element(atom.A, attr("href", href))
		if isExternal(href) {
			a.Attr = append(a.Attr, attr("target", "_blank"), attr("rel", "noopener noreferrer"))
		}
		appendAll(a, label)
		return []*html.Node{a}
	case spanImage:
		alt := group(1)
		src := SafeURL(group(2))
		if src == "" {
			return []*html.Node{text(alt)}
		}
		return []*html.Node{element(atom.Img,
			attr("src", src),
			attr("alt", alt),
			attr("loading", "lazy"),
			attr("decoding", "async"),
		)}
	}
	return []*html.Node{text(s[loc[0]:loc[1]])}
}

// SafeURL returns raw trimmed if it is a relative reference, a fragment or
// an http, https, mailto or tel URL; otherwise "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}

func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// PlainText returns the visible text of an inline Markdown line.
func PlainText(s string) string {
	return textOf(parseInline(s, 0))
}
