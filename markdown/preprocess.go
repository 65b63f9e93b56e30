package markdown

import (
	"regexp"
	"strings"
)

// Callout kinds produced by the {{kind}}...{{/kind}} block markers.
const (
	CalloutAlert   = "alert"
	CalloutNote    = "note"
	CalloutWarning = "warning"
)

var reCallout = regexp.MustCompile(`\{\{(/?)(alert|note|warning)\}\}`)

// Lines splits src into the line sequence every pass works on. Callout
// markers are moved onto lines of their own; fenced code is left as is.
// Heading anchor ids are indexes into this sequence.
func Lines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	raw := strings.Split(src, "\n")
	out := make([]string, 0, len(raw))
	inCode := false
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if isFence(line) {
			inCode = !inCode
			out = append(out, line)
			continue
		}
		if inCode || !reCallout.MatchString(line) {
			out = append(out, line)
			continue
		}
		last := 0
		for _, m := range reCallout.FindAllStringIndex(line, -1) {
			if part := strings.TrimSpace(line[last:m[0]]); part != "" {
				out = append(out, part)
			}
			out = append(out, line[m[0]:m[1]])
			last = m[1]
		}
		if part := strings.TrimSpace(line[last:]); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// calloutMarker reports whether line is a lone callout marker.
func calloutMarker(line string) (kind string, closing, ok bool) {
	m := reCallout.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil || len(m[0]) != len(strings.TrimSpace(line)) {
		return "", false, false
	}
	return m[2], m[1] == "/", true
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

func fenceLang(line string) string {
	lang := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
	if i := strings.IndexAny(lang, " \t{"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}
