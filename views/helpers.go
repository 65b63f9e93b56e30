package views

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/mobiuskb/kbengine/knowledge"
)

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, s := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, s)
	}
}

// text writes s HTML-escaped.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// open writes a start tag. attrs are name/value pairs; values are escaped.
func (w *writer) open(tag string, attrs ...string) {
	w.raw("<", tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" && attrs[i] != "value" && attrs[i] != "alt" {
			continue
		}
		w.raw(" ", attrs[i], `="`)
		w.text(attrs[i+1])
		w.raw(`"`)
	}
	w.raw(">")
}

func (w *writer) close(tag string) {
	w.raw("</", tag, ">")
}

// elem writes a whole element with escaped text content.
func (w *writer) elem(tag, content string, attrs ...string) {
	w.open(tag, attrs...)
	w.text(content)
	w.close(tag)
}

func (w *writer) component(c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(w.ctx, w.w)
	}
}

func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, w: out}
		fn(w)
		return w.err
	})
}

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	for _, seg := range pathSegments {
		u = u.JoinPath(seg)
	}
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return u.String()
}

// ArticleHref is the site path of an article page.
func ArticleHref(id string) string {
	return "/knowledge/" + url.PathEscape(id) + "/"
}

// QueryHref is the index path for q.
func QueryHref(q knowledge.Query) string {
	if v := q.Values().Encode(); v != "" {
		return "/knowledge/?" + v
	}
	return "/knowledge/"
}

// JoinTags formats tags as a comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// quickLabels are the display names of the quick filters.
var quickLabels = []struct {
	Filter knowledge.QuickFilter
	Label  string
}{
	{knowledge.QuickAll, "全部"},
	{knowledge.QuickFeatured, "精选"},
	{knowledge.QuickRecent, "最新"},
	{knowledge.QuickPopular, "热门"},
}

func classes(base string, active bool) string {
	if active {
		return base + " is-active"
	}
	return base
}
