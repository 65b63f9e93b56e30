// Package markdown renders a restricted Markdown dialect straight into an
// HTML node tree. Input is never parsed as HTML: every element is built
// from the Markdown structure and every piece of user text becomes a text
// node, so the serialized output is escaped by construction.
package markdown

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is a rendered heading and its anchor id.
type Heading struct {
	Level    int    `json:"level"`
	Text     string `json:"text"`
	AnchorID string `json:"anchorId"`
}

// Result is the output of one render. Fragment is a DocumentNode whose
// children are the rendered blocks; HTML and TOC are its serialized forms.
type Result struct {
	Fragment   *html.Node `json:"-"`
	HTML       string     `json:"html"`
	TOC        string     `json:"toc"`
	TOCEntries []Heading  `json:"tocEntries"`
	SEO        SEOInfo    `json:"seo"`
	Headings   []Heading  `json:"headings"`
}

var (
	reHeading    = regexp.MustCompile(`^(#{1,6})[ \t]+(.*\S)[ \t]*$`)
	reQuote      = regexp.MustCompile(`^>(?:[ \t]+(.*)|$)`)
	reUnordered  = regexp.MustCompile(`^[-*+][ \t]+(.*)$`)
	reOrdered    = regexp.MustCompile(`^\d+\.[ \t]+(.*)$`)
	reLangUnsafe = regexp.MustCompile(`[^A-Za-z0-9_+#.-]`)
	headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}
)

// AnchorID is the id given to the heading on line index of Lines(src).
func AnchorID(index int) string {
	return "heading-" + strconv.Itoa(index)
}

func headingLine(line string, index int) (Heading, []*html.Node, bool) {
	m := reHeading.FindStringSubmatch(line)
	if m == nil {
		return Heading{}, nil, false
	}
	nodes := Inline(m[2])
	return Heading{Level: len(m[1]), Text: textOf(nodes), AnchorID: AnchorID(index)}, nodes, true
}

type listKind int

const (
	listNone listKind = iota
	listUnordered
	listOrdered
)

// builder is the line state machine. Besides the code-block and list
// states it accumulates paragraphs and blockquotes and keeps a stack of
// open callout containers that receive new blocks.
type builder struct {
	root     *html.Node
	callouts []*html.Node
	kinds    []string

	para  *html.Node
	quote *html.Node
	list  *html.Node
	kind  listKind

	code     *html.Node
	codeText strings.Builder

	headings []Heading
}

func (b *builder) parent() *html.Node {
	if n := len(b.callouts); n > 0 {
		return b.callouts[n-1]
	}
	return b.root
}

func (b *builder) closeBlocks() {
	b.para = nil
	b.quote = nil
	b.list = nil
	b.kind = listNone
}

func (b *builder) line(i int, line string) {
	if b.code != nil {
		if isFence(line) {
			b.endCode()
			return
		}
		b.codeText.WriteString(line)
		b.codeText.WriteByte('\n')
		return
	}

	if isFence(line) {
		b.closeBlocks()
		b.startCode(fenceLang(line))
		return
	}

	if kind, closing, ok := calloutMarker(line); ok {
		b.closeBlocks()
		if closing {
			b.closeCallout(kind, line)
			return
		}
		div := element(atom.Div, attr("class", "callout callout-"+kind))
		b.parent().AppendChild(div)
		b.callouts = append(b.callouts, div)
		b.kinds = append(b.kinds, kind)
		return
	}

	if strings.TrimSpace(line) == "" {
		b.closeBlocks()
		return
	}

	if h, nodes, ok := headingLine(line, i); ok {
		b.closeBlocks()
		el := element(headingAtoms[h.Level-1], attr("id", h.AnchorID))
		appendAll(el, nodes)
		b.parent().AppendChild(el)
		b.headings = append(b.headings, h)
		return
	}

	if m := reQuote.FindStringSubmatch(line); m != nil {
		b.para = nil
		b.list, b.kind = nil, listNone
		if b.quote == nil {
			b.quote = element(atom.Blockquote)
			b.parent().AppendChild(b.quote)
		}
		if content := strings.TrimSpace(m[1]); content != "" {
			p := element(atom.P)
			appendAll(p, Inline(content))
			b.quote.AppendChild(p)
		}
		return
	}

	if m := reUnordered.FindStringSubmatch(line); m != nil {
		b.listItem(listUnordered, m[1])
		return
	}
	if m := reOrdered.FindStringSubmatch(line); m != nil {
		b.listItem(listOrdered, m[1])
		return
	}

	b.quote = nil
	b.list, b.kind = nil, listNone
	if b.para == nil {
		b.para = element(atom.P)
		b.parent().AppendChild(b.para)
	} else {
		b.para.AppendChild(text(" "))
	}
	appendAll(b.para, Inline(strings.TrimSpace(line)))
}

// closeCallout closes the innermost open callout of kind together with
// every callout opened inside it. A marker with no open callout of its kind
// is kept as literal text.
func (b *builder) closeCallout(kind, line string) {
	for i := len(b.kinds) - 1; i >= 0; i-- {
		if b.kinds[i] == kind {
			b.callouts = b.callouts[:i]
			b.kinds = b.kinds[:i]
			return
		}
	}
	p := element(atom.P)
	p.AppendChild(text(strings.TrimSpace(line)))
	b.parent().AppendChild(p)
}

func (b *builder) listItem(kind listKind, content string) {
	b.para = nil
	b.quote = nil
	if b.list != nil && b.kind != kind {
		b.list = nil
	}
	if b.list == nil {
		a := atom.Ul
		if kind == listOrdered {
			a = atom.Ol
		}
		b.list = element(a)
		b.kind = kind
		b.parent().AppendChild(b.list)
	}
	li := element(atom.Li)
	appendAll(li, Inline(strings.TrimSpace(content)))
	b.list.AppendChild(li)
}

func (b *builder) startCode(lang string) {
	pre := element(atom.Pre)
	code := element(atom.Code)
	if lang = reLangUnsafe.ReplaceAllString(lang, ""); lang != "" {
		code.Attr = append(code.Attr, attr("class", "language-"+lang))
		pre.Attr = append(pre.Attr, attr("data-lang", lang))
	}
	pre.AppendChild(code)
	b.parent().AppendChild(pre)
	b.code = code
	b.codeText.Reset()
}

func (b *builder) endCode() {
	if b.code == nil {
		return
	}
	if b.codeText.Len() > 0 {
		b.code.AppendChild(text(b.codeText.String()))
	}
	b.code = nil
	b.codeText.Reset()
}

// build runs the state machine over lines. Node construction panics are
// reported as *ParseError.
func build(lines []string) (root *html.Node, headings []Heading, err error) {
	current := -1
	defer func() {
		if r := recover(); r != nil {
			root, headings = nil, nil
			err = &ParseError{Line: current, Err: fmt.Errorf("%v", r)}
		}
	}()
	b := &builder{root: newFragment()}
	for i, line := range lines {
		current = i
		b.line(i, line)
	}
	b.endCode()
	b.closeBlocks()
	return b.root, b.headings, nil
}

func checkUTF8(lines []string) error {
	for i, l := range lines {
		if !utf8.ValidString(l) {
			return &ParseError{Line: i, Err: fmt.Errorf("invalid UTF-8")}
		}
	}
	return nil
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache memoizes renders in c.
func WithCache(c *Cache) Option {
	return func(r *Renderer) { r.cache = c }
}

// Renderer turns Markdown source into a Result. It is safe for concurrent
// use.
type Renderer struct {
	cache *Cache
}

// NewRenderer returns a Renderer configured by opts.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Cache returns the render cache, or nil when none is configured.
func (r *Renderer) Cache() *Cache { return r.cache }

// Render validates and renders src. Rejected input returns a
// *SecurityError and structural failures a *ParseError; in both cases no
// fragment is produced.
func (r *Renderer) Render(src string) (Result, error) {
	if r.cache != nil {
		if res, ok := r.cache.Get(src); ok {
			return res, nil
		}
	}
	res, err := render(src)
	if err != nil {
		return Result{}, err
	}
	if r.cache != nil {
		r.cache.Put(src, res)
	}
	return res, nil
}

// RenderOrFallback is Render, but on failure the returned Result holds the
// error placeholder element. The error is still returned for logging.
func (r *Renderer) RenderOrFallback(src string) (Result, error) {
	res, err := r.Render(src)
	if err == nil {
		return res, nil
	}
	frag := newFragment()
	frag.AppendChild(ErrorElement(err))
	out, serr := Serialize(frag)
	if serr != nil {
		return Result{}, serr
	}
	return Result{Fragment: frag, HTML: out}, err
}

func render(src string) (Result, error) {
	if err := Validate(src); err != nil {
		return Result{}, err
	}
	lines := Lines(src)
	if err := checkUTF8(lines); err != nil {
		return Result{}, err
	}
	root, headings, err := build(lines)
	if err != nil {
		return Result{}, err
	}
	out, err := Serialize(root)
	if err != nil {
		return Result{}, &ParseError{Line: -1, Err: err}
	}
	entries := tocEntries(lines)
	toc, err := Serialize(TOCNode(entries))
	if err != nil {
		return Result{}, &ParseError{Line: -1, Err: err}
	}
	return Result{
		Fragment:   root,
		HTML:       out,
		TOC:        toc,
		TOCEntries: entries,
		SEO:        extractSEO(lines),
		Headings:   headings,
	}, nil
}

// Component writes the rendered fragment of res.
func Component(res Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if res.Fragment == nil {
			return nil
		}
		for c := res.Fragment.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// TOC writes the table of contents of res, or nothing when it has no
// headings.
func TOC(res Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(res.TOCEntries) == 0 {
			return nil
		}
		return html.Render(w, TOCNode(res.TOCEntries).FirstChild)
	})
}
