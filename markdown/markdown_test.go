package markdown

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

func mustRender(t *testing.T, src string) Result {
	t.Helper()
	res, err := NewRenderer().Render(src)
	if err != nil {
		t.Fatalf("Render(%q): %v", src, err)
	}
	return res
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"heading", "# Title", `<h1 id="heading-0">Title</h1>`},
		{"heading then text", "## Sub\ntext", `<h2 id="heading-0">Sub</h2><p>text</p>`},
		{"paragraph joins lines", "para one\npara two", `<p>para one para two</p>`},
		{"blank line splits paragraphs", "a\n\nb", `<p>a</p><p>b</p>`},
		{"unordered", "- a\n* b\n+ c", `<ul><li>a</li><li>b</li><li>c</li></ul>`},
		{"ordered", "1. a\n2. b", `<ol><li>a</li><li>b</li></ol>`},
		{"lists never merge", "- a\n1. b", `<ul><li>a</li></ul><ol><li>b</li></ol>`},
		{"blockquote", "> quoted\n> more", `<blockquote><p>quoted</p><p>more</p></blockquote>`},
		{"fence with lang", "```go\nx := 1 < 2\n```", `<pre data-lang="go"><code class="language-go">x := 1 &lt; 2` + "\n" + `</code></pre>`},
		{"fence without lang", "```\nplain\n```", "<pre><code>plain\n</code></pre>"},
		{"unclosed fence", "```\nplain", "<pre><code>plain\n</code></pre>"},
		{"heading inside fence", "```\n# not heading\n```\n# real", "<pre><code># not heading\n</code></pre>" + `<h1 id="heading-3">real</h1>`},
		{"callout", "{{note}}hello{{/note}}", `<div class="callout callout-note"><p>hello</p></div>`},
		{"callout block", "{{warning}}\n# Careful\n- one\n{{/warning}}\nafter",
			`<div class="callout callout-warning"><h1 id="heading-1">Careful</h1><ul><li>one</li></ul></div><p>after</p>`},
		{"stray closing callout", "{{note}}\na\n{{/warning}}\nafter",
			`<div class="callout callout-note"><p>a</p><p>{{/warning}}</p><p>after</p></div>`},
		{"closing outer callout closes inner", "{{note}}\n{{warning}}\nx\n{{/note}}\ny",
			`<div class="callout callout-note"><div class="callout callout-warning"><p>x</p></div></div><p>y</p>`},
		{"text is escaped", "5 < 6 & <b>", `<p>5 &lt; 6 &amp; &lt;b&gt;</p>`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustRender(t, tt.src)
			if res.HTML != tt.want {
				t.Errorf("HTML = %q, want %q", res.HTML, tt.want)
			}
		})
	}
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"**b** and *i* and ***bi*** `c`", `<p><strong>b</strong> and <em>i</em> and <strong><em>bi</em></strong> <code>c</code></p>`},
		{"**bold *italic* text**", `<p><strong>bold <em>italic</em> text</strong></p>`},
		{"`**raw**`", `<p><code>**raw**</code></p>`},
		{"[x](/a)", `<p><a href="/a">x</a></p>`},
		{"[x](#top)", `<p><a href="#top">x</a></p>`},
		{"[x](https://example.com)", `<p><a href="https://example.com" target="_blank" rel="noopener noreferrer">x</a></p>`},
		{"[x](data:text/html,hi)", `<p>x</p>`},
		{"![alt](data:image/png,00)", `<p>alt</p>`},
		{"snake_case_name", `<p>snake_case_name</p>`},
		{"*a **b** c*", `<p><em>a <strong>b</strong> c</em></p>`},
		{"*x* then **y**", `<p><em>x</em> then <strong>y</strong></p>`},
		{"[![a](/i.png)](/u)", `<p><a href="/u"><img src="/i.png" alt="a" loading="lazy" decoding="async"/></a></p>`},
	}
	for _, tt := range tests {
		res := mustRender(t, tt.src)
		if res.HTML != tt.want {
			t.Errorf("Render(%q).HTML = %q, want %q", tt.src, res.HTML, tt.want)
		}
	}
}

func TestInlineImage(t *testing.T) {
	nodes := Inline("see ![a chart](/img/chart.png)")
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	img := nodes[1]
	if img.Data != "img" {
		t.Fatalf("second node = %q, want img", img.Data)
	}
	for key, want := range map[string]string{"src": "/img/chart.png", "alt": "a chart", "loading": "lazy"} {
		if got := Attr(img, key); got != want {
			t.Errorf("img %s = %q, want %q", key, got, want)
		}
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/knowledge/", "/knowledge/"},
		{"#heading-1", "#heading-1"},
		{"page.html", "page.html"},
		{" https://example.com ", "https://example.com"},
		{"mailto:info@example.com", "mailto:info@example.com"},
		{"tel:+81-3-0000", "tel:+81-3-0000"},
		{"javascript:alert(1)", ""},
		{"JavaScript:alert(1)", ""},
		{"data:text/html,x", ""},
		{"vbscript:x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	bad := []string{
		"<script>alert(1)</script>",
		"text < SCRIPT src=x>",
		"[x](javascript:alert(1))",
		"go to JavaScript :void(0)",
		`<img src=x onerror=alert(1)>`,
		`<div class="a" onClick = "x">`,
		`<svg/onload=alert(1)>`,
		`<a href="x"onmouseover=alert(1)>`,
	}
	for _, src := range bad {
		err := Validate(src)
		if !errors.Is(err, ErrSecurity) {
			t.Errorf("Validate(%q) = %v, want ErrSecurity", src, err)
		}
		var se *SecurityError
		if !errors.As(err, &se) {
			t.Errorf("Validate(%q) not a *SecurityError", src)
		}
		if _, err := NewRenderer().Render(src); !errors.Is(err, ErrSecurity) {
			t.Errorf("Render(%q) error = %v, want ErrSecurity", src, err)
		}
	}
}

func TestValidateAccepts(t *testing.T) {
	ok := []string{
		"onclick is just a word",
		"the script was long",
		"a < b and c > d",
		"if a < b and onion=3 then",
		"# 标题\n\n正文",
	}
	for _, src := range ok {
		if err := Validate(src); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", src, err)
		}
	}
}

func TestRenderNeverEmitsUnsafeElements(t *testing.T) {
	inputs := []string{
		"<b>bold</b> <iframe src=x></iframe>",
		"<style>body{}</style>",
		"[a](vbscript:x) ![b](data:x)",
		"> <a href=x>y</a>\n- <img src=y>",
	}
	for _, src := range inputs {
		res := mustRender(t, src)
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode {
				switch n.Data {
				case "script", "iframe", "style", "b":
					t.Errorf("Render(%q) produced <%s>", src, n.Data)
				}
				for _, a := range n.Attr {
					if strings.HasPrefix(a.Key, "on") {
						t.Errorf("Render(%q) produced attribute %s", src, a.Key)
					}
					if (a.Key == "href" || a.Key == "src") && SafeURL(a.Val) == "" {
						t.Errorf("Render(%q) produced unsafe %s=%q", src, a.Key, a.Val)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(res.Fragment)
	}
}

func TestRenderParseError(t *testing.T) {
	_, err := NewRenderer().Render("ok\n\xff\xfe")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 1 {
		t.Errorf("ParseError = %+v, want line 1", pe)
	}
}

func TestRenderOrFallback(t *testing.T) {
	res, err := NewRenderer().RenderOrFallback("<script>x</script>")
	if !errors.Is(err, ErrSecurity) {
		t.Fatalf("error = %v, want ErrSecurity", err)
	}
	div := res.Fragment.FirstChild
	if div == nil || div.Data != "div" || Attr(div, "class") != "markdown-error" {
		t.Fatalf("fallback fragment = %q", res.HTML)
	}
	if Attr(div, "role") != "alert" {
		t.Errorf("fallback role = %q, want alert", Attr(div, "role"))
	}
	if strings.Contains(res.HTML, "script") {
		t.Errorf("fallback leaked input: %q", res.HTML)
	}

	res, err = NewRenderer().RenderOrFallback("fine")
	if err != nil || res.HTML != "<p>fine</p>" {
		t.Errorf("RenderOrFallback(fine) = %q, %v", res.HTML, err)
	}
}

func TestExtractSEOInfo(t *testing.T) {
	src := "# 标题\n\n这是**重要**的描述。\n\n## 第二节\n### 第三"
	got := ExtractSEOInfo(src)
	want := SEOInfo{
		Title:       "标题",
		Description: "这是重要的描述。",
		Headings: []Heading{
			{Level: 1, Text: "标题", AnchorID: "heading-0"},
			{Level: 2, Text: "第二节", AnchorID: "heading-4"},
			{Level: 3, Text: "第三", AnchorID: "heading-5"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSEOInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSEOInfoDescription(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"skips code and markers", "{{note}}\n```\ncode\n```\n- item *one*", "item one"},
		{"quote prefix", "> [quoted](/x) text", "quoted text"},
		{"no prose", "# only", ""},
		{"truncated", strings.Repeat("字", 200), strings.Repeat("字", DescriptionLimit)},
	}
	for _, tt := range tests {
		if got := ExtractSEOInfo(tt.src).Description; got != tt.want {
			t.Errorf("%s: Description = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// domHeadings walks the rendered tree for heading elements.
func domHeadings(n *html.Node) []Heading {
	var out []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
			out = append(out, Heading{Level: int(n.Data[1] - '0'), Text: TextContent(n), AnchorID: Attr(n, "id")})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func TestHeadingsRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"# 经营管理签证 **指南**",
		"intro {{note}}",
		"## 申请 [条件](/knowledge/visa/)",
		"```",
		"# fake heading",
		"```",
		"{{/note}}",
		"### `code` 与 *强调*",
		"#no space is text",
		"###### 六级",
	}, "\n")
	res := mustRender(t, src)
	dom := domHeadings(res.Fragment)
	if len(dom) != 4 {
		t.Fatalf("rendered %d headings, want 4: %q", len(dom), res.HTML)
	}
	if diff := cmp.Diff(dom, ExtractSEOInfo(src).Headings); diff != "" {
		t.Errorf("SEO headings differ from DOM (-dom +seo):\n%s", diff)
	}
	if diff := cmp.Diff(dom, GenerateTableOfContents(src)); diff != "" {
		t.Errorf("TOC differs from DOM (-dom +toc):\n%s", diff)
	}
	if diff := cmp.Diff(dom, res.Headings); diff != "" {
		t.Errorf("Result.Headings differ from DOM (-dom +result):\n%s", diff)
	}
	for _, h := range dom {
		if !strings.Contains(res.TOC, `href="#`+h.AnchorID+`"`) {
			t.Errorf("TOC missing link to %s: %q", h.AnchorID, res.TOC)
		}
	}
}

func TestTOCNodeEmpty(t *testing.T) {
	out, err := Serialize(TOCNode(nil))
	if err != nil || out != "" {
		t.Errorf("TOCNode(nil) = %q, %v", out, err)
	}
	if res := mustRender(t, "no headings"); res.TOC != "" || len(res.TOCEntries) != 0 {
		t.Errorf("TOC = %q, entries = %v", res.TOC, res.TOCEntries)
	}
}

func TestComponent(t *testing.T) {
	res := mustRender(t, "# Hi\n\n- a & b")
	var buf bytes.Buffer
	if err := Component(res).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != res.HTML {
		t.Errorf("Component wrote %q, want %q", buf.String(), res.HTML)
	}
}

func TestErrorElement(t *testing.T) {
	out, err := Serialize(ErrorElement(&ParseError{Line: -1, Err: errors.New("boom")}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "内容渲染失败") || strings.Contains(out, "boom") {
		t.Errorf("ErrorElement = %q", out)
	}
}

func TestLinesSplitsCalloutMarkers(t *testing.T) {
	got := Lines("a {{alert}}b{{/alert}} c\r\n```\n{{note}}\n```")
	want := []string{"a", "{{alert}}", "b", "{{/alert}}", "c", "```", "{{note}}", "```"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheHitReturnsClone(t *testing.T) {
	cache := NewCache(0)
	r := NewRenderer(WithCache(cache))
	first, err := r.Render("# Cached")
	if err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}
	first.Fragment.FirstChild.FirstChild.Data = "mutated"

	second, err := r.Render("# Cached")
	if err != nil {
		t.Fatal(err)
	}
	if got := TextContent(second.Fragment); got != "Cached" {
		t.Errorf("cached fragment text = %q, want Cached", got)
	}
	if second.Fragment == first.Fragment {
		t.Error("cache returned the same fragment twice")
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(time.Hour)
	cache.now = func() time.Time { return now }
	cache.Put("x", mustRender(t, "x"))

	if _, ok := cache.Get("x"); !ok {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(time.Hour)
	if _, ok := cache.Get("x"); ok {
		t.Error("expired entry hit")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry not dropped, len = %d", cache.Len())
	}
}

func TestCacheCollisionMisses(t *testing.T) {
	if Hash("Aa") != Hash("BB") {
		t.Fatal("expected Aa and BB to collide")
	}
	cache := NewCache(0)
	cache.Put("Aa", mustRender(t, "Aa"))
	if _, ok := cache.Get("BB"); ok {
		t.Error("colliding source served cached result")
	}
	r := NewRenderer(WithCache(cache))
	res, err := r.Render("BB")
	if err != nil {
		t.Fatal(err)
	}
	if res.HTML != "<p>BB</p>" {
		t.Errorf("HTML = %q, want <p>BB</p>", res.HTML)
	}
	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("len after Purge = %d", cache.Len())
	}
}
