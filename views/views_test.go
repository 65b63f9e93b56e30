package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

var testSite = SiteConfig{Name: "知识库", URL: "https://kb.example.com", Description: "desc"}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://kb.example.com", nil, "https://kb.example.com"},
		{"https://kb.example.com", []string{"knowledge", "a-b"}, "https://kb.example.com/knowledge/a-b/"},
		{"https://kb.example.com/base/", []string{"knowledge"}, "https://kb.example.com/base/knowledge/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestQueryHref(t *testing.T) {
	if got := QueryHref(knowledge.Query{}); got != "/knowledge/" {
		t.Errorf("QueryHref(zero) = %q", got)
	}
	q := knowledge.Query{Category: "tax", Quick: knowledge.QuickRecent}
	if got := QueryHref(q); got != "/knowledge/?category=tax&quick=recent" {
		t.Errorf("QueryHref = %q", got)
	}
}

func TestLayoutEscapesText(t *testing.T) {
	site := testSite
	site.Name = `<b>"KB"</b>`
	out := render(t, NotFound(site))
	if strings.Contains(out, "<b>") {
		t.Errorf("site name not escaped: %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;") {
		t.Errorf("escaped name missing: %s", out)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("missing doctype")
	}
}

func TestIndexRendersResults(t *testing.T) {
	page := IndexPage{
		Site:  testSite,
		Query: knowledge.Query{Quick: knowledge.QuickAll, Search: `"><script>`},
		Results: []knowledge.Article{
			{ID: "a-1", Title: "标题一", Excerpt: "摘要", Tags: []string{"税务"}, Featured: true},
		},
		Categories: []knowledge.CategoryCount{{ID: "tax", Name: "税务", Count: 1}},
		Tags:       []knowledge.TagCount{{Tag: "税务", Count: 1}},
	}
	out := render(t, Index(page))
	for _, want := range []string{`href="/knowledge/a-1/"`, "标题一", "共 1 篇文章", `href="/knowledge/?category=tax&amp;q=%22%3E%3Cscript%3E"`, "精选"} {
		if !strings.Contains(out, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("search value not escaped")
	}
}

func TestIndexEmptyAndUnavailable(t *testing.T) {
	out := render(t, Index(IndexPage{Site: testSite, Unavailable: true}))
	if !strings.Contains(out, "没有找到匹配的文章") || !strings.Contains(out, "知识库暂时无法加载") {
		t.Errorf("empty state missing: %s", out)
	}
}

func TestArticleRendersBodyAndTOC(t *testing.T) {
	body, err := markdown.NewRenderer().Render("# 概述\n\n正文 **重点**")
	if err != nil {
		t.Fatal(err)
	}
	out := render(t, Article(ArticlePage{
		Site:    testSite,
		Article: knowledge.Article{ID: "x", Title: "文章", Tags: []string{"t"}},
		Body:    body,
		Related: []knowledge.Article{{ID: "y", Title: "相关"}},
	}))
	for _, want := range []string{`<h1 id="heading-0">概述</h1>`, `<strong>重点</strong>`, `href="#heading-0"`, `href="/knowledge/y/"`} {
		if !strings.Contains(out, want) {
			t.Errorf("article missing %q", want)
		}
	}
}

func TestArticleStaticLinks(t *testing.T) {
	out := render(t, Article(ArticlePage{
		Site:    testSite,
		Article: knowledge.Article{ID: "x", Title: "文章"},
		Related: []knowledge.Article{{ID: "y", Title: "相关"}},
		Static:  true,
	}))
	if !strings.Contains(out, `href="y.html"`) || !strings.Contains(out, `href="index.html"`) {
		t.Errorf("static links missing: %s", out)
	}
}

func TestAdminPagesCarryCSRF(t *testing.T) {
	out := render(t, AdminLogin(testSite, true, "tok123"))
	if !strings.Contains(out, `name="_csrf" value="tok123"`) || !strings.Contains(out, "密码错误") {
		t.Errorf("login page: %s", out)
	}
	out = render(t, AdminDashboard(DashboardPage{Site: testSite, CSRFToken: "tok456", Articles: 3}))
	if strings.Count(out, `value="tok456"`) != 2 {
		t.Errorf("dashboard forms missing csrf token: %s", out)
	}
}

func TestAdminVerify(t *testing.T) {
	out := render(t, AdminVerify(VerifyPage{Site: testSite, Issues: []knowledge.Issue{
		{ArticleID: "a", Kind: knowledge.IssueDuplicateID, Message: "dup"},
	}}))
	if !strings.Contains(out, "发现 1 个问题") || !strings.Contains(out, knowledge.IssueDuplicateID) {
		t.Errorf("verify page: %s", out)
	}
}
