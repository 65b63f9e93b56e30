package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
)

// Index is the filterable article list.
func Index(p IndexPage) templ.Component {
	return Layout(p.Site, p.Meta, component(func(w *writer) {
		w.raw(`<section class="kb-index">`)
		w.elem("h1", p.Site.Name)
		if p.Site.Description != "" {
			w.elem("p", p.Site.Description, "class", "kb-lead")
		}
		if p.Unavailable {
			w.elem("p", "知识库暂时无法加载，请稍后再试。", "class", "kb-notice", "role", "alert")
		}
		href := ArticleHref
		if p.Static {
			href = staticHref
		} else {
			filterForm(w, p)
			categoryNav(w, p)
			quickNav(w, p.Query)
			tagCloud(w, p.Tags)
		}
		if len(p.Recommended) > 0 {
			w.raw(`<section class="kb-recommended">`)
			w.elem("h2", "推荐阅读")
			articleList(w, p.Recommended, href)
			w.raw("</section>")
		}
		w.raw(`<section class="kb-results">`)
		w.elem("h2", "共 "+strconv.Itoa(len(p.Results))+" 篇文章", "class", "kb-count")
		if len(p.Results) == 0 {
			w.elem("p", "没有找到匹配的文章。", "class", "kb-empty")
		} else {
			articleList(w, p.Results, href)
		}
		w.raw("</section>")
		if len(p.Hot) > 0 {
			w.raw(`<aside class="kb-hot">`)
			w.elem("h2", "热门内容")
			w.raw("<ol>")
			for _, a := range p.Hot {
				w.raw("<li>")
				w.elem("a", a.Title, "href", href(a.ID))
				w.raw("</li>")
			}
			w.raw("</ol></aside>")
		}
		w.raw("</section>")
	}))
}

func filterForm(w *writer, p IndexPage) {
	q := p.Query
	w.open("form", "class", "kb-filter", "method", "get", "action", "/knowledge/", "role", "search")
	w.open("input", "type", "search", "name", "q", "value", q.Search, "placeholder", "搜索文章、标签…", "aria-label", "搜索")
	if q.Category != "" {
		w.open("input", "type", "hidden", "name", "category", "value", q.Category)
	}
	if q.Subcategory != "" {
		w.open("input", "type", "hidden", "name", "subcategory", "value", q.Subcategory)
	}
	if q.Quick != knowledge.QuickAll {
		w.open("input", "type", "hidden", "name", "quick", "value", string(q.Quick))
	}
	w.open("select", "name", "difficulty", "aria-label", "难度")
	option(w, "", "全部难度", q.Difficulty == "")
	for _, id := range knowledge.DifficultyIDs() {
		label, _ := knowledge.DifficultyLabel(id)
		option(w, id, label, q.Difficulty == id)
	}
	w.close("select")
	w.elem("button", "筛选", "type", "submit")
	w.close("form")
}

func option(w *writer, value, label string, selected bool) {
	if selected {
		w.open("option", "value", value, "selected", "selected")
	} else {
		w.open("option", "value", value)
	}
	w.text(label)
	w.close("option")
}

func categoryNav(w *writer, p IndexPage) {
	q := p.Query
	empty := ""
	w.raw(`<nav class="kb-categories" aria-label="分类">`)
	w.elem("a", "全部分类", "class", classes("kb-chip", q.Category == ""),
		"href", QueryHref(q.With(knowledge.Patch{Category: &empty, Subcategory: &empty})))
	for _, c := range p.Categories {
		id := c.ID
		w.open("a", "class", classes("kb-chip", q.Category == id),
			"href", QueryHref(q.With(knowledge.Patch{Category: &id, Subcategory: &empty})))
		w.text(c.Name)
		w.elem("span", strconv.Itoa(c.Count), "class", "kb-chip-count")
		w.close("a")
	}
	w.raw("</nav>")

	if q.Category == "" {
		return
	}
	for _, nc := range p.Navigation.Structure {
		if nc.ID != q.Category || len(nc.Children) == 0 {
			continue
		}
		w.raw(`<nav class="kb-subcategories" aria-label="子分类">`)
		for _, sub := range nc.Children {
			id := sub.ID
			name := sub.Name
			if name == "" {
				name = sub.ID
			}
			w.elem("a", name, "class", classes("kb-chip", q.Subcategory == id),
				"href", QueryHref(q.With(knowledge.Patch{Subcategory: &id})))
		}
		w.raw("</nav>")
	}
}

func quickNav(w *writer, q knowledge.Query) {
	w.raw(`<nav class="kb-quick" aria-label="快速筛选">`)
	for _, ql := range quickLabels {
		f := ql.Filter
		w.elem("a", ql.Label, "class", classes("kb-chip", q.Quick == f),
			"href", QueryHref(q.With(knowledge.Patch{Quick: &f})))
	}
	w.raw("</nav>")
}

func tagCloud(w *writer, tags []knowledge.TagCount) {
	if len(tags) == 0 {
		return
	}
	w.raw(`<section class="kb-tags">`)
	w.elem("h2", "热门标签")
	for _, t := range tags {
		search := t.Tag
		w.elem("a", t.Tag+" ("+strconv.Itoa(t.Count)+")", "class", "kb-tag",
			"href", QueryHref(knowledge.Query{}.With(knowledge.Patch{Search: &search})))
	}
	w.raw("</section>")
}

func staticHref(id string) string {
	return url.PathEscape(id) + ".html"
}

func articleList(w *writer, arts []knowledge.Article, href func(string) string) {
	w.raw(`<ul class="kb-list">`)
	for _, a := range arts {
		w.raw(`<li class="kb-card">`)
		w.raw("<h3>")
		w.elem("a", a.Title, "href", href(a.ID))
		if a.Featured {
			w.elem("span", "精选", "class", "kb-badge")
		}
		w.raw("</h3>")
		w.elem("p", a.Excerpt, "class", "kb-excerpt")
		articleMeta(w, a)
		tagList(w, a.Tags)
		w.raw("</li>")
	}
	w.raw("</ul>")
}

func articleMeta(w *writer, a knowledge.Article) {
	w.raw(`<p class="kb-meta">`)
	for _, item := range []string{a.Category, a.Difficulty, a.Date, a.ReadingTime} {
		if item != "" {
			w.elem("span", item)
		}
	}
	if a.Views != "" {
		w.elem("span", a.Views+" 次阅读")
	}
	w.raw("</p>")
}

func tagList(w *writer, tags []string) {
	if len(tags) == 0 {
		return
	}
	w.raw(`<ul class="kb-taglist">`)
	for _, t := range tags {
		w.raw("<li>")
		w.elem("span", t, "class", "kb-tag")
		w.raw("</li>")
	}
	w.raw("</ul>")
}

// Article is the page of one article with its rendered body.
func Article(p ArticlePage) templ.Component {
	return Layout(p.Site, p.Meta, component(func(w *writer) {
		a := p.Article
		back := "/knowledge/"
		if p.Static {
			back = "index.html"
		}
		w.raw(`<article class="kb-article">`)
		w.raw(`<nav class="kb-breadcrumb">`)
		w.elem("a", "知识库", "href", back)
		if a.Category != "" {
			w.raw(" / ")
			w.text(a.Category)
		}
		w.raw("</nav>")
		w.raw("<header>")
		w.elem("h1", a.Title)
		articleMeta(w, a)
		if a.Excerpt != "" {
			w.elem("p", a.Excerpt, "class", "kb-excerpt")
		}
		w.raw("</header>")
		w.component(markdown.TOC(p.Body))
		w.raw(`<div class="kb-body">`)
		w.component(markdown.Component(p.Body))
		w.raw("</div>")
		tagList(w, a.Tags)
		if len(p.Related) > 0 {
			w.raw(`<aside class="kb-related">`)
			w.elem("h2", "相关文章")
			w.raw("<ul>")
			for _, r := range p.Related {
				href := ArticleHref(r.ID)
				if p.Static {
					href = staticHref(r.ID)
				}
				w.raw("<li>")
				w.elem("a", r.Title, "href", href)
				w.raw("</li>")
			}
			w.raw("</ul></aside>")
		}
		w.elem("a", "← 返回知识库", "class", "kb-back", "href", back)
		w.raw("</article>")
	}))
}
