package views

import "github.com/a-h/templ"

// Stylesheet is the path of the bundled stylesheet.
const Stylesheet = "/public/kbengine.css"

func pageTitle(site SiteConfig, meta PageMeta) string {
	if meta.Title == "" || meta.Title == site.Name {
		return site.Name
	}
	return meta.Title + " - " + site.Name
}

// Layout wraps body in the HTML document shell.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(w *writer) {
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		w.raw("<!DOCTYPE html>\n")
		w.open("html", "lang", "zh-CN")
		w.raw("<head>")
		w.raw(`<meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.elem("title", pageTitle(site, meta))
		w.open("meta", "name", "description", "content", desc)
		if meta.URL != "" {
			w.open("link", "rel", "canonical", "href", meta.URL)
			w.open("meta", "property", "og:url", "content", meta.URL)
		}
		w.open("meta", "property", "og:title", "content", pageTitle(site, meta))
		w.open("meta", "property", "og:description", "content", desc)
		w.open("meta", "property", "og:type", "content", ogType)
		w.open("meta", "property", "og:site_name", "content", site.Name)
		w.open("link", "rel", "stylesheet", "href", Stylesheet)
		w.open("link", "rel", "alternate", "type", "application/rss+xml", "title", site.Name, "href", "/feed.xml")
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script element.
			w.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		w.raw("</head><body>")
		w.raw(`<header class="site-header">`)
		w.elem("a", site.Name, "class", "site-name", "href", "/knowledge/")
		w.raw("</header>")
		w.raw(`<main class="site-main">`)
		w.component(body)
		w.raw("</main>")
		w.raw(`<footer class="site-footer">`)
		if site.Author != "" {
			w.elem("p", "© "+site.Author)
		}
		w.elem("a", "RSS", "href", "/feed.xml")
		w.raw("</footer>")
		w.raw("</body></html>")
	})
}

// NotFound is the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "页面未找到"}, component(func(w *writer) {
		w.raw(`<section class="error-page">`)
		w.elem("h1", "页面未找到")
		w.elem("p", "您访问的文章不存在或已被移除。")
		w.elem("a", "返回知识库", "href", "/knowledge/")
		w.raw("</section>")
	}))
}

// ServerError is the 5xx page.
func ServerError(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "服务器错误"}, component(func(w *writer) {
		w.raw(`<section class="error-page">`)
		w.elem("h1", "服务器错误")
		w.elem("p", "处理请求时出现问题，请稍后再试。")
		w.elem("a", "返回知识库", "href", "/knowledge/")
		w.raw("</section>")
	}))
}
