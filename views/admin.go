package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mobiuskb/kbengine/analytics"
)

func csrfField(w *writer, token string) {
	w.open("input", "type", "hidden", "name", "_csrf", "value", token)
}

// AdminLogin is the password form.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	return Layout(site, PageMeta{Title: "管理登录"}, component(func(w *writer) {
		w.raw(`<section class="admin-login">`)
		w.elem("h1", "管理登录")
		if showError {
			w.elem("p", "密码错误。", "class", "admin-error", "role", "alert")
		}
		w.open("form", "method", "post", "action", "/admin/login/")
		csrfField(w, csrfToken)
		w.elem("label", "密码", "for", "password")
		w.open("input", "type", "password", "id", "password", "name", "password", "required", "required", "autocomplete", "current-password")
		w.elem("button", "登录", "type", "submit")
		w.close("form")
		w.raw("</section>")
	}))
}

// AdminDashboard shows the state of the loaded corpus.
func AdminDashboard(p DashboardPage) templ.Component {
	return Layout(p.Site, PageMeta{Title: "管理面板"}, component(func(w *writer) {
		w.raw(`<section class="admin-dashboard">`)
		w.elem("h1", "管理面板")
		if p.Message != "" {
			w.elem("p", p.Message, "class", "admin-message", "role", "status")
		}
		w.raw(`<dl class="admin-stats">`)
		stat := func(label, value string) {
			w.elem("dt", label)
			w.elem("dd", value)
		}
		stat("数据源", p.Source)
		stat("文章数", strconv.Itoa(p.Articles))
		if p.LoadedAt.IsZero() {
			stat("加载时间", "未加载")
		} else {
			stat("加载时间", p.LoadedAt.Format("2006-01-02 15:04:05"))
		}
		if p.LoadError != "" {
			stat("加载错误", p.LoadError)
		}
		stat("渲染缓存", strconv.Itoa(p.CachedRenders))
		stat("完整性问题", strconv.Itoa(p.Issues))
		w.raw("</dl>")

		if len(p.Categories) > 0 {
			w.raw(`<table class="admin-categories"><thead><tr>`)
			w.elem("th", "分类")
			w.elem("th", "ID")
			w.elem("th", "文章")
			w.raw("</tr></thead><tbody>")
			for _, c := range p.Categories {
				w.raw("<tr>")
				w.elem("td", c.Name)
				w.elem("td", c.ID)
				w.elem("td", strconv.Itoa(c.Count))
				w.raw("</tr>")
			}
			w.raw("</tbody></table>")
		}

		w.raw(`<div class="admin-actions">`)
		w.open("form", "method", "post", "action", "/admin/reload/")
		csrfField(w, p.CSRFToken)
		w.elem("button", "重新加载", "type", "submit")
		w.close("form")
		w.elem("a", "完整性检查", "href", "/admin/verify/")
		if p.Analytics {
			w.elem("a", "阅读统计", "href", "/admin/analytics/")
		}
		w.open("form", "method", "post", "action", "/admin/logout/")
		csrfField(w, p.CSRFToken)
		w.elem("button", "退出", "type", "submit")
		w.close("form")
		w.raw("</div>")
		w.raw("</section>")
	}))
}

// AdminVerify lists integrity problems of the loaded corpus.
func AdminVerify(p VerifyPage) templ.Component {
	return Layout(p.Site, PageMeta{Title: "完整性检查"}, component(func(w *writer) {
		w.raw(`<section class="admin-verify">`)
		w.elem("h1", "完整性检查")
		if len(p.Issues) == 0 {
			w.elem("p", "未发现问题。", "class", "admin-message")
		} else {
			w.elem("p", "发现 "+strconv.Itoa(len(p.Issues))+" 个问题。", "class", "admin-error")
			w.raw(`<table class="admin-issues"><thead><tr>`)
			w.elem("th", "类型")
			w.elem("th", "文章")
			w.elem("th", "说明")
			w.raw("</tr></thead><tbody>")
			for _, is := range p.Issues {
				w.raw("<tr>")
				w.elem("td", is.Kind)
				w.elem("td", is.ArticleID)
				w.elem("td", is.Message)
				w.raw("</tr>")
			}
			w.raw("</tbody></table>")
		}
		w.elem("a", "返回管理面板", "href", "/admin/")
		w.raw("</section>")
	}))
}

var analyticsPeriods = []struct{ id, label string }{
	{"today", "今天"},
	{"week", "7天"},
	{"month", "30天"},
	{"year", "一年"},
}

// AdminAnalytics shows which articles are read and where readers come from.
func AdminAnalytics(p AnalyticsPage) templ.Component {
	return Layout(p.Site, PageMeta{Title: "阅读统计"}, component(func(w *writer) {
		w.raw(`<section class="admin-analytics">`)
		w.elem("h1", "阅读统计")
		w.raw(`<nav class="admin-periods">`)
		for _, per := range analyticsPeriods {
			cls := ""
			if per.id == p.Period {
				cls = "active"
			}
			w.elem("a", per.label, "href", "/admin/analytics/?period="+per.id, "class", cls)
		}
		w.raw("</nav>")

		st := p.Stats
		w.raw(`<dl class="admin-stats">`)
		w.elem("dt", "阅读次数")
		w.elem("dd", strconv.Itoa(st.TotalReads))
		w.elem("dt", "独立访客")
		w.elem("dd", strconv.Itoa(st.UniqueVisitors))
		w.elem("dt", "爬虫访问")
		w.elem("dd", strconv.Itoa(st.BotReads))
		w.raw("</dl>")

		w.elem("h2", "热门文章")
		if len(st.TopArticles) == 0 {
			w.elem("p", "暂无数据。", "class", "admin-message")
		} else {
			w.raw(`<table class="admin-top"><thead><tr>`)
			w.elem("th", "文章")
			w.elem("th", "阅读")
			w.elem("th", "访客")
			w.raw("</tr></thead><tbody>")
			for _, a := range st.TopArticles {
				w.raw("<tr><td>")
				if title, ok := p.Titles[a.ArticleID]; ok {
					w.elem("a", title, "href", "/knowledge/"+url.PathEscape(a.ArticleID)+"/")
				} else {
					w.text(a.ArticleID)
				}
				w.raw("</td>")
				w.elem("td", strconv.Itoa(a.Reads))
				w.elem("td", strconv.Itoa(a.Visitors))
				w.raw("</tr>")
			}
			w.raw("</tbody></table>")
		}

		breakdown := func(title string, rows []analytics.DimensionStat) {
			if len(rows) == 0 {
				return
			}
			w.elem("h2", title)
			w.raw(`<table class="admin-breakdown"><tbody>`)
			for _, r := range rows {
				w.raw("<tr>")
				w.elem("td", r.Name)
				w.elem("td", strconv.Itoa(r.Count))
				w.raw("</tr>")
			}
			w.raw("</tbody></table>")
		}
		breakdown("来源", st.Referrers)
		breakdown("设备", st.Devices)
		breakdown("爬虫", st.TopBots)

		if len(st.Daily) > 1 {
			w.elem("h2", "每日阅读")
			w.raw(`<table class="admin-daily"><tbody>`)
			for _, d := range st.Daily {
				w.raw("<tr>")
				w.elem("td", d.Date)
				w.elem("td", strconv.Itoa(d.Reads))
				w.raw("</tr>")
			}
			w.raw("</tbody></table>")
		}
		w.elem("a", "返回管理面板", "href", "/admin/")
		w.raw("</section>")
	}))
}
