package kbengine

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/mobiuskb/kbengine/analytics"
	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warnf("failed admin login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminReload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	msg := "知识库已重新加载"
	if !a.Reload(c.Request().Context()) {
		msg = "重新加载失败，请查看日志"
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdminVerify(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	doc := a.Library.Corpus().Document()
	return Render(c, a.Views.AdminVerify(views.VerifyPage{
		Site:   a.site(),
		Issues: knowledge.Verify(&doc),
	}))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	corpus := a.Library.Corpus()
	loadedAt, loadErr := a.Library.Status()
	doc := corpus.Document()
	page := views.DashboardPage{
		Site:          a.site(),
		CSRFToken:     CsrfToken(c),
		Message:       msg,
		Source:        a.Library.Source().String(),
		Articles:      corpus.Len(),
		Categories:    corpus.Categories(),
		LoadedAt:      loadedAt,
		CachedRenders: a.RenderCache.Len(),
		Issues:        len(knowledge.Verify(&doc)),
		Analytics:     a.Tracker != nil,
	}
	if loadErr != nil {
		page.LoadError = loadErr.Error()
	}
	return Render(c, a.Views.AdminDashboard(page))
}

// analyticsTopLimit is the number of rows in each analytics breakdown.
const analyticsTopLimit = 20

func (a *App) handleAdminAnalytics(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if a.Tracker == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	period, days := analytics.ParsePeriod(c.QueryParam("period"))
	stats, err := a.Tracker.Stats(c.Request().Context(), days, analyticsTopLimit)
	if err != nil {
		return fmt.Errorf("kbengine: analytics stats: %w", err)
	}
	corpus := a.Library.Corpus()
	titles := make(map[string]string, len(stats.TopArticles))
	for _, s := range stats.TopArticles {
		if art, ok := corpus.Article(s.ArticleID); ok {
			titles[s.ArticleID] = art.Title
		}
	}
	return Render(c, a.Views.AdminAnalytics(views.AnalyticsPage{
		Site:   a.site(),
		Period: period,
		Stats:  stats,
		Titles: titles,
	}))
}
