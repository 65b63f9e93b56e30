package kbengine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mobiuskb/kbengine/analytics"
	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/views"
)

const (
	recommendedLimit = 3
	relatedLimit     = 4
)

func handleRootRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/knowledge/")
}

func (a *App) handleIndex(c echo.Context) error {
	corpus := a.Library.Corpus()
	q := knowledge.QueryFromValues(c.QueryParams())
	results := corpus.Filter(q)
	_, loadErr := a.Library.Status()

	meta := views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "knowledge"),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(a.Config),
	}
	if q.Values().Encode() != "" {
		meta.Title = "筛选结果"
	}
	return Render(c, a.Views.Index(views.IndexPage{
		Site:        a.site(),
		Meta:        meta,
		Query:       q,
		Results:     results,
		Total:       corpus.Len(),
		Categories:  corpus.Categories(),
		Navigation:  corpus.Navigation(),
		Tags:        corpus.PopularTags(a.Config.PopularTagLimit),
		Recommended: knowledge.Recommended(results, recommendedLimit),
		Hot:         corpus.HotArticles(),
		Unavailable: loadErr != nil,
	}))
}

func (a *App) handleArticle(c echo.Context) error {
	corpus := a.Library.Corpus()
	art, ok := corpus.Article(c.Param("id"))
	if !ok {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
	}
	a.trackRead(c, art.ID)
	return Render(c, a.Views.Article(a.articlePage(corpus, art, false)))
}

// trackRead records the page view when analytics is enabled. Failures are
// logged and never affect the response.
func (a *App) trackRead(c echo.Context, id string) {
	if a.Tracker == nil {
		return
	}
	req := c.Request()
	err := a.Tracker.Track(req.Context(), analytics.Request{
		ArticleID:  id,
		IP:         c.RealIP(),
		UserAgent:  req.UserAgent(),
		Referrer:   req.Referer(),
		DoNotTrack: req.Header.Get("DNT") == "1" || req.Header.Get("Sec-GPC") == "1",
	})
	if err != nil {
		a.Logger.Warnf("track read %s: %v", id, err)
	}
}

func (a *App) articlePage(corpus *knowledge.Corpus, art knowledge.Article, static bool) views.ArticlePage {
	body, _ := a.renderBody(art)
	desc := art.Excerpt
	if desc == "" {
		desc = body.SEO.Description
	}
	return views.ArticlePage{
		Site: a.site(),
		Meta: views.PageMeta{
			Title:       art.Title,
			Description: desc,
			URL:         ArticleURL(a.Config.URL, art),
			OGType:      "article",
			JSONLD:      ArticleJsonLD(art, a.Config),
		},
		Article: art,
		Body:    body,
		Related: corpus.Related(art, relatedLimit),
		Static:  static,
	}
}

func (a *App) handleAPIArticles(c echo.Context) error {
	corpus := a.Library.Corpus()
	q := knowledge.QueryFromValues(c.QueryParams())
	results := corpus.Filter(q)
	resp := ArticlesResponse{
		Query:       q,
		Total:       corpus.Len(),
		Count:       len(results),
		Recommended: knowledge.Recommended(results, recommendedLimit),
	}
	if limit := queryInt(c.QueryParam("limit"), 0); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []knowledge.Article{}
	}
	resp.Articles = results
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleAPIArticle(c echo.Context) error {
	corpus := a.Library.Corpus()
	art, ok := corpus.Article(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "article not found")
	}
	res, err := a.renderBody(art)
	resp := ArticleResponse{
		Article:    art,
		HTML:       res.HTML,
		TOC:        res.TOC,
		TOCEntries: res.TOCEntries,
		SEO:        res.SEO,
		Headings:   res.Headings,
		Related:    corpus.Related(art, relatedLimit),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleAPITags(c echo.Context) error {
	limit := queryInt(c.QueryParam("limit"), a.Config.PopularTagLimit)
	return c.JSON(http.StatusOK, TagsResponse{Tags: a.Library.Corpus().PopularTags(limit)})
}

func (a *App) handleAPICategories(c echo.Context) error {
	corpus := a.Library.Corpus()
	return c.JSON(http.StatusOK, CategoriesResponse{
		Categories: corpus.Categories(),
		Navigation: corpus.Navigation(),
		Metadata:   corpus.Metadata(),
	})
}

func (a *App) handleAPISnapshot(c echo.Context) error {
	q := knowledge.QueryFromValues(c.QueryParams())
	return c.JSON(http.StatusOK, a.Library.Corpus().Snapshot(q))
}

func (a *App) handleAPIExport(c echo.Context) error {
	q := knowledge.QueryFromValues(c.QueryParams())
	data, err := a.Library.Corpus().Export(q)
	if err != nil {
		return fmt.Errorf("kbengine: export: %w", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="knowledge-export.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

func (a *App) handleAPIStatus(c echo.Context) error {
	loadedAt, err := a.Library.Status()
	resp := StatusResponse{
		Source:   a.Library.Source().String(),
		Articles: a.Library.Corpus().Len(),
		LoadedAt: loadedAt,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Library.Corpus())
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Library.Corpus())
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\nSitemap: " +
		strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleStylesheet(c echo.Context) error {
	data, err := EmbeddedAssets.ReadFile("embedded/kbengine.css")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", data)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	switch {
	case strings.HasPrefix(c.Request().URL.Path, "/api/"):
		a.Echo.DefaultHTTPErrorHandler(err, c)
	case code == http.StatusNotFound:
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError(a.site()))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
