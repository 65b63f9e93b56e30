package views

import (
	"time"

	"github.com/mobiuskb/kbengine/analytics"
	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
)

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string // canonical base, no trailing slash
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string // optional schema.org block
}

// IndexPage is the article list at /knowledge/.
type IndexPage struct {
	Site        SiteConfig
	Meta        PageMeta
	Query       knowledge.Query
	Results     []knowledge.Article
	Total       int
	Categories  []knowledge.CategoryCount
	Navigation  knowledge.Navigation
	Tags        []knowledge.TagCount
	Recommended []knowledge.Article
	Hot         []knowledge.Article
	Unavailable bool // the corpus failed to load
	Static      bool // written by the static build; no filter controls
}

// ArticlePage is a single rendered article.
type ArticlePage struct {
	Site    SiteConfig
	Meta    PageMeta
	Article knowledge.Article
	Body    markdown.Result
	Related []knowledge.Article
	Static  bool // links are written for the static build
}

// DashboardPage is the admin overview.
type DashboardPage struct {
	Site          SiteConfig
	CSRFToken     string
	Message       string
	Source        string
	Articles      int
	Categories    []knowledge.CategoryCount
	LoadedAt      time.Time
	LoadError     string
	CachedRenders int
	Issues        int
	Analytics     bool // read tracking is enabled
}

// VerifyPage lists corpus integrity problems.
type VerifyPage struct {
	Site   SiteConfig
	Issues []knowledge.Issue
}

// AnalyticsPage shows article read statistics.
type AnalyticsPage struct {
	Site   SiteConfig
	Period string
	Stats  *analytics.Stats
	Titles map[string]string // article id to title, for ids still in the corpus
}
