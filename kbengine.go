// Package kbengine serves a knowledge base of Markdown articles with Echo
// and templ. It loads the article corpus, answers filter queries through
// HTML pages and a JSON API, renders article bodies with the safe Markdown
// renderer, and provides RSS, sitemap, an admin dashboard and a static
// site build.
//
// Pages are produced by the components in ViewFuncs, which default to the
// views package and can be replaced with WithViews.
package kbengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/mobiuskb/kbengine/analytics"
	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
	"github.com/mobiuskb/kbengine/views"
)

// ViewFuncs holds the page components the handlers render.
type ViewFuncs struct {
	Index          func(p views.IndexPage) templ.Component
	Article        func(p views.ArticlePage) templ.Component
	AdminLogin     func(site views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(p views.DashboardPage) templ.Component
	AdminVerify    func(p views.VerifyPage) templ.Component
	AdminAnalytics func(p views.AnalyticsPage) templ.Component
	NotFound       func(site views.SiteConfig) templ.Component
	ServerError    func(site views.SiteConfig) templ.Component
}

// DefaultViews returns the components of the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Index:          views.Index,
		Article:        views.Article,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		AdminVerify:    views.AdminVerify,
		AdminAnalytics: views.AdminAnalytics,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// WithViews replaces the page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// App wires together the corpus library, the renderer, the optional
// SQLite store, the handlers and the middleware.
type App struct {
	Config      SiteConfig
	Echo        *echo.Echo
	Logger      *log.Logger
	Store       *Store
	Library     *knowledge.Library
	Renderer    *markdown.Renderer
	RenderCache *markdown.Cache
	Views       ViewFuncs
	Tracker     *analytics.Tracker // nil unless Config.Analytics is set

	analyticsStore *analytics.Store

	source       knowledge.Source
	loginLimiter *RateLimiter
	apiLimiter   *RateLimiter
	watcher      *CorpusWatcher
	customRoutes []func(*App)
	staticDir    string
	opened       bool
	routed       bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     DefaultViews(),
		staticDir: "public",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = log.New("kbengine")
		a.Logger.SetLevel(cfg.Level())
	}
	a.Echo.Logger = a.Logger
	a.Echo.HideBanner = true
	return a
}

// NewSource picks the corpus source for cfg. The SQLite driver reads from
// store; otherwise CorpusSource is fetched over HTTP when it is a URL and
// read from disk when it is not.
func NewSource(cfg SiteConfig, store *Store) (knowledge.Source, error) {
	switch {
	case cfg.CorpusDriver == DriverSQLite:
		if store == nil {
			return nil, errors.New("kbengine: sqlite driver needs a store")
		}
		return store, nil
	case isRemote(cfg.CorpusSource):
		return knowledge.HTTPSource{URL: cfg.CorpusSource, Client: &http.Client{Timeout: 30 * time.Second}}, nil
	default:
		return knowledge.FileSource{Path: cfg.CorpusSource}, nil
	}
}

// Open prepares the store, renderer and library and performs the first
// corpus load. A failed load leaves the site serving an empty corpus.
func (a *App) Open(ctx context.Context) error {
	if a.opened {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	if a.source == nil && a.Config.CorpusDriver == DriverSQLite {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("kbengine: init store: %w", err)
		}
		a.Store = store
	}
	if a.source == nil {
		src, err := NewSource(a.Config, a.Store)
		if err != nil {
			return err
		}
		a.source = src
	}

	if a.Config.Analytics {
		store, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("kbengine: init analytics: %w", err)
		}
		a.analyticsStore = store
		tracker, err := analytics.NewTracker(ctx, store, a.Config.URL, a.Logger)
		if err != nil {
			return fmt.Errorf("kbengine: init analytics: %w", err)
		}
		a.Tracker = tracker
	}

	a.RenderCache = markdown.NewCache(a.Config.RenderCacheTTL)
	a.Renderer = markdown.NewRenderer(markdown.WithCache(a.RenderCache))
	a.Library = knowledge.NewLibrary(a.source, a.Logger)
	a.Library.Load(ctx)
	a.opened = true
	return nil
}

// Reload loads the corpus again and drops cached renders.
func (a *App) Reload(ctx context.Context) bool {
	ok := a.Library.Load(ctx)
	a.RenderCache.Purge()
	return ok
}

// Setup opens the app and registers middleware and routes without
// starting the listener.
func (a *App) Setup(ctx context.Context) error {
	if a.routed {
		return nil
	}
	if err := a.Config.ValidateServe(); err != nil {
		return err
	}
	if err := a.Open(ctx); err != nil {
		return err
	}

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.apiLimiter = NewRateLimiter(a.Config.APIRateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.routed = true
	return nil
}

// Start sets the app up, starts the corpus watcher when configured and
// serves until ctx is canceled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}

	if a.Config.WatchCorpus {
		fs, ok := a.source.(knowledge.FileSource)
		if !ok {
			return fmt.Errorf("kbengine: corpus watching needs a file source, have %s", a.source)
		}
		w, err := NewCorpusWatcher(fs.Path, a.Reload, a.Logger)
		if err != nil {
			return fmt.Errorf("kbengine: watch corpus: %w", err)
		}
		a.watcher = w
		go w.Run(ctx)
	}
	if a.Tracker != nil {
		go a.Tracker.RunCleanup(ctx, a.Config.AnalyticsRetentionDays, 24*time.Hour)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			a.Logger.Errorf("shutdown: %v", err)
		}
	}()

	a.Logger.Infof("serving %s on %s", a.Config.Name, a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/kbengine.css", a.handleStylesheet)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", handleRootRedirect)
	e.GET("/knowledge/", a.handleIndex)
	e.GET("/knowledge/:id/", a.handleArticle)

	api := e.Group("/api", a.apiRateLimit)
	api.GET("/articles", a.handleAPIArticles)
	api.GET("/articles/:id", a.handleAPIArticle)
	api.GET("/tags", a.handleAPITags)
	api.GET("/categories", a.handleAPICategories)
	api.GET("/snapshot", a.handleAPISnapshot)
	api.GET("/export", a.handleAPIExport)
	api.GET("/status", a.handleAPIStatus)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/reload/", a.handleAdminReload)
	e.GET("/admin/verify/", a.handleAdminVerify)
	e.GET("/admin/analytics/", a.handleAdminAnalytics)
}

// Close stops background work and releases the store.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	var errs []error
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         strings.TrimRight(a.Config.URL, "/"),
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
