package kbengine

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"

	"github.com/mobiuskb/kbengine/knowledge"
)

// Corpus drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// SiteConfig holds all configuration for a knowledge base site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "知识库")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Publisher name for JSON-LD

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/knowledge.db")

	CorpusSource string `yaml:"corpus_source"` // JSON file path or http(s) URL (default "data/articles.json")
	CorpusDriver string `yaml:"corpus_driver"` // "json" or "sqlite" (default "json")
	WatchCorpus  bool   `yaml:"watch_corpus"`  // Reload when the JSON file changes

	AdminPassword string `yaml:"admin_password"` // Required to serve: admin login password
	SessionSecret string `yaml:"session_secret"` // Required to serve: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	RenderCacheTTL  time.Duration `yaml:"render_cache_ttl"`  // Markdown render cache TTL (default 1h)
	APIRateLimit    int           `yaml:"api_rate_limit"`    // API requests per minute per IP (default 120)
	PopularTagLimit int           `yaml:"popular_tag_limit"` // Tags shown on the index (default 10)
	LogLevel        string        `yaml:"log_level"`         // debug, info, warn, error (default "info")

	Analytics              bool   `yaml:"analytics"`                // Record article reads
	AnalyticsDatabasePath  string `yaml:"analytics_database_path"`  // default "data/analytics.db"
	AnalyticsRetentionDays int    `yaml:"analytics_retention_days"` // default 365; reads older than this are deleted
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "知识库"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/knowledge.db"
	}
	if c.CorpusSource == "" {
		c.CorpusSource = "data/articles.json"
	}
	if c.CorpusDriver == "" {
		c.CorpusDriver = DriverJSON
	}
	if c.RenderCacheTTL == 0 {
		c.RenderCacheTTL = time.Hour
	}
	if c.APIRateLimit == 0 {
		c.APIRateLimit = 120
	}
	if c.PopularTagLimit == 0 {
		c.PopularTagLimit = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.AnalyticsRetentionDays == 0 {
		c.AnalyticsRetentionDays = 365
	}
}

// LoadConfig reads a YAML config file. A missing path yields the zero
// config, which setDefaults completes later.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("kbengine: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("kbengine: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from KB_* environment variables.
func (c *SiteConfig) ApplyEnv() {
	c.Name = EnvOr("KB_SITE_NAME", c.Name)
	c.URL = EnvOr("KB_SITE_URL", c.URL)
	c.Description = EnvOr("KB_SITE_DESCRIPTION", c.Description)
	c.Author = EnvOr("KB_SITE_AUTHOR", c.Author)
	c.Addr = EnvOr("KB_ADDR", c.Addr)
	c.DatabasePath = EnvOr("KB_DATABASE_PATH", c.DatabasePath)
	c.CorpusSource = EnvOr("KB_CORPUS_SOURCE", c.CorpusSource)
	c.CorpusDriver = EnvOr("KB_CORPUS_DRIVER", c.CorpusDriver)
	c.AdminPassword = EnvOr("ADMIN_PASSWORD", c.AdminPassword)
	c.SessionSecret = EnvOr("ADMIN_SESSION_SECRET", c.SessionSecret)
	c.LogLevel = EnvOr("KB_LOG_LEVEL", c.LogLevel)
	if v, err := strconv.ParseBool(os.Getenv("KB_WATCH_CORPUS")); err == nil {
		c.WatchCorpus = v
	}
	if v, err := strconv.ParseBool(os.Getenv("COOKIE_SECURE")); err == nil {
		c.CookieSecure = v
	}
	if v, err := time.ParseDuration(os.Getenv("KB_RENDER_CACHE_TTL")); err == nil {
		c.RenderCacheTTL = v
	}
	if v, err := strconv.Atoi(os.Getenv("KB_API_RATE_LIMIT")); err == nil {
		c.APIRateLimit = v
	}
	if v, err := strconv.ParseBool(os.Getenv("KB_ANALYTICS")); err == nil {
		c.Analytics = v
	}
	c.AnalyticsDatabasePath = EnvOr("KB_ANALYTICS_DATABASE_PATH", c.AnalyticsDatabasePath)
}

// Validate checks the settings needed to load the corpus. Settings that
// only the server needs are checked by ValidateServe.
func (c SiteConfig) Validate() error {
	var ve ValidationError
	c.validate(&ve)
	return ve.err()
}

// ValidateServe is Validate plus the admin credentials.
func (c SiteConfig) ValidateServe() error {
	var ve ValidationError
	c.validate(&ve)
	if c.AdminPassword == "" {
		ve.add("admin_password", "must not be empty")
	}
	if c.SessionSecret == "" {
		ve.add("session_secret", "must not be empty")
	} else if len(c.SessionSecret) < 16 {
		ve.add("session_secret", "must be at least 16 bytes")
	}
	return ve.err()
}

func (c SiteConfig) validate(ve *ValidationError) {
	if strings.TrimSpace(c.Name) == "" {
		ve.add("name", "must not be empty")
	}
	if !isAbsURL(c.URL) {
		ve.add("url", "must be a valid absolute URL")
	}
	switch c.CorpusDriver {
	case DriverJSON:
		if strings.TrimSpace(c.CorpusSource) == "" {
			ve.add("corpus_source", "must not be empty")
		}
	case DriverSQLite:
		if c.WatchCorpus {
			ve.add("watch_corpus", "only supported with the json driver")
		}
	default:
		ve.add("corpus_driver", "must be 'json' or 'sqlite'")
	}
	if c.WatchCorpus && isRemote(c.CorpusSource) {
		ve.add("watch_corpus", "requires a local corpus file")
	}
	if c.RenderCacheTTL < 0 {
		ve.add("render_cache_ttl", "must not be negative")
	}
	if c.APIRateLimit < 0 {
		ve.add("api_rate_limit", "must not be negative")
	}
	if c.AnalyticsRetentionDays < 0 {
		ve.add("analytics_retention_days", "must not be negative")
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		ve.add("log_level", "must be one of debug, info, warn, error, off")
	}
}

var logLevels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

// Level returns the gommon log level named by LogLevel.
func (c SiteConfig) Level() log.Lvl {
	if lvl, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return log.INFO
}

func isAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the application logger.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithSource serves the corpus from src instead of the configured source.
func WithSource(src knowledge.Source) Option {
	return func(a *App) {
		a.source = src
	}
}
