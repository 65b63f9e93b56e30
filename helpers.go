package kbengine

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/views"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	return views.BuildURL(base, pathSegments...)
}

// ArticleURL is the canonical URL of an article page.
func ArticleURL(base string, art knowledge.Article) string {
	return BuildURL(base, "knowledge", art.ID)
}

// queryInt reads a non-negative integer parameter, falling back to def.
func queryInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
		"potentialAction": map[string]string{
			"@type":       "SearchAction",
			"target":      BuildURL(cfg.URL, "knowledge") + "?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
	if cfg.Author != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Author,
		}
	}
	return marshalJsonLD(data)
}

// ArticleJsonLD returns a JSON-LD string for an Article schema.
func ArticleJsonLD(art knowledge.Article, cfg SiteConfig) string {
	pageURL := ArticleURL(cfg.URL, art)
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Article",
		"headline":    art.Title,
		"description": art.Excerpt,
		"url":         pageURL,
		"inLanguage":  "zh-CN",
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   pageURL,
		},
	}
	if t := art.Time(); !t.IsZero() {
		data["datePublished"] = t.Format("2006-01-02")
	}
	if art.Category != "" {
		data["articleSection"] = art.Category
	}
	if len(art.Tags) > 0 {
		data["keywords"] = strings.Join(art.Tags, ", ")
	}
	if cfg.Author != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Author,
		}
	}
	return marshalJsonLD(data)
}

func marshalJsonLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
