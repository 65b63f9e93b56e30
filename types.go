package kbengine

import (
	"time"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
)

// ArticlesResponse is the body of GET /api/articles.
type ArticlesResponse struct {
	Query       knowledge.Query     `json:"query"`
	Total       int                 `json:"total"`
	Count       int                 `json:"count"`
	Articles    []knowledge.Article `json:"articles"`
	Recommended []knowledge.Article `json:"recommended"`
}

// ArticleResponse is the body of GET /api/articles/:id.
type ArticleResponse struct {
	Article    knowledge.Article   `json:"article"`
	HTML       string              `json:"html"`
	TOC        string              `json:"toc"`
	TOCEntries []markdown.Heading  `json:"tocEntries"`
	SEO        markdown.SEOInfo    `json:"seo"`
	Headings   []markdown.Heading  `json:"headings"`
	Related    []knowledge.Article `json:"related"`
	Error      string              `json:"error,omitempty"`
}

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Tags []knowledge.TagCount `json:"tags"`
}

// CategoriesResponse is the body of GET /api/categories.
type CategoriesResponse struct {
	Categories []knowledge.CategoryCount `json:"categories"`
	Navigation knowledge.Navigation      `json:"navigation"`
	Metadata   knowledge.Metadata        `json:"metadata"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Source   string    `json:"source"`
	Articles int       `json:"articles"`
	LoadedAt time.Time `json:"loadedAt,omitzero"`
	Error    string    `json:"error,omitempty"`
}
