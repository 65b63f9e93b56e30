package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// Issue is one integrity problem found by Verify.
type Issue struct {
	ArticleID string `json:"articleId,omitempty"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	if i.ArticleID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Kind, i.ArticleID, i.Message)
}

// Issue kinds.
const (
	IssueDuplicateID      = "duplicate-id"
	IssueMissingID        = "missing-id"
	IssueCategoryLabel    = "category-label"
	IssueCategoryMismatch = "category-id"
	IssueURL              = "url"
	IssueHotContent       = "hot-content"
	IssueNavigationTags   = "navigation-tags"
	IssueDate             = "date"
)

// Verify checks a document for the invariants the site relies on: unique
// ids, category labels agreeing with metadata, article URLs matching ids,
// hot content referencing existing articles and subcategories having tags.
func Verify(doc *Document) []Issue {
	var issues []Issue
	add := func(id, kind, format string, args ...any) {
		issues = append(issues, Issue{ArticleID: id, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]string)
	for _, b := range doc.Categories {
		meta, hasMeta := doc.Metadata.Categories[b.ID]
		if !hasMeta {
			add("", IssueCategoryLabel, "category %q has no metadata entry", b.ID)
		}
		for _, a := range b.Articles {
			if strings.TrimSpace(a.ID) == "" {
				add("", IssueMissingID, "article %q in %q has no id", a.Title, b.ID)
				continue
			}
			if prev, dup := seen[a.ID]; dup {
				add(a.ID, IssueDuplicateID, "also present in category %q", prev)
			} else {
				seen[a.ID] = b.ID
			}
			if a.CategoryID != "" && a.CategoryID != b.ID {
				add(a.ID, IssueCategoryMismatch, "categoryId %q stored under %q", a.CategoryID, b.ID)
			}
			if hasMeta && a.Category != meta.Name {
				add(a.ID, IssueCategoryLabel, "category %q, metadata says %q", a.Category, meta.Name)
			}
			if strings.HasPrefix(a.URL, "knowledge/") && a.URL != "knowledge/"+a.ID+".html" {
				add(a.ID, IssueURL, "url %q does not match id", a.URL)
			}
			if a.Date != "" && ParseDate(a.Date).IsZero() {
				add(a.ID, IssueDate, "unparseable date %q", a.Date)
			}
		}
	}
	for _, h := range doc.Metadata.HotContent {
		if _, ok := seen[h.ID]; !ok {
			add(h.ID, IssueHotContent, "hot content references a missing article")
		}
	}
	for _, c := range doc.Navigation.Structure {
		for _, child := range c.Children {
			if len(child.Tags) == 0 {
				add("", IssueNavigationTags, "subcategory %s/%s has no tags", c.ID, child.ID)
			}
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Kind < issues[j].Kind })
	return issues
}
