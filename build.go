package kbengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/views"
)

// BuildReport lists what BuildStatic did with each article.
type BuildReport struct {
	Written []string
	Skipped []string // page already existed
	Invalid []string // id unusable as a file name
}

// BuildStatic writes DIR/knowledge/<id>.html for every article of the
// loaded corpus plus an index page and the stylesheet. Existing article
// pages are kept unless force is set.
func (a *App) BuildStatic(ctx context.Context, dir string, force bool) (BuildReport, error) {
	var report BuildReport
	if err := a.Open(ctx); err != nil {
		return report, err
	}
	if _, err := a.Library.Status(); err != nil {
		return report, err
	}
	corpus := a.Library.Corpus()

	pages := filepath.Join(dir, "knowledge")
	if err := os.MkdirAll(pages, 0o755); err != nil {
		return report, fmt.Errorf("kbengine: build: %w", err)
	}

	for _, art := range corpus.Articles() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !validFileID(art.ID) {
			report.Invalid = append(report.Invalid, art.ID)
			continue
		}
		out := filepath.Join(pages, art.ID+".html")
		if !force {
			if _, err := os.Stat(out); err == nil {
				report.Skipped = append(report.Skipped, art.ID)
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return report, err
			}
		}
		var buf bytes.Buffer
		if err := a.Views.Article(a.articlePage(corpus, art, true)).Render(ctx, &buf); err != nil {
			return report, fmt.Errorf("kbengine: build %s: %w", art.ID, err)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return report, fmt.Errorf("kbengine: build %s: %w", art.ID, err)
		}
		report.Written = append(report.Written, art.ID)
	}

	var buf bytes.Buffer
	index := a.Views.Index(views.IndexPage{
		Site:       a.site(),
		Meta:       views.PageMeta{Title: a.Config.Name, URL: BuildURL(a.Config.URL, "knowledge")},
		Query:      knowledge.Query{}.With(knowledge.Patch{}),
		Results:    corpus.Articles(),
		Total:      corpus.Len(),
		Categories: corpus.Categories(),
		Navigation: corpus.Navigation(),
		Tags:       corpus.PopularTags(a.Config.PopularTagLimit),
		Hot:        corpus.HotArticles(),
		Static:     true,
	})
	if err := index.Render(ctx, &buf); err != nil {
		return report, fmt.Errorf("kbengine: build index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(pages, "index.html"), buf.Bytes(), 0o644); err != nil {
		return report, err
	}

	css, err := EmbeddedAssets.ReadFile("embedded/kbengine.css")
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(filepath.Join(dir, "public"), 0o755); err != nil {
		return report, err
	}
	if err := os.WriteFile(filepath.Join(dir, "public", "kbengine.css"), css, 0o644); err != nil {
		return report, err
	}
	a.Logger.Infof("build: %d written, %d skipped, %d invalid", len(report.Written), len(report.Skipped), len(report.Invalid))
	return report, nil
}

func validFileID(id string) bool {
	if id == "" || id == "." || id == ".." || id == "index" {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.ContainsRune(id, 0)
}
