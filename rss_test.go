package kbengine

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"
)

func TestFeedParses(t *testing.T) {
	a := newTestApp(t, testConfig())
	rec := get(t, a, "/feed.xml")

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("feed does not parse: %v", err)
	}
	if feed.FeedType != "rss" || feed.Title != "测试知识库" {
		t.Errorf("feed type/title = %q/%q", feed.FeedType, feed.Title)
	}

	var ids []string
	for _, item := range feed.Items {
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(item.Link, "https://kb.example.com/knowledge/"), "/"))
	}
	want := []string{
		"tax-faq-subsidy-application",
		"subsidy-article-it-digital",
		"tax-article-declaration-guide",
		"visa-article-management-guide",
		"subsidy-faq-success-tips",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("items newest first (-want +got):\n%s", diff)
	}

	first := feed.Items[0]
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %v", first.PublishedParsed)
	}
	if !slices.Contains(first.Categories, "补助金") {
		t.Errorf("categories = %v, want the article tags", first.Categories)
	}
}

func TestFeedEmptyCorpus(t *testing.T) {
	cfg := testConfig()
	cfg.CorpusSource = "testdata/does-not-exist.json"
	a := newTestApp(t, cfg)

	feed, err := gofeed.NewParser().ParseString(get(t, a, "/feed.xml").Body.String())
	if err != nil {
		t.Fatalf("feed does not parse: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("items = %d, want 0", len(feed.Items))
	}
}
