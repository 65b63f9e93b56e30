package kbengine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/gommon/log"

	"github.com/mobiuskb/kbengine/knowledge"
)

const fixturePath = "knowledge/testdata/articles.json"

func readFixture(t *testing.T) *knowledge.Document {
	t.Helper()
	doc, err := knowledge.FileSource{Path: fixturePath}.Open(context.Background())
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	return doc
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "kb.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := NewStore(filepath.Join(dir, "kb.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestStoreEmptyOpen(t *testing.T) {
	s := setupTestStore(t)
	doc, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(doc.Categories) != 0 {
		t.Errorf("empty store returned %d categories", len(doc.Categories))
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	want := readFixture(t)

	n, err := s.SaveDocument(ctx, want)
	if err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if n != 5 {
		t.Errorf("saved %d articles, want 5", n)
	}
	if count, err := s.ArticleCount(ctx); err != nil || count != 5 {
		t.Errorf("ArticleCount = %d, %v; want 5", count, err)
	}

	got, err := s.Open(ctx)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Open stamps the bucket id on every article; the file does not.
	for i := range want.Categories {
		for j := range want.Categories[i].Articles {
			want.Categories[i].Articles[j].CategoryID = want.Categories[i].ID
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.SaveDocument(ctx, readFixture(t)); err != nil {
		t.Fatal(err)
	}
	small := &knowledge.Document{Categories: knowledge.Buckets{{
		ID:       "visa",
		Articles: []knowledge.Article{{ID: "only", Title: "唯一", Category: "签证"}},
	}}}
	if _, err := s.SaveDocument(ctx, small); err != nil {
		t.Fatal(err)
	}
	c, err := knowledge.Load(ctx, s)
	if err != nil {
		t.Fatalf("Load from store: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("corpus has %d articles, want 1", c.Len())
	}
	a, ok := c.Article("only")
	if !ok || a.CategoryID != "visa" || a.Tags == nil {
		t.Errorf("article = %+v, %v", a, ok)
	}
}

func TestStoreDuplicateIDKeepsFirst(t *testing.T) {
	s := setupTestStore(t)
	doc := &knowledge.Document{Categories: knowledge.Buckets{
		{ID: "tax", Articles: []knowledge.Article{{ID: "dup", Title: "first"}}},
		{ID: "visa", Articles: []knowledge.Article{{ID: "dup", Title: "second"}}},
	}}
	n, err := s.SaveDocument(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("saved %d, want 1", n)
	}
	got, err := s.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Categories) != 2 || len(got.Categories[0].Articles) != 1 || got.Categories[0].Articles[0].Title != "first" {
		t.Errorf("categories = %+v", got.Categories)
	}
}
