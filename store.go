package kbengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mobiuskb/kbengine/knowledge"
)

// Settings keys holding the non-article parts of the corpus document.
const (
	settingCategoryOrder = "category_order"
	settingNavigation    = "navigation"
	settingMetadata      = "metadata"
)

// Store keeps an imported corpus in SQLite and serves it back as a
// knowledge.Source.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    category_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    date TEXT NOT NULL,
    views TEXT NOT NULL,
    tags TEXT NOT NULL,
    category TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    featured INTEGER NOT NULL DEFAULT 0,
    reading_time TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_articles_position ON articles(position);
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

// String names the store as a corpus source.
func (s *Store) String() string {
	return "sqlite:" + s.path
}

// SaveDocument replaces the stored corpus with doc. Articles repeated across
// buckets keep their first occurrence.
func (s *Store) SaveDocument(ctx context.Context, doc *knowledge.Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO articles
		(id, category_id, position, title, excerpt, date, views, tags, category, difficulty, featured, reading_time, type, url, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	order := make([]string, 0, len(doc.Categories))
	n := 0
	for _, b := range doc.Categories {
		order = append(order, b.ID)
		for _, a := range b.Articles {
			tags, err := json.Marshal(nonNil(a.Tags))
			if err != nil {
				return 0, err
			}
			featured := 0
			if a.Featured {
				featured = 1
			}
			res, err := stmt.ExecContext(ctx, a.ID, b.ID, n, a.Title, a.Excerpt, a.Date, a.Views, string(tags),
				a.Category, a.Difficulty, featured, a.ReadingTime, a.Type, a.URL, a.Content)
			if err != nil {
				return 0, fmt.Errorf("insert %s: %w", a.ID, err)
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				n++
			}
		}
	}

	settings := map[string]any{
		settingCategoryOrder: order,
		settingNavigation:    doc.Navigation,
		settingMetadata:      doc.Metadata,
	}
	for key, v := range settings {
		data, err := json.Marshal(v)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, string(data)); err != nil {
			return 0, err
		}
	}
	return n, tx.Commit()
}

// Open rebuilds the corpus document from the database.
func (s *Store) Open(ctx context.Context) (*knowledge.Document, error) {
	var doc knowledge.Document
	var order []string
	if err := s.setting(ctx, settingCategoryOrder, &order); err != nil {
		return nil, err
	}
	if err := s.setting(ctx, settingNavigation, &doc.Navigation); err != nil {
		return nil, err
	}
	if err := s.setting(ctx, settingMetadata, &doc.Metadata); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, category_id, title, excerpt, date, views, tags, category,
		difficulty, featured, reading_time, type, url, content FROM articles ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make(map[string][]knowledge.Article)
	for rows.Next() {
		var a knowledge.Article
		var tags string
		var featured int
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Title, &a.Excerpt, &a.Date, &a.Views, &tags, &a.Category,
			&a.Difficulty, &featured, &a.ReadingTime, &a.Type, &a.URL, &a.Content); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return nil, fmt.Errorf("tags of %s: %w", a.ID, err)
		}
		a.Featured = featured == 1
		if _, ok := buckets[a.CategoryID]; !ok && !contains(order, a.CategoryID) {
			order = append(order, a.CategoryID)
		}
		buckets[a.CategoryID] = append(buckets[a.CategoryID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range order {
		doc.Categories = append(doc.Categories, knowledge.Bucket{ID: id, Articles: buckets[id]})
	}
	return &doc, nil
}

// ArticleCount returns the number of stored articles.
func (s *Store) ArticleCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}

func (s *Store) setting(ctx context.Context, key string, v any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func contains(vals []string, v string) bool {
	for _, s := range vals {
		if s == v {
			return true
		}
	}
	return false
}
