package analytics

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// Store keeps reads in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS reads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL,
			visitor_id TEXT NOT NULL,
			referrer TEXT NOT NULL,
			device TEXT NOT NULL,
			ts INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bot_reads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL,
			bot_name TEXT NOT NULL,
			ts INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reads_ts ON reads(ts);
		CREATE INDEX IF NOT EXISTS idx_reads_article ON reads(article_id);
		CREATE INDEX IF NOT EXISTS idx_bot_reads_ts ON bot_reads(ts);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Salt returns the per-installation salt for visitor hashes, creating it
// on first use.
func (s *Store) Salt(ctx context.Context) (string, error) {
	var salt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'hash_salt'`).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("read hash salt: %w", err)
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(b)
	// Another process may have stored a salt first; keep theirs.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('hash_salt', ?) ON CONFLICT(key) DO NOTHING`, salt); err != nil {
		return "", fmt.Errorf("store hash salt: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'hash_salt'`).Scan(&salt); err != nil {
		return "", fmt.Errorf("read hash salt: %w", err)
	}
	return salt, nil
}

// SaveRead stores a human read.
func (s *Store) SaveRead(ctx context.Context, r Read) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reads (article_id, visitor_id, referrer, device, ts) VALUES (?, ?, ?, ?, ?)`,
		r.ArticleID, r.VisitorID, r.Referrer, r.Device, r.Time.UTC().Unix())
	return err
}

// SaveBotRead stores a crawler read.
func (s *Store) SaveBotRead(ctx context.Context, r BotRead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_reads (article_id, bot_name, ts) VALUES (?, ?, ?)`,
		r.ArticleID, r.BotName, r.Time.UTC().Unix())
	return err
}

// Stats aggregates reads in [from, to). Breakdown lists hold at most limit
// rows.
func (s *Store) Stats(ctx context.Context, from, to time.Time, limit int) (*Stats, error) {
	stats := &Stats{
		From:        from.UTC(),
		To:          to.UTC(),
		TopArticles: []ArticleStat{},
		Referrers:   []DimensionStat{},
		Devices:     []DimensionStat{},
		Daily:       []DailyReads{},
		TopBots:     []DimensionStat{},
	}
	lo, hi := from.UTC().Unix(), to.UTC().Unix()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var total, unique int
		err := s.db.QueryRowContext(gctx,
			`SELECT COUNT(*), COUNT(DISTINCT visitor_id) FROM reads WHERE ts >= ? AND ts < ?`, lo, hi).
			Scan(&total, &unique)
		if err != nil {
			return fmt.Errorf("count reads: %w", err)
		}
		mu.Lock()
		stats.TotalReads, stats.UniqueVisitors = total, unique
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, `
			SELECT article_id, COUNT(*) AS n, COUNT(DISTINCT visitor_id)
			FROM reads WHERE ts >= ? AND ts < ?
			GROUP BY article_id ORDER BY n DESC, article_id LIMIT ?`, lo, hi, limit)
		if err != nil {
			return fmt.Errorf("top articles: %w", err)
		}
		defer rows.Close()
		var out []ArticleStat
		for rows.Next() {
			var a ArticleStat
			if err := rows.Scan(&a.ArticleID, &a.Reads, &a.Visitors); err != nil {
				return err
			}
			out = append(out, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		mu.Lock()
		if out != nil {
			stats.TopArticles = out
		}
		mu.Unlock()
		return nil
	})

	dimension := func(name, query string, dst *[]DimensionStat) {
		g.Go(func() error {
			out, err := s.dimension(gctx, query, lo, hi, limit)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			if out != nil {
				*dst = out
			}
			mu.Unlock()
			return nil
		})
	}
	dimension("referrers", `SELECT referrer, COUNT(*) AS n FROM reads WHERE ts >= ? AND ts < ? GROUP BY referrer ORDER BY n DESC, referrer LIMIT ?`, &stats.Referrers)
	dimension("devices", `SELECT device, COUNT(*) AS n FROM reads WHERE ts >= ? AND ts < ? GROUP BY device ORDER BY n DESC, device LIMIT ?`, &stats.Devices)
	dimension("bots", `SELECT bot_name, COUNT(*) AS n FROM bot_reads WHERE ts >= ? AND ts < ? GROUP BY bot_name ORDER BY n DESC, bot_name LIMIT ?`, &stats.TopBots)

	g.Go(func() error {
		var n int
		err := s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM bot_reads WHERE ts >= ? AND ts < ?`, lo, hi).Scan(&n)
		if err != nil {
			return fmt.Errorf("count bot reads: %w", err)
		}
		mu.Lock()
		stats.BotReads = n
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, `
			SELECT date(ts, 'unixepoch') AS day, COUNT(*)
			FROM reads WHERE ts >= ? AND ts < ?
			GROUP BY day ORDER BY day`, lo, hi)
		if err != nil {
			return fmt.Errorf("daily reads: %w", err)
		}
		defer rows.Close()
		var out []DailyReads
		for rows.Next() {
			var d DailyReads
			if err := rows.Scan(&d.Date, &d.Reads); err != nil {
				return err
			}
			out = append(out, d)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		mu.Lock()
		stats.Daily = fillDays(out, from, to)
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) dimension(ctx context.Context, query string, lo, hi int64, limit int) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, query, lo, hi, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DimensionStat
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// fillDays returns one entry per UTC day in [from, to), zero where sparse
// has no row.
func fillDays(sparse []DailyReads, from, to time.Time) []DailyReads {
	counts := make(map[string]int, len(sparse))
	for _, d := range sparse {
		counts[d.Date] = d.Reads
	}
	start := from.UTC().Truncate(24 * time.Hour)
	out := []DailyReads{}
	for day := start; day.Before(to.UTC()); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		out = append(out, DailyReads{Date: key, Reads: counts[key]})
	}
	return out
}

// DeleteBefore removes reads older than cutoff and returns how many rows
// went.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM reads WHERE ts < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("cleanup reads: %w", err)
	}
	n, _ := res.RowsAffected()
	res, err = s.db.ExecContext(ctx, `DELETE FROM bot_reads WHERE ts < ?`, ts)
	if err != nil {
		return n, fmt.Errorf("cleanup bot_reads: %w", err)
	}
	m, _ := res.RowsAffected()
	return n + m, nil
}
