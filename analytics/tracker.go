package analytics

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/labstack/gommon/log"
)

// Input limits for recorded values.
const (
	maxArticleIDLen = 256
	maxReferrerLen  = 2048
	maxUserAgentLen = 512
)

// Request describes one article page view.
type Request struct {
	ArticleID  string
	IP         string
	UserAgent  string
	Referrer   string
	DoNotTrack bool
}

// Tracker turns page views into stored reads.
type Tracker struct {
	store    *Store
	salt     string
	siteHost string
	logger   *log.Logger
	now      func() time.Time
}

// NewTracker loads the visitor hash salt from store. siteURL is used to
// recognise internal referrers.
func NewTracker(ctx context.Context, store *Store, siteURL string, logger *log.Logger) (*Tracker, error) {
	salt, err := store.Salt(ctx)
	if err != nil {
		return nil, err
	}
	host := ""
	if u, err := url.Parse(siteURL); err == nil {
		host = u.Hostname()
	}
	return &Tracker{store: store, salt: salt, siteHost: host, logger: logger, now: time.Now}, nil
}

// Track records req. Requests with DNT set are dropped.
func (t *Tracker) Track(ctx context.Context, req Request) error {
	if req.DoNotTrack {
		return nil
	}
	if req.ArticleID == "" || len(req.ArticleID) > maxArticleIDLen {
		return fmt.Errorf("analytics: invalid article id")
	}
	ua := truncate(req.UserAgent, maxUserAgentLen)
	now := t.now().UTC()
	if IsBot(ua) {
		return t.store.SaveBotRead(ctx, BotRead{ArticleID: req.ArticleID, BotName: BotName(ua), Time: now})
	}
	return t.store.SaveRead(ctx, Read{
		ArticleID: req.ArticleID,
		VisitorID: visitorID(t.salt, req.IP, ua),
		Referrer:  CleanReferrer(truncate(req.Referrer, maxReferrerLen), t.siteHost),
		Device:    ParseDevice(ua),
		Time:      now,
	})
}

// Stats returns the statistics of the last days days, today included.
func (t *Tracker) Stats(ctx context.Context, days, limit int) (*Stats, error) {
	if days < 1 {
		days = 1
	}
	now := t.now().UTC()
	to := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)
	return t.store.Stats(ctx, from, to, limit)
}

// RunCleanup deletes reads older than retentionDays every interval until
// ctx is canceled. A retention of zero keeps everything.
func (t *Tracker) RunCleanup(ctx context.Context, retentionDays int, interval time.Duration) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		t.cleanup(ctx, retentionDays)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Tracker) cleanup(ctx context.Context, retentionDays int) {
	cutoff := t.now().UTC().AddDate(0, 0, -retentionDays)
	n, err := t.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		t.logger.Errorf("analytics cleanup: %v", err)
		return
	}
	if n > 0 {
		t.logger.Infof("analytics cleanup: removed %d reads older than %d days", n, retentionDays)
	}
}

// ParsePeriod maps a period name to a number of days. Unknown names mean
// "week".
func ParsePeriod(period string) (string, int) {
	switch period {
	case "today":
		return period, 1
	case "month":
		return period, 30
	case "year":
		return period, 365
	default:
		return "week", 7
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
