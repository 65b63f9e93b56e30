// Package analytics records which knowledge base articles are read.
//
// Reads are recorded server-side when an article page is served. Visitors
// are identified only by a salted hash of IP address and User-Agent, bots
// are counted separately and requests carrying DNT: 1 are ignored.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Read is one human view of an article page.
type Read struct {
	ArticleID string
	VisitorID string
	Referrer  string
	Device    string
	Time      time.Time
}

// BotRead is one crawler fetch of an article page.
type BotRead struct {
	ArticleID string
	BotName   string
	Time      time.Time
}

// Stats aggregates reads between From and To.
type Stats struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	TotalReads     int             `json:"totalReads"`
	UniqueVisitors int             `json:"uniqueVisitors"`
	TopArticles    []ArticleStat   `json:"topArticles"`
	Referrers      []DimensionStat `json:"referrers"`
	Devices        []DimensionStat `json:"devices"`
	Daily          []DailyReads    `json:"daily"`
	BotReads       int             `json:"botReads"`
	TopBots        []DimensionStat `json:"topBots"`
}

// ArticleStat counts the reads of one article.
type ArticleStat struct {
	ArticleID string `json:"articleId"`
	Reads     int    `json:"reads"`
	Visitors  int    `json:"visitors"`
}

// DimensionStat is one row of a breakdown (referrer, device, bot).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyReads counts reads on one UTC day.
type DailyReads struct {
	Date  string `json:"date"`
	Reads int    `json:"reads"`
}

func visitorID(salt, ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(salt + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ParseDevice classifies a User-Agent as Desktop, Mobile or Tablet.
func ParseDevice(ua string) string {
	ua = strings.ToLower(ua)
	// iPad agents also contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

var knownBots = []struct {
	pattern string
	name    string
}{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"baiduspider", "Baidu"},
	{"yandex", "Yandex"},
	{"duckduckbot", "DuckDuckBot"},
	{"sogou", "Sogou"},
	{"bytespider", "Bytespider"},
	{"petalbot", "PetalBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"slurp", "Yahoo Slurp"},
}

var botMarkers = []string{"bot", "crawler", "spider", "crawl", "scrape", "headless", "curl/", "wget/"}

// IsBot reports whether the User-Agent is likely a crawler or script.
// An empty User-Agent counts as a bot.
func IsBot(ua string) bool {
	ua = strings.ToLower(strings.TrimSpace(ua))
	if ua == "" {
		return true
	}
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return true
		}
	}
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// BotName names the crawler behind ua.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	switch {
	case strings.TrimSpace(ua) == "":
		return "Empty User-Agent"
	case strings.Contains(ua, "spider"), strings.Contains(ua, "crawl"):
		return "Generic Crawler"
	case strings.Contains(ua, "bot"):
		return "Other Bot"
	}
	return "Script"
}

var searchEngines = []struct {
	host string
	name string
}{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"baidu.", "Baidu"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"yandex.", "Yandex"},
}

// CleanReferrer reduces a Referer header to a source name. Links from
// siteHost itself are reported as "Internal".
func CleanReferrer(ref, siteHost string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if siteHost != "" && host == strings.TrimPrefix(strings.ToLower(siteHost), "www.") {
		return "Internal"
	}
	for _, se := range searchEngines {
		if strings.Contains(host, se.host) {
			return se.name
		}
	}
	return host
}
