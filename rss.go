package kbengine

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mobiuskb/kbengine/knowledge"
)

// feedLimit is the number of newest articles in the feed.
const feedLimit = 50

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        string   `xml:"guid"`
}

// feed builds the RSS document for the newest articles of corpus.
func (a *App) feed(corpus *knowledge.Corpus) rssXML {
	base := a.Config.URL
	arts := corpus.Filter(knowledge.Query{Quick: knowledge.QuickRecent})
	if len(arts) > feedLimit {
		arts = arts[:feedLimit]
	}
	items := make([]rssItem, 0, len(arts))
	var newest time.Time
	for _, art := range arts {
		pubDate := ""
		if t := art.Time(); !t.IsZero() {
			pubDate = t.Format(time.RFC1123Z)
			if t.After(newest) {
				newest = t
			}
		}
		var cats []string
		if art.Category != "" {
			cats = append(cats, art.Category)
		}
		pageURL := ArticleURL(base, art)
		items = append(items, rssItem{
			Title:       art.Title,
			Link:        pageURL,
			Description: art.Excerpt,
			Categories:  append(cats, art.Tags...),
			PubDate:     pubDate,
			GUID:        pageURL,
		})
	}
	ch := rssChannel{
		Title:       a.Config.Name,
		Link:        BuildURL(base, "knowledge"),
		Description: a.Config.Description,
		Language:    "zh-CN",
		Items:       items,
	}
	if !newest.IsZero() {
		ch.LastBuildDate = newest.Format(time.RFC1123Z)
	}
	return rssXML{Version: "2.0", Channel: ch}
}

func (a *App) renderRSS(c echo.Context, corpus *knowledge.Corpus) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(a.feed(corpus))
}
