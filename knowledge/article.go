// Package knowledge loads the knowledge-base article corpus and answers
// filter queries over it.
package knowledge

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Article is one knowledge-base entry. Articles are never mutated after the
// corpus is loaded; filters return copies of the slice, not of the records.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Date        string   `json:"date"`
	Views       string   `json:"views"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	CategoryID  string   `json:"categoryId"`
	Difficulty  string   `json:"difficulty"`
	Featured    bool     `json:"featured"`
	ReadingTime string   `json:"readingTime,omitempty"`
	Type        string   `json:"type,omitempty"`
	URL         string   `json:"url,omitempty"`
	Content     string   `json:"content,omitempty"`
}

var reDate = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)

// ParseDate parses the "YYYY年MM月DD日" format used by the corpus.
// It returns the zero time when s does not contain such a date or names a
// day the month does not have.
func ParseDate(s string) time.Time {
	m := reDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}
	}
	return t
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format("2006年01月02日")
}

// ParseViews keeps only the digits of a localized view count ("1,234次").
func ParseViews(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Time returns the parsed publication date.
func (a Article) Time() time.Time {
	return ParseDate(a.Date)
}

// ViewCount returns the parsed view count.
func (a Article) ViewCount() int64 {
	return ParseViews(a.Views)
}

// PageURL is the site path of the article page.
func (a Article) PageURL() string {
	return "/knowledge/" + a.ID + "/"
}

// Difficulty ids accepted by queries, mapped to the labels stored on articles.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var difficultyLabels = map[string]string{
	DifficultyBeginner:     "初级",
	DifficultyIntermediate: "中级",
	DifficultyAdvanced:     "高级",
}

// DifficultyLabel maps a difficulty id to its label. ok is false for
// unknown ids.
func DifficultyLabel(id string) (label string, ok bool) {
	label, ok = difficultyLabels[strings.ToLower(strings.TrimSpace(id))]
	return label, ok
}

// DifficultyIDs lists the known difficulty ids in ascending order.
func DifficultyIDs() []string {
	return []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}
