package knowledge

import (
	"net/url"
	"strings"
)

// QuickFilter selects or reorders articles before the other stages run.
type QuickFilter string

const (
	QuickAll      QuickFilter = "all"
	QuickFeatured QuickFilter = "featured"
	QuickRecent   QuickFilter = "recent"
	QuickPopular  QuickFilter = "popular"
)

// Query is an immutable filter request. The zero value matches every
// article in load order.
type Query struct {
	Category    string      `json:"category,omitempty"`
	Subcategory string      `json:"subcategory,omitempty"`
	Quick       QuickFilter `json:"quickFilter"`
	Difficulty  string      `json:"difficulty,omitempty"`
	Search      string      `json:"search,omitempty"`
}

// Patch is a partial query. Nil fields keep the previous value; a pointer
// to "" clears it.
type Patch struct {
	Category    *string
	Subcategory *string
	Quick       *QuickFilter
	Difficulty  *string
	Search      *string
}

// With returns q with p's fields applied.
func (q Query) With(p Patch) Query {
	if p.Category != nil {
		q.Category = *p.Category
	}
	if p.Subcategory != nil {
		q.Subcategory = *p.Subcategory
	}
	if p.Quick != nil {
		q.Quick = *p.Quick
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.Search != nil {
		q.Search = *p.Search
	}
	return q.normalize()
}

func (q Query) normalize() Query {
	if q.Quick == "" {
		q.Quick = QuickAll
	}
	return q
}

// QueryFromValues reads a query from URL parameters: category,
// subcategory, quick, difficulty and q.
func QueryFromValues(v url.Values) Query {
	q := Query{
		Category:    strings.TrimSpace(v.Get("category")),
		Subcategory: strings.TrimSpace(v.Get("subcategory")),
		Quick:       QuickFilter(strings.TrimSpace(v.Get("quick"))),
		Difficulty:  strings.TrimSpace(v.Get("difficulty")),
		Search:      v.Get("q"),
	}
	return q.normalize()
}

// Values is the inverse of QueryFromValues; defaults are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("category", q.Category)
	set("subcategory", q.Subcategory)
	if q.Quick != QuickAll {
		set("quick", string(q.Quick))
	}
	set("difficulty", q.Difficulty)
	set("q", strings.TrimSpace(q.Search))
	return v
}
