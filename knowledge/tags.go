package knowledge

import (
	"sort"
	"strings"
)

// TagCount is a tag with the number of articles carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// PopularTags counts tag occurrences over the whole corpus and returns the
// n most frequent, highest first. Ties are ordered by tag. n <= 0 returns
// every tag.
func (c *Corpus) PopularTags(n int) []TagCount {
	return CountTags(c.articles, n)
}

// CountTags is PopularTags over an arbitrary article slice.
func CountTags(arts []Article, n int) []TagCount {
	counts := make(map[string]int)
	for _, a := range arts {
		for _, t := range a.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Recommended returns the first n featured articles of a filtered result.
// n <= 0 returns none.
func Recommended(results []Article, n int) []Article {
	n = max(n, 0)
	out := make([]Article, 0, n)
	for _, a := range results {
		if len(out) >= n {
			break
		}
		if a.Featured {
			out = append(out, a)
		}
	}
	return out
}

// Related returns up to n articles sharing at least one tag with current,
// in corpus order.
func (c *Corpus) Related(current Article, n int) []Article {
	tagSet := make(map[string]struct{}, len(current.Tags))
	for _, t := range current.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tagSet[t] = struct{}{}
		}
	}
	var related []Article
	for _, a := range c.articles {
		if a.ID == current.ID {
			continue
		}
		for _, t := range a.Tags {
			if _, ok := tagSet[strings.ToLower(strings.TrimSpace(t))]; ok {
				related = append(related, a)
				break
			}
		}
		if n > 0 && len(related) >= n {
			break
		}
	}
	return related
}
