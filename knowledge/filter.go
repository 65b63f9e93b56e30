package knowledge

import (
	"sort"
	"strings"
)

// Filter applies q to the corpus: quick filter, category, difficulty and
// search, in that order. The corpus is not modified.
func (c *Corpus) Filter(q Query) []Article {
	q = q.normalize()
	out := applyQuick(c.Articles(), q.Quick)
	out = c.applyCategory(out, q.Category, q.Subcategory)
	out = applyDifficulty(out, q.Difficulty)
	out = applySearch(out, q.Search)
	return out
}

func applyQuick(arts []Article, f QuickFilter) []Article {
	switch f {
	case QuickFeatured:
		return keep(arts, func(a Article) bool { return a.Featured })
	case QuickRecent:
		sort.SliceStable(arts, func(i, j int) bool {
			return arts[i].Time().After(arts[j].Time())
		})
	case QuickPopular:
		sort.SliceStable(arts, func(i, j int) bool {
			return arts[i].ViewCount() > arts[j].ViewCount()
		})
	}
	return arts
}

func (c *Corpus) applyCategory(arts []Article, cat, sub string) []Article {
	if cat == "" {
		return arts
	}
	if sub != "" {
		if node, ok := c.doc.Navigation.Subcategory(cat, sub); ok && len(node.Tags) > 0 {
			return matchSubcategoryTags(arts, node.Tags)
		}
	}
	return keep(arts, func(a Article) bool { return a.CategoryID == cat })
}

// matchSubcategoryTags keeps articles where some article tag and some
// subcategory tag contain one another, ignoring case.
func matchSubcategoryTags(arts []Article, subTags []string) []Article {
	wanted := make([]string, 0, len(subTags))
	for _, t := range subTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			wanted = append(wanted, t)
		}
	}
	return keep(arts, func(a Article) bool {
		for _, at := range a.Tags {
			at = strings.ToLower(strings.TrimSpace(at))
			if at == "" {
				continue
			}
			for _, st := range wanted {
				if strings.Contains(at, st) || strings.Contains(st, at) {
					return true
				}
			}
		}
		return false
	})
}

func applyDifficulty(arts []Article, id string) []Article {
	label, ok := DifficultyLabel(id)
	if !ok {
		return arts
	}
	return keep(arts, func(a Article) bool { return a.Difficulty == label })
}

func applySearch(arts []Article, query string) []Article {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return arts
	}
	return keep(arts, func(a Article) bool {
		hay := searchText(a)
		for _, tok := range tokens {
			if !strings.Contains(hay, tok) {
				return false
			}
		}
		return true
	})
}

func searchText(a Article) string {
	parts := make([]string, 0, 4+len(a.Tags))
	parts = append(parts, a.Title, a.Excerpt, a.Category)
	parts = append(parts, a.Tags...)
	parts = append(parts, a.Difficulty)
	return strings.ToLower(strings.Join(parts, " "))
}

func keep(arts []Article, pred func(Article) bool) []Article {
	out := arts[:0:0]
	for _, a := range arts {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}
