package knowledge

// Corpus is the in-memory article set of one loaded document.
type Corpus struct {
	articles []Article
	byID     map[string]int
	doc      Document
}

// NewCorpus flattens doc's category buckets into one sequence, stamping
// each article with the id of the bucket it came from. doc is retained and
// must not be modified afterwards.
func NewCorpus(doc *Document) *Corpus {
	c := &Corpus{byID: make(map[string]int)}
	if doc == nil {
		return c
	}
	c.doc = *doc
	for _, bucket := range doc.Categories {
		for _, a := range bucket.Articles {
			a.CategoryID = bucket.ID
			if _, dup := c.byID[a.ID]; !dup {
				c.byID[a.ID] = len(c.articles)
			}
			c.articles = append(c.articles, a)
		}
	}
	return c
}

// Empty returns a corpus with no articles.
func Empty() *Corpus {
	return NewCorpus(nil)
}

// Len is the number of articles.
func (c *Corpus) Len() int {
	return len(c.articles)
}

// Articles returns a copy of the article sequence in load order.
func (c *Corpus) Articles() []Article {
	out := make([]Article, len(c.articles))
	copy(out, c.articles)
	return out
}

// Article looks up an article by id.
func (c *Corpus) Article(id string) (Article, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Article{}, false
	}
	return c.articles[i], true
}

// Document returns the document the corpus was built from.
func (c *Corpus) Document() Document {
	return c.doc
}

// Navigation returns the navigation tree.
func (c *Corpus) Navigation() Navigation {
	return c.doc.Navigation
}

// Metadata returns the display metadata.
func (c *Corpus) Metadata() Metadata {
	return c.doc.Metadata
}

// CategoryCount is the number of articles stored under a category id.
type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories lists the category buckets in document order with their
// display names and article counts.
func (c *Corpus) Categories() []CategoryCount {
	out := make([]CategoryCount, 0, len(c.doc.Categories))
	for _, b := range c.doc.Categories {
		name := c.doc.Metadata.Categories[b.ID].Name
		if name == "" {
			name = b.ID
		}
		out = append(out, CategoryCount{ID: b.ID, Name: name, Count: len(b.Articles)})
	}
	return out
}

// HotArticles resolves metadata.hotContent to articles, skipping ids that
// are not in the corpus.
func (c *Corpus) HotArticles() []Article {
	var out []Article
	for _, h := range c.doc.Metadata.HotContent {
		if a, ok := c.Article(h.ID); ok {
			out = append(out, a)
		}
	}
	return out
}
