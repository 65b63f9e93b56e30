package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the corpus file as published: articles grouped by category
// id, the navigation tree and display metadata.
type Document struct {
	Categories Buckets    `json:"categories"`
	Navigation Navigation `json:"navigation"`
	Metadata   Metadata   `json:"metadata"`
}

// Bucket holds the articles stored under one category id.
type Bucket struct {
	ID       string
	Articles []Article
}

// Buckets keeps the categories object in file order, which decides the
// order of the flattened corpus and therefore of sort ties.
type Buckets []Bucket

// UnmarshalJSON decodes the categories object key by key.
func (b *Buckets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}
	var out Buckets
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key, got %v", keyTok)
		}
		var arts []Article
		if err := dec.Decode(&arts); err != nil {
			return fmt.Errorf("categories.%s: %w", key, err)
		}
		out = append(out, Bucket{ID: key, Articles: arts})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = out
	return nil
}

// MarshalJSON writes the buckets back as an object in the same order.
func (b Buckets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bucket := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bucket.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		arts := bucket.Articles
		if arts == nil {
			arts = []Article{}
		}
		val, err := json.Marshal(arts)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Navigation is the site navigation tree; subcategory filtering reads the
// tag lists of its children.
type Navigation struct {
	Structure []NavCategory `json:"structure"`
}

// NavCategory is a top-level navigation node.
type NavCategory struct {
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Children []Subcategory `json:"children,omitempty"`
}

// Subcategory is a navigation child with the tags that select its articles.
type Subcategory struct {
	ID   string   `json:"id"`
	Name string   `json:"name,omitempty"`
	Tags []string `json:"tags"`
}

// Metadata carries display information; the filter never reads it.
type Metadata struct {
	Categories  map[string]CategoryMeta `json:"categories"`
	HotContent  []HotItem               `json:"hotContent,omitempty"`
	LastUpdated string                  `json:"lastUpdated,omitempty"`
}

// CategoryMeta is the display record of a category id.
type CategoryMeta struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// HotItem references an article promoted on the landing page.
type HotItem struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// ParseDocument decodes a corpus file.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Subcategory returns the navigation child sub of category cat.
func (n Navigation) Subcategory(cat, sub string) (Subcategory, bool) {
	for _, c := range n.Structure {
		if c.ID != cat {
			continue
		}
		for _, child := range c.Children {
			if child.ID == sub {
				return child, true
			}
		}
	}
	return Subcategory{}, false
}
