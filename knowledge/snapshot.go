package knowledge

import (
	"encoding/json"
	"time"
)

// Snapshot summarizes a filter run for diagnostics.
type Snapshot struct {
	Query       Query          `json:"query"`
	Total       int            `json:"total"`
	Matched     int            `json:"matched"`
	ByCategory  map[string]int `json:"byCategory"`
	MatchedIDs  []string       `json:"matchedIds"`
	LastUpdated string         `json:"lastUpdated,omitempty"`
	TakenAt     time.Time      `json:"takenAt"`
}

// Snapshot runs q and describes the outcome.
func (c *Corpus) Snapshot(q Query) Snapshot {
	q = q.normalize()
	results := c.Filter(q)
	s := Snapshot{
		Query:       q,
		Total:       c.Len(),
		Matched:     len(results),
		ByCategory:  make(map[string]int),
		MatchedIDs:  make([]string, 0, len(results)),
		LastUpdated: c.doc.Metadata.LastUpdated,
		TakenAt:     time.Now().UTC(),
	}
	for _, a := range results {
		s.ByCategory[a.CategoryID]++
		s.MatchedIDs = append(s.MatchedIDs, a.ID)
	}
	return s
}

// export is the serialized form written by Export.
type export struct {
	Query    Query     `json:"query"`
	Count    int       `json:"count"`
	Articles []Article `json:"articles"`
}

// Export serializes the result of q as indented JSON.
func (c *Corpus) Export(q Query) ([]byte, error) {
	q = q.normalize()
	results := c.Filter(q)
	if results == nil {
		results = []Article{}
	}
	return json.MarshalIndent(export{Query: q, Count: len(results), Articles: results}, "", "  ")
}
