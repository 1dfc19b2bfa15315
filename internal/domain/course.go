package domain

import "strings"

// Course is the canonical catalog entry. Both upstream feeds map into this
// model. Ids are synthesized per load batch and are not stable across loads;
// bookmark snapshots therefore carry the whole record, not just the id.
type Course struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Instructor  string  `json:"instructor"`
	Price       float64 `json:"price"`
}

// MatchesQuery reports whether the course matches a free-text query on
// title or description, case-insensitively. An empty query matches.
func (c Course) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Description), q)
}
