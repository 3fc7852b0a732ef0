// internal/models/restaurant.go
package models

import "strings"

// Restaurant is a verified row from the candidate store.
type Restaurant struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Location   *string  `json:"location"`
	Cuisines   *string  `json:"cuisines"`
	PriceRange *int     `json:"price_range"`
	Rating     *float64 `json:"rating"`
}

// CuisineTags returns the lower-cased, trimmed, non-empty tags of the
// comma-separated cuisines field.
func (r Restaurant) CuisineTags() []string {
	if r.Cuisines == nil {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(*r.Cuisines, ",") {
		if tag := strings.ToLower(strings.TrimSpace(part)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ScoredCandidate is a Restaurant that passed filtering, with its heuristic score.
type ScoredCandidate struct {
	Restaurant
	Score float64 `json:"score"`
}

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func Float64Ptr(f float64) *float64 { return &f }
