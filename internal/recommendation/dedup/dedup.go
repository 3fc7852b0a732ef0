// Package dedup collapses repeated restaurant rows into one logical restaurant.
package dedup

import (
	"strings"

	"zomato-recommender/internal/models"
)

// Key is the identity of a restaurant: its case-folded, trimmed name and location.
type Key struct {
	Name     string
	Location string
}

func KeyOf(r models.Restaurant) Key {
	loc := ""
	if r.Location != nil {
		loc = *r.Location
	}
	return Key{
		Name:     strings.ToLower(strings.TrimSpace(r.Name)),
		Location: strings.ToLower(strings.TrimSpace(loc)),
	}
}

// Restaurants keeps the first row for every Key, in input order. Rows with a
// blank name are dropped.
func Restaurants(rows []models.Restaurant) []models.Restaurant {
	seen := make(map[Key]struct{}, len(rows))
	out := make([]models.Restaurant, 0, len(rows))
	for _, r := range rows {
		k := KeyOf(r)
		if k.Name == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
