// Package store reads restaurant candidates from Postgres or Elasticsearch,
// optionally behind a Redis cache for the listing endpoints.
package store

import (
	"context"
	"sort"
	"strings"

	"zomato-recommender/internal/models"
)

// CandidateStore is the read side used by the pipeline and the API.
type CandidateStore interface {
	// FetchAll returns every restaurant row ordered by id, duplicates included.
	FetchAll(ctx context.Context) ([]models.Restaurant, error)
	// FetchLocations returns distinct non-blank trimmed locations.
	FetchLocations(ctx context.Context) ([]string, error)
	// FetchCuisines returns distinct cuisine tags.
	FetchCuisines(ctx context.Context) ([]string, error)
}

// DistinctLocations trims values, drops blanks and duplicates, and sorts
// case-insensitively with byte order breaking ties.
func DistinctLocations(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sortFold(out)
	return out
}

// DistinctCuisines splits comma-separated cuisine fields into tags. Tags are
// compared case-insensitively; the first spelling seen wins.
func DistinctCuisines(fields []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, field := range fields {
		for _, tag := range strings.Split(field, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	sortFold(out)
	return out
}

func sortFold(values []string) {
	sort.Slice(values, func(i, j int) bool {
		li, lj := strings.ToLower(values[i]), strings.ToLower(values[j])
		if li != lj {
			return li < lj
		}
		return values[i] < values[j]
	})
}

func locationsOf(rows []models.Restaurant) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Location != nil {
			out = append(out, *r.Location)
		}
	}
	return out
}

func cuisinesOf(rows []models.Restaurant) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Cuisines != nil {
			out = append(out, *r.Cuisines)
		}
	}
	return out
}
