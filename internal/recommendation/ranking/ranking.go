// Package ranking filters restaurants against a UserPreference and orders the
// survivors by a linear heuristic score.
package ranking

import (
	"context"
	"sort"
	"strings"

	"zomato-recommender/internal/models"
	"zomato-recommender/internal/recommendation/dedup"
)

const (
	ratingWeight = 2.0
	pricePenalty = 0.01
)

// Source supplies the unfiltered restaurant rows.
type Source interface {
	FetchAll(ctx context.Context) ([]models.Restaurant, error)
}

// Filter reads every row from src, removes duplicates and ranks the rest.
func Filter(ctx context.Context, src Source, pref models.UserPreference) ([]models.ScoredCandidate, error) {
	rows, err := src.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(dedup.Restaurants(rows), pref), nil
}

// Rank keeps the rows matching every predicate, scores them, sorts by score
// descending (stable) and truncates to pref.Limit.
func Rank(rows []models.Restaurant, pref models.UserPreference) []models.ScoredCandidate {
	wanted := preferredCuisines(pref.PreferredCuisines)

	out := make([]models.ScoredCandidate, 0)
	for _, r := range rows {
		if !MatchesLocation(r, pref.Location) ||
			!MatchesPrice(r, pref.MinPrice, pref.MaxPrice) ||
			!MatchesRating(r, pref.MinRating) ||
			!matchesCuisineSet(r, wanted) {
			continue
		}
		out = append(out, models.ScoredCandidate{Restaurant: r, Score: Score(r, pref)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if pref.Limit >= 0 && len(out) > pref.Limit {
		out = out[:pref.Limit]
	}
	return out
}

// Score is 2*rating minus 0.01 per unit of price above the preferred maximum.
// A missing rating counts as zero.
func Score(r models.Restaurant, pref models.UserPreference) float64 {
	base := 0.0
	if r.Rating != nil {
		base = *r.Rating * ratingWeight
	}

	penalty := 0.0
	if pref.MaxPrice != nil && r.PriceRange != nil && *r.PriceRange > *pref.MaxPrice {
		penalty = float64(*r.PriceRange-*pref.MaxPrice) * pricePenalty
	}
	return base - penalty
}

func MatchesLocation(r models.Restaurant, location *string) bool {
	if location == nil || strings.TrimSpace(*location) == "" {
		return true
	}
	if r.Location == nil || strings.TrimSpace(*r.Location) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(*r.Location), strings.ToLower(*location))
}

// MatchesPrice passes rows with an unknown price.
func MatchesPrice(r models.Restaurant, minPrice, maxPrice *int) bool {
	if r.PriceRange == nil {
		return true
	}
	if minPrice != nil && *r.PriceRange < *minPrice {
		return false
	}
	if maxPrice != nil && *r.PriceRange > *maxPrice {
		return false
	}
	return true
}

// MatchesRating passes rows with an unknown rating.
func MatchesRating(r models.Restaurant, minRating *float64) bool {
	if minRating == nil || r.Rating == nil {
		return true
	}
	return *r.Rating >= *minRating
}

func MatchesCuisines(r models.Restaurant, preferred []string) bool {
	return matchesCuisineSet(r, preferredCuisines(preferred))
}

func preferredCuisines(preferred []string) []string {
	out := make([]string, 0, len(preferred))
	for _, c := range preferred {
		out = append(out, strings.ToLower(strings.TrimSpace(c)))
	}
	return out
}

func matchesCuisineSet(r models.Restaurant, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	tags := r.CuisineTags()
	if len(tags) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[w]; ok {
			return true
		}
	}
	return false
}
