package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuisineTags(t *testing.T) {
	tests := []struct {
		name     string
		cuisines *string
		want     []string
	}{
		{"nil", nil, nil},
		{"blank", StringPtr("  "), nil},
		{"trims and folds", StringPtr(" Italian, PIZZA ,,continental "), []string{"italian", "pizza", "continental"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Restaurant{Cuisines: tt.cuisines}.CuisineTags())
		})
	}
}

func TestUserPreference_JSONKeepsNulls(t *testing.T) {
	raw, err := json.Marshal(NewUserPreference())
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":null,"min_rating":null,"min_price":null,"max_price":null,"preferred_cuisines":null,"limit":10}`, string(raw))
}

func TestRecommendation_FlattensCandidateFields(t *testing.T) {
	rec := Recommendation{
		ScoredCandidate: ScoredCandidate{
			Restaurant: Restaurant{ID: 1, Name: "Fine Dine", Location: StringPtr("City Center"), PriceRange: IntPtr(2000), Rating: Float64Ptr(4.6)},
			Score:      9.2,
		},
		Reason: "Top rated",
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Fine Dine","location":"City Center","cuisines":null,"price_range":2000,"rating":4.6,"score":9.2,"reason":"Top rated"}`, string(raw))
}
