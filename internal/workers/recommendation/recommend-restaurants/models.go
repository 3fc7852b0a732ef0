// internal/workers/recommendation/recommend-restaurants/models.go
package recommendrestaurants

import (
	"encoding/json"

	"zomato-recommender/internal/models"
)

type Input struct {
	Preferences json.RawMessage `json:"preferences"`
}

type Output struct {
	Recommendation *models.RecommendationResult `json:"recommendation"`
}
