// internal/workers/recommendation/filter-restaurants/models.go
package filterrestaurants

import (
	"encoding/json"

	"zomato-recommender/internal/models"
)

type Input struct {
	Preferences json.RawMessage `json:"preferences"`
}

type Output struct {
	Filtered *models.FilterResponse `json:"filtered"`
}
