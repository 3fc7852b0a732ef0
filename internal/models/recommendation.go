// internal/models/recommendation.go
package models

// ModelPick is one untrusted selection declared by the model.
type ModelPick struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// ModelOutput is the schema-valid model response before it is joined back
// to the candidate pool.
type ModelOutput struct {
	Summary         string      `json:"summary"`
	Recommendations []ModelPick `json:"recommendations"`
}

type Recommendation struct {
	ScoredCandidate
	Reason string `json:"reason"`
}

type RecommendationResult struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

type FilterResponse struct {
	Recommendations []ScoredCandidate `json:"recommendations"`
}
