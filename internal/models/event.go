// internal/models/event.go
package models

import "time"

type RecommendationEvent struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Endpoint        string    `json:"endpoint"`
	PreferencesJSON string    `json:"preferences_json"`
	CandidateCount  int       `json:"candidate_count"`
	ReturnedCount   int       `json:"returned_count"`
}
