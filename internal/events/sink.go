// Package events records one analytics event per recommendation request.
// Recording is best-effort: failures are logged and counted, never returned.
package events

import (
	"context"

	"zomato-recommender/internal/models"
)

// Sink persists or forwards a single event.
type Sink interface {
	Name() string
	Record(ctx context.Context, event models.RecommendationEvent) error
}
