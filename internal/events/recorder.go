// internal/events/recorder.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/metrics"
	"zomato-recommender/internal/models"
)

const defaultTimeout = 2 * time.Second

// Recorder builds events and hands them to every sink. It runs after the
// response has been computed and never reports failure to its caller.
type Recorder struct {
	sinks   []Sink
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

func NewRecorder(log logger.Logger, timeout time.Duration, sinks ...Sink) *Recorder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Recorder{
		sinks:   sinks,
		timeout: timeout,
		logger:  log,
		now:     time.Now,
	}
}

// Log records one event. The caller's cancellation does not abort the write;
// the recorder's own timeout bounds it.
func (r *Recorder) Log(ctx context.Context, endpoint string, pref models.UserPreference, candidateCount, returnedCount int) {
	if r == nil || len(r.sinks) == 0 {
		return
	}

	prefJSON, err := json.Marshal(pref)
	if err != nil {
		prefJSON = []byte("{}")
	}

	event := models.RecommendationEvent{
		ID:              uuid.NewString(),
		CreatedAt:       r.now().UTC(),
		Endpoint:        endpoint,
		PreferencesJSON: string(prefJSON),
		CandidateCount:  candidateCount,
		ReturnedCount:   returnedCount,
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	for _, sink := range r.sinks {
		r.record(recordCtx, sink, event)
	}
}

func (r *Recorder) record(ctx context.Context, sink Sink, event models.RecommendationEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(sink, event, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := sink.Record(ctx, event); err != nil {
		r.fail(sink, event, err)
	}
}

func (r *Recorder) fail(sink Sink, event models.RecommendationEvent, err error) {
	metrics.EventFailures.WithLabelValues(sink.Name()).Inc()
	r.logger.Warn("failed to record recommendation event", map[string]interface{}{
		"sink":     sink.Name(),
		"eventId":  event.ID,
		"endpoint": event.Endpoint,
		"error":    err,
	})
}
