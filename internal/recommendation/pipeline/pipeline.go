// Package pipeline runs a recommendation request through filtering, the
// model call and the join back onto verified candidates, degrading to a
// heuristic ranking whenever the model path fails.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/llm"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/metrics"
	"zomato-recommender/internal/common/observability"
	"zomato-recommender/internal/models"
	"zomato-recommender/internal/recommendation/parser"
	"zomato-recommender/internal/recommendation/prompt"
	"zomato-recommender/internal/recommendation/ranking"
)

const (
	NoMatchesSummary = "No matches found."
	FallbackReason   = "Selected by heuristic ranking based on rating and price fit."
	fallbackSummary  = "Showing top %d restaurants ranked by rating and price fit."
)

// Terminal outcomes, used as metric labels.
const (
	OutcomeEmpty    = "empty"
	OutcomeLLM      = "llm"
	OutcomeFallback = "fallback"
	OutcomeRanked   = "ranked"
)

// EventRecorder receives one call per finished request.
type EventRecorder interface {
	Log(ctx context.Context, endpoint string, pref models.UserPreference, candidateCount, returnedCount int)
}

type Options struct {
	PoolMultiplier int
	MinPoolSize    int
}

func DefaultOptions() Options {
	return Options{PoolMultiplier: 3, MinPoolSize: 15}
}

type Orchestrator struct {
	source  ranking.Source
	gateway llm.Gateway
	events  EventRecorder
	opts    Options
	logger  logger.Logger
	obs     *observability.Observability
}

func New(source ranking.Source, gateway llm.Gateway, events EventRecorder, opts Options, log logger.Logger, obs *observability.Observability) *Orchestrator {
	defaults := DefaultOptions()
	if opts.PoolMultiplier <= 0 {
		opts.PoolMultiplier = defaults.PoolMultiplier
	}
	if opts.MinPoolSize <= 0 {
		opts.MinPoolSize = defaults.MinPoolSize
	}
	return &Orchestrator{
		source:  source,
		gateway: gateway,
		events:  events,
		opts:    opts,
		logger:  log,
		obs:     obs,
	}
}

// PoolSize is how many candidates are offered to the model for a given limit.
func (o *Orchestrator) PoolSize(limit int) int {
	size := limit * o.opts.PoolMultiplier
	if size < o.opts.MinPoolSize {
		size = o.opts.MinPoolSize
	}
	return size
}

// Filter ranks candidates without the model. Its event reports a candidate
// count of zero because no pool is offered to anything.
func (o *Orchestrator) Filter(ctx context.Context, endpoint string, pref models.UserPreference) (*models.FilterResponse, error) {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "pipeline.filter", attribute.String("endpoint", endpoint))
	defer span.End()

	ranked, err := ranking.Filter(ctx, o.source, pref)
	if err != nil {
		return nil, err
	}

	o.finish(ctx, endpoint, pref, 0, len(ranked), OutcomeRanked, start)
	return &models.FilterResponse{Recommendations: ranked}, nil
}

// Recommend runs the full pipeline. Only store failures and a missing model
// configuration are returned as errors; every model-side failure yields the
// heuristic fallback.
func (o *Orchestrator) Recommend(ctx context.Context, endpoint string, pref models.UserPreference) (*models.RecommendationResult, error) {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "pipeline.recommend", attribute.String("endpoint", endpoint))
	defer span.End()

	pool, err := o.candidatePool(ctx, pref)
	if err != nil {
		return nil, err
	}

	if len(pool) == 0 {
		result := &models.RecommendationResult{Summary: NoMatchesSummary, Recommendations: []models.Recommendation{}}
		o.finish(ctx, endpoint, pref, 0, 0, OutcomeEmpty, start)
		return result, nil
	}

	if err := o.gateway.Validate(); err != nil {
		return nil, err
	}

	result, outcome := o.selectWithModel(ctx, pref, pool)
	o.finish(ctx, endpoint, pref, len(pool), len(result.Recommendations), outcome, start)
	return result, nil
}

// RecommendLLM returns the model's own output without fallback. Picks that
// do not reference an offered candidate are removed.
func (o *Orchestrator) RecommendLLM(ctx context.Context, endpoint string, pref models.UserPreference) (*models.ModelOutput, error) {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "pipeline.recommend_llm", attribute.String("endpoint", endpoint))
	defer span.End()

	pool, err := o.candidatePool(ctx, pref)
	if err != nil {
		return nil, err
	}

	if len(pool) == 0 {
		o.finish(ctx, endpoint, pref, 0, 0, OutcomeEmpty, start)
		return &models.ModelOutput{Summary: NoMatchesSummary, Recommendations: []models.ModelPick{}}, nil
	}

	if err := o.gateway.Validate(); err != nil {
		return nil, err
	}

	out, err := o.callModel(ctx, pref, pool)
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}

	joined := Join(out.Recommendations, pool, pref.Limit)
	picks := make([]models.ModelPick, 0, len(joined))
	for _, rec := range joined {
		picks = append(picks, models.ModelPick{ID: rec.ID, Reason: rec.Reason})
	}
	out.Recommendations = picks

	o.finish(ctx, endpoint, pref, len(pool), len(picks), OutcomeLLM, start)
	return out, nil
}

func (o *Orchestrator) candidatePool(ctx context.Context, pref models.UserPreference) ([]models.ScoredCandidate, error) {
	ctx, span := o.obs.StartSpan(ctx, "pipeline.candidate_pool")
	defer span.End()

	pool, err := ranking.Filter(ctx, o.source, pref.WithLimit(o.PoolSize(pref.Limit)))
	if err != nil {
		o.logger.Error("candidate filtering failed", map[string]interface{}{
			"errorCode": string(errors.CodeOf(err)),
			"error":     err,
		})
		return nil, err
	}
	metrics.CandidatePoolSize.Observe(float64(len(pool)))
	span.SetAttributes(attribute.Int("pool.size", len(pool)))
	return pool, nil
}

func (o *Orchestrator) callModel(ctx context.Context, pref models.UserPreference, pool []models.ScoredCandidate) (*models.ModelOutput, error) {
	ctx, span := o.obs.StartSpan(ctx, "pipeline.call_model")
	defer span.End()

	p := prompt.Build(pref, pool, pref.Limit)
	raw, err := o.gateway.Complete(ctx, p.System, p.User)
	if err != nil {
		return nil, err
	}
	return parser.Parse(raw)
}

// selectWithModel returns the fallback for every recoverable model failure.
// Only a configuration error is fatal, and Validate has already ruled that
// out for this request, so one surfacing here is also treated as recoverable.
func (o *Orchestrator) selectWithModel(ctx context.Context, pref models.UserPreference, pool []models.ScoredCandidate) (*models.RecommendationResult, string) {
	out, err := o.callModel(ctx, pref, pool)
	if err != nil {
		kind := failureKind(err)
		switch kind {
		case errors.KindTransport, errors.KindParse, errors.KindValidation:
			o.logger.Warn("model path failed, using heuristic ranking", map[string]interface{}{
				"failureKind": kind.String(),
				"errorCode":   string(errors.CodeOf(err)),
				"error":       err,
			})
		case errors.KindConfiguration:
			o.logger.Error("model configuration rejected at call time, using heuristic ranking", map[string]interface{}{
				"failureKind": kind.String(),
				"errorCode":   string(errors.CodeOf(err)),
				"error":       err,
			})
		}
		return Fallback(pool, pref.Limit), OutcomeFallback
	}

	joined := Join(out.Recommendations, pool, pref.Limit)
	if len(joined) == 0 {
		o.logger.Warn("model picks matched no candidate, using heuristic ranking", map[string]interface{}{
			"picks": len(out.Recommendations),
		})
		return Fallback(pool, pref.Limit), OutcomeFallback
	}

	return &models.RecommendationResult{Summary: out.Summary, Recommendations: joined}, OutcomeLLM
}

// failureKind treats anything unclassified on the model path as transport.
func failureKind(err error) errors.FailureKind {
	if kind := errors.KindOf(err); kind != errors.KindUnknown {
		return kind
	}
	return errors.KindTransport
}

// Join maps picks onto pool entries by id, in pick order. Unknown ids,
// repeated ids and blank reasons are dropped, and at most limit remain.
func Join(picks []models.ModelPick, pool []models.ScoredCandidate, limit int) []models.Recommendation {
	byID := make(map[int64]models.ScoredCandidate, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}

	seen := make(map[int64]struct{}, len(picks))
	out := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		if len(out) >= limit {
			break
		}
		c, ok := byID[p.ID]
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		reason := strings.TrimSpace(p.Reason)
		if reason == "" {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, models.Recommendation{ScoredCandidate: c, Reason: reason})
	}
	return out
}

// Fallback takes the top limit entries of an already sorted pool.
func Fallback(pool []models.ScoredCandidate, limit int) *models.RecommendationResult {
	n := len(pool)
	if limit < n {
		n = limit
	}
	recs := make([]models.Recommendation, 0, n)
	for _, c := range pool[:n] {
		recs = append(recs, models.Recommendation{ScoredCandidate: c, Reason: FallbackReason})
	}
	return &models.RecommendationResult{
		Summary:         fmt.Sprintf(fallbackSummary, len(recs)),
		Recommendations: recs,
	}
}

func (o *Orchestrator) finish(ctx context.Context, endpoint string, pref models.UserPreference, candidateCount, returnedCount int, outcome string, start time.Time) {
	elapsed := time.Since(start)

	metrics.RecommendationRequests.WithLabelValues(endpoint, outcome).Inc()
	o.obs.RecordProcessed(ctx, endpoint, outcome)
	o.obs.RecordDuration(ctx, elapsed, endpoint, outcome)

	o.logger.Info("recommendation completed", map[string]interface{}{
		"endpoint":       endpoint,
		"outcome":        outcome,
		"candidateCount": candidateCount,
		"returnedCount":  returnedCount,
		"durationMs":     elapsed.Milliseconds(),
	})

	if o.events != nil {
		o.events.Log(ctx, endpoint, pref, candidateCount, returnedCount)
	}
}
