// internal/workers/recommendation/recommend-restaurants/handler.go
package recommendrestaurants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/metrics"
	"zomato-recommender/internal/common/validation"
	"zomato-recommender/internal/models"
)

const (
	TaskType = "recommend-restaurants"
)

// Recommender runs the full recommendation pipeline.
type Recommender interface {
	Recommend(ctx context.Context, endpoint string, pref models.UserPreference) (*models.RecommendationResult, error)
}

type Handler struct {
	config       *Config
	recommender  Recommender
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, recommender Recommender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		recommender:  recommender,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidPreferencesError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	pref, err := decodePreferences(input.Preferences)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := h.recommender.Recommend(ctx, h.config.Endpoint, pref)
	if err != nil {
		return nil, err
	}

	h.logger.Info("recommendation completed", map[string]interface{}{
		"returnedCount": len(result.Recommendations),
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return &Output{Recommendation: result}, nil
}

// decodePreferences applies the default limit before decoding so an omitted
// limit keeps it. Missing preferences mean no filters.
func decodePreferences(raw json.RawMessage) (models.UserPreference, error) {
	pref := models.NewUserPreference()
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &pref); err != nil {
			return pref, errors.NewInvalidPreferencesError(err.Error())
		}
	}
	if result := validation.ValidateStruct(pref); !result.Valid {
		return pref, errors.NewInvalidPreferencesError(result.Summary())
	}
	return pref, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
