// internal/workers/recommendation/filter-restaurants/handler.go
package filterrestaurants

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/metrics"
	"zomato-recommender/internal/common/validation"
	"zomato-recommender/internal/models"
)

const (
	TaskType = "filter-restaurants"
)

type Filterer interface {
	Filter(ctx context.Context, endpoint string, pref models.UserPreference) (*models.FilterResponse, error)
}

type Handler struct {
	config       *Config
	filterer     Filterer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, filterer Filterer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		filterer:     filterer,
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

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	pref := models.NewUserPreference()
	if len(input.Preferences) > 0 && string(input.Preferences) != "null" {
		if err := json.Unmarshal(input.Preferences, &pref); err != nil {
			return nil, errors.NewInvalidPreferencesError(err.Error())
		}
	}
	if result := validation.ValidateStruct(pref); !result.Valid {
		return nil, errors.NewInvalidPreferencesError(result.Summary())
	}

	filtered, err := h.filterer.Filter(ctx, h.config.Endpoint, pref)
	if err != nil {
		return nil, err
	}
	return &Output{Filtered: filtered}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
