// Package api exposes the recommendation pipeline over HTTP using chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/models"
)

// Recommender is the subset of the orchestrator used by the handlers.
type Recommender interface {
	Filter(ctx context.Context, endpoint string, pref models.UserPreference) (*models.FilterResponse, error)
	Recommend(ctx context.Context, endpoint string, pref models.UserPreference) (*models.RecommendationResult, error)
	RecommendLLM(ctx context.Context, endpoint string, pref models.UserPreference) (*models.ModelOutput, error)
}

// Listings serves the dropdown data for locations and cuisines.
type Listings interface {
	FetchLocations(ctx context.Context) ([]string, error)
	FetchCuisines(ctx context.Context) ([]string, error)
}

// ReadinessCheck pings one dependency.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	ReadinessTimeout   time.Duration
}

type Handler struct {
	recommender Recommender
	listings    Listings
	checks      map[string]ReadinessCheck
	opts        Options
	logger      logger.Logger
}

func NewHandler(recommender Recommender, listings Listings, checks map[string]ReadinessCheck, opts Options, log logger.Logger) *Handler {
	if opts.ReadinessTimeout <= 0 {
		opts.ReadinessTimeout = 2 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{
		recommender: recommender,
		listings:    listings,
		checks:      checks,
		opts:        opts,
		logger:      log,
	}
}

// Routes builds the chi router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(routeMetrics)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/locations", h.Locations)
	r.Get("/cuisines", h.Cuisines)

	r.Route("/recommendations", func(r chi.Router) {
		if h.opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(h.opts.RateLimitPerMinute, time.Minute))
		}
		r.Post("/", h.Filter)
		r.Post("/pipeline", h.Pipeline)
		r.Post("/llm", h.LLM)
	})

	return r
}
