package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeRecommender struct {
	pref     models.UserPreference
	endpoint string
	filter   *models.FilterResponse
	result   *models.RecommendationResult
	llm      *models.ModelOutput
	err      error
}

func (f *fakeRecommender) Filter(ctx context.Context, endpoint string, pref models.UserPreference) (*models.FilterResponse, error) {
	f.pref, f.endpoint = pref, endpoint
	return f.filter, f.err
}

func (f *fakeRecommender) Recommend(ctx context.Context, endpoint string, pref models.UserPreference) (*models.RecommendationResult, error) {
	f.pref, f.endpoint = pref, endpoint
	return f.result, f.err
}

func (f *fakeRecommender) RecommendLLM(ctx context.Context, endpoint string, pref models.UserPreference) (*models.ModelOutput, error) {
	f.pref, f.endpoint = pref, endpoint
	return f.llm, f.err
}

type fakeListings struct {
	locations []string
	cuisines  []string
	err       error
}

func (f *fakeListings) FetchLocations(ctx context.Context) ([]string, error) {
	return f.locations, f.err
}

func (f *fakeListings) FetchCuisines(ctx context.Context) ([]string, error) {
	return f.cuisines, f.err
}

func newTestRouter(t *testing.T, rec *fakeRecommender, listings *fakeListings, opts Options) http.Handler {
	return NewHandler(rec, listings, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	}, opts, logger.NewTestLogger(t)).Routes()
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleCandidates() []models.ScoredCandidate {
	return []models.ScoredCandidate{
		{
			Restaurant: models.Restaurant{
				ID:         1,
				Name:       "Fine Dine",
				Location:   models.StringPtr("Delhi"),
				PriceRange: models.IntPtr(900),
				Rating:     models.Float64Ptr(4.6),
			},
			Score: 9.2,
		},
	}
}

// ==========================
// Recommendation Endpoints
// ==========================

func TestFilterEndpoint(t *testing.T) {
	rec := &fakeRecommender{filter: &models.FilterResponse{Recommendations: sampleCandidates()}}
	router := newTestRouter(t, rec, &fakeListings{}, Options{})

	rr := doRequest(router, http.MethodPost, "/recommendations", `{"location":"Delhi","max_price":1000}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	assert.Equal(t, "/recommendations", rec.endpoint)
	assert.Equal(t, models.DefaultLimit, rec.pref.Limit)
	require.NotNil(t, rec.pref.MaxPrice)
	assert.Equal(t, 1000, *rec.pref.MaxPrice)

	var body map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body["recommendations"], 1)
	assert.Equal(t, "Fine Dine", body["recommendations"][0]["name"])
	assert.Equal(t, 9.2, body["recommendations"][0]["score"])
	assert.Nil(t, body["recommendations"][0]["cuisines"])
}

func TestPipelineEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		rec        *fakeRecommender
		wantStatus int
		validate   func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "success",
			rec: &fakeRecommender{result: &models.RecommendationResult{
				Summary:         "No matches found.",
				Recommendations: []models.Recommendation{},
			}},
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "No matches found.", body["summary"])
				assert.Empty(t, body["recommendations"])
			},
		},
		{
			name:       "missing api key is a server error",
			rec:        &fakeRecommender{err: errors.NewConfigurationMissingError("Missing GROQ_API_KEY in environment (.env)")},
			wantStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Missing GROQ_API_KEY in environment (.env)", body["detail"])
			},
		},
		{
			name:       "store failure",
			rec:        &fakeRecommender{err: errors.NewQueryExecutionFailedError("fetch_all", stderrors.New("reset"))},
			wantStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Database query execution error", body["detail"])
			},
		},
		{
			name:       "unexpected error hides details",
			rec:        &fakeRecommender{err: stderrors.New("secret stack")},
			wantStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Internal server error", body["detail"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.rec, &fakeListings{}, Options{})
			rr := doRequest(router, http.MethodPost, "/recommendations/pipeline", `{"limit":3}`)
			require.Equal(t, tt.wantStatus, rr.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			tt.validate(t, body)
			assert.Equal(t, "/recommendations/pipeline", tt.rec.endpoint)
		})
	}
}

func TestLLMEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		rec        *fakeRecommender
		wantStatus int
	}{
		{"success", &fakeRecommender{llm: &models.ModelOutput{Summary: "ok", Recommendations: []models.ModelPick{{ID: 1, Reason: "great"}}}}, http.StatusOK},
		{"transport failure", &fakeRecommender{err: errors.NewLLMTransportError(stderrors.New("502"))}, http.StatusBadGateway},
		{"parse failure", &fakeRecommender{err: errors.NewLLMParseError("sorry")}, http.StatusBadGateway},
		{"config failure", &fakeRecommender{err: errors.NewConfigurationMissingError("Missing GROQ_API_KEY in environment (.env)")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.rec, &fakeListings{}, Options{})
			rr := doRequest(router, http.MethodPost, "/recommendations/llm", `{}`)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

// ==========================
// Request Decoding
// ==========================

func TestRequestDecoding(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"malformed json", `{"limit":`, http.StatusBadRequest, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"unknown field", `{"budget":"low"}`, http.StatusBadRequest, ""},
		{"wrong type", `{"min_rating":"high"}`, http.StatusUnprocessableEntity, "min_rating"},
		{"limit above max", `{"limit":51}`, http.StatusUnprocessableEntity, "limit"},
		{"explicit zero limit", `{"limit":0}`, http.StatusUnprocessableEntity, "limit"},
		{"rating above five", `{"min_rating":5.5}`, http.StatusUnprocessableEntity, "min_rating"},
		{"negative price", `{"min_price":-10}`, http.StatusUnprocessableEntity, "min_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecommender{filter: &models.FilterResponse{}}
			router := newTestRouter(t, rec, &fakeListings{}, Options{})

			rr := doRequest(router, http.MethodPost, "/recommendations", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Empty(t, rec.endpoint, "handler must not reach the pipeline")

			if tt.wantField != "" {
				var body struct {
					Detail []struct {
						Field string `json:"field"`
					} `json:"detail"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				require.NotEmpty(t, body.Detail)
				assert.Equal(t, tt.wantField, body.Detail[0].Field)
			}
		})
	}
}

// ==========================
// Listings, Health, Middleware
// ==========================

func TestListingEndpoints(t *testing.T) {
	listings := &fakeListings{
		locations: []string{"Banashankari", "BTM", "Delhi"},
		cuisines:  []string{"Chinese", "North Indian"},
	}
	router := newTestRouter(t, &fakeRecommender{}, listings, Options{})

	rr := doRequest(router, http.MethodGet, "/locations", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["Banashankari","BTM","Delhi"]`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/cuisines", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["Chinese","North Indian"]`, rr.Body.String())
}

func TestListingEndpoints_EmptyIsArray(t *testing.T) {
	router := newTestRouter(t, &fakeRecommender{}, &fakeListings{}, Options{})

	rr := doRequest(router, http.MethodGet, "/locations", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, &fakeRecommender{}, &fakeListings{}, Options{})

	rr := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok"}}`, rr.Body.String())
}

func TestReady_FailingDependency(t *testing.T) {
	router := NewHandler(&fakeRecommender{}, &fakeListings{}, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return stderrors.New("connection refused") },
	}, Options{}, logger.NewTestLogger(t)).Routes()

	rr := doRequest(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"postgres":"ok","redis":"connection refused"}}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeRecommender{}, &fakeListings{}, Options{})
	doRequest(router, http.MethodGet, "/health", "")

	rr := doRequest(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestRateLimitAppliesToRecommendations(t *testing.T) {
	rec := &fakeRecommender{filter: &models.FilterResponse{}}
	router := newTestRouter(t, rec, &fakeListings{locations: []string{}}, Options{RateLimitPerMinute: 1})

	first := doRequest(router, http.MethodPost, "/recommendations", `{}`)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doRequest(router, http.MethodPost, "/recommendations", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	for i := 0; i < 3; i++ {
		rr := doRequest(router, http.MethodGet, "/locations", "")
		assert.Equal(t, http.StatusOK, rr.Code, "listings are not rate limited")
	}
}

func TestCORSHeaders(t *testing.T) {
	router := newTestRouter(t, &fakeRecommender{}, &fakeListings{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovererReturns500(t *testing.T) {
	router := NewHandler(nil, &fakeListings{}, nil, Options{}, logger.NewTestLogger(t)).Routes()

	rr := doRequest(router, http.MethodPost, "/recommendations", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
