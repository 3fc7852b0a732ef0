package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/models"
)

// ==========================
// Test doubles
// ==========================

type captureSink struct {
	mu     sync.Mutex
	events []models.RecommendationEvent
	ctxErr error
	err    error
	panics bool
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Record(ctx context.Context, event models.RecommendationEvent) error {
	if c.panics {
		panic("sink exploded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctxErr = ctx.Err()
	c.events = append(c.events, event)
	return c.err
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func sampleEvent() models.RecommendationEvent {
	return models.RecommendationEvent{
		ID:              "evt-1",
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Endpoint:        "/recommendations/pipeline",
		PreferencesJSON: `{"limit":2}`,
		CandidateCount:  15,
		ReturnedCount:   2,
	}
}

// ==========================
// Recorder
// ==========================

func TestRecorder_Log(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(logger.NewTestLogger(t), time.Second, sink)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	rec.now = func() time.Time { return fixed }

	pref := models.UserPreference{Location: models.StringPtr("City Center"), Limit: 2}
	rec.Log(context.Background(), "/recommendations/pipeline", pref, 15, 2)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, fixed.UTC(), ev.CreatedAt)
	assert.Equal(t, time.UTC, ev.CreatedAt.Location())
	assert.Equal(t, "/recommendations/pipeline", ev.Endpoint)
	assert.Equal(t, 15, ev.CandidateCount)
	assert.Equal(t, 2, ev.ReturnedCount)
	assert.JSONEq(t, `{"location":"City Center","min_rating":null,"min_price":null,"max_price":null,"preferred_cuisines":null,"limit":2}`, ev.PreferencesJSON)
}

func TestRecorder_SurvivesCancelledRequest(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(logger.NewNoOpLogger(), time.Second, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec.Log(ctx, "/recommendations", models.NewUserPreference(), 0, 3)

	require.Len(t, sink.events, 1)
	assert.NoError(t, sink.ctxErr)
}

func TestRecorder_SwallowsFailures(t *testing.T) {
	tests := []struct {
		name string
		sink *captureSink
	}{
		{"error", &captureSink{err: stderrors.New("db down")}},
		{"panic", &captureSink{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := &captureSink{}
			rec := NewRecorder(logger.NewTestLogger(t), time.Second, tt.sink, after)

			assert.NotPanics(t, func() {
				rec.Log(context.Background(), "/recommendations", models.NewUserPreference(), 0, 0)
			})
			assert.Len(t, after.events, 1, "later sinks still receive the event")
		})
	}
}

func TestRecorder_NilAndEmpty(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Log(context.Background(), "/recommendations", models.NewUserPreference(), 0, 0)
		NewRecorder(logger.NewNoOpLogger(), 0).Log(context.Background(), "/x", models.NewUserPreference(), 0, 0)
	})
}

// ==========================
// PostgresSink
// ==========================

func TestPostgresSink_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ev := sampleEvent()
	mock.ExpectExec("INSERT INTO recommendation_events").
		WithArgs(ev.ID, ev.CreatedAt, ev.Endpoint, ev.PreferencesJSON, ev.CandidateCount, ev.ReturnedCount).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewPostgresSink(db).Record(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO recommendation_events").WillReturnError(stderrors.New("relation does not exist"))

	err = NewPostgresSink(db).Record(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventLogFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS recommendation_events").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresSink(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// SNSSink
// ==========================

func TestSNSSink_Record(t *testing.T) {
	var captured *sns.PublishInput
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	ev := sampleEvent()
	require.NoError(t, NewSNSSink(mockSNS, "arn:aws:sns:ap-south-1:123:events").Record(context.Background(), ev))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:ap-south-1:123:events", *captured.TopicArn)
	assert.Equal(t, ev.Endpoint, *captured.MessageAttributes["endpoint"].StringValue)

	var decoded models.RecommendationEvent
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &decoded))
	assert.Equal(t, ev, decoded)
}

func TestSNSSink_RecordError(t *testing.T) {
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("throttled")
		},
	}

	err := NewSNSSink(mockSNS, "arn").Record(context.Background(), sampleEvent())
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventLogFailed))
}
