package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zomato-recommender/internal/common/config"
	"zomato-recommender/internal/common/logger"
)

func TestConnectWithRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := ConnectWithRetry(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, logger.NewTestLogger(t), "PostgreSQL connection")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConnectWithRetry_GivesUp(t *testing.T) {
	attempts := 0
	err := ConnectWithRetry(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("connection refused")
	}, 3, time.Millisecond, logger.NewNoOpLogger(), "Redis connection")

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "Redis connection failed after 3 attempts")
}

func TestConnectWithRetry_StopsOnPermanentError(t *testing.T) {
	attempts := 0
	cause := errors.New("address is required")
	err := ConnectWithRetry(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(cause)
	}, 5, time.Hour, logger.NewNoOpLogger(), "Zeebe client initialization")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed permanently after 1 attempts")
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestConnectWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ConnectWithRetry(ctx, func(context.Context) error {
		return errors.New("unavailable")
	}, 5, time.Hour, logger.NewNoOpLogger(), "Elasticsearch connection")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewPostgres_AppliesPoolSettings(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "zomato", User: "zomato",
		MaxConnections: 7, MaxIdle: 2, SSLMode: "disable",
	})
	require.NoError(t, err)
	defer pg.Close()

	assert.Equal(t, 7, pg.DB.Stats().MaxOpenConnections)
}
