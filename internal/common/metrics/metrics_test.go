package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecommendationRequestsCounter(t *testing.T) {
	counter := RecommendationRequests.WithLabelValues("/recommendations/pipeline", "fallback")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestEventFailuresCounter(t *testing.T) {
	counter := EventFailures.WithLabelValues("postgres")
	before := testutil.ToFloat64(counter)

	counter.Add(2)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
