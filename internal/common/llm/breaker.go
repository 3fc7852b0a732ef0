// internal/common/llm/breaker.go
package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
)

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// BreakerGateway stops calling the provider after repeated transport
// failures. Configuration errors and caller cancellations are not counted.
type BreakerGateway struct {
	next    Gateway
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerGateway(next Gateway, s BreakerSettings, log logger.Logger) *BreakerGateway {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.Name == "" {
		s.Name = "llm"
	}

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAgainstProvider(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("llm circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerGateway) Validate() error {
	return b.next.Validate()
}

func (b *BreakerGateway) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := b.breaker.Execute(func() (string, error) {
		return b.next.Complete(ctx, systemPrompt, userPrompt)
	})
	if err == nil {
		return out, nil
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.NewLLMTransportError(fmt.Errorf("circuit %s: %w", b.breaker.Name(), err))
	}
	return "", err
}

// countsAgainstProvider is false for errors that say nothing about the
// provider's health: missing configuration and callers that went away.
// Deadline expiry still counts.
func countsAgainstProvider(err error) bool {
	if errors.KindOf(err) == errors.KindConfiguration {
		return false
	}
	return !stderrors.Is(err, context.Canceled)
}

// State is exposed for readiness reporting.
func (b *BreakerGateway) State() string {
	return b.breaker.State().String()
}
