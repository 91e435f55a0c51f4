package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/lehigh-university-libraries/bookshelf/internal/metrics"
)

// BreakerSettings configures the circuit breaker around a provider
type BreakerSettings struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Guarded wraps a Provider with a circuit breaker and call metrics
type Guarded struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[string]
}

// WithBreaker returns p wrapped in a circuit breaker
func WithBreaker(p Provider, s BreakerSettings) *Guarded {
	name := "ai-" + p.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				slog.Warn("Opening circuit breaker", "name", name, "failures", counts.TotalFailures, "failure_ratio", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("Circuit breaker state transition", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A cancelled caller says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Guarded{provider: p, cb: cb}
}

// Name returns the wrapped provider's name
func (g *Guarded) Name() string {
	return g.provider.Name()
}

// GenerateText calls the wrapped provider unless the circuit is open
func (g *Guarded) GenerateText(ctx context.Context, config Config) (string, error) {
	start := time.Now()
	text, err := g.cb.Execute(func() (string, error) {
		return g.provider.GenerateText(ctx, config)
	})
	metrics.RecordAIRequest(g.provider.Name(), err, time.Since(start))

	name := g.cb.Name()
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	}

	return text, err
}

// State exposes the breaker state for health reporting
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
