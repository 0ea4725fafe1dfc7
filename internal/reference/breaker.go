package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// BreakerConfig tunes a BreakerSource
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerSource stops calling a failing database-backed source for a while
// instead of letting every request wait on it. An unknown species is an
// answer, not a failure, and never trips the breaker.
type BreakerSource struct {
	next    domain.ReferenceSource
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps next in a circuit breaker
func NewBreakerSource(next domain.ReferenceSource, config BreakerConfig, logger *logrus.Logger) *BreakerSource {
	if config.Name == "" {
		config.Name = "reference-source"
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrSpeciesNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Reference source circuit breaker changed state")
		},
	}

	return &BreakerSource{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ReferenceTable calls the wrapped source unless the breaker is open
func (b *BreakerSource) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.ReferenceTable(ctx, species)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("reference source unavailable: %w", err)
		}
		return nil, err
	}
	return result.(*domain.ReferenceTable), nil
}

// State reports the breaker state, e.g. for health checks
func (b *BreakerSource) State() string {
	return b.breaker.State().String()
}
