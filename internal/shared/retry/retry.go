// Package retry wraps cenkalti/backoff behind a small configurable policy
// shared by the OpenAI client and the init-db command.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded exponential retry schedule.
type Policy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultPolicy is used where no explicit policy is configured.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2.0}

// Do runs op until it succeeds or the attempt budget is exhausted.
// The context cancels in-flight waits between attempts.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx))
}
