package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ansel1/merry/v2"
)

var ErrAllProvidersExhausted = merry.Sentinel("all providers exhausted",
	merry.WithUserMessage("could not fetch media"))

// RetryPolicy is the per-resolver retry state machine: a fixed number of
// attempts with capped exponential backoff between them. All failure kinds
// are retried identically.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second * 8,
	}
}

// Delay returns the backoff applied after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(delay, p.MaxDelay)
}

// AttemptEvent is emitted for every failed attempt, for diagnostics only.
type AttemptEvent struct {
	Resolver string
	Attempt  int
	Err      error
}

// Chain tries its resolvers strictly in declared order, never concurrently.
// Upstream providers are rate-sensitive, so fanning out would amplify load
// without making latency more predictable.
type Chain struct {
	Resolvers []Resolver
	Policy    RetryPolicy

	// OnAttempt observes failed attempts. Must not block.
	OnAttempt func(AttemptEvent)

	sleep func(time.Duration)
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{
		Resolvers: resolvers,
		Policy:    DefaultRetryPolicy(),
		sleep:     time.Sleep,
	}
}

// Resolve returns the first structurally valid payload. A resolver gets up to
// MaxRetries attempts with backoff in between; its final failure advances the
// chain with no extra delay. Only total exhaustion is surfaced, carrying the
// last error from each resolver.
func (c *Chain) Resolve(ctx context.Context, ref MediaReference) (*RawPayload, error) {
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var failures []string
	for _, r := range c.Resolvers {
		var lastErr error
		for attempt := 1; attempt <= c.Policy.MaxRetries; attempt++ {
			if attempt > 1 {
				sleep(c.Policy.Delay(attempt - 1))
			}

			payload, err := r.Fetch(ctx, ref)
			if err == nil && !payload.Valid() {
				err = merry.Wrap(ErrInvalidPayload, merry.WithMessagef("resolver %s returned invalid payload", r.Name()))
			}
			if err == nil {
				return payload, nil
			}

			lastErr = err
			if c.OnAttempt != nil {
				c.OnAttempt(AttemptEvent{Resolver: r.Name(), Attempt: attempt, Err: err})
			}
		}
		failures = append(failures, fmt.Sprintf("%s: %v", r.Name(), lastErr))
	}

	return nil, merry.Wrap(ErrAllProvidersExhausted,
		merry.WithMessagef("all providers exhausted: %s", strings.Join(failures, "; ")))
}
