// Package retry wraps one logical provider call with timeout enforcement,
// exponential backoff, rate-limit-aware waiting, and circuit-breaker
// integration.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/gateway/breaker"
)

// Defaults for executor configuration.
const (
	DefaultMaxRetries     = 3
	DefaultAttemptTimeout = 50 * time.Second
)

// Backoff schedules per failure class. Rate limits back off further than
// server instability because providers typically need longer to shed load.
const (
	rateLimitInitialDelay = 1 * time.Second
	rateLimitMaxDelay     = 32 * time.Second
	serverInitialDelay    = 2 * time.Second
	serverMaxDelay        = 16 * time.Second
)

// Config configures an Executor.
type Config struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// AttemptTimeout is the hard wall-clock deadline applied to each
	// attempt. Exceeding it is a retryable failure, not a crash.
	AttemptTimeout time.Duration

	// WaitFunc waits between attempts, respecting ctx cancellation.
	// Overridable for tests; defaults to a timer-based wait.
	WaitFunc func(ctx context.Context, d time.Duration) error
}

// Executor runs attempts against a provider through its circuit breaker.
// Retries are strictly sequential; concurrent calls share only the breaker.
type Executor struct {
	breaker        *breaker.Breaker
	maxRetries     int
	attemptTimeout time.Duration
	wait           func(ctx context.Context, d time.Duration) error
	logger         zerolog.Logger
}

// NewExecutor creates an Executor bound to the given breaker. Zero config
// fields fall back to the defaults.
func NewExecutor(b *breaker.Breaker, cfg Config, logger zerolog.Logger) *Executor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.WaitFunc == nil {
		cfg.WaitFunc = waitFor
	}

	return &Executor{
		breaker:        b,
		maxRetries:     cfg.MaxRetries,
		attemptTimeout: cfg.AttemptTimeout,
		wait:           cfg.WaitFunc,
		logger:         logger.With().Str("component", "retryExecutor").Logger(),
	}
}

// Do runs attempt up to MaxRetries+1 times. The breaker is checked before
// every attempt, including retries, so a breaker that trips mid-retry stops
// the loop instead of exhausting the budget against a known-bad backend.
// OnSuccess/OnFailure are reported after every attempt outcome, including
// the final one.
//
// attempt should return a typed *gateway.Error; anything else is normalized
// to a retryable timeout/network error.
func (e *Executor) Do(ctx context.Context, attempt func(ctx context.Context) error) error {
	rateLimitDelays := newSchedule(rateLimitInitialDelay, rateLimitMaxDelay)
	serverDelays := newSchedule(serverInitialDelay, serverMaxDelay)

	var lastErr error
	for n := 0; n <= e.maxRetries; n++ {
		if err := e.breaker.Check(); err != nil {
			return err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		err := attempt(attemptCtx)
		cancel()

		if err == nil {
			e.breaker.OnSuccess()
			return nil
		}

		err = normalize(err)
		e.breaker.OnFailure()
		lastErr = err

		// Caller gave up; don't burn retries on a dead request.
		if ctx.Err() != nil {
			return err
		}

		if !gateway.IsRetryableError(err) {
			return err
		}
		if n == e.maxRetries {
			break
		}

		var delay time.Duration
		if gateway.IsRateLimitError(err) {
			if ra := gateway.ExtractRetryAfter(err); ra != nil {
				delay = *ra
				// Keep the schedule advancing so a later 429
				// without a header doesn't restart at the bottom.
				rateLimitDelays.NextBackOff()
			} else {
				delay = rateLimitDelays.NextBackOff()
			}
		} else {
			delay = serverDelays.NextBackOff()
		}

		e.logger.Warn().
			Int("attempt", n+1).
			Int("max_retries", e.maxRetries).
			Dur("delay", delay).
			Err(err).
			Msg("Provider call failed, retrying after delay")

		if waitErr := e.wait(ctx, delay); waitErr != nil {
			return err
		}
	}

	return lastErr
}

// normalize maps non-gateway errors (context deadlines, transport failures)
// into the retryable timeout variant.
func normalize(err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return gateway.NewTimeoutError("request timed out", err)
	}
	return gateway.NewTimeoutError("network error", err)
}

// newSchedule builds a deterministic doubling schedule capped at max:
// initial, initial*2, initial*4, ... up to max.
func newSchedule(initial, max time.Duration) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initial
	eb.MaxInterval = max
	eb.Multiplier = 2.0
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.Reset()
	return eb
}

// waitFor waits for the specified delay, respecting context cancellation.
func waitFor(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
