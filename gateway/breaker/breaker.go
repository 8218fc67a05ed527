// Package breaker implements the per-provider circuit breaker used by the
// retry executor to stop hammering a backend that is already failing.
package breaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Defaults for breaker configuration.
const (
	DefaultFailureThreshold = 3
	DefaultFailureWindow    = 60 * time.Second
	DefaultResetTimeout     = 30 * time.Second
)

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures within
	// FailureWindow that trips the breaker open.
	FailureThreshold int

	// FailureWindow is the sliding window for counting consecutive
	// failures. A failure landing after the window has elapsed since the
	// first failure resets the counter to 1 instead of accumulating, so
	// well-spaced intermittent failures do not trip the breaker.
	FailureWindow time.Duration

	// ResetTimeout is how long an open breaker waits before the next
	// Check admits a probe (half-open).
	ResetTimeout time.Duration
}

// Breaker is a per-provider failure-tracking state machine. One instance is
// owned by each provider adapter; state lives in process memory only, so a
// cold-started breaker is closed.
//
// The half-open state admits probes without serializing them: concurrent
// callers that all observe half-open may all probe. The cost is at most one
// extra call to an already-failing backend.
type Breaker struct {
	failureThreshold int
	failureWindow    time.Duration
	resetTimeout     time.Duration
	logger           zerolog.Logger
	now              func() time.Time

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	firstFailureAt      time.Time
	openedAt            time.Time
}

// New creates a Breaker in the closed state. Zero config fields fall back to
// the defaults.
func New(cfg Config, logger zerolog.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = DefaultFailureWindow
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}

	return &Breaker{
		failureThreshold: cfg.FailureThreshold,
		failureWindow:    cfg.FailureWindow,
		resetTimeout:     cfg.ResetTimeout,
		logger:           logger.With().Str("component", "circuitBreaker").Logger(),
		now:              time.Now,
		state:            StateClosed,
	}
}

// Check gates one attempt. It returns a circuit-open error while the breaker
// is open and the reset timeout has not elapsed; once it has, the breaker
// moves to half-open and the attempt proceeds as a probe. The open to
// half-open transition happens lazily on Check, not on a timer.
func (b *Breaker) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.setState(StateHalfOpen)
		b.logger.Info().Msg("Circuit breaker half-open, admitting probe")
		return nil
	}

	return gateway.NewCircuitOpenError("circuit breaker is open")
}

// OnSuccess records a successful attempt. Any success closes the breaker and
// resets the failure count.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.logger.Info().Str("from", string(b.state)).Msg("Circuit breaker closed")
	}
	b.setState(StateClosed)
	b.consecutiveFailures = 0
	b.firstFailureAt = time.Time{}
}

// OnFailure records a failed attempt, advancing the failure count and
// opening the breaker when the threshold is reached within the window. A
// half-open probe failure re-opens immediately, resetting openedAt.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if b.state == StateHalfOpen {
		b.logger.Warn().Msg("Circuit breaker probe failed, re-opening")
		b.open(now)
		return
	}

	if b.consecutiveFailures == 0 || now.Sub(b.firstFailureAt) > b.failureWindow {
		// Outside the window: start a fresh count rather than accumulating.
		b.consecutiveFailures = 1
		b.firstFailureAt = now
	} else {
		b.consecutiveFailures++
	}

	if b.state == StateClosed && b.consecutiveFailures >= b.failureThreshold {
		b.logger.Warn().
			Int("consecutive_failures", b.consecutiveFailures).
			Int("threshold", b.failureThreshold).
			Msg("Circuit breaker opened")
		b.open(now)
	}
}

// State returns the current state. An open breaker whose reset timeout has
// elapsed still reports open until the next Check admits a probe.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// open must be called with b.mu held.
func (b *Breaker) open(now time.Time) {
	b.setState(StateOpen)
	b.openedAt = now
	b.consecutiveFailures = 0
	b.firstFailureAt = time.Time{}
}

// setState must be called with b.mu held.
func (b *Breaker) setState(s State) {
	b.state = s
}
