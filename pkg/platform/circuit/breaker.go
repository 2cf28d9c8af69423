// Package circuit guards outbound calls (audit stream producers) with a
// circuit breaker and bounded retries.
package circuit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State mirrors the breaker state for logs and metrics.
type State string

const (
	StateClosed   State = "closed"
	StateHalfOpen State = "half_open"
	StateOpen     State = "open"
)

// Breaker wraps one gobreaker instance. Failures that survive the retry
// budget count against the breaker once.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]

	failureThreshold uint32
	openTimeout      time.Duration
	halfOpenRequests uint32

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	retryable      func(error) bool

	logger        *slog.Logger
	onStateChange func(State)
}

type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithOpenTimeout sets how long the circuit stays open before probing.
func WithOpenTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.openTimeout = d
		}
	}
}

// WithHalfOpenRequests sets how many probe calls pass while half-open.
func WithHalfOpenRequests(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.halfOpenRequests = n
		}
	}
}

// WithRetry retries retryable failures with exponential backoff capped at max.
func WithRetry(attempts int, initial, max time.Duration, retryable func(error) bool) Option {
	return func(b *Breaker) {
		if attempts > 0 {
			b.maxAttempts = attempts
		}
		b.initialBackoff = initial
		b.maxBackoff = max
		if retryable != nil {
			b.retryable = retryable
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// WithStateHook is called on every state transition, after logging.
func WithStateHook(fn func(State)) Option {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

// New builds a breaker. Defaults: open after 5 consecutive failures, stay open
// 30s, one probe while half-open, no retries.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		openTimeout:      30 * time.Second,
		halfOpenRequests: 1,
		maxAttempts:      1,
		retryable:        func(err error) bool { return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) },
	}
	for _, opt := range opts {
		opt(b)
	}

	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: b.halfOpenRequests,
		Timeout:     b.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if b.logger != nil {
				b.logger.Warn("circuit breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			}
			if b.onStateChange != nil {
				b.onStateChange(stateOf(to))
			}
		},
	})
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State { return stateOf(b.cb.State()) }

func (b *Breaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// Execute runs fn through the breaker. While open, fn is not called and the
// returned error satisfies IsOpen.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.withRetry(ctx, fn)
	})
	return err
}

func (b *Breaker) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := b.initialBackoff
	var err error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == b.maxAttempts || !b.retryable(err) {
			return err
		}

		wait := min(backoff, b.maxBackoff)
		if b.logger != nil {
			b.logger.Debug("retrying call", "breaker", b.name, "attempt", attempt, "backoff_ms", wait.Milliseconds(), "error", err)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
		backoff *= 2
	}
	return err
}

// IsOpen reports whether err came from a rejected call rather than fn.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
