// Package retry runs remote calls with exponential backoff on transient
// server-side failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// Defaults applied to zero-valued Policy fields.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 2 * time.Second
	jitterFraction      = 0.2
)

// serverErrorRe matches the "[5xx" status marker providers put in messages.
var serverErrorRe = regexp.MustCompile(`\[5\d\d\b[^\]]*\]`)

// Policy controls how many times a call is attempted and how long to wait.
type Policy struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries   int
	InitialDelay time.Duration
}

// Normalize fills zero or negative fields with defaults.
func (p Policy) Normalize() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	return p
}

// Reporter receives human-readable progress lines. It must not block.
type Reporter func(msg string)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// Caller executes functions under a Policy.
type Caller struct {
	policy Policy
	sleep  Sleeper
	jitter func(max time.Duration) time.Duration
}

// Option customises a Caller.
type Option func(*Caller)

// WithSleeper replaces the context-aware timer wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(c *Caller) { c.sleep = s }
}

// WithJitter replaces the random jitter source.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(c *Caller) { c.jitter = fn }
}

// New creates a Caller for the policy.
func New(p Policy, opts ...Option) *Caller {
	c := &Caller{
		policy: p.Normalize(),
		sleep:  sleepCtx,
		jitter: randomJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the normalised policy.
func (c *Caller) Policy() Policy {
	return c.policy
}

// Do invokes fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. Non-transient errors are returned unchanged.
func Do[T any](ctx context.Context, c *Caller, report Reporter, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if report == nil {
		report = func(string) {}
	}
	delay := c.policy.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxRetries; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err
		if attempt == c.policy.MaxRetries {
			break
		}

		wait := delay + c.jitter(time.Duration(float64(delay)*jitterFraction))
		report(fmt.Sprintf("Server error on attempt %d of %d, retrying in %.1fs...",
			attempt, c.policy.MaxRetries, wait.Seconds()))
		if err := c.sleep(ctx, wait); err != nil {
			return zero, err
		}
		delay *= 2
	}
	return zero, &ExhaustedError{Attempts: c.policy.MaxRetries, Err: lastErr}
}

// statusCoder is implemented by typed provider errors such as llm.StatusError.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err is a 5xx-class server error. A typed status
// code wins; otherwise the message is checked for a "[5xx]" marker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code >= 500 && code <= 599
	}
	return serverErrorRe.MatchString(err.Error())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}
