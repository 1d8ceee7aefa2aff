package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeStatus struct{ code int }

func (e *fakeStatus) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *fakeStatus) StatusCode() int { return e.code }

// recorder captures waits and progress lines without sleeping.
type recorder struct {
	waits    []time.Duration
	messages []string
}

func (r *recorder) caller(p Policy) *Caller {
	return New(p,
		WithSleeper(func(_ context.Context, d time.Duration) error {
			r.waits = append(r.waits, d)
			return nil
		}),
		WithJitter(func(time.Duration) time.Duration { return 0 }),
	)
}

func (r *recorder) report(msg string) { r.messages = append(r.messages, msg) }

func TestDo_SuccessFirstTry(t *testing.T) {
	rec := &recorder{}
	calls := 0
	got, err := Do(context.Background(), rec.caller(Policy{}), rec.report, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Do = %q, %v", got, err)
	}
	if calls != 1 || len(rec.messages) != 0 {
		t.Errorf("calls = %d, messages = %v", calls, rec.messages)
	}
}

func TestDo_RecoversAfterTransientFailures(t *testing.T) {
	for failures := 0; failures < 3; failures++ {
		rec := &recorder{}
		calls := 0
		_, err := Do(context.Background(), rec.caller(Policy{MaxRetries: 3, InitialDelay: time.Second}), rec.report,
			func(context.Context) (int, error) {
				calls++
				if calls <= failures {
					return 0, errors.New("[503 Service Unavailable] overloaded")
				}
				return 42, nil
			})
		if err != nil {
			t.Fatalf("failures=%d: unexpected error %v", failures, err)
		}
		if want := min(failures+1, 3); calls != want {
			t.Errorf("failures=%d: calls = %d, want %d", failures, calls, want)
		}
		if len(rec.messages) != failures || len(rec.waits) != failures {
			t.Errorf("failures=%d: %d messages, %d waits", failures, len(rec.messages), len(rec.waits))
		}
	}
}

func TestDo_ExhaustsAfterMaxRetries(t *testing.T) {
	rec := &recorder{}
	calls := 0
	_, err := Do(context.Background(), rec.caller(Policy{MaxRetries: 3, InitialDelay: 2 * time.Second}), rec.report,
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("GoogleGenerativeAI Error: [503 Service Unavailable] try later")
		})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	var ee *ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *ExhaustedError", err)
	}
	if ee.Attempts != 3 || !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error = %q", err.Error())
	}
	if len(rec.messages) != 2 {
		t.Errorf("progress messages = %d, want 2", len(rec.messages))
	}
	if !strings.Contains(rec.messages[0], "attempt 1") || !strings.Contains(rec.messages[0], "2.0s") {
		t.Errorf("first message = %q", rec.messages[0])
	}
}

func TestDo_BackoffDoubles(t *testing.T) {
	rec := &recorder{}
	_, _ = Do(context.Background(), rec.caller(Policy{MaxRetries: 4, InitialDelay: 100 * time.Millisecond}), nil,
		func(context.Context) (int, error) { return 0, &fakeStatus{code: 502} })
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(rec.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, rec.waits[i], want[i])
		}
	}
}

func TestDo_NonTransientReturnedUnchanged(t *testing.T) {
	cases := []error{
		errors.New("[400 Bad Request] invalid argument"),
		errors.New("[401 Unauthorized] API key not valid"),
		&fakeStatus{code: 429},
		errors.New("unexpected end of JSON input"),
	}
	for _, orig := range cases {
		rec := &recorder{}
		calls := 0
		_, err := Do(context.Background(), rec.caller(Policy{}), rec.report, func(context.Context) (int, error) {
			calls++
			return 0, orig
		})
		if err != orig {
			t.Errorf("err = %v, want original %v", err, orig)
		}
		if calls != 1 || len(rec.messages) != 0 {
			t.Errorf("%v: calls = %d, messages = %d", orig, calls, len(rec.messages))
		}
	}
}

func TestDo_JitterBounded(t *testing.T) {
	var waits []time.Duration
	c := New(Policy{MaxRetries: 2, InitialDelay: time.Second},
		WithSleeper(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}))
	for i := 0; i < 50; i++ {
		_, _ = Do(context.Background(), c, nil, func(context.Context) (int, error) { return 0, &fakeStatus{code: 500} })
	}
	for _, w := range waits {
		if w < time.Second || w > 1200*time.Millisecond {
			t.Fatalf("wait %v outside [1s, 1.2s]", w)
		}
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(Policy{MaxRetries: 3, InitialDelay: time.Hour})
	calls := 0
	_, err := Do(ctx, c, nil, func(context.Context) (int, error) {
		calls++
		return 0, &fakeStatus{code: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := map[string]bool{
		"[500 Internal Server Error] x": true,
		"[503]":                         true,
		"fetch failed: [599 custom]":    true,
		"[404 Not Found]":               false,
		"[5000]":                        false,
		"status 503 without brackets":   false,
	}
	for msg, want := range cases {
		if got := IsTransient(errors.New(msg)); got != want {
			t.Errorf("IsTransient(%q) = %v, want %v", msg, got, want)
		}
	}
	if !IsTransient(fmt.Errorf("wrapped: %w", &fakeStatus{code: 504})) {
		t.Error("typed 504 should be transient")
	}
	if IsTransient(&fakeStatus{code: 400}) {
		t.Error("typed 400 should not be transient")
	}
}

func TestPolicyNormalize(t *testing.T) {
	p := Policy{}.Normalize()
	if p.MaxRetries != DefaultMaxRetries || p.InitialDelay != DefaultInitialDelay {
		t.Errorf("Normalize() = %+v", p)
	}
}
