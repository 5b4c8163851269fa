package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxAttempts != 3 || p.Delay != 5*time.Second {
		t.Fatalf("unexpected default policy: %+v", p)
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "ok", nil
	}, func(int, error) {
		t.Fatal("onFailure called on success")
	})
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	var attempts []int
	var failures []int
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, func(ctx context.Context, attempt int) (int, error) {
		attempts = append(attempts, attempt)
		if attempt <= 3 {
			return 0, errBoom
		}
		return 42, nil
	}, func(attempt int, err error) {
		failures = append(failures, attempt)
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want *ExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("exhausted error does not wrap last failure: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("op called %d times, want 3 (attempts %v)", len(attempts), attempts)
	}
	if len(failures) != 3 || failures[0] != 1 || failures[2] != 3 {
		t.Fatalf("unexpected failure callbacks: %v", failures)
	}
}

func TestDoRecoversAfterOneFailure(t *testing.T) {
	failures := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, func(ctx context.Context, attempt int) (int, error) {
		if attempt == 1 {
			return 0, errBoom
		}
		return attempt, nil
	}, func(attempt int, err error) {
		failures++
		if attempt != 1 || !errors.Is(err, errBoom) {
			t.Errorf("unexpected failure callback: %d %v", attempt, err)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
}

func TestDoTreatsNonPositiveAttemptsAsOne(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 0}, func(ctx context.Context, attempt int) (struct{}, error) {
		calls++
		return struct{}{}, errBoom
	}, nil)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 1 {
		t.Fatalf("error = %v, want exhausted after 1 attempt", err)
	}
}

func TestDoCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, Policy{MaxAttempts: 3, Delay: time.Hour}, func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, errBoom
		}, func(int, error) { cancel() })
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if !errors.Is(err, errBoom) {
			t.Fatalf("error = %v, want last failure joined", err)
		}
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			t.Fatal("cancelled run reported as exhausted")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, DefaultPolicy(), func(ctx context.Context, attempt int) (int, error) {
		t.Fatal("op called with cancelled context")
		return 0, nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
