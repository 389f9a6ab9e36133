package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	original := after
	defer func() { after = original }()

	var waited time.Duration
	after = func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != 0 {
		t.Fatalf("expected no wait for zero duration, got %v", waited)
	}

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != 3*time.Second {
		t.Fatalf("expected 3s wait, got %v", waited)
	}
}

func TestWaitForCancelled(t *testing.T) {
	original := after
	defer func() { after = original }()

	after = func(time.Duration) <-chan time.Time { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero duration, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		limit   time.Duration
		expect  time.Duration
	}{
		{attempt: 0, limit: time.Minute, expect: 2 * time.Second},
		{attempt: 1, limit: time.Minute, expect: 2 * time.Second},
		{attempt: 3, limit: time.Minute, expect: 8 * time.Second},
		{attempt: 10, limit: 30 * time.Second, expect: 30 * time.Second},
		{attempt: 4, limit: 0, expect: 16 * time.Second},
	}

	for _, tt := range tests {
		if got := Backoff(2*time.Second, tt.limit, tt.attempt); got != tt.expect {
			t.Fatalf("attempt %d: expected %v, got %v", tt.attempt, tt.expect, got)
		}
	}
}
