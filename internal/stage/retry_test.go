package stage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	t.Run("zero value runs once", func(t *testing.T) {
		var calls int
		err := RetryPolicy{}.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("nope")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("stops at max attempts", func(t *testing.T) {
		var calls int
		p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("persistent")
		})
		if err == nil || err.Error() != "persistent" {
			t.Errorf("err = %v, want last failure", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("returns nil on eventual success", func(t *testing.T) {
		var calls int
		p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("cancellation interrupts backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Hour}

		done := make(chan error, 1)
		go func() {
			done <- p.Do(ctx, func(ctx context.Context) error {
				return errors.New("always")
			})
		}()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Do did not return after cancellation")
		}
	})
}
