package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	boom := errors.New("redis down")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.GetState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected fast fail while open, err=%v called=%v", err, called)
	}
}

func TestHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, 10*time.Millisecond)
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", cb.GetState())
	}
	want := []string{"closed>open", "open>half_open", "half_open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("unexpected transitions %v", transitions)
		}
	}
}

func TestCancellationIsNotAFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Hour)
	_ = cb.Execute(func() error { return context.Canceled })
	if cb.GetState() != StateClosed {
		t.Fatalf("cancelled call opened the circuit")
	}
}

func TestHalfOpenAdmitsOneProbe(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(1, 2, time.Minute)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("fail") })
	now = now.Add(2 * time.Minute)

	var second error
	err := cb.Execute(func() error {
		second = cb.Execute(func() error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("probe rejected: %v", err)
	}
	if !errors.Is(second, ErrOpen) {
		t.Fatalf("expected concurrent probe to be rejected, got %v", second)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("one success of two should stay half-open, got %s", cb.GetState())
	}

	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.GetState() != StateOpen {
		t.Fatalf("failed probe should reopen, got %s", cb.GetState())
	}
}
