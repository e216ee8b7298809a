package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatalf("first two requests must pass")
	}
	if l.Allow("u1") {
		t.Fatalf("third request must be limited")
	}
	if !l.Allow("u2") {
		t.Fatalf("other callers have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("u1") {
		t.Fatalf("window must slide")
	}
}

func TestAnonymousIsNotLimited(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()
	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty key must always pass")
		}
	}
}

func TestStrictBudgetIsSeparate(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()
	if !l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("first strict request must pass")
	}
	if l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("second strict request must be limited")
	}
	if !l.Allow("1.2.3.4") {
		t.Fatalf("regular budget must be unaffected")
	}
}

func TestEvictStale(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("u1")

	now = now.Add(20 * time.Minute)
	l.evictStale(15 * time.Minute)
	if len(l.buckets) != 0 {
		t.Fatalf("expected stale bucket evicted")
	}
}
