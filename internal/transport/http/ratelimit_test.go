package http

import "testing"

func TestRateLimiterEnforcesBudget(t *testing.T) {
	limiter := newRateLimiter(2)

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("first two messages should be allowed")
	}
	if limiter.allow() {
		t.Fatal("third message should be rejected")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0)

	for range 100 {
		if !limiter.allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}
}
