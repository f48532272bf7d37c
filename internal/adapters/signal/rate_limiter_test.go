package signal

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesWindow(t *testing.T) {
	rl := NewRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("attempt %d blocked below limit", i)
		}
	}
	if rl.Allow("u1") {
		t.Fatal("attempt above limit allowed")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Error("blocked after window expired")
	}
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("u1") {
		t.Fatal("first user blocked")
	}
	if !rl.Allow("u2") {
		t.Error("second user throttled by first user's budget")
	}
	if rl.Allow("u1") {
		t.Error("first user allowed past limit")
	}
}
