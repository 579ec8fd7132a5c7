package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowLimiter(t *testing.T) {
	rl := NewFixedWindowLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if allow, _ := rl.Allow("client-1"); !allow {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allow, retryAfter := rl.Allow("client-1")
	if allow {
		t.Fatal("fourth request inside the window should be throttled")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected a positive retry-after, got %v", retryAfter)
	}

	// A different client has its own window.
	if allow, _ := rl.Allow("client-2"); !allow {
		t.Fatal("separate clients must not share a counter")
	}

	time.Sleep(60 * time.Millisecond)

	if allow, _ := rl.Allow("client-1"); !allow {
		t.Fatal("window elapsed, request should be allowed again")
	}
}
