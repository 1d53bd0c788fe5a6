package netclient

import (
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 30 * time.Second}
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for attempt, w := range want {
		if got := b.Delay(attempt); got != w {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffLargeAttemptStaysCapped(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 30 * time.Second}
	if got := b.Delay(100); got != 30*time.Second {
		t.Fatalf("Delay(100) = %v, want 30s", got)
	}
}
