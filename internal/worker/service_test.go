package worker

import (
	"testing"
	"time"
)

func TestMinutesOrDefault(t *testing.T) {
	if got := minutesOrDefault(45, 30); got != 45*time.Minute {
		t.Fatalf("expected 45m, got %v", got)
	}
	if got := minutesOrDefault(0, 30); got != 30*time.Minute {
		t.Fatalf("expected fallback 30m, got %v", got)
	}
	if got := minutesOrDefault(-5, 30); got != 30*time.Minute {
		t.Fatalf("expected fallback for negative value, got %v", got)
	}
}

func TestHoursOrDefault(t *testing.T) {
	if got := hoursOrDefault(12, 24); got != 12*time.Hour {
		t.Fatalf("expected 12h, got %v", got)
	}
	if got := hoursOrDefault(0, 24); got != 24*time.Hour {
		t.Fatalf("expected fallback 24h, got %v", got)
	}
}
