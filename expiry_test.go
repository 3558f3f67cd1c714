package credauth

import (
	"testing"
	"time"
)

func TestIsExpiredDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if isExpired(now.AddDate(0, 0, -30), 180, now) {
		t.Fatal("30-day-old activity flagged expired under 180-day limit")
	}
	if !isExpired(now.AddDate(0, 0, -200), 180, now) {
		t.Fatal("200-day-old activity not flagged expired under 180-day limit")
	}
	if isExpired(now.AddDate(0, 0, -180), 180, now) {
		t.Fatal("activity exactly at the limit flagged expired")
	}
	if !isExpired(time.Time{}, 180, now) {
		t.Fatal("zero activity timestamp must be expired")
	}
}

func TestIsExpiredCustomLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if isExpired(now.AddDate(0, 0, -5), 7, now) {
		t.Fatal("5-day-old activity flagged expired under 7-day limit")
	}
	if !isExpired(now.AddDate(0, 0, -8), 7, now) {
		t.Fatal("8-day-old activity not flagged expired under 7-day limit")
	}
}
