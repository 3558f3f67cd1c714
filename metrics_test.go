package credauth

import (
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricAuthSuccess)
	m.Observe(MetricAuthenticateLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("disabled metrics report enabled")
	}
	if m.Value(MetricAuthSuccess) != 0 {
		t.Fatal("disabled metrics recorded a counter")
	}
	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", s)
	}
}

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAccountExpired)

	if got := m.Value(MetricAuthSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	s := m.Snapshot()
	if s.Counters[MetricAuthSuccess] != 2 || s.Counters[MetricAccountExpired] != 1 {
		t.Fatalf("unexpected snapshot counters: %+v", s.Counters)
	}
	if s.Counters[MetricAuthFailure] != 0 {
		t.Fatalf("untouched counter nonzero: %d", s.Counters[MetricAuthFailure])
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricAuthenticateLatency, 2*time.Millisecond)
	m.Observe(MetricAuthenticateLatency, 30*time.Millisecond)
	m.Observe(MetricAuthenticateLatency, time.Second)

	buckets := m.Snapshot().Histograms[MetricAuthenticateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[2] != 1 || buckets[histBucketCount-1] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}

	// Observations on other IDs are ignored.
	m.Observe(MetricAuthSuccess, time.Millisecond)
	again := m.Snapshot().Histograms
	if len(again) != 1 {
		t.Fatalf("unexpected histogram set: %v", again)
	}
}

func TestBucketIndexBounds(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{time.Millisecond, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{time.Minute, 7},
	}

	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}
