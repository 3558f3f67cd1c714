package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	credauth "github.com/fathallahma/mspr-manager-projet"
)

type stubSource struct {
	snapshot credauth.MetricsSnapshot
	dropped  uint64
}

func (s stubSource) MetricsSnapshot() credauth.MetricsSnapshot { return s.snapshot }
func (s stubSource) AuditDropped() uint64                      { return s.dropped }

func TestRenderCounters(t *testing.T) {
	exporter := NewExporterFromSource(stubSource{
		snapshot: credauth.MetricsSnapshot{
			Counters: map[credauth.MetricID]uint64{
				credauth.MetricAuthSuccess:    7,
				credauth.MetricAccountExpired: 2,
			},
			Histograms: map[credauth.MetricID][]uint64{},
		},
		dropped: 3,
	})

	out := exporter.Render()
	for _, want := range []string{
		"# TYPE credauth_auth_success_total counter",
		"credauth_auth_success_total 7",
		"credauth_account_expired_total 2",
		"credauth_auth_failure_total 0",
		"credauth_audit_dropped_total 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistogramCumulative(t *testing.T) {
	exporter := NewExporterFromSource(stubSource{
		snapshot: credauth.MetricsSnapshot{
			Counters: map[credauth.MetricID]uint64{},
			Histograms: map[credauth.MetricID][]uint64{
				credauth.MetricAuthenticateLatency: {1, 0, 2, 0, 0, 0, 0, 1},
			},
		},
	})

	out := exporter.Render()
	for _, want := range []string{
		"# TYPE credauth_authenticate_latency_seconds histogram",
		`credauth_authenticate_latency_seconds_bucket{le="0.005"} 1`,
		`credauth_authenticate_latency_seconds_bucket{le="0.025"} 3`,
		`credauth_authenticate_latency_seconds_bucket{le="+Inf"} 4`,
		"credauth_authenticate_latency_seconds_count 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	exporter := NewExporterFromSource(stubSource{
		snapshot: credauth.MetricsSnapshot{
			Counters:   map[credauth.MetricID]uint64{},
			Histograms: map[credauth.MetricID][]uint64{},
		},
	})

	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output for idle source, got:\n%s", out)
	}
}

func TestHandlerContentType(t *testing.T) {
	exporter := NewExporterFromSource(stubSource{
		snapshot: credauth.MetricsSnapshot{
			Counters:   map[credauth.MetricID]uint64{credauth.MetricAuthSuccess: 1},
			Histograms: map[credauth.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type: %q", got)
	}
	if !strings.Contains(rec.Body.String(), "credauth_auth_success_total 1") {
		t.Fatalf("handler body missing counter:\n%s", rec.Body.String())
	}
}
