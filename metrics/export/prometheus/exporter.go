package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	credauth "github.com/fathallahma/mspr-manager-projet"
)

type metricsSource interface {
	MetricsSnapshot() credauth.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	ID   credauth.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{ID: credauth.MetricAuthSuccess, Name: "credauth_auth_success_total", Help: "Successful authentications."},
	{ID: credauth.MetricAuthFailure, Name: "credauth_auth_failure_total", Help: "Failed authentications (unknown user or password mismatch)."},
	{ID: credauth.MetricAuthMissingCredentials, Name: "credauth_auth_missing_credentials_total", Help: "Authentication attempts with empty username or password."},
	{ID: credauth.MetricAccountExpired, Name: "credauth_account_expired_total", Help: "Authentications rejected by the inactivity policy."},
	{ID: credauth.MetricSecondFactorRequired, Name: "credauth_second_factor_required_total", Help: "Authentications halted awaiting a second factor code."},
	{ID: credauth.MetricSecondFactorFailure, Name: "credauth_second_factor_failure_total", Help: "Failed second factor verifications."},
	{ID: credauth.MetricSecondFactorSuccess, Name: "credauth_second_factor_success_total", Help: "Successful second factor verifications."},
	{ID: credauth.MetricDecryptFault, Name: "credauth_decrypt_fault_total", Help: "Stored secret envelopes that failed authenticated decryption."},
	{ID: credauth.MetricDigestUpgraded, Name: "credauth_digest_upgraded_total", Help: "Legacy password digests rewritten to the current format."},
	{ID: credauth.MetricEnrollSuccess, Name: "credauth_enroll_success_total", Help: "Successful second factor enrollments."},
	{ID: credauth.MetricEnrollRejected, Name: "credauth_enroll_rejected_total", Help: "Rejected second factor enrollments."},
	{ID: credauth.MetricAccountProvisioned, Name: "credauth_account_provisioned_total", Help: "Provisioned accounts."},
}

var histogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// Exporter defines a public type used by credauth APIs.
//
// Exporter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Exporter struct {
	source metricsSource
}

// NewExporter describes the newexporter operation and its observable behavior.
//
// NewExporter may return an error when input validation, dependency calls, or security checks fail.
// NewExporter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewExporter(engine *credauth.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource describes the newexporterfromsource operation and its observable behavior.
//
// NewExporterFromSource may return an error when input validation, dependency calls, or security checks fail.
// NewExporterFromSource does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler describes the handler operation and its observable behavior.
//
// Handler may return an error when input validation, dependency calls, or security checks fail.
// Handler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render describes the render operation and its observable behavior.
//
// Render may return an error when input validation, dependency calls, or security checks fail.
// Render does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	if buckets, ok := snapshot.Histograms[credauth.MetricAuthenticateLatency]; ok {
		writeHistogram(&b, "credauth_authenticate_latency_seconds", "Authenticate latency histogram.", cumulative(buckets))
	}

	writeCounter(&b, "credauth_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func cumulative(buckets []uint64) []uint64 {
	out := make([]uint64, len(histogramBounds))
	var running uint64
	for i := range out {
		if i < len(buckets) {
			running += buckets[i]
		}
		out[i] = running
	}
	return out
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative []uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" histogram\n")

	for i, le := range histogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Sum is not tracked in core snapshots; keep a stable field for scrapers.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
