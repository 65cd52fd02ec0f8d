package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/learnstack/sessionkit"
)

type metricsSource interface {
	MetricsSnapshot() sessionkit.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{sessionkit.MetricSignInSuccess, "sessionkit_signin_success_total", "Successful sign-in operations."},
	{sessionkit.MetricSignInFailure, "sessionkit_signin_failure_total", "Failed sign-in operations."},
	{sessionkit.MetricSignUpSuccess, "sessionkit_signup_success_total", "Successful sign-up operations."},
	{sessionkit.MetricSignUpFailure, "sessionkit_signup_failure_total", "Failed sign-up operations."},
	{sessionkit.MetricSignOut, "sessionkit_signout_total", "Sign-out operations."},
	{sessionkit.MetricRefreshSuccess, "sessionkit_refresh_success_total", "Successful credential refreshes."},
	{sessionkit.MetricRefreshFailure, "sessionkit_refresh_failure_total", "Failed credential refreshes."},
	{sessionkit.MetricRefreshLoopBreak, "sessionkit_refresh_loop_break_total", "Forced sign-outs after a rejected fresh credential."},
	{sessionkit.MetricRestoreAuthenticated, "sessionkit_restore_authenticated_total", "Restores that settled authenticated."},
	{sessionkit.MetricRestoreUnauthenticated, "sessionkit_restore_unauthenticated_total", "Restores that settled unauthenticated."},
	{sessionkit.MetricRestoreRefreshed, "sessionkit_restore_refreshed_total", "Restores that refreshed an expired credential."},
	{sessionkit.MetricStorageDegraded, "sessionkit_storage_degraded_total", "Degradations to memory-only session storage."},
	{sessionkit.MetricProfileUpdateSuccess, "sessionkit_profile_update_success_total", "Successful profile updates."},
	{sessionkit.MetricProfileUpdateFailure, "sessionkit_profile_update_failure_total", "Failed profile updates."},
	{sessionkit.MetricPreferencesUpdateSuccess, "sessionkit_preferences_update_success_total", "Successful preferences updates."},
	{sessionkit.MetricPreferencesUpdateFailure, "sessionkit_preferences_update_failure_total", "Failed preferences updates."},
	{sessionkit.MetricIdentityReload, "sessionkit_identity_reload_total", "Identity reloads from the backend."},
	{sessionkit.MetricAccountDeleted, "sessionkit_account_deleted_total", "Account deletions."},
	{sessionkit.MetricSessionBusyRejected, "sessionkit_session_busy_rejected_total", "Mutating operations rejected while another was in flight."},
}

// PrometheusExporter renders sessionkit metrics in Prometheus text exposition
// format.
//
// PrometheusExporter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the
// given [sessionkit.Controller].
func NewPrometheusExporter(controller *sessionkit.Controller) *PrometheusExporter {
	return &PrometheusExporter{source: controller}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from a custom
// metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	writeCounter(&b, "sessionkit_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
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

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}
