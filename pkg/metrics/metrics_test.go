package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionStarted()
	m.RoundAdvanced()
	m.SessionFinalized("max_rounds", "non")
	m.SessionMissing()
	m.ObserveClassifier(time.Second, errors.New("boom"))
	m.EventPublished("ppe.verdict", nil)
	m.AttendanceMarked("inserted")
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionFinalized("all_present", "fully")

	if got := testutil.ToFloat64(m.sessionsStarted); got != 2 {
		t.Fatalf("expected 2 sessions started, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsFinalized.WithLabelValues("all_present", "fully")); got != 1 {
		t.Fatalf("expected 1 finalized, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ppeguard_sessions_started_total 2") {
		t.Fatalf("exposition missing counter:\n%s", rec.Body.String())
	}
}
