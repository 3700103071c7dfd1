package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.StatusTransition("course", "pending", "published")
	m.StatusTransition("course", "pending", "published")
	m.Claim("linked")
	m.Merge(3)
	m.OutboxDelivery("admin_email", false)

	body := scrape(t, m)
	for _, want := range []string{
		`formations_status_transitions_total{from="pending",kind="course",to="published"} 2`,
		`formations_profile_claims_total{outcome="linked"} 1`,
		`formations_profile_merges_total 1`,
		`formations_profile_merged_courses_total 3`,
		`formations_outbox_deliveries_total{action="admin_email",result="failure"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.StatusTransition("course", "pending", "published")
	m.Claim("created")
	m.Merge(1)
	m.CatalogLoad()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d", rec.Code)
	}
}
