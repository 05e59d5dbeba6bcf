package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPoll(t *testing.T) {
	m := New()

	m.RecordPollSuccess("Finnhub", "AAPL")
	m.RecordPollSuccess("Finnhub", "AAPL")
	m.RecordPollFailure("Finnhub", "BAD", StageTransform)

	success := m.polls.WithLabelValues("Finnhub", "AAPL", "success", "")
	if got := testutil.ToFloat64(success); got != 2 {
		t.Errorf("success counter = %v, want 2", got)
	}

	failure := m.polls.WithLabelValues("Finnhub", "BAD", "failure", StageTransform)
	if got := testutil.ToFloat64(failure); got != 1 {
		t.Errorf("failure counter = %v, want 1", got)
	}
}

func TestRecordPublish(t *testing.T) {
	m := New()

	m.RecordPublish("rabbitmq", nil)
	m.RecordPublish("rabbitmq", errors.New("broker down"))

	if got := testutil.ToFloat64(m.publishes.WithLabelValues("rabbitmq", "success")); got != 1 {
		t.Errorf("publish success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.publishes.WithLabelValues("rabbitmq", "failure")); got != 1 {
		t.Errorf("publish failure = %v, want 1", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.RecordPollSuccess("IEX", "MSFT")
	m.ObserveCycle(1.5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "stockpoller_polls_total") {
		t.Error("exposition missing stockpoller_polls_total")
	}
	if !strings.Contains(body, "stockpoller_cycle_duration_seconds") {
		t.Error("exposition missing stockpoller_cycle_duration_seconds")
	}
}
