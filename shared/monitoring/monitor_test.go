package monitoring

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

func TestMonitorHealthTransitions(t *testing.T) {
	m := NewMonitor(testLog())

	if !m.IsHealthy() {
		t.Error("a monitor with no runs should report healthy")
	}

	m.RecordSuccess("1 video processed", time.Second)
	if !m.IsHealthy() {
		t.Error("successful run should be healthy")
	}

	// Degraded runs still produced output; health is unchanged.
	m.RecordPartialFailure(errors.New("2 of 5 videos degraded"), time.Second)
	if !m.IsHealthy() {
		t.Error("partial failure should not flip health")
	}

	m.RecordCriticalFailure(errors.New("input file unreadable"), time.Second)
	if m.IsHealthy() {
		t.Error("critical failure should flip health")
	}

	m.RecordSuccess("recovered", time.Second)
	if !m.IsHealthy() {
		t.Error("success after failure should restore health")
	}
}

func TestMonitorStatusSummary(t *testing.T) {
	m := NewMonitor(testLog())

	if m.GetStatusSummary() != "No runs yet" {
		t.Errorf("summary = %q", m.GetStatusSummary())
	}

	m.RecordSuccess("done", time.Second)
	m.RecordPartialFailure(errors.New("degraded"), time.Second)

	summary := m.GetStatusSummary()
	if !strings.Contains(summary, "2 runs") || !strings.Contains(summary, "1 degraded") {
		t.Errorf("summary = %q", summary)
	}
}

func TestHealthHandler(t *testing.T) {
	m := NewMonitor(testLog())
	h := NewHealthServer(m, "0", testLog())

	rec := httptest.NewRecorder()
	h.healthHandler(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 200 {
		t.Errorf("healthy status = %d", rec.Code)
	}

	m.RecordCriticalFailure(errors.New("boom"), time.Second)
	rec = httptest.NewRecorder()
	h.healthHandler(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("unhealthy status = %d", rec.Code)
	}
}
