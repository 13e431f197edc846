// Package monitoring tracks run outcomes for watch mode and serves them over
// the health endpoint.
package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	totalRuns      int
	degradedRuns   int
	log            *logrus.Entry
}

func NewMonitor(log *logrus.Entry) *Monitor {
	return &Monitor{log: log}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.totalRuns++
	m.mu.Unlock()

	m.log.WithField("duration", duration).Infof("Run completed: %s", summary)
}

// RecordPartialFailure notes a degraded run. Degraded runs still produced
// output, so health status is unchanged.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunTime = time.Now()
	m.totalRuns++
	m.degradedRuns++
	m.mu.Unlock()

	m.log.WithError(err).WithField("duration", duration).Warn("Run degraded")
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.totalRuns++
	m.mu.Unlock()

	m.log.WithError(err).WithField("duration", duration).Error("Run failed")
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	status := "ok"
	if !m.lastRunSuccess {
		status = "failed"
	}
	return fmt.Sprintf("last run %s at %s (%d runs, %d degraded)",
		status, m.lastRunTime.Format("Jan 2 15:04"), m.totalRuns, m.degradedRuns)
}
