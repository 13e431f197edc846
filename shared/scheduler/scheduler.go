// Package scheduler runs an agent on a cron schedule for watch mode, with a
// health endpoint reporting the outcome of the last run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"tubeinsight/shared/config"
	"tubeinsight/shared/monitoring"
)

// Metrics is what an agent reports after a run.
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution.
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent is the unit of scheduled work.
type Agent interface {
	Name() string
	Initialize(ctx context.Context) error
	RunOnce(ctx context.Context, events *AgentEvents) error
}

// Scheduler manages the execution of an agent on a schedule.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
	log     *logrus.Entry
}

func New(cfg *config.Config, agent Agent, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(log),
		agent:   agent,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		log:  log,
	}
}

// Start blocks until ctx is cancelled, running the agent on the configured
// cron schedule and serving health checks in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, fmt.Sprintf("%d", s.config.Watch.HealthPort), s.log)
	healthServer.Start()

	_, err := s.cron.AddFunc(s.config.Watch.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Errorf("Scheduled run failed for %s", s.agent.Name())
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"agent":    s.agent.Name(),
		"schedule": s.config.Watch.Schedule,
	}).Info("Scheduler started")
	s.cron.Start()

	<-ctx.Done()
	s.log.Infof("Scheduler stopped for %s", s.agent.Name())
	s.cron.Stop()
	return ctx.Err()
}

// RunOnce executes a single agent run with monitoring callbacks wired in.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.log.Infof("Starting %s run", agentName)

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
