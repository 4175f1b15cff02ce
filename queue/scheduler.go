package queue

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/sentinela-labs/sentinela/logging"
)

// ScheduledJob is one side-channel entry driving the periodic scheduler:
// every Interval, TaskType and Args are enqueued at Priority onto the
// Scheduler's one Queue; a job cannot name a queue of its own.
type ScheduledJob struct {
	Name     string
	Interval time.Duration
	TaskType string
	Args     map[string]interface{}
	Priority Priority

	lastRun time.Time
}

// Scheduler checks its jobs on a fixed 30-second tick and enqueues each
// due job onto a Queue. When etcdClient is non-nil, only the replica holding the
// election lease actually drives the schedule; the rest idle as standbys
// so N replicas can run without double-firing jobs.
type Scheduler struct {
	queue  *Queue
	jobs   []*ScheduledJob
	logger logging.Logger

	etcdClient   *clientv3.Client
	electionName string

	cancel context.CancelFunc
}

// NewScheduler builds a Scheduler over the given jobs. etcdClient may be
// nil to always run as leader (single-replica deployments).
func NewScheduler(queue *Queue, jobs []*ScheduledJob, etcdClient *clientv3.Client, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &Scheduler{
		queue:        queue,
		jobs:         jobs,
		etcdClient:   etcdClient,
		electionName: "/sentinela/scheduler/leader",
		logger:       logger,
	}
}

// DefaultJobs returns the seeded schedule: result cleanup, health pings,
// and the monitor/historical-reanalysis cadences.
func DefaultJobs() []*ScheduledJob {
	return []*ScheduledJob{
		{Name: "result_cleanup", Interval: 24 * time.Hour, TaskType: "queue.clear_completed", Priority: Background},
		{Name: "health_ping", Interval: 5 * time.Minute, TaskType: "system.health_ping", Priority: Low},
		{Name: "new_contract_monitor", Interval: 6 * time.Hour, TaskType: "monitor.scan_new_contracts", Priority: Normal},
		{Name: "priority_org_monitor", Interval: 4 * time.Hour, TaskType: "monitor.scan_priority_organizations", Priority: High},
		{Name: "historical_reanalysis", Interval: 7 * 24 * time.Hour, TaskType: "monitor.historical_reanalysis", Priority: Background},
		{Name: "auto_investigation_health", Interval: time.Hour, TaskType: "monitor.health_probe", Priority: Low},
		{Name: "external_source_scan", Interval: 6 * time.Hour, TaskType: "monitor.external_source_scan", Priority: Normal},
		{Name: "external_source_health", Interval: time.Hour, TaskType: "monitor.external_source_health_probe", Priority: Low},
	}
}

// Jobs returns the scheduler's job list, for operator inspection (e.g.
// the operational surface's list-scheduled-tasks facade). The returned
// slice shares backing ScheduledJob pointers with the running loop, so
// LastRun reflects live state but callers must not mutate them.
func (s *Scheduler) Jobs() []*ScheduledJob {
	return s.jobs
}

// LastRun reports the job's most recent fire time, or the zero value if
// it has never fired.
func (j *ScheduledJob) LastRun() time.Time {
	return j.lastRun
}

// Start runs the scheduler loop in a goroutine. If an etcd client was
// configured, the loop first campaigns for leadership and only proceeds
// once elected; it steps down (and the goroutine returns) if the
// session expires.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)
}

// Stop signals the scheduler loop to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if s.etcdClient != nil {
		if !s.awaitLeadership(ctx) {
			return
		}
	}
	s.logger.Info("scheduler loop started", map[string]interface{}{"jobs": len(s.jobs)})
	s.loop(ctx)
}

// awaitLeadership blocks until this replica wins the election (or ctx is
// canceled). Returns false if the context was canceled before winning.
func (s *Scheduler) awaitLeadership(ctx context.Context) bool {
	session, err := concurrency.NewSession(s.etcdClient, concurrency.WithTTL(15))
	if err != nil {
		s.logger.Error("failed to create etcd session for leader election", map[string]interface{}{"error": err.Error()})
		return false
	}

	election := concurrency.NewElection(session, s.electionName)
	if err := election.Campaign(ctx, "scheduler"); err != nil {
		s.logger.Warn("leader election campaign aborted", map[string]interface{}{"error": err.Error()})
		return false
	}

	s.logger.Info("elected scheduler leader", nil)

	go func() {
		<-session.Done()
		s.logger.Warn("etcd session expired, stepping down as scheduler leader", nil)
		s.Stop()
	}()

	return true
}

// loop wakes every 30 seconds, whatever the job intervals are, and fires
// each job that has never run or whose Interval has elapsed since its last
// run. A job therefore fires up to 30 seconds after it falls due, and the
// first pass happens 30 seconds after the loop starts.
func (s *Scheduler) loop(ctx context.Context) {
	const tick = 30 * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for _, job := range s.jobs {
				if job.lastRun.IsZero() || now.Sub(job.lastRun) >= job.Interval {
					job.lastRun = now
					s.fire(ctx, job)
				}
			}
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, job *ScheduledJob) {
	_, err := s.queue.Enqueue(ctx, job.TaskType, job.Args, EnqueueOptions{Priority: job.Priority})
	if err != nil {
		s.logger.Error("failed to enqueue scheduled job", map[string]interface{}{"job": job.Name, "error": err.Error()})
		return
	}
	s.logger.Debug("scheduled job fired", map[string]interface{}{"job": job.Name, "task_type": job.TaskType})
}
