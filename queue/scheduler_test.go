package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinela-labs/sentinela/logging"
)

func TestDefaultJobs_SeedsExpectedTaskTypes(t *testing.T) {
	jobs := DefaultJobs()
	taskTypes := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		taskTypes[j.TaskType] = true
		assert.True(t, j.Interval > 0, "job %q must have a positive interval", j.Name)
	}

	for _, want := range []string{
		"queue.clear_completed",
		"system.health_ping",
		"monitor.scan_new_contracts",
		"monitor.scan_priority_organizations",
		"monitor.historical_reanalysis",
		"monitor.health_probe",
		"monitor.external_source_scan",
		"monitor.external_source_health_probe",
	} {
		assert.True(t, taskTypes[want], "expected seeded job for task type %q", want)
	}
}

func TestScheduler_FireEnqueuesJobAndDoesNotAdvanceLastRun(t *testing.T) {
	q := newTestQueue()
	job := &ScheduledJob{Name: "probe", Interval: time.Minute, TaskType: "system.health_ping", Priority: Low}
	sched := NewScheduler(q, []*ScheduledJob{job}, nil, &logging.NoOpLogger{})

	sched.fire(context.Background(), job)

	assert.Equal(t, 1, q.Stats().PendingTasks)
	assert.True(t, job.LastRun().IsZero(), "fire itself does not stamp lastRun; loop does")
}

func TestScheduler_JobsReturnsLiveBackingSlice(t *testing.T) {
	jobs := []*ScheduledJob{{Name: "a", Interval: time.Minute, TaskType: "t"}}
	sched := NewScheduler(newTestQueue(), jobs, nil, &logging.NoOpLogger{})

	got := sched.Jobs()
	require.Len(t, got, 1)
	got[0].lastRun = time.Unix(1000, 0)
	assert.Equal(t, time.Unix(1000, 0), jobs[0].LastRun())
}

func TestScheduler_StartStopWithoutEtcdIsIdempotent(t *testing.T) {
	sched := NewScheduler(newTestQueue(), nil, nil, &logging.NoOpLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	sched.Stop()
	sched.Stop()
}
