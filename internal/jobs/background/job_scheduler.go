package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"homelyquad/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

const StalePendingReminderJob = "stale-pending-reminder"

// StaleRequestReminder is the part of the maintenance service the scheduler drives.
type StaleRequestReminder interface {
	RemindStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// ReminderOptions configures the stale pending reminder.
type ReminderOptions struct {
	Interval   time.Duration
	OlderThan  time.Duration
	BatchLimit int
}

// JobScheduler runs periodic maintenance jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	reminder  StaleRequestReminder
	opts      ReminderOptions
	jobs      map[string]gocron.Job
	log       *slog.Logger
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the reminder job registered.
func NewJobScheduler(reminder StaleRequestReminder, opts ReminderOptions, schedulerOpts ...gocron.SchedulerOption) (*JobScheduler, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("reminder interval must be positive")
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 100
	}

	scheduler, err := gocron.NewScheduler(schedulerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		reminder:  reminder,
		opts:      opts,
		jobs:      make(map[string]gocron.Job),
		log:       logger.WithService("scheduler"),
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info("Starting background job scheduler", "jobs", len(js.jobs))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.log.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.opts.Interval),
		gocron.NewTask(js.remindStalePending),
		gocron.WithName(StalePendingReminderJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", StalePendingReminderJob, err)
	}

	js.mu.Lock()
	js.jobs[StalePendingReminderJob] = job
	js.mu.Unlock()
	return nil
}

// remindStalePending is bounded by the job interval so a hung store cannot pile up runs.
func (js *JobScheduler) remindStalePending() error {
	ctx, cancel := context.WithTimeout(context.Background(), js.opts.Interval)
	defer cancel()

	sent, err := js.reminder.RemindStalePending(ctx, js.opts.OlderThan, js.opts.BatchLimit)
	if err != nil {
		js.log.Error("Stale pending reminder failed", "job", StalePendingReminderJob, "error", err)
		return err
	}
	if sent > 0 {
		js.log.Info("Sent stale pending reminders", "job", StalePendingReminderJob, "count", sent)
	}
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job.RunNow()
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]map[string]interface{}, 0, len(js.jobs))
	for name, job := range js.jobs {
		entry := map[string]interface{}{"name": name}
		if next, err := job.NextRun(); err == nil {
			entry["next_run"] = next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			entry["last_run"] = last
		}
		jobs = append(jobs, entry)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
