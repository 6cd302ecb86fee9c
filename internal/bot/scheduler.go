package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/statsbot/internal/bot/tasks"
	"github.com/edgard/statsbot/internal/config"
)

// Scheduler runs the configured tasks on their cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler for the tasks in taskMap.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start schedules every enabled task and starts ticking. Tasks flagged
// run_on_start also run right away.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	scheduledCount := 0
	if s.cfg != nil {
		for taskName, taskConfig := range s.cfg.Tasks {
			if s.schedule(taskName, taskConfig) {
				scheduledCount++
			}
		}
	}
	if scheduledCount == 0 {
		s.logger.Warn("No scheduler tasks configured.")
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduledCount)
	return nil
}

func (s *Scheduler) schedule(taskName string, taskConfig config.TaskConfig) bool {
	if !taskConfig.Enabled {
		s.logger.Info("Skipping disabled task", "task_name", taskName)
		return false
	}

	taskFunc, exists := s.taskMap[taskName]
	if !exists {
		s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
		return false
	}

	opts := []gocron.JobOption{
		gocron.WithName(taskName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if taskConfig.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(taskConfig.Schedule, true),
		gocron.NewTask(s.run, taskName, taskFunc),
		opts...,
	)
	if err != nil {
		s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
		return false
	}

	s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule, "run_on_start", taskConfig.RunOnStart)
	return true
}

// run wraps a task with logging. The task context ends when Stop is called.
func (s *Scheduler) run(name string, taskFunc tasks.ScheduledTaskFunc) {
	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()
	if err := taskFunc(s.ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err, "duration", time.Since(startTime))
		return
	}
	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
