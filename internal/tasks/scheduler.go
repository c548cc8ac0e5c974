package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"

	"launchkit/internal/config"
	"launchkit/internal/utils/logger"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	statsCron string
	logger    *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(cfg config.RedisConfig, tasks config.TasksConfig, logger *logger.Logger) (*Scheduler, error) {
	if err := ValidateCron(tasks.StatsCron); err != nil {
		return nil, err
	}
	return &Scheduler{
		scheduler: asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{}),
		statsCron: tasks.StatsCron,
		logger:    logger,
	}, nil
}

// Start registers the periodic tasks and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Start()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

func (s *Scheduler) registerTasks() error {
	if err := s.RegisterCustomTask(s.statsCron, TaskTypeStatsSnapshot, []byte("{}"), statsOptions()...); err != nil {
		return err
	}
	s.logger.Info("registered all periodic tasks")
	return nil
}

// RegisterCustomTask registers a custom periodic task
func (s *Scheduler) RegisterCustomTask(spec string, taskType string, payload []byte, opts ...asynq.Option) error {
	entryID, err := s.scheduler.Register(spec, asynq.NewTask(taskType, payload, opts...))
	if err != nil {
		return fmt.Errorf("failed to register custom task: %w", err)
	}

	s.logger.Info("registered custom task %s %s %s", taskType, spec, entryID)
	return nil
}
